// Package response wraps proxyutil so every endpoint answers with the same
// {code, msg, data} envelope over HTTP 200; failures carry an errcode value.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

type apiError struct {
	code    uint32
	message string
}

func (e apiError) Error() string {
	return e.message
}

func (e apiError) Code() uint32 {
	return e.code
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, http.StatusOK, apiError{code: uint32(code), message: message})
}
