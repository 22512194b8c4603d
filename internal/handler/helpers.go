package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragvault/ragvault/internal/ai"
	"github.com/ragvault/ragvault/internal/middleware"
	appErr "github.com/ragvault/ragvault/internal/pkg/errcode"
	sentinel "github.com/ragvault/ragvault/internal/pkg/errors"
	"github.com/ragvault/ragvault/internal/pkg/response"
)

func getTenantID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextTenantIDKey)
	tenantID, _ := value.(string)
	return tenantID
}

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("tenant_id", getTenantID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, sentinel.ErrAttestationFailed):
		response.Error(c, appErr.ErrAttestation, "attestation failed, key release denied")
	case errors.Is(err, sentinel.ErrIntegrity):
		response.Error(c, appErr.ErrIntegrity, "stored ciphertext failed integrity check")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, appErr.ErrAIUnavailable, "ai backend unavailable")
	case errors.Is(err, sentinel.ErrUnauthorized):
		response.Error(c, appErr.ErrUnauthorized, "unauthorized")
	case errors.Is(err, sentinel.ErrForbidden):
		response.Error(c, appErr.ErrForbidden, "forbidden")
	case errors.Is(err, sentinel.ErrNotFound):
		response.Error(c, appErr.ErrNotFound, "not found")
	case errors.Is(err, sentinel.ErrInvalid):
		response.Error(c, appErr.ErrInvalid, "invalid request")
	case errors.Is(err, sentinel.ErrConflict):
		response.Error(c, appErr.ErrConflict, "conflict")
	case errors.Is(err, sentinel.ErrStorage):
		response.Error(c, appErr.ErrUploadFailed, "blob storage failed")
	default:
		response.Error(c, appErr.ErrInternal, "internal error")
	}
}
