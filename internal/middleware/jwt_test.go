package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ragvault/ragvault/internal/pkg/errcode"
	"github.com/ragvault/ragvault/internal/pkg/jwt"
)

func newAuthTestRouter(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/protected", JWTAuth(secret), func(c *gin.Context) {
		tenantID, _ := c.Get(ContextTenantIDKey)
		userID, _ := c.Get(ContextUserIDKey)
		c.JSON(http.StatusOK, gin.H{"code": 0, "tenant_id": tenantID, "user_id": userID})
	})
	return engine
}

func responseCode(t *testing.T, recorder *httptest.ResponseRecorder) int {
	t.Helper()
	var envelope struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Code
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	secret := []byte("middleware-secret")
	engine := newAuthTestRouter(secret)

	token, err := jwt.GenerateToken("tenant-a", "user-1", secret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Zero(t, responseCode(t, recorder))
	require.Contains(t, recorder.Body.String(), "tenant-a")
	require.Contains(t, recorder.Body.String(), "user-1")
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	engine := newAuthTestRouter([]byte("middleware-secret"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)

	require.Equal(t, errcode.ErrUnauthorized, responseCode(t, recorder))
}

func TestJWTAuthRejectsBadToken(t *testing.T) {
	secret := []byte("middleware-secret")
	engine := newAuthTestRouter(secret)

	other, err := jwt.GenerateToken("tenant-a", "user-1", []byte("another-secret"), time.Hour)
	require.NoError(t, err)

	for _, header := range []string{"Bearer garbage", "Basic abc", "Bearer " + other} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		recorder := httptest.NewRecorder()
		engine.ServeHTTP(recorder, req)
		require.Equal(t, errcode.ErrUnauthorized, responseCode(t, recorder), "header %q", header)
	}
}

func TestRateLimitBlocksBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/chat", RateLimit(time.Minute), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})

	first := httptest.NewRecorder()
	engine.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/chat", nil))
	require.Zero(t, responseCode(t, first))

	second := httptest.NewRecorder()
	engine.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/chat", nil))
	require.Equal(t, errcode.ErrTooMany, responseCode(t, second))
}

func TestRateLimitDisabledWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/chat", RateLimit(0), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})

	for i := 0; i < 3; i++ {
		recorder := httptest.NewRecorder()
		engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/chat", nil))
		require.Zero(t, responseCode(t, recorder))
	}
}
