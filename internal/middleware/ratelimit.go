package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragvault/ragvault/internal/pkg/errcode"
	"github.com/ragvault/ragvault/internal/pkg/response"
)

const limiterPruneThreshold = 4096

type rateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
}

// RateLimit allows one request per (ip, user, path) per window. Applied to
// the chat endpoint to keep the language-model backend from being hammered.
// A zero or negative window disables the limiter.
func RateLimit(window time.Duration) gin.HandlerFunc {
	limiter := &rateLimiter{
		window: window,
		seen:   make(map[string]time.Time),
	}
	return limiter.handle
}

func (l *rateLimiter) key(c *gin.Context) string {
	uid := "0"
	if v, ok := c.Get(ContextUserIDKey); ok {
		if id, ok := v.(string); ok && id != "" {
			uid = id
		}
	}
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	return strings.Join([]string{c.ClientIP(), uid, path}, "|")
}

func (l *rateLimiter) handle(c *gin.Context) {
	if l.window <= 0 {
		c.Next()
		return
	}
	key := l.key(c)
	now := time.Now()

	l.mu.Lock()
	if len(l.seen) > limiterPruneThreshold {
		for k, at := range l.seen {
			if now.Sub(at) >= l.window {
				delete(l.seen, k)
			}
		}
	}
	last, exists := l.seen[key]
	blocked := exists && now.Sub(last) < l.window
	if !blocked {
		l.seen[key] = now
	}
	l.mu.Unlock()

	if blocked {
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit", zap.String("key", key))
		response.Error(c, errcode.ErrTooMany, http.StatusText(http.StatusTooManyRequests))
		c.Abort()
		return
	}
	c.Next()
}
