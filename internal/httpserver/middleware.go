package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todoapp/internal/model"
	"todoapp/internal/service/auth"
	"todoapp/internal/session"
	"todoapp/pkg/metrics"
	"todoapp/pkg/trace"
)

// PrincipalResolver maps a session token to a principal, hitting the
// session store on every call.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (*model.Principal, error)
}

// SessionMiddleware re-resolves the session cookie on every request and
// stores the principal in the gin context. No resolution, no handler:
// protected handlers are never reached without a principal.
func SessionMiddleware(resolver PrincipalResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(session.CookieName)
		if err != nil || token == "" {
			metrics.IncrementSessionResolution("missing")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			c.Abort()
			return
		}

		p, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				metrics.IncrementSessionResolution("invalid")
			} else {
				// session store unreachable: fail closed
				logger.Error("Session resolution failed", zap.Error(err))
				metrics.IncrementSessionResolution("error")
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			c.Abort()
			return
		}

		metrics.IncrementSessionResolution("ok")
		c.Set("principal", p)
		c.Next()
	}
}

// RequestLogger attaches a trace id to the request context and logs one
// line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		traceID := trace.FromHeader(c.GetHeader(trace.HeaderName()))
		if traceID == "" {
			traceID = trace.GenerateTraceID()
		}
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName(), traceID)

		c.Next()

		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("trace_id", traceID),
		)
	}
}

// Metrics records per-request duration labeled by route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
