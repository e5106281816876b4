package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todoapp/internal/config"
	"todoapp/internal/model"
	"todoapp/internal/service/auth"
	"todoapp/internal/session"
	"todoapp/pkg/logger"
	"todoapp/pkg/metrics"
)

type AuthService interface {
	SignIn(ctx context.Context, rawToken string) (string, *model.Principal, error)
	SignOut(ctx context.Context, token string) error
}

type AuthHandler struct {
	auth         AuthService
	cookieTTL    time.Duration
	cookieSecure bool
	logger       *zap.Logger
}

func NewAuthHandler(authService AuthService, cfg config.SessionConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:         authService,
		cookieTTL:    time.Duration(cfg.TTLMinutes) * time.Minute,
		cookieSecure: cfg.CookieSecure,
		logger:       logger,
	}
}

// SignIn handles POST /api/auth/signin. The body carries the identity
// provider's signed ID token; on success a session cookie is issued.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, principal, err := h.auth.SignIn(c.Request.Context(), req.IDToken)
	if err != nil {
		// fail closed: a store failure reads the same as a bad token
		if !errors.Is(err, auth.ErrInvalidToken) {
			logger.WithTrace(c.Request.Context(), h.logger).Error("Sign-in failed", zap.Error(err))
		}
		metrics.IncrementSignIn("failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign-in failed"})
		return
	}

	c.SetCookie(session.CookieName, token, int(h.cookieTTL.Seconds()), "/", "", h.cookieSecure, true)
	metrics.IncrementSignIn("ok")
	c.JSON(http.StatusOK, gin.H{"user": principal})
}

// SignOut handles POST /api/auth/signout. The session is invalidated
// server-side and the cookie expired; an absent cookie is a no-op.
func (h *AuthHandler) SignOut(c *gin.Context) {
	token, err := c.Cookie(session.CookieName)
	if err == nil && token != "" {
		if err := h.auth.SignOut(c.Request.Context(), token); err != nil {
			h.logger.Error("Sign-out failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sign-out failed"})
			return
		}
	}

	c.SetCookie(session.CookieName, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}
