package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkpay/internal/service"
)

// AuthHandler atiende el login.
type AuthHandler struct {
	logger  *zap.Logger
	auth    *service.AuthService
	metrics *Metrics
}

func NewAuthHandler(logger *zap.Logger, auth *service.AuthService, metrics *Metrics) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		auth:    auth,
		metrics: metrics,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	UserID      string `json:"user_id"`
}

// Login maneja POST /api/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid request body"})
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			h.metrics.observeLogin("invalid_request")
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Please enter both username and password"})
		case errors.Is(err, service.ErrInvalidCredentials):
			h.metrics.observeLogin("rejected")
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials"})
		case errors.Is(err, service.ErrRateLimited):
			h.metrics.observeLogin("throttled")
			c.JSON(http.StatusTooManyRequests, gin.H{"detail": "Too many failed login attempts. Try again later."})
		default:
			h.metrics.observeLogin("error")
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Login failed"})
		}
		return
	}

	h.metrics.observeLogin("success")
	c.JSON(http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		Username:    res.User.Username,
		UserID:      res.User.ID,
	})
}
