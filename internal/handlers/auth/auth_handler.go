// internal/handlers/auth/auth_handler.go
package auth

import (
	"errors"
	"net/http"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/user"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/middleware"
	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/ratelimit"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/response"
	service "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	limiter     *ratelimit.Limiter
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, limiter *ratelimit.Limiter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter, logger: logger}
}

// Register creates a buyer or seller account
func (h *AuthHandler) Register(c *gin.Context) {
	var input user.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &input)
	if err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			response.Error(c, http.StatusConflict, "email already registered", err)
			return
		}
		response.Error(c, http.StatusBadRequest, "failed to register", err)
		return
	}

	response.Success(c, http.StatusCreated, "account created", result)
}

// Login authenticates a user and returns a token
func (h *AuthHandler) Login(c *gin.Context) {
	var input user.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	allowed, _, err := h.limiter.CheckLoginAttempt(c.Request.Context(), c.ClientIP(), input.Email)
	if err != nil {
		h.logger.Warn("login rate limit check failed", zap.Error(err))
	} else if !allowed {
		response.Error(c, http.StatusTooManyRequests, "too many login attempts", nil)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &input)
	if err != nil {
		if errors.Is(err, xerrors.ErrUnauthorized) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to login", err)
		return
	}

	response.Success(c, http.StatusOK, "logged in", result)
}

// GetMe returns the authenticated user's profile
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	u, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}

	response.Success(c, http.StatusOK, "profile retrieved", u)
}
