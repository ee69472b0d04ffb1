package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stitchline/stitchline-backend/internal/app/service"
	apperrors "github.com/stitchline/stitchline-backend/internal/errors"
	"github.com/stitchline/stitchline-backend/internal/middleware"
	"github.com/stitchline/stitchline-backend/pkg/redis"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Register creates a customer account.
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var input service.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid registration details")
		return
	}

	resp, err := ctrl.authService.Register(input)
	if err != nil {
		if errors.Is(err, service.ErrAccountExists) {
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "An account with this email already exists")
			return
		}
		log.Error("Failed to register user", err, nil)
		apperrors.InternalError(c, "Failed to register")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login exchanges credentials for a token pair.
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var input service.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Email and password are required")
		return
	}

	resp, err := ctrl.authService.Login(input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password")
			return
		}
		log.Error("Failed to log user in", err, nil)
		apperrors.InternalError(c, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout revokes the presented access token.
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		if err := redis.BlacklistToken(c.Request.Context(), parts[1], 0); err != nil {
			middleware.GetLoggerFromContext(c).Warn("Failed to blacklist token", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}

// GetProfile returns the authenticated user's profile.
// GET /api/v1/auth/me
func (ctrl *AuthController) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		apperrors.InternalError(c, "Failed to fetch profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// UpdateProfile patches the authenticated user's profile.
// PUT /api/v1/auth/me
func (ctrl *AuthController) UpdateProfile(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	var input service.UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid profile details")
		return
	}

	user, err := ctrl.authService.UpdateProfile(userID, input)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to update profile", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}
