package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vaultgate/card-token-service/internal/dto"
	"github.com/vaultgate/card-token-service/internal/service"
	"github.com/vaultgate/card-token-service/internal/utils"
)

// AuthHandler handles account requests
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup handles account registration
// @Summary Register a new account
// @Description Register a new account with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SignupRequest true "Signup request"
// @Success 201 {object} dto.SignupResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail),
			errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, utils.ErrPasswordTooShort),
			errors.Is(err, utils.ErrPasswordNoUpper),
			errors.Is(err, utils.ErrPasswordNoLower),
			errors.Is(err, utils.ErrPasswordNoDigit):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Bad request",
				Message: err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "Internal server error",
				Message: "Failed to create account",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.SignupResponse{
		Message: "Account created successfully",
		UserID:  user.ID,
	})
}

// Login handles account authentication
// @Summary Login
// @Description Authenticate with email and password, returns a user token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	response, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: service.ErrInvalidCredentials.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "Failed to log in",
		})
		return
	}

	c.JSON(http.StatusOK, response)
}
