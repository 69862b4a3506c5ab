package handlers

import (
	"errors"
	"strings"

	"tapledger/internal/adapters/http/middleware"
	"tapledger/internal/adapters/persistence/models"
	"tapledger/internal/core/domain"
	"tapledger/internal/core/services"
	"tapledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration
// @Summary Register new user
// @Description Register a new user and issue a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.RegisterInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	}

	result, err := h.authService.Register(c.Context(), input)
	if err != nil {
		var fields *domain.FieldErrors
		switch {
		case errors.As(err, &fields):
			return response.UnprocessableEntity(c, "Validation failed", fields.Fields)
		default:
			return response.InternalServerError(c, "Registration failed")
		}
	}

	return response.Created(c, "User registered successfully", fiber.Map{
		"user":  result.User,
		"token": result.Token,
	})
}

// Login handles user login
// @Summary Login user
// @Description Authenticate a user and issue a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.LoginInput{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	}

	result, err := h.authService.Login(c.Context(), input)
	if err != nil {
		var fields *domain.FieldErrors
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid credentials")
		case errors.As(err, &fields):
			return response.UnprocessableEntity(c, "Validation failed", fields.Fields)
		default:
			return response.InternalServerError(c, "Login failed")
		}
	}

	return response.Success(c, "Login successful", fiber.Map{
		"user":  result.User,
		"token": result.Token,
	})
}

// Logout handles user logout
// @Summary Logout user
// @Description Revoke the presented bearer token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	plain, _ := c.Locals(middleware.LocalToken).(string)

	if err := h.authService.Logout(c.Context(), plain); err != nil {
		return response.InternalServerError(c, "Logout failed")
	}

	return response.Success(c, "Successfully logged out", nil)
}

// Me handles the current user endpoint
// @Summary Current user
// @Description Return the authenticated user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /user [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := c.Locals(middleware.LocalUser).(*models.User)
	if !ok {
		return response.Unauthorized(c, "Unauthenticated")
	}

	return response.Success(c, "User profile retrieved successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}
