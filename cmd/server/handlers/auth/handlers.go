package auth

import (
	"context"

	"skillmart/cmd/server/handlers/handlerutil"
	"skillmart/internal/services/auth"
	"skillmart/internal/services/users"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthService defines the interface for auth service
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*users.UserResponse, error)
	Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error)
	SendResetOTP(ctx context.Context, req auth.SendResetOTPRequest) (*auth.MessageResponse, error)
	ResetPasswordWithOTP(ctx context.Context, req auth.ResetPasswordRequest) (*auth.MessageResponse, error)
}

// Handlers contains the auth HTTP handlers
type Handlers struct {
	authService AuthService
	validator   *validator.Validate
}

// NewHandlers creates new auth handlers
func NewHandlers(authService AuthService, validator *validator.Validate) *Handlers {
	return &Handlers{
		authService: authService,
		validator:   validator,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.RegisterRequest true "Registration request"
// @Success 201 {object} users.UserResponse
// @Failure 400 {object} httperr.E
// @Router /register [post]
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req auth.RegisterRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Register"); err != nil {
		return err
	}

	resp, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "Register")
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles user authentication
// @Summary Authenticate a user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.LoginRequest true "Login request"
// @Success 200 {object} auth.LoginResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Router /login [post]
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Login"); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "Login")
	}

	return c.JSON(resp)
}

// SendResetOTP mails a password reset code
// @Summary Request a password reset code
// @Description Always answers 200 for a well-formed email so registered addresses are not revealed
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SendResetOTPRequest true "Email"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Router /send-reset-otp [post]
func (h *Handlers) SendResetOTP(c *fiber.Ctx) error {
	var req auth.SendResetOTPRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "SendResetOTP"); err != nil {
		return err
	}

	resp, err := h.authService.SendResetOTP(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "SendResetOTP")
	}

	return c.JSON(resp)
}

// ResetPasswordWithOTP redeems a reset code
// @Summary Reset password with a code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.ResetPasswordRequest true "Reset request"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Router /reset-password-otp [post]
func (h *Handlers) ResetPasswordWithOTP(c *fiber.Ctx) error {
	var req auth.ResetPasswordRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "ResetPasswordWithOTP"); err != nil {
		return err
	}

	resp, err := h.authService.ResetPasswordWithOTP(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(err, "ResetPasswordWithOTP")
	}

	return c.JSON(resp)
}
