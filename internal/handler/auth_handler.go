package handler

import (
	"volt-inventory/internal/middleware"
	"volt-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// Register creates a company, its main store and the main admin
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	return ok(c, fiber.StatusCreated, fiber.Map{"token": resp.Token, "user": resp.User})
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return err
	}

	return ok(c, fiber.StatusOK, fiber.Map{"token": resp.Token, "user": resp.User})
}

// Logout revokes the presented token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.Principal(c)); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"message": "Logged out"})
}

// Me returns the caller's profile
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	profile, err := h.authService.Profile(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"user": profile.User, "company": profile.Company})
}

// ForgotPassword emails a reset link
// POST /api/v1/auth/forgotpassword
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.authService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}

	return ok(c, fiber.StatusOK, fiber.Map{"message": "Email sent"})
}

// ResetPassword consumes a reset or setup token
// PUT /api/v1/auth/resetpassword/:token
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.ResetPassword(c.UserContext(), c.Params("token"), req.Password)
	if err != nil {
		return err
	}

	return ok(c, fiber.StatusOK, fiber.Map{"token": resp.Token, "user": resp.User})
}

// ChangePassword handles password change for the signed in user
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req service.ChangePasswordInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.ChangePassword(c.UserContext(), middleware.Principal(c), req)
	if err != nil {
		return err
	}

	return ok(c, fiber.StatusOK, fiber.Map{"token": resp.Token, "user": resp.User})
}

// GetSettings GET /api/v1/auth/settings
func (h *AuthHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.authService.Settings(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"data": settings})
}

// UpdateSettings PUT /api/v1/auth/settings
func (h *AuthHandler) UpdateSettings(c *fiber.Ctx) error {
	var req service.SettingsInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	settings, err := h.authService.UpdateSettings(c.UserContext(), middleware.Principal(c), req)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"data": settings})
}
