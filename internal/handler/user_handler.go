package handler

import (
	"volt-inventory/internal/middleware"
	"volt-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetUsers returns every user of the caller's company
// GET /api/v1/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"count": len(users), "data": users})
}

// GetUsersByStore GET /api/v1/users/store/:storeId
func (h *UserHandler) GetUsersByStore(c *fiber.Ctx) error {
	storeID, err := parseID(c, "storeId", "store")
	if err != nil {
		return err
	}

	users, err := h.userService.ListUsersByStore(c.UserContext(), middleware.Principal(c), storeID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"count": len(users), "data": users})
}

// GetUser GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}

	user, err := h.userService.GetUser(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"data": user})
}

// CreateUser creates a store admin and emails the setup link
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	created, err := h.userService.CreateUser(c.UserContext(), middleware.Principal(c), req)
	if err != nil {
		return err
	}

	message := "User created, setup link sent"
	if !created.InviteSent {
		message = "User created, but the setup email could not be sent"
	}
	return ok(c, fiber.StatusCreated, fiber.Map{
		"message":    message,
		"data":       created.User,
		"inviteSent": created.InviteSent,
	})
}

// UpdateUser PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}

	var req service.UpdateUserInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.userService.UpdateUser(c.UserContext(), middleware.Principal(c), id, req)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"data": user})
}

// DeactivateUser DELETE /api/v1/users/:id
func (h *UserHandler) DeactivateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}

	user, err := h.userService.DeactivateUser(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"data": user})
}
