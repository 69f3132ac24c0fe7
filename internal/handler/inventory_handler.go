package handler

import (
	"volt-inventory/internal/middleware"
	"volt-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// GetItems GET /api/v1/inventory
func (h *InventoryHandler) GetItems(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"count": len(items), "data": items})
}

// GetItem GET /api/v1/inventory/:id
func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "inventory item")
	if err != nil {
		return err
	}

	item, err := h.service.Get(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"data": item})
}

// CreateItem POST /api/v1/inventory
func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	var req service.CreateItemInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	item, err := h.service.Create(c.UserContext(), middleware.Principal(c), req)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, fiber.Map{"data": item})
}

// UpdateItem applies a partial update
// PUT /api/v1/inventory/:id
func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "inventory item")
	if err != nil {
		return err
	}

	var req service.UpdateItemInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	item, err := h.service.Update(c.UserContext(), middleware.Principal(c), id, req)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"data": item})
}

// DeleteItem DELETE /api/v1/inventory/:id
func (h *InventoryHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "inventory item")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), middleware.Principal(c), id); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"data": fiber.Map{}})
}

// GetCategories GET /api/v1/inventory/categories
func (h *InventoryHandler) GetCategories(c *fiber.Ctx) error {
	return ok(c, fiber.StatusOK, fiber.Map{"data": h.service.Categories()})
}

// Recategorize moves the caller's items between categories
// PUT /api/v1/inventory/categories
func (h *InventoryHandler) Recategorize(c *fiber.Ctx) error {
	var req service.RecategorizeInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	updated, err := h.service.Recategorize(c.UserContext(), middleware.Principal(c), req)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"updated": updated})
}
