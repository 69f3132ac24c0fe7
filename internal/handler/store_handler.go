package handler

import (
	"volt-inventory/internal/middleware"
	"volt-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type StoreHandler struct {
	service service.StoreService
}

func NewStoreHandler(s service.StoreService) *StoreHandler {
	return &StoreHandler{service: s}
}

// GetStores GET /api/v1/stores
func (h *StoreHandler) GetStores(c *fiber.Ctx) error {
	stores, err := h.service.ListStores(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"count": len(stores), "data": stores})
}

// GetStore GET /api/v1/stores/:id
func (h *StoreHandler) GetStore(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "store")
	if err != nil {
		return err
	}

	store, err := h.service.GetStore(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"data": store})
}

// CreateStore POST /api/v1/stores
func (h *StoreHandler) CreateStore(c *fiber.Ctx) error {
	var req service.CreateStoreInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	store, err := h.service.CreateSubstore(c.UserContext(), middleware.Principal(c), req)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, fiber.Map{"data": store})
}

// UpdateStore PUT /api/v1/stores/:id
func (h *StoreHandler) UpdateStore(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "store")
	if err != nil {
		return err
	}

	var req service.UpdateStoreInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	store, err := h.service.UpdateStore(c.UserContext(), middleware.Principal(c), id, req)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"data": store})
}

// DeactivateStore DELETE /api/v1/stores/:id
func (h *StoreHandler) DeactivateStore(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "store")
	if err != nil {
		return err
	}

	store, err := h.service.DeactivateStore(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"data": store})
}

// GetStoreStats returns overview statistics for one store
// GET /api/v1/stores/:id/stats
func (h *StoreHandler) GetStoreStats(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "store")
	if err != nil {
		return err
	}

	stats, err := h.service.StoreStats(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"data": stats})
}
