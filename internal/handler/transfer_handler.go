package handler

import (
	"volt-inventory/internal/apperror"
	"volt-inventory/internal/middleware"
	"volt-inventory/internal/model"
	"volt-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TransferHandler struct {
	service service.TransferService
}

func NewTransferHandler(s service.TransferService) *TransferHandler {
	return &TransferHandler{service: s}
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// CreateTransfer POST /api/v1/transfers
func (h *TransferHandler) CreateTransfer(c *fiber.Ctx) error {
	var req service.CreateTransferInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	transfer, err := h.service.Create(c.UserContext(), middleware.Principal(c), req)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, fiber.Map{"data": transfer})
}

// GetTransfers lists transfers, optionally filtered by ?status= and ?type=
// GET /api/v1/transfers
func (h *TransferHandler) GetTransfers(c *fiber.Ctx) error {
	var filter service.TransferListInput
	if err := c.QueryParser(&filter); err != nil {
		return apperror.Validation("invalid query parameters")
	}

	transfers, err := h.service.List(c.UserContext(), middleware.Principal(c), filter)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"count": len(transfers), "data": transfers})
}

// GetTransfer GET /api/v1/transfers/:id
func (h *TransferHandler) GetTransfer(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "transfer")
	if err != nil {
		return err
	}

	transfer, err := h.service.Get(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"data": transfer})
}

// Approve PUT /api/v1/transfers/:id/approve
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "transfer")
	if err != nil {
		return err
	}
	return h.respond(c)(h.service.Approve(c.UserContext(), middleware.Principal(c), id))
}

// Reject PUT /api/v1/transfers/:id/reject
func (h *TransferHandler) Reject(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "transfer")
	if err != nil {
		return err
	}
	reason := h.reason(c)
	return h.respond(c)(h.service.Reject(c.UserContext(), middleware.Principal(c), id, reason))
}

// Cancel PUT /api/v1/transfers/:id/cancel
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "transfer")
	if err != nil {
		return err
	}
	reason := h.reason(c)
	return h.respond(c)(h.service.Cancel(c.UserContext(), middleware.Principal(c), id, reason))
}

// Dispatch PUT /api/v1/transfers/:id/dispatch
func (h *TransferHandler) Dispatch(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "transfer")
	if err != nil {
		return err
	}
	return h.respond(c)(h.service.Dispatch(c.UserContext(), middleware.Principal(c), id))
}

// Receive confirms receipt and moves the stock
// PUT /api/v1/transfers/:id/receive
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "transfer")
	if err != nil {
		return err
	}
	return h.respond(c)(h.service.Receive(c.UserContext(), middleware.Principal(c), id))
}

// reason reads an optional {reason} body; an empty or invalid body means
// no reason.
func (h *TransferHandler) reason(c *fiber.Ctx) string {
	var req reasonRequest
	if len(c.Body()) == 0 {
		return ""
	}
	if err := c.BodyParser(&req); err != nil {
		return ""
	}
	return req.Reason
}

func (h *TransferHandler) respond(c *fiber.Ctx) func(*model.InventoryTransfer, error) error {
	return func(transfer *model.InventoryTransfer, err error) error {
		if err != nil {
			return err
		}
		return ok(c, fiber.StatusOK, fiber.Map{"data": transfer})
	}
}
