package handler

import (
	"volt-inventory/internal/access"
	"volt-inventory/internal/middleware"
	"volt-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler the API serves.
type Handlers struct {
	Auth      *AuthHandler
	Store     *StoreHandler
	User      *UserHandler
	Inventory *InventoryHandler
	Transfer  *TransferHandler
	Health    *HealthHandler
}

// RegisterRoutes mounts the API under /api/v1. Role gates here are coarse;
// services repeat the check once the target resource is loaded.
func RegisterRoutes(app *fiber.App, h Handlers, authService service.AuthService) {
	api := app.Group("/api/v1")
	gate := middleware.RequireAction

	// ============ PUBLIC ROUTES ============
	api.Get("/health", h.Health.Health)

	auth := api.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/forgotpassword", h.Auth.ForgotPassword)
	auth.Put("/resetpassword/:token", h.Auth.ResetPassword)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(authService))

	protected.Get("/auth/me", h.Auth.Me)
	protected.Post("/auth/logout", h.Auth.Logout)
	protected.Post("/auth/change-password", h.Auth.ChangePassword)
	protected.Get("/auth/settings", h.Auth.GetSettings)
	protected.Put("/auth/settings", h.Auth.UpdateSettings)

	// Store Routes
	protected.Get("/stores", h.Store.GetStores)
	protected.Get("/stores/:id", h.Store.GetStore)
	protected.Get("/stores/:id/stats", h.Store.GetStoreStats)
	protected.Post("/stores", gate(access.ActionStoreCreate), h.Store.CreateStore)
	protected.Put("/stores/:id", gate(access.ActionStoreUpdate), h.Store.UpdateStore)
	protected.Delete("/stores/:id", gate(access.ActionStoreDeactivate), h.Store.DeactivateStore)

	// User Management Routes
	protected.Get("/users", gate(access.ActionUserList), h.User.GetUsers)
	protected.Get("/users/store/:storeId", h.User.GetUsersByStore)
	protected.Get("/users/:id", h.User.GetUser)
	protected.Post("/users", gate(access.ActionUserCreate), h.User.CreateUser)
	protected.Put("/users/:id", gate(access.ActionUserUpdate), h.User.UpdateUser)
	protected.Delete("/users/:id", gate(access.ActionUserDeactivate), h.User.DeactivateUser)

	// Inventory Routes, always scoped to the caller's own items
	protected.Get("/inventory/categories", h.Inventory.GetCategories)
	protected.Put("/inventory/categories", h.Inventory.Recategorize)
	protected.Get("/inventory", h.Inventory.GetItems)
	protected.Get("/inventory/:id", h.Inventory.GetItem)
	protected.Post("/inventory", h.Inventory.CreateItem)
	protected.Put("/inventory/:id", h.Inventory.UpdateItem)
	protected.Delete("/inventory/:id", h.Inventory.DeleteItem)

	// Transfer Routes
	protected.Get("/transfers", h.Transfer.GetTransfers)
	protected.Get("/transfers/:id", h.Transfer.GetTransfer)
	protected.Post("/transfers", h.Transfer.CreateTransfer)
	protected.Put("/transfers/:id/approve", gate(access.ActionTransferApprove), h.Transfer.Approve)
	protected.Put("/transfers/:id/reject", gate(access.ActionTransferReject), h.Transfer.Reject)
	protected.Put("/transfers/:id/cancel", h.Transfer.Cancel)
	protected.Put("/transfers/:id/dispatch", h.Transfer.Dispatch)
	protected.Put("/transfers/:id/receive", h.Transfer.Receive)
}
