package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"volt-inventory/internal/apperror"
	"volt-inventory/internal/mail"
	"volt-inventory/internal/repository"
	"volt-inventory/internal/service"
	"volt-inventory/internal/testutil"
	"volt-inventory/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db := testutil.NewDB(t)
	log := zap.NewNop()
	mailer := mail.NewLogSender(log)

	companyRepo := repository.NewCompanyRepo(db)
	storeRepo := repository.NewStoreRepo(db)
	userRepo := repository.NewUserRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	transferRepo := repository.NewTransferRepo(db)

	tokens := jwt.NewManager("handler-secret", time.Hour, "volt-inventory-test")
	authService := service.NewAuthService(db, userRepo, companyRepo, storeRepo, tokens, mailer,
		service.AuthOptions{ResetTokenTTL: 10 * time.Minute, FrontendURL: "http://app.test"}, log)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	RegisterRoutes(app, Handlers{
		Auth:  NewAuthHandler(authService),
		Store: NewStoreHandler(service.NewStoreService(storeRepo, userRepo, inventoryRepo, transferRepo, log)),
		User: NewUserHandler(service.NewUserService(userRepo, storeRepo, mailer,
			service.UserOptions{InviteTokenTTL: time.Hour, FrontendURL: "http://app.test"}, log)),
		Inventory: NewInventoryHandler(service.NewInventoryService(inventoryRepo, userRepo, log)),
		Transfer:  NewTransferHandler(service.NewTransferService(db, transferRepo, storeRepo, userRepo, inventoryRepo, log)),
		Health:    NewHealthHandler(db),
	}, authService)
	return app
}

// call performs a request and decodes the JSON response body.
func call(t *testing.T, app *fiber.App, method, path, token, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode body: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Get("/validation", func(c *fiber.Ctx) error { return apperror.Validation("bad input") })
	app.Get("/conflict", func(c *fiber.Ctx) error { return apperror.Conflict("taken") })
	app.Get("/authz", func(c *fiber.Ctx) error { return apperror.Authz("nope") })
	app.Get("/stock", func(c *fiber.Ctx) error { return apperror.InsufficientStock("short") })
	app.Get("/internal", func(c *fiber.Ctx) error {
		return apperror.Internal("database error", errors.New("connection reset"))
	})
	app.Get("/plain", func(c *fiber.Ctx) error { return errors.New("boom") })

	tests := []struct {
		path    string
		status  int
		message string
	}{
		{"/validation", http.StatusBadRequest, "bad input"},
		{"/conflict", http.StatusConflict, "taken"},
		{"/authz", http.StatusForbidden, "nope"},
		{"/stock", http.StatusBadRequest, "short"},
		{"/internal", http.StatusInternalServerError, serverErrorMessage},
		{"/plain", http.StatusInternalServerError, serverErrorMessage},
		{"/missing", http.StatusNotFound, "Cannot GET /missing"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := call(t, app, http.MethodGet, tt.path, "", "")
			if status != tt.status {
				t.Fatalf("status = %d, want %d", status, tt.status)
			}
			if body["success"] != false || body["message"] != tt.message {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestAPIFlow(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, http.MethodGet, "/api/v1/health", "", "")
	if status != http.StatusOK || body["database"] != "up" {
		t.Fatalf("health = %d %v", status, body)
	}

	status, body = call(t, app, http.MethodPost, "/api/v1/auth/register", "", `{
		"firstName": "Ada", "lastName": "Lovelace", "email": "Ada@Acme.test",
		"password": "secret123", "companyName": "Acme"
	}`)
	if status != http.StatusCreated || body["success"] != true {
		t.Fatalf("register = %d %v", status, body)
	}
	if _, ok := body["token"].(string); !ok {
		t.Fatalf("register returned no token: %v", body)
	}

	status, _ = call(t, app, http.MethodPost, "/api/v1/auth/register", "", `{"firstName":`)
	if status != http.StatusBadRequest {
		t.Fatalf("malformed body = %d, want 400", status)
	}

	status, _ = call(t, app, http.MethodPost, "/api/v1/auth/login", "", `{"email":"ada@acme.test","password":"wrong"}`)
	if status != http.StatusUnauthorized {
		t.Fatalf("bad login = %d, want 401", status)
	}

	status, body = call(t, app, http.MethodPost, "/api/v1/auth/login", "", `{"email":"ADA@acme.test","password":"secret123"}`)
	if status != http.StatusOK {
		t.Fatalf("login = %d %v", status, body)
	}
	token := body["token"].(string)

	status, body = call(t, app, http.MethodGet, "/api/v1/auth/me", "", "")
	if status != http.StatusUnauthorized || body["success"] != false {
		t.Fatalf("me without token = %d %v", status, body)
	}
	status, _ = call(t, app, http.MethodGet, "/api/v1/auth/me", "not-a-jwt", "")
	if status != http.StatusUnauthorized {
		t.Fatalf("me with garbage token = %d, want 401", status)
	}

	status, body = call(t, app, http.MethodGet, "/api/v1/auth/me", token, "")
	if status != http.StatusOK {
		t.Fatalf("me = %d %v", status, body)
	}
	user, _ := body["user"].(map[string]interface{})
	if user["email"] != "ada@acme.test" {
		t.Fatalf("me user = %v", user)
	}

	status, body = call(t, app, http.MethodGet, "/api/v1/inventory/categories", token, "")
	if status != http.StatusOK {
		t.Fatalf("categories = %d", status)
	}
	if categories, _ := body["data"].([]interface{}); len(categories) != 16 {
		t.Fatalf("categories = %v", body["data"])
	}

	status, body = call(t, app, http.MethodPost, "/api/v1/inventory", token, `{
		"productName": "Cable", "category": "Electronics", "quantity": 4, "unitPrice": "2.50"
	}`)
	if status != http.StatusCreated {
		t.Fatalf("create item = %d %v", status, body)
	}

	status, body = call(t, app, http.MethodGet, "/api/v1/inventory", token, "")
	if status != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("list items = %d %v", status, body)
	}

	status, _ = call(t, app, http.MethodGet, "/api/v1/inventory/not-a-uuid", token, "")
	if status != http.StatusNotFound {
		t.Fatalf("malformed id = %d, want 404", status)
	}
	status, _ = call(t, app, http.MethodPut, "/api/v1/transfers/00000000-0000-0000-0000-000000000001/approve", token, "")
	if status != http.StatusNotFound {
		t.Fatalf("approve unknown transfer = %d, want 404", status)
	}

	status, _ = call(t, app, http.MethodPost, "/api/v1/auth/logout", token, "")
	if status != http.StatusOK {
		t.Fatalf("logout = %d", status)
	}
	status, _ = call(t, app, http.MethodGet, "/api/v1/auth/me", token, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("me after logout = %d, want 401", status)
	}
}
