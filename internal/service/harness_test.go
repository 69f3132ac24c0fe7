package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"volt-inventory/internal/access"
	"volt-inventory/internal/apperror"
	"volt-inventory/internal/mail"
	"volt-inventory/internal/repository"
	"volt-inventory/internal/testutil"
	"volt-inventory/pkg/jwt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeMailer records messages, or fails every send when err is set.
type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// lastToken extracts the token from the most recent link sent to addr.
func (m *fakeMailer) lastToken(t *testing.T, addr string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To != addr {
			continue
		}
		body := m.sent[i].Body
		idx := strings.Index(body, "/reset-password/")
		if idx < 0 {
			t.Fatalf("no link in message to %s", addr)
		}
		rest := body[idx+len("/reset-password/"):]
		if end := strings.IndexAny(rest, " \n"); end >= 0 {
			rest = rest[:end]
		}
		return rest
	}
	t.Fatalf("no message sent to %s", addr)
	return ""
}

type harness struct {
	db        *gorm.DB
	mailer    *fakeMailer
	authImpl  *authService
	auth      AuthService
	stores    StoreService
	users     UserService
	inventory InventoryService
	transfers TransferService
	repos     struct {
		users     repository.UserRepository
		inventory repository.InventoryRepository
		transfers repository.TransferRepository
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	log := zap.NewNop()

	companyRepo := repository.NewCompanyRepo(db)
	storeRepo := repository.NewStoreRepo(db)
	userRepo := repository.NewUserRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	transferRepo := repository.NewTransferRepo(db)

	h := &harness{db: db, mailer: &fakeMailer{}}
	tokens := jwt.NewManager("test-secret", time.Hour, "volt-inventory-test")

	h.authImpl = NewAuthService(db, userRepo, companyRepo, storeRepo, tokens, h.mailer,
		AuthOptions{ResetTokenTTL: 10 * time.Minute, FrontendURL: "http://app.test"}, log).(*authService)
	h.auth = h.authImpl
	h.stores = NewStoreService(storeRepo, userRepo, inventoryRepo, transferRepo, log)
	h.users = NewUserService(userRepo, storeRepo, h.mailer,
		UserOptions{InviteTokenTTL: 72 * time.Hour, FrontendURL: "http://app.test"}, log)
	h.inventory = NewInventoryService(inventoryRepo, userRepo, log)
	h.transfers = NewTransferService(db, transferRepo, storeRepo, userRepo, inventoryRepo, log)

	h.repos.users = userRepo
	h.repos.inventory = inventoryRepo
	h.repos.transfers = transferRepo
	return h
}

// principal authenticates the token the way RequireAuth does.
func (h *harness) principal(t *testing.T, token string) *access.Principal {
	t.Helper()
	p, err := h.auth.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	return p
}

func (h *harness) register(t *testing.T, company, email string) *access.Principal {
	t.Helper()
	resp, err := h.auth.Register(context.Background(), RegisterInput{
		FirstName:   "Main",
		LastName:    "Admin",
		Email:       email,
		Password:    "secret123",
		CompanyName: company,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return h.principal(t, resp.Token)
}

// onboard creates a substore and returns the principal of its activated admin.
func (h *harness) onboard(t *testing.T, mainAdmin *access.Principal, code, email string) *access.Principal {
	t.Helper()
	ctx := context.Background()

	store, err := h.stores.CreateSubstore(ctx, mainAdmin, CreateStoreInput{StoreCode: code, StoreName: "Store " + code})
	if err != nil {
		t.Fatalf("CreateSubstore: %v", err)
	}
	created, err := h.users.CreateUser(ctx, mainAdmin, CreateUserInput{
		FirstName: "Sub",
		LastName:  "Admin",
		Email:     email,
		StoreID:   store.ID,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if !created.InviteSent {
		t.Fatal("invite was not sent")
	}

	resp, err := h.auth.ResetPassword(ctx, h.mailer.lastToken(t, email), "substore123")
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	return h.principal(t, resp.Token)
}

func (h *harness) createItem(t *testing.T, p *access.Principal, name string, qty int, price string) uuid.UUID {
	t.Helper()
	unitPrice := decimal.RequireFromString(price)
	item, err := h.inventory.Create(context.Background(), p, CreateItemInput{
		ProductName: name,
		Category:    "Electronics",
		Quantity:    &qty,
		UnitPrice:   &unitPrice,
	})
	if err != nil {
		t.Fatalf("Create item: %v", err)
	}
	return item.ID
}

func (h *harness) quantity(t *testing.T, id uuid.UUID) int {
	t.Helper()
	item, err := h.repos.inventory.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID(%s): %v", id, err)
	}
	return item.Quantity
}

func wantKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("got nil error, want %s", kind)
	}
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("got %T (%v), want *apperror.Error of kind %s", err, err, kind)
	}
	if appErr.Kind != kind {
		t.Fatalf("got %s (%s), want %s", appErr.Kind, appErr.Message, kind)
	}
}
