package access

import (
	"errors"
	"testing"

	"volt-inventory/internal/apperror"
	"volt-inventory/internal/model"
	"volt-inventory/pkg/jwt"

	"github.com/google/uuid"
)

type fixture struct {
	company, otherCompany uuid.UUID
	mainStore, subStore   uuid.UUID
	otherSub              uuid.UUID
	main, sub             *Principal
}

func newFixture() fixture {
	f := fixture{
		company:      uuid.New(),
		otherCompany: uuid.New(),
		mainStore:    uuid.New(),
		subStore:     uuid.New(),
		otherSub:     uuid.New(),
	}
	f.main = &Principal{UserID: uuid.New(), CompanyID: f.company, StoreID: f.mainStore, Role: model.RoleMainAdmin}
	f.sub = &Principal{UserID: uuid.New(), CompanyID: f.company, StoreID: f.subStore, Role: model.RoleSubstoreAdmin}
	return f
}

func TestEvaluate(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name     string
		p        *Principal
		action   Action
		res      Resource
		wantKind apperror.Kind // empty means allowed
	}{
		{"anonymous login", nil, ActionLogin, Resource{}, ""},
		{"anonymous register", nil, ActionRegister, Resource{}, ""},
		{"anonymous health", nil, ActionHealth, Resource{}, ""},
		{"anonymous reset", nil, ActionResetPassword, Resource{}, ""},
		{"anonymous inventory", nil, ActionInventoryRead, Resource{}, apperror.KindAuth},
		{"anonymous store read", nil, ActionStoreRead, Resource{CompanyID: f.company}, apperror.KindAuth},

		{"main own company store", f.main, ActionStoreUpdate, Resource{CompanyID: f.company, StoreID: f.subStore}, ""},
		{"main other company", f.main, ActionStoreRead, Resource{CompanyID: f.otherCompany, StoreID: uuid.New()}, apperror.KindAuthz},
		{"main creates substore", f.main, ActionStoreCreate, Resource{CompanyID: f.company}, ""},
		{"main push", f.main, ActionTransferPush, Resource{CompanyID: f.company, StoreID: f.mainStore, PeerStoreID: f.subStore}, ""},
		{"main approves", f.main, ActionTransferApprove, Resource{CompanyID: f.company, StoreID: f.mainStore, PeerStoreID: f.subStore}, ""},

		{"sub own store read", f.sub, ActionStoreRead, Resource{CompanyID: f.company, StoreID: f.subStore}, ""},
		{"sub main store read", f.sub, ActionStoreRead, Resource{CompanyID: f.company, StoreID: f.mainStore}, apperror.KindAuthz},
		{"sub creates store", f.sub, ActionStoreCreate, Resource{CompanyID: f.company}, apperror.KindAuthz},
		{"sub updates own store", f.sub, ActionStoreUpdate, Resource{CompanyID: f.company, StoreID: f.subStore}, apperror.KindAuthz},
		{"sub creates user", f.sub, ActionUserCreate, Resource{CompanyID: f.company, StoreID: f.subStore}, apperror.KindAuthz},
		{"sub lists all users", f.sub, ActionUserList, Resource{CompanyID: f.company}, apperror.KindAuthz},
		{"sub lists own store users", f.sub, ActionUserListByStore, Resource{CompanyID: f.company, StoreID: f.subStore}, ""},
		{"sub approves", f.sub, ActionTransferApprove, Resource{CompanyID: f.company, StoreID: f.mainStore, PeerStoreID: f.subStore}, apperror.KindAuthz},
		{"sub pushes", f.sub, ActionTransferPush, Resource{CompanyID: f.company, StoreID: f.subStore, PeerStoreID: f.mainStore}, apperror.KindAuthz},
		{"sub requests", f.sub, ActionTransferRequest, Resource{CompanyID: f.company, StoreID: f.mainStore, PeerStoreID: f.subStore}, ""},
		{"sub reads own transfer", f.sub, ActionTransferRead, Resource{CompanyID: f.company, StoreID: f.mainStore, PeerStoreID: f.subStore}, ""},
		{"sub reads foreign transfer", f.sub, ActionTransferRead, Resource{CompanyID: f.company, StoreID: f.mainStore, PeerStoreID: f.otherSub}, apperror.KindAuthz},
		{"sub other company", f.sub, ActionStoreRead, Resource{CompanyID: f.otherCompany, StoreID: f.subStore}, apperror.KindAuthz},

		{"owner reads item", f.sub, ActionInventoryRead, Resource{CompanyID: f.company, StoreID: f.subStore, OwnerID: f.sub.UserID}, ""},
		{"main reads foreign item", f.main, ActionInventoryRead, Resource{CompanyID: f.company, StoreID: f.subStore, OwnerID: f.sub.UserID}, apperror.KindAuthz},
		{"sub writes foreign item", f.sub, ActionInventoryWrite, Resource{CompanyID: f.company, StoreID: f.subStore, OwnerID: uuid.New()}, apperror.KindAuthz},

		{"destination receives", f.sub, ActionTransferReceive, Resource{CompanyID: f.company, StoreID: f.subStore, PeerStoreID: f.mainStore}, ""},
		{"main receives for substore", f.main, ActionTransferReceive, Resource{CompanyID: f.company, StoreID: f.subStore, PeerStoreID: f.mainStore}, apperror.KindAuthz},
		{"source receives", f.sub, ActionTransferReceive, Resource{CompanyID: f.company, StoreID: f.mainStore, PeerStoreID: f.subStore}, apperror.KindAuthz},
		{"main dispatches own", f.main, ActionTransferDispatch, Resource{CompanyID: f.company, StoreID: f.mainStore, PeerStoreID: f.subStore}, ""},

		{"unknown role", &Principal{UserID: uuid.New(), CompanyID: f.company, StoreID: f.subStore, Role: "ROOT"}, ActionStoreRead, Resource{}, apperror.KindAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.p, tt.action, tt.res)
			if tt.wantKind == "" {
				if !d.Allowed {
					t.Fatalf("expected allow, got deny %s: %s", d.Kind, d.Reason)
				}
				return
			}
			if d.Allowed {
				t.Fatalf("expected deny %s, got allow", tt.wantKind)
			}
			if d.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", d.Kind, tt.wantKind)
			}
		})
	}
}

func TestSubstoreAdminDeniedOnOtherStores(t *testing.T) {
	f := newFixture()
	actions := []Action{
		ActionStoreRead, ActionStoreStats, ActionUserRead, ActionUserListByStore,
		ActionInventoryRead, ActionInventoryWrite, ActionTransferRead,
		ActionTransferRequest, ActionTransferReturn, ActionTransferCancel,
		ActionTransferDispatch, ActionTransferReceive,
		ActionStoreUpdate, ActionStoreDeactivate, ActionUserUpdate, ActionUserDeactivate,
	}
	stores := []uuid.UUID{f.mainStore, f.otherSub, uuid.New()}

	for _, action := range actions {
		for _, store := range stores {
			res := Resource{CompanyID: f.company, StoreID: store}
			d := Evaluate(f.sub, action, res)
			if d.Allowed || d.Kind != apperror.KindAuthz {
				t.Errorf("%s on store %s: got %+v, want authz denial", action, store, d)
			}
		}
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	f := newFixture()
	res := Resource{CompanyID: f.company, StoreID: f.mainStore}
	first := Evaluate(f.sub, ActionStoreRead, res)
	for i := 0; i < 5; i++ {
		if got := Evaluate(f.sub, ActionStoreRead, res); got != first {
			t.Fatalf("decision changed: %+v vs %+v", got, first)
		}
	}
}

func TestAuthorize(t *testing.T) {
	f := newFixture()

	if err := Authorize(f.main, ActionStoreCreate, Resource{CompanyID: f.company}); err != nil {
		t.Fatalf("main admin: %v", err)
	}

	err := Authorize(f.sub, ActionStoreCreate, Resource{CompanyID: f.company})
	if !errors.Is(err, apperror.ErrAuthz) {
		t.Fatalf("expected authz error, got %v", err)
	}

	err = Authorize(nil, ActionProfile, Resource{})
	if !errors.Is(err, apperror.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestPrincipalFromClaims(t *testing.T) {
	claims := &jwt.Claims{
		UserID:    uuid.New(),
		CompanyID: uuid.New(),
		StoreID:   uuid.New(),
		Email:     "a@b.co",
		Role:      string(model.RoleSubstoreAdmin),
	}
	p, err := PrincipalFromClaims(claims)
	if err != nil {
		t.Fatal(err)
	}
	if p.Role != model.RoleSubstoreAdmin || p.IsMainAdmin() {
		t.Errorf("unexpected principal %+v", p)
	}

	claims.Role = "OWNER"
	if _, err := PrincipalFromClaims(claims); !errors.Is(err, apperror.ErrAuth) {
		t.Errorf("expected auth error for unknown role, got %v", err)
	}
}
