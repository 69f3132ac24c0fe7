package service

import (
	"context"
	"testing"

	"volt-inventory/internal/apperror"
	"volt-inventory/internal/model"
)

func TestSubstoreLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mainAdmin := h.register(t, "Acme", "owner@acme.test")

	store, err := h.stores.CreateSubstore(ctx, mainAdmin, CreateStoreInput{
		StoreCode:    " ss-001 ",
		StoreName:    "North",
		ContactEmail: "North@Acme.test",
	})
	if err != nil {
		t.Fatalf("CreateSubstore: %v", err)
	}
	if store.StoreCode != "SS-001" || store.StoreType != model.StoreTypeSubstore {
		t.Fatalf("store = %+v", store)
	}
	if store.ParentStoreID == nil || *store.ParentStoreID != mainAdmin.StoreID {
		t.Fatal("substore parent must be the main store")
	}

	_, err = h.stores.CreateSubstore(ctx, mainAdmin, CreateStoreInput{StoreCode: "SS-001", StoreName: "Again"})
	wantKind(t, err, apperror.KindConflict)
	_, err = h.stores.CreateSubstore(ctx, mainAdmin, CreateStoreInput{StoreCode: model.MainStoreCode, StoreName: "Fake main"})
	wantKind(t, err, apperror.KindConflict)
	_, err = h.stores.CreateSubstore(ctx, mainAdmin, CreateStoreInput{StoreName: "No code"})
	wantKind(t, err, apperror.KindValidation)

	name := "North Branch"
	updated, err := h.stores.UpdateStore(ctx, mainAdmin, store.ID, UpdateStoreInput{StoreName: &name})
	if err != nil || updated.StoreName != "North Branch" || updated.StoreCode != "SS-001" {
		t.Fatalf("UpdateStore = %+v, %v", updated, err)
	}

	deactivated, err := h.stores.DeactivateStore(ctx, mainAdmin, store.ID)
	if err != nil || deactivated.Status != model.StoreStatusInactive {
		t.Fatalf("DeactivateStore = %+v, %v", deactivated, err)
	}

	// No new admins or transfers for an inactive store.
	_, err = h.users.CreateUser(ctx, mainAdmin, CreateUserInput{
		FirstName: "A", LastName: "B", Email: "a@acme.test", StoreID: store.ID,
	})
	wantKind(t, err, apperror.KindDomain)

	active := "active"
	reactivated, err := h.stores.UpdateStore(ctx, mainAdmin, store.ID, UpdateStoreInput{Status: &active})
	if err != nil || !reactivated.IsActive() {
		t.Fatalf("reactivate = %+v, %v", reactivated, err)
	}
}

func TestMainStoreCannotBeDeactivated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mainAdmin := h.register(t, "Acme", "owner@acme.test")

	_, err := h.stores.DeactivateStore(ctx, mainAdmin, mainAdmin.StoreID)
	if err != ErrMainStoreDeactivation {
		t.Fatalf("DeactivateStore(main) = %v", err)
	}

	inactive := "INACTIVE"
	_, err = h.stores.UpdateStore(ctx, mainAdmin, mainAdmin.StoreID, UpdateStoreInput{Status: &inactive})
	wantKind(t, err, apperror.KindDomain)

	store, err := h.stores.GetStore(ctx, mainAdmin, mainAdmin.StoreID)
	if err != nil || !store.IsActive() {
		t.Fatalf("main store = %+v, %v", store, err)
	}
}

func TestStoreVisibility(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mainAdmin := h.register(t, "Acme", "owner@acme.test")
	north := h.onboard(t, mainAdmin, "SS-001", "north@acme.test")
	south := h.onboard(t, mainAdmin, "SS-002", "south@acme.test")
	other := h.register(t, "Globex", "owner@globex.test")

	all, err := h.stores.ListStores(ctx, mainAdmin)
	if err != nil || len(all) != 3 {
		t.Fatalf("main admin ListStores = %d, %v", len(all), err)
	}
	own, err := h.stores.ListStores(ctx, north)
	if err != nil || len(own) != 1 || own[0].ID != north.StoreID {
		t.Fatalf("substore ListStores = %+v, %v", own, err)
	}

	_, err = h.stores.GetStore(ctx, north, south.StoreID)
	wantKind(t, err, apperror.KindAuthz)
	_, err = h.stores.GetStore(ctx, other, north.StoreID)
	wantKind(t, err, apperror.KindAuthz)
	_, err = h.stores.CreateSubstore(ctx, north, CreateStoreInput{StoreCode: "SS-009", StoreName: "Rogue"})
	wantKind(t, err, apperror.KindAuthz)
	name := "Mine now"
	_, err = h.stores.UpdateStore(ctx, north, north.StoreID, UpdateStoreInput{StoreName: &name})
	wantKind(t, err, apperror.KindAuthz)
}

func TestStoreStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mainAdmin := h.register(t, "Acme", "owner@acme.test")
	subAdmin := h.onboard(t, mainAdmin, "SS-001", "sub@acme.test")

	h.createItem(t, mainAdmin, "Desk", 20, "150.00")
	lamp := h.createItem(t, mainAdmin, "Lamp", 4, "12.50")

	if _, err := h.transfers.Create(ctx, mainAdmin, CreateTransferInput{
		TransferType: "PUSH",
		ToStoreID:    &subAdmin.StoreID,
		Items:        []TransferItemInput{{InventoryID: lamp, Quantity: 2}},
	}); err != nil {
		t.Fatalf("Create transfer: %v", err)
	}
	if _, err := h.transfers.Create(ctx, subAdmin, CreateTransferInput{
		TransferType: "REQUEST",
		Items:        []TransferItemInput{{InventoryID: lamp, Quantity: 1}},
	}); err != nil {
		t.Fatalf("Create request: %v", err)
	}

	stats, err := h.stores.StoreStats(ctx, mainAdmin, mainAdmin.StoreID)
	if err != nil {
		t.Fatalf("StoreStats: %v", err)
	}
	if stats.Users != 1 || stats.Items != 2 || stats.TotalUnits != 24 || stats.LowStock != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if got := stats.Valuation.String(); got != "3050" {
		t.Fatalf("valuation = %s, want 3050", got)
	}
	if stats.Transfers.PendingOut != 1 {
		t.Fatalf("transfer counts = %+v", stats.Transfers)
	}

	subStats, err := h.stores.StoreStats(ctx, subAdmin, subAdmin.StoreID)
	if err != nil {
		t.Fatalf("substore StoreStats: %v", err)
	}
	if subStats.Items != 0 || subStats.Transfers.PendingIn != 1 || !subStats.Valuation.IsZero() {
		t.Fatalf("substore stats = %+v", subStats)
	}

	_, err = h.stores.StoreStats(ctx, subAdmin, mainAdmin.StoreID)
	wantKind(t, err, apperror.KindAuthz)
}
