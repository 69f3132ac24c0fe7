package service

import (
	"context"
	"testing"

	"volt-inventory/internal/access"
	"volt-inventory/internal/apperror"
	"volt-inventory/internal/model"

	"github.com/google/uuid"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to model.TransferStatus
		want     error
	}{
		{model.TransferPending, model.TransferApproved, nil},
		{model.TransferPending, model.TransferRejected, nil},
		{model.TransferPending, model.TransferCancelled, nil},
		{model.TransferPending, model.TransferInTransit, ErrInvalidTransition},
		{model.TransferPending, model.TransferReceived, ErrInvalidTransition},
		{model.TransferApproved, model.TransferInTransit, nil},
		{model.TransferApproved, model.TransferCancelled, nil},
		{model.TransferApproved, model.TransferRejected, ErrInvalidTransition},
		{model.TransferInTransit, model.TransferReceived, nil},
		{model.TransferInTransit, model.TransferCancelled, ErrInvalidTransition},
		{model.TransferReceived, model.TransferCancelled, ErrTransferFinalized},
		{model.TransferRejected, model.TransferApproved, ErrTransferFinalized},
		{model.TransferCancelled, model.TransferPending, ErrTransferFinalized},
	}
	for _, tt := range tests {
		if got := CheckTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CheckTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

// Register, onboard a substore admin, push stock and receive it.
func TestPushTransferEndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mainAdmin := h.register(t, "Acme", "owner@acme.test")
	subAdmin := h.onboard(t, mainAdmin, "ss-001", "sub@acme.test")

	if subAdmin.Role != model.RoleSubstoreAdmin || subAdmin.StoreID == mainAdmin.StoreID {
		t.Fatalf("unexpected substore principal: %+v", subAdmin)
	}

	itemID := h.createItem(t, mainAdmin, "Router", 10, "49.90")

	transfer, err := h.transfers.Create(ctx, mainAdmin, CreateTransferInput{
		TransferType: "push",
		ToStoreID:    &subAdmin.StoreID,
		Items:        []TransferItemInput{{InventoryID: itemID, Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if transfer.Status != model.TransferApproved || transfer.ApprovedBy == nil {
		t.Fatalf("push should start APPROVED, got %s", transfer.Status)
	}
	if transfer.ToStore == nil || transfer.ToStore.StoreCode != "SS-001" {
		t.Fatal("destination store not loaded")
	}
	if got := transfer.Total().String(); got != "499" {
		t.Fatalf("snapshot total = %s, want 499", got)
	}

	// The receiver cannot dispatch and the sender cannot receive.
	_, err = h.transfers.Dispatch(ctx, subAdmin, transfer.ID)
	wantKind(t, err, apperror.KindAuthz)

	transfer, err = h.transfers.Dispatch(ctx, mainAdmin, transfer.ID)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if transfer.Status != model.TransferInTransit || transfer.SentAt == nil {
		t.Fatalf("after dispatch: %s", transfer.Status)
	}
	if h.quantity(t, itemID) != 10 {
		t.Fatal("stock moved before receipt")
	}

	_, err = h.transfers.Receive(ctx, mainAdmin, transfer.ID)
	wantKind(t, err, apperror.KindAuthz)

	transfer, err = h.transfers.Receive(ctx, subAdmin, transfer.ID)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if transfer.Status != model.TransferReceived || transfer.ReceivedAt == nil {
		t.Fatalf("after receive: %s", transfer.Status)
	}

	if got := h.quantity(t, itemID); got != 0 {
		t.Fatalf("source quantity = %d, want 0", got)
	}
	dest := transfer.Items[0].DestinationInventoryID
	if dest == nil {
		t.Fatal("destination item not recorded")
	}
	received, err := h.inventory.Get(ctx, subAdmin, *dest)
	if err != nil {
		t.Fatalf("Get destination: %v", err)
	}
	if received.Quantity != 10 || received.ProductName != "Router" || received.UnitPrice.String() != "49.9" {
		t.Fatalf("destination item = %+v", received)
	}

	// A second push of the same product tops up the receiver's line.
	more := h.createItem(t, mainAdmin, "Router", 4, "49.90")
	second, err := h.transfers.Create(ctx, mainAdmin, CreateTransferInput{
		TransferType: "PUSH",
		ToStoreID:    &subAdmin.StoreID,
		Items:        []TransferItemInput{{InventoryID: more, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if _, err := h.transfers.Dispatch(ctx, mainAdmin, second.ID); err != nil {
		t.Fatalf("second Dispatch: %v", err)
	}
	if _, err := h.transfers.Receive(ctx, subAdmin, second.ID); err != nil {
		t.Fatalf("second Receive: %v", err)
	}
	if got := h.quantity(t, *dest); got != 13 {
		t.Fatalf("receiver quantity = %d, want 13", got)
	}
	if got := h.quantity(t, more); got != 1 {
		t.Fatalf("source quantity = %d, want 1", got)
	}

	// Terminal transfers accept no further transitions.
	_, err = h.transfers.Cancel(ctx, mainAdmin, transfer.ID, "late")
	wantKind(t, err, apperror.KindDomain)
}

func TestReceiveInsufficientStock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mainAdmin := h.register(t, "Globex", "owner@globex.test")
	subAdmin := h.onboard(t, mainAdmin, "SS-001", "sub@globex.test")
	itemID := h.createItem(t, mainAdmin, "Cable", 10, "3.00")

	transfer, err := h.transfers.Create(ctx, mainAdmin, CreateTransferInput{
		TransferType: "PUSH",
		ToStoreID:    &subAdmin.StoreID,
		Items:        []TransferItemInput{{InventoryID: itemID, Quantity: 8}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := h.transfers.Dispatch(ctx, mainAdmin, transfer.ID); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	// Stock drops below the transfer quantity while the goods are on the way.
	five := 5
	if _, err := h.inventory.Update(ctx, mainAdmin, itemID, UpdateItemInput{Quantity: &five}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	_, err = h.transfers.Receive(ctx, subAdmin, transfer.ID)
	wantKind(t, err, apperror.KindInsufficientStock)

	got, err := h.transfers.Get(ctx, subAdmin, transfer.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.TransferInTransit || got.ReceivedAt != nil {
		t.Fatalf("failed receipt changed the transfer: %s", got.Status)
	}
	if got.Items[0].DestinationInventoryID != nil {
		t.Fatal("failed receipt recorded a destination")
	}
	if q := h.quantity(t, itemID); q != 5 {
		t.Fatalf("source quantity = %d, want 5", q)
	}
	items, err := h.inventory.List(ctx, subAdmin)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("receiver gained %d items", len(items))
	}
}

func TestRequestWorkflow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mainAdmin := h.register(t, "Initech", "owner@initech.test")
	subAdmin := h.onboard(t, mainAdmin, "SS-001", "sub@initech.test")
	itemID := h.createItem(t, mainAdmin, "Stapler", 6, "7.25")

	request := func() *model.InventoryTransfer {
		t.Helper()
		tr, err := h.transfers.Create(ctx, subAdmin, CreateTransferInput{
			TransferType: "REQUEST",
			Items:        []TransferItemInput{{InventoryID: itemID, Quantity: 2}},
			Reason:       "running low",
		})
		if err != nil {
			t.Fatalf("Create REQUEST: %v", err)
		}
		return tr
	}

	tr := request()
	if tr.Status != model.TransferPending || tr.FromStoreID != mainAdmin.StoreID || tr.ToStoreID != subAdmin.StoreID {
		t.Fatalf("request = %+v", tr)
	}

	// Substore admins cannot approve or reject.
	_, err := h.transfers.Approve(ctx, subAdmin, tr.ID)
	wantKind(t, err, apperror.KindAuthz)
	_, err = h.transfers.Reject(ctx, subAdmin, tr.ID, "")
	wantKind(t, err, apperror.KindAuthz)

	// A pending transfer cannot be dispatched.
	_, err = h.transfers.Dispatch(ctx, mainAdmin, tr.ID)
	wantKind(t, err, apperror.KindDomain)

	rejected, err := h.transfers.Reject(ctx, mainAdmin, tr.ID, "not now")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != model.TransferRejected || rejected.Reason != "not now" {
		t.Fatalf("rejected = %s %q", rejected.Status, rejected.Reason)
	}
	for name, op := range map[string]func() error{
		"approve":  func() error { _, err := h.transfers.Approve(ctx, mainAdmin, tr.ID); return err },
		"cancel":   func() error { _, err := h.transfers.Cancel(ctx, mainAdmin, tr.ID, ""); return err },
		"dispatch": func() error { _, err := h.transfers.Dispatch(ctx, mainAdmin, tr.ID); return err },
		"receive":  func() error { _, err := h.transfers.Receive(ctx, subAdmin, tr.ID); return err },
	} {
		if err := op(); err != ErrTransferFinalized {
			t.Errorf("%s on rejected transfer: got %v, want %v", name, err, ErrTransferFinalized)
		}
	}

	// A second request goes all the way through.
	tr = request()
	if _, err := h.transfers.Approve(ctx, mainAdmin, tr.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := h.transfers.Dispatch(ctx, mainAdmin, tr.ID); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if _, err := h.transfers.Receive(ctx, subAdmin, tr.ID); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if q := h.quantity(t, itemID); q != 4 {
		t.Fatalf("source quantity = %d, want 4", q)
	}

	// Substore admins only see transfers touching their store.
	list, err := h.transfers.List(ctx, subAdmin, TransferListInput{Status: "received"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != tr.ID {
		t.Fatalf("List = %d transfers", len(list))
	}
	_, err = h.transfers.List(ctx, subAdmin, TransferListInput{Status: "LOST"})
	wantKind(t, err, apperror.KindValidation)
}

func TestCreateTransferValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mainAdmin := h.register(t, "Hooli", "owner@hooli.test")
	subAdmin := h.onboard(t, mainAdmin, "SS-001", "sub@hooli.test")
	mainItem := h.createItem(t, mainAdmin, "Phone", 5, "100")
	subItem := h.createItem(t, subAdmin, "Case", 5, "10")

	other := h.register(t, "Pied Piper", "owner@piedpiper.test")
	otherSub := h.onboard(t, other, "SS-001", "sub@piedpiper.test")

	tests := []struct {
		name  string
		p     func() *access.Principal
		input CreateTransferInput
		kind  apperror.Kind
	}{
		{
			name:  "unknown type",
			p:     func() *access.Principal { return mainAdmin },
			input: CreateTransferInput{TransferType: "GIFT", ToStoreID: &subAdmin.StoreID, Items: []TransferItemInput{{InventoryID: mainItem, Quantity: 1}}},
			kind:  apperror.KindValidation,
		},
		{
			name:  "push without destination",
			p:     func() *access.Principal { return mainAdmin },
			input: CreateTransferInput{TransferType: "PUSH", Items: []TransferItemInput{{InventoryID: mainItem, Quantity: 1}}},
			kind:  apperror.KindValidation,
		},
		{
			name:  "push by substore admin",
			p:     func() *access.Principal { return subAdmin },
			input: CreateTransferInput{TransferType: "PUSH", ToStoreID: &mainAdmin.StoreID, Items: []TransferItemInput{{InventoryID: subItem, Quantity: 1}}},
			kind:  apperror.KindAuthz,
		},
		{
			name:  "push to own store",
			p:     func() *access.Principal { return mainAdmin },
			input: CreateTransferInput{TransferType: "PUSH", ToStoreID: &mainAdmin.StoreID, Items: []TransferItemInput{{InventoryID: mainItem, Quantity: 1}}},
			kind:  apperror.KindValidation,
		},
		{
			name:  "push to another company",
			p:     func() *access.Principal { return mainAdmin },
			input: CreateTransferInput{TransferType: "PUSH", ToStoreID: &otherSub.StoreID, Items: []TransferItemInput{{InventoryID: mainItem, Quantity: 1}}},
			kind:  apperror.KindAuthz,
		},
		{
			name:  "request by main admin",
			p:     func() *access.Principal { return mainAdmin },
			input: CreateTransferInput{TransferType: "REQUEST", Items: []TransferItemInput{{InventoryID: mainItem, Quantity: 1}}},
			kind:  apperror.KindValidation,
		},
		{
			name:  "return with item from the main store",
			p:     func() *access.Principal { return subAdmin },
			input: CreateTransferInput{TransferType: "RETURN", Items: []TransferItemInput{{InventoryID: mainItem, Quantity: 1}}},
			kind:  apperror.KindValidation,
		},
		{
			name: "duplicate line",
			p:    func() *access.Principal { return subAdmin },
			input: CreateTransferInput{TransferType: "RETURN", Items: []TransferItemInput{
				{InventoryID: subItem, Quantity: 1},
				{InventoryID: subItem, Quantity: 2},
			}},
			kind: apperror.KindValidation,
		},
		{
			name:  "zero quantity",
			p:     func() *access.Principal { return subAdmin },
			input: CreateTransferInput{TransferType: "RETURN", Items: []TransferItemInput{{InventoryID: subItem, Quantity: 0}}},
			kind:  apperror.KindValidation,
		},
		{
			name:  "no items",
			p:     func() *access.Principal { return subAdmin },
			input: CreateTransferInput{TransferType: "RETURN"},
			kind:  apperror.KindValidation,
		},
		{
			name:  "unknown item",
			p:     func() *access.Principal { return subAdmin },
			input: CreateTransferInput{TransferType: "RETURN", Items: []TransferItemInput{{InventoryID: uuid.New(), Quantity: 1}}},
			kind:  apperror.KindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.transfers.Create(ctx, tt.p(), tt.input)
			wantKind(t, err, tt.kind)
		})
	}

	// A valid return from the substore is accepted as PENDING.
	tr, err := h.transfers.Create(ctx, subAdmin, CreateTransferInput{
		TransferType: "RETURN",
		Items:        []TransferItemInput{{InventoryID: subItem, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("RETURN: %v", err)
	}
	if tr.Status != model.TransferPending || tr.ToStoreID != mainAdmin.StoreID {
		t.Fatalf("return = %+v", tr)
	}

	// Other companies cannot see it.
	_, err = h.transfers.Get(ctx, other, tr.ID)
	wantKind(t, err, apperror.KindAuthz)
	list, err := h.transfers.List(ctx, other, TransferListInput{})
	if err != nil || len(list) != 0 {
		t.Fatalf("other company List = %d, %v", len(list), err)
	}

	// The requester may cancel while it is pending.
	cancelled, err := h.transfers.Cancel(ctx, subAdmin, tr.ID, "changed my mind")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != model.TransferCancelled {
		t.Fatalf("status = %s", cancelled.Status)
	}
}
