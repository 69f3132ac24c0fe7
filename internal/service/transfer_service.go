package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"volt-inventory/internal/access"
	"volt-inventory/internal/apperror"
	"volt-inventory/internal/model"
	"volt-inventory/internal/repository"
	"volt-inventory/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTransferNotFound     = apperror.NotFound("transfer not found")
	ErrTransferFinalized    = apperror.Domain("transfer already finalized")
	ErrInvalidTransition    = apperror.Domain("invalid transfer status transition")
	ErrSameStore            = apperror.Validation("source and destination stores must differ")
	ErrDestinationRequired  = apperror.Validation("toStoreId is required for PUSH transfers")
	ErrDestinationNotSub    = apperror.Validation("PUSH transfers must target a substore")
	ErrItemNotInSource      = apperror.Validation("inventory item does not belong to the source store")
	ErrDuplicateTransferRow = apperror.Validation("each inventory item may appear only once per transfer")
	ErrInvalidTransferType  = apperror.Validation("transferType must be PUSH, REQUEST or RETURN")
	ErrInvalidStatusFilter  = apperror.Validation("unknown transfer status")
)

// transitions lists the allowed moves out of each non-terminal status.
var transitions = map[model.TransferStatus][]model.TransferStatus{
	model.TransferPending:   {model.TransferApproved, model.TransferRejected, model.TransferCancelled},
	model.TransferApproved:  {model.TransferInTransit, model.TransferCancelled},
	model.TransferInTransit: {model.TransferReceived},
}

// CheckTransition reports whether a transfer may move from one status to
// another.
func CheckTransition(from, to model.TransferStatus) error {
	if from.Terminal() {
		return ErrTransferFinalized
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return ErrInvalidTransition
}

type TransferService interface {
	Create(ctx context.Context, p *access.Principal, input CreateTransferInput) (*model.InventoryTransfer, error)
	List(ctx context.Context, p *access.Principal, filter TransferListInput) ([]model.InventoryTransfer, error)
	Get(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.InventoryTransfer, error)
	Approve(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.InventoryTransfer, error)
	Reject(ctx context.Context, p *access.Principal, id uuid.UUID, reason string) (*model.InventoryTransfer, error)
	Cancel(ctx context.Context, p *access.Principal, id uuid.UUID, reason string) (*model.InventoryTransfer, error)
	Dispatch(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.InventoryTransfer, error)
	Receive(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.InventoryTransfer, error)
}

type CreateTransferInput struct {
	TransferType string              `json:"transferType" validate:"required"`
	ToStoreID    *uuid.UUID          `json:"toStoreId"`
	Items        []TransferItemInput `json:"items" validate:"required,min=1,dive"`
	Reason       string              `json:"reason" validate:"max=1000"`
}

type TransferItemInput struct {
	InventoryID uuid.UUID `json:"inventoryId" validate:"uuid_required"`
	Quantity    int       `json:"quantity" validate:"gte=1"`
}

type TransferListInput struct {
	Status       string `query:"status"`
	TransferType string `query:"type"`
}

type transferService struct {
	db            *gorm.DB
	transferRepo  repository.TransferRepository
	storeRepo     repository.StoreRepository
	userRepo      repository.UserRepository
	inventoryRepo repository.InventoryRepository
	log           *zap.Logger
	now           func() time.Time
}

func NewTransferService(
	db *gorm.DB,
	transferRepo repository.TransferRepository,
	storeRepo repository.StoreRepository,
	userRepo repository.UserRepository,
	inventoryRepo repository.InventoryRepository,
	log *zap.Logger,
) TransferService {
	return &transferService{
		db:            db,
		transferRepo:  transferRepo,
		storeRepo:     storeRepo,
		userRepo:      userRepo,
		inventoryRepo: inventoryRepo,
		log:           log,
		now:           utcNow,
	}
}

// transferResource pins the store whose admin performs the action first.
// Receipt belongs to the destination, everything else to the source.
func transferResource(action access.Action, t *model.InventoryTransfer) access.Resource {
	if action == access.ActionTransferReceive {
		return access.Resource{CompanyID: t.CompanyID, StoreID: t.ToStoreID, PeerStoreID: t.FromStoreID}
	}
	return access.Resource{CompanyID: t.CompanyID, StoreID: t.FromStoreID, PeerStoreID: t.ToStoreID}
}

func (s *transferService) Create(ctx context.Context, p *access.Principal, input CreateTransferInput) (*model.InventoryTransfer, error) {
	if err := access.Authorize(p, access.ActionTransferRead, companyScope(p)); err != nil {
		return nil, err
	}
	if err := validate(input); err != nil {
		return nil, err
	}

	transferType := model.TransferType(strings.ToUpper(strings.TrimSpace(input.TransferType)))
	if !transferType.Valid() {
		return nil, ErrInvalidTransferType
	}

	main, err := s.storeRepo.FindMain(ctx, p.CompanyID)
	if err != nil {
		return nil, apperror.FromDB(err, "main store not found", "")
	}

	var (
		action   access.Action
		from, to uuid.UUID
	)
	switch transferType {
	case model.TransferPush:
		if input.ToStoreID == nil || *input.ToStoreID == uuid.Nil {
			return nil, ErrDestinationRequired
		}
		action, from, to = access.ActionTransferPush, p.StoreID, *input.ToStoreID
	case model.TransferRequest:
		action, from, to = access.ActionTransferRequest, main.ID, p.StoreID
	case model.TransferReturn:
		action, from, to = access.ActionTransferReturn, p.StoreID, main.ID
	}

	// Coarse role gate before any store is looked up.
	if err := access.Authorize(p, action, companyScope(p)); err != nil {
		return nil, err
	}

	fromStore, err := s.storeRepo.FindByID(ctx, from)
	if err != nil {
		return nil, apperror.FromDB(err, ErrStoreNotFound.Message, "")
	}
	toStore, err := s.storeRepo.FindByID(ctx, to)
	if err != nil {
		return nil, apperror.FromDB(err, ErrStoreNotFound.Message, "")
	}

	// The caller's own store is the resource; the other endpoint is the peer.
	res := access.Resource{CompanyID: toStore.CompanyID, StoreID: from, PeerStoreID: to}
	if transferType == model.TransferRequest {
		res.StoreID, res.PeerStoreID = to, from
	}
	if err := access.Authorize(p, action, res); err != nil {
		return nil, err
	}
	if from == to {
		return nil, ErrSameStore
	}
	if transferType == model.TransferPush && (!fromStore.IsMain() || toStore.IsMain()) {
		return nil, ErrDestinationNotSub
	}
	if !fromStore.IsActive() || !toStore.IsActive() {
		return nil, ErrStoreInactive
	}

	items := make([]model.TransferItem, 0, len(input.Items))
	seen := make(map[uuid.UUID]bool, len(input.Items))
	for i, line := range input.Items {
		if seen[line.InventoryID] {
			return nil, ErrDuplicateTransferRow
		}
		seen[line.InventoryID] = true

		inv, err := s.inventoryRepo.FindByID(ctx, line.InventoryID)
		if err != nil {
			return nil, apperror.FromDB(err, ErrItemNotFound.Message, "")
		}
		owner, err := s.userRepo.FindByID(ctx, inv.UserID)
		if err != nil {
			return nil, apperror.FromDB(err, ErrItemNotFound.Message, "")
		}
		if owner.CompanyID != p.CompanyID || owner.StoreID != from {
			return nil, ErrItemNotInSource
		}

		items = append(items, model.TransferItem{
			Position:    i,
			InventoryID: inv.ID,
			ProductName: inv.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   inv.UnitPrice,
		})
	}

	requester := p.UserID
	transfer := &model.InventoryTransfer{
		CompanyID:    p.CompanyID,
		TransferType: transferType,
		FromStoreID:  from,
		ToStoreID:    to,
		Items:        items,
		Status:       model.TransferPending,
		Reason:       strings.TrimSpace(input.Reason),
		RequestedBy:  &requester,
	}
	if transferType == model.TransferPush {
		// Pushes are initiated by the main admin and need no approval.
		transfer.Status = model.TransferApproved
		transfer.ApprovedBy = &requester
	}
	transfer.CreatedBy = actor(p)
	transfer.UpdatedBy = actor(p)

	if err := s.transferRepo.Create(ctx, transfer); err != nil {
		return nil, apperror.FromDB(err, "", "")
	}

	s.log.Info("transfer created",
		zap.String("transfer_id", transfer.ID.String()),
		zap.String("type", string(transfer.TransferType)),
		zap.String("status", string(transfer.Status)),
		zap.String("from_store_id", from.String()),
		zap.String("to_store_id", to.String()),
	)

	return s.reload(ctx, transfer.ID)
}

func (s *transferService) List(ctx context.Context, p *access.Principal, input TransferListInput) ([]model.InventoryTransfer, error) {
	if err := access.Authorize(p, access.ActionTransferRead, companyScope(p)); err != nil {
		return nil, err
	}

	filter := repository.TransferFilter{CompanyID: p.CompanyID}
	if !p.IsMainAdmin() {
		storeID := p.StoreID
		filter.StoreID = &storeID
	}
	if input.Status != "" {
		status := model.TransferStatus(strings.ToUpper(input.Status))
		if _, ok := transitions[status]; !ok && !status.Terminal() {
			return nil, ErrInvalidStatusFilter
		}
		filter.Status = status
	}
	if input.TransferType != "" {
		transferType := model.TransferType(strings.ToUpper(input.TransferType))
		if !transferType.Valid() {
			return nil, ErrInvalidTransferType
		}
		filter.TransferType = transferType
	}

	transfers, err := s.transferRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.FromDB(err, "", "")
	}
	return transfers, nil
}

func (s *transferService) Get(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.InventoryTransfer, error) {
	transfer, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, ErrTransferNotFound.Message, "")
	}
	if err := access.Authorize(p, access.ActionTransferRead, transferResource(access.ActionTransferRead, transfer)); err != nil {
		return nil, err
	}
	return transfer, nil
}

func (s *transferService) Approve(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.InventoryTransfer, error) {
	return s.transition(ctx, p, id, access.ActionTransferApprove, model.TransferApproved,
		func(tx *gorm.DB, t *model.InventoryTransfer) error {
			approver := p.UserID
			t.ApprovedBy = &approver
			return nil
		})
}

func (s *transferService) Reject(ctx context.Context, p *access.Principal, id uuid.UUID, reason string) (*model.InventoryTransfer, error) {
	return s.transition(ctx, p, id, access.ActionTransferReject, model.TransferRejected,
		func(tx *gorm.DB, t *model.InventoryTransfer) error {
			if reason = strings.TrimSpace(reason); reason != "" {
				t.Reason = reason
			}
			return nil
		})
}

func (s *transferService) Cancel(ctx context.Context, p *access.Principal, id uuid.UUID, reason string) (*model.InventoryTransfer, error) {
	return s.transition(ctx, p, id, access.ActionTransferCancel, model.TransferCancelled,
		func(tx *gorm.DB, t *model.InventoryTransfer) error {
			if reason = strings.TrimSpace(reason); reason != "" {
				t.Reason = reason
			}
			return nil
		})
}

func (s *transferService) Dispatch(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.InventoryTransfer, error) {
	return s.transition(ctx, p, id, access.ActionTransferDispatch, model.TransferInTransit,
		func(tx *gorm.DB, t *model.InventoryTransfer) error {
			sentAt := s.now()
			t.SentAt = &sentAt
			return nil
		})
}

// Receive completes the transfer and reconciles the ledger: each source item
// is decremented and the receiving admin's matching item is incremented, or
// created with the snapshot price. Either every line moves or nothing does.
func (s *transferService) Receive(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.InventoryTransfer, error) {
	return s.transition(ctx, p, id, access.ActionTransferReceive, model.TransferReceived,
		func(tx *gorm.DB, t *model.InventoryTransfer) error {
			inventory := s.inventoryRepo.WithTx(tx)
			transfers := s.transferRepo.WithTx(tx)

			// Concurrent receipts for the same receiver wait here, so a
			// missing destination item is created only once.
			if err := s.userRepo.WithTx(tx).Lock(ctx, p.UserID); err != nil {
				return err
			}

			for i := range t.Items {
				line := &t.Items[i]

				source, err := inventory.FindForUpdate(ctx, line.InventoryID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return apperror.InsufficientStock(fmt.Sprintf("%s is no longer in stock at the source store", line.ProductName))
					}
					return err
				}
				if source.Quantity < line.Quantity {
					return apperror.InsufficientStock(fmt.Sprintf(
						"insufficient stock for %s: available %d, requested %d",
						source.ProductName, source.Quantity, line.Quantity,
					))
				}
				if err := inventory.UpdateQuantity(ctx, source.ID, source.Quantity-line.Quantity, actor(p)); err != nil {
					return err
				}

				dest, err := inventory.FindByOwnerAndProduct(ctx, p.UserID, source.ProductName, source.Category)
				switch {
				case err == nil:
					if err := inventory.UpdateQuantity(ctx, dest.ID, dest.Quantity+line.Quantity, actor(p)); err != nil {
						return err
					}
				case errors.Is(err, gorm.ErrRecordNotFound):
					dest = &model.InventoryItem{
						UserID:      p.UserID,
						ProductName: source.ProductName,
						Description: source.Description,
						Category:    source.Category,
						Quantity:    line.Quantity,
						UnitPrice:   line.UnitPrice,
						ImageURL:    source.ImageURL,
					}
					dest.CreatedBy = actor(p)
					dest.UpdatedBy = actor(p)
					if err := inventory.Create(ctx, dest); err != nil {
						return err
					}
				default:
					return err
				}

				destID := dest.ID
				line.DestinationInventoryID = &destID
				if err := transfers.UpdateItem(ctx, line); err != nil {
					return err
				}
			}

			receivedAt := s.now()
			t.ReceivedAt = &receivedAt
			return nil
		})
}

// transition loads and locks the transfer, authorizes the caller against it,
// checks the state machine, lets apply mutate it and saves it, all in one
// retried transaction.
func (s *transferService) transition(
	ctx context.Context,
	p *access.Principal,
	id uuid.UUID,
	action access.Action,
	next model.TransferStatus,
	apply func(tx *gorm.DB, t *model.InventoryTransfer) error,
) (*model.InventoryTransfer, error) {
	var previous model.TransferStatus

	err := database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		transfers := s.transferRepo.WithTx(tx)

		t, err := transfers.FindForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransferNotFound
			}
			return err
		}
		if err := access.Authorize(p, action, transferResource(action, t)); err != nil {
			return err
		}
		if err := CheckTransition(t.Status, next); err != nil {
			return err
		}

		previous = t.Status
		if err := apply(tx, t); err != nil {
			return err
		}
		t.Status = next
		t.UpdatedBy = actor(p)
		return transfers.Update(ctx, t)
	})
	if err != nil {
		return nil, apperror.FromDB(err, ErrTransferNotFound.Message, "")
	}

	s.log.Info("transfer status changed",
		zap.String("transfer_id", id.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
		zap.String("by", p.UserID.String()),
	)

	return s.reload(ctx, id)
}

func (s *transferService) reload(ctx context.Context, id uuid.UUID) (*model.InventoryTransfer, error) {
	transfer, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, ErrTransferNotFound.Message, "")
	}
	return transfer, nil
}
