package repository

import (
	"context"

	"volt-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransferRepository interface {
	WithTx(tx *gorm.DB) TransferRepository
	Create(ctx context.Context, transfer *model.InventoryTransfer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryTransfer, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryTransfer, error)
	List(ctx context.Context, filter TransferFilter) ([]model.InventoryTransfer, error)
	Update(ctx context.Context, transfer *model.InventoryTransfer) error
	UpdateItem(ctx context.Context, item *model.TransferItem) error
	CountsForStore(ctx context.Context, storeID uuid.UUID) (*TransferCounts, error)
}

// TransferFilter narrows List. CompanyID is mandatory; StoreID matches
// either endpoint.
type TransferFilter struct {
	CompanyID    uuid.UUID
	StoreID      *uuid.UUID
	Status       model.TransferStatus
	TransferType model.TransferType
}

// TransferCounts holds the open transfers touching one store.
type TransferCounts struct {
	PendingIn     int64 `json:"pendingIn"`
	PendingOut    int64 `json:"pendingOut"`
	InTransitIn   int64 `json:"inTransitIn"`
	InTransitOut  int64 `json:"inTransitOut"`
	ReceivedTotal int64 `json:"receivedTotal"`
}

type transferRepo struct {
	db *gorm.DB
}

func NewTransferRepo(db *gorm.DB) TransferRepository {
	return &transferRepo{db}
}

func (r *transferRepo) WithTx(tx *gorm.DB) TransferRepository {
	return &transferRepo{tx}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *transferRepo) Create(ctx context.Context, transfer *model.InventoryTransfer) error {
	return r.db.WithContext(ctx).Omit("FromStore", "ToStore").Create(transfer).Error
}

func (r *transferRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryTransfer, error) {
	var transfer model.InventoryTransfer
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Preload("FromStore").
		Preload("ToStore").
		First(&transfer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

// FindForUpdate locks the transfer row, then loads its items.
func (r *transferRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryTransfer, error) {
	var transfer model.InventoryTransfer
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&transfer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("transfer_id = ?", transfer.ID).
		Order("position ASC").
		Find(&transfer.Items).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepo) List(ctx context.Context, filter TransferFilter) ([]model.InventoryTransfer, error) {
	var transfers []model.InventoryTransfer
	query := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Preload("FromStore").
		Preload("ToStore").
		Where("company_id = ?", filter.CompanyID)

	if filter.StoreID != nil {
		query = query.Where("(from_store_id = ? OR to_store_id = ?)", *filter.StoreID, *filter.StoreID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TransferType != "" {
		query = query.Where("transfer_type = ?", filter.TransferType)
	}

	err := query.Order("created_at DESC").Find(&transfers).Error
	return transfers, err
}

func (r *transferRepo) Update(ctx context.Context, transfer *model.InventoryTransfer) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(transfer).Error
}

func (r *transferRepo) UpdateItem(ctx context.Context, item *model.TransferItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *transferRepo) CountsForStore(ctx context.Context, storeID uuid.UUID) (*TransferCounts, error) {
	var counts TransferCounts

	count := func(column string, status model.TransferStatus, dest *int64) error {
		return r.db.WithContext(ctx).Model(&model.InventoryTransfer{}).
			Where(column+" = ? AND status = ?", storeID, status).
			Count(dest).Error
	}

	if err := count("to_store_id", model.TransferPending, &counts.PendingIn); err != nil {
		return nil, err
	}
	if err := count("from_store_id", model.TransferPending, &counts.PendingOut); err != nil {
		return nil, err
	}
	if err := count("to_store_id", model.TransferInTransit, &counts.InTransitIn); err != nil {
		return nil, err
	}
	if err := count("from_store_id", model.TransferInTransit, &counts.InTransitOut); err != nil {
		return nil, err
	}
	if err := count("to_store_id", model.TransferReceived, &counts.ReceivedTotal); err != nil {
		return nil, err
	}

	return &counts, nil
}
