package repository

import (
	"context"

	"volt-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository persists inventory items. Methods taking ownerID never
// return or touch rows of another user.
type InventoryRepository interface {
	WithTx(tx *gorm.DB) InventoryRepository
	Create(ctx context.Context, item *model.InventoryItem) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.InventoryItem, error)
	FindByOwner(ctx context.Context, ownerID, id uuid.UUID) (*model.InventoryItem, error)
	FindByOwnerAndProduct(ctx context.Context, ownerID uuid.UUID, productName, category string) (*model.InventoryItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.InventoryItem, error)
	Update(ctx context.Context, item *model.InventoryItem) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int, updatedBy string) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	Recategorize(ctx context.Context, ownerID uuid.UUID, from, to, updatedBy string) (int64, error)
}

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db}
}

func (r *inventoryRepo) WithTx(tx *gorm.DB) InventoryRepository {
	return &inventoryRepo{tx}
}

func (r *inventoryRepo) Create(ctx context.Context, item *model.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *inventoryRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *inventoryRepo) FindByOwner(ctx context.Context, ownerID, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ? AND user_id = ?", id, ownerID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepo) FindByOwnerAndProduct(ctx context.Context, ownerID uuid.UUID, productName, category string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND product_name = ? AND category = ?", ownerID, productName, category).
		Order("created_at ASC").
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByID is unscoped; the transfer engine uses it to resolve line items
// against the source store rather than a single owner.
func (r *inventoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindForUpdate locks the row until the surrounding transaction ends.
func (r *inventoryRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByStore returns every item owned by a user assigned to the store.
func (r *inventoryRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).
		Where("user_id IN (?)", r.db.Model(&model.User{}).Select("id").Where("store_id = ?", storeID)).
		Find(&items).Error
	return items, err
}

func (r *inventoryRepo) Update(ctx context.Context, item *model.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// UpdateQuantity must run inside the transaction that locked the row.
func (r *inventoryRepo) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int, updatedBy string) error {
	return r.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_by": updatedBy,
		}).Error
}

func (r *inventoryRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&model.InventoryItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *inventoryRepo) Recategorize(ctx context.Context, ownerID uuid.UUID, from, to, updatedBy string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Where("user_id = ? AND category = ?", ownerID, from).
		Updates(map[string]interface{}{
			"category":   to,
			"updated_by": updatedBy,
		})
	return result.RowsAffected, result.Error
}
