package repository

import (
	"context"
	"errors"

	"volt-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrMainStoreExists is returned by CreateMain when the company already has
// its MAIN store.
var ErrMainStoreExists = errors.New("company already has a main store")

type StoreRepository interface {
	WithTx(tx *gorm.DB) StoreRepository
	Create(ctx context.Context, store *model.Store) error
	CreateMain(ctx context.Context, store *model.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error)
	FindMain(ctx context.Context, companyID uuid.UUID) (*model.Store, error)
	FindByCode(ctx context.Context, companyID uuid.UUID, code string) (*model.Store, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Store, error)
	Update(ctx context.Context, store *model.Store) error
}

type storeRepo struct {
	db *gorm.DB
}

func NewStoreRepo(db *gorm.DB) StoreRepository {
	return &storeRepo{db}
}

func (r *storeRepo) WithTx(tx *gorm.DB) StoreRepository {
	return &storeRepo{tx}
}

func (r *storeRepo) Create(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

// CreateMain checks for an existing MAIN store and inserts the new one in
// the same transaction. Racing callers that pass the check are stopped by
// idx_one_main_store_per_company.
func (r *storeRepo) CreateMain(ctx context.Context, store *model.Store) error {
	store.StoreType = model.StoreTypeMain
	store.ParentStoreID = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Store{}).
			Where("company_id = ? AND store_type = ?", store.CompanyID, model.StoreTypeMain).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrMainStoreExists
		}
		return tx.Create(store).Error
	})
}

func (r *storeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	var store model.Store
	if err := r.db.WithContext(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) FindMain(ctx context.Context, companyID uuid.UUID) (*model.Store, error) {
	var store model.Store
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND store_type = ?", companyID, model.StoreTypeMain).
		First(&store).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) FindByCode(ctx context.Context, companyID uuid.UUID, code string) (*model.Store, error) {
	var store model.Store
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND store_code = ?", companyID, code).
		First(&store).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Store, error) {
	var stores []model.Store
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("store_type ASC, store_code ASC").
		Find(&stores).Error
	return stores, err
}

func (r *storeRepo) Update(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(store).Error
}
