package service

import (
	"context"
	"errors"
	"strings"

	"volt-inventory/internal/access"
	"volt-inventory/internal/apperror"
	"volt-inventory/internal/model"
	"volt-inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrStoreNotFound         = apperror.NotFound("store not found")
	ErrStoreCodeTaken        = apperror.Conflict("store code already exists")
	ErrMainStoreDeactivation = apperror.Domain("main store cannot be deactivated")
	ErrStoreInactive         = apperror.Domain("store is inactive")
	ErrInvalidStoreStatus    = apperror.Validation("status must be ACTIVE or INACTIVE")
)

type StoreService interface {
	CreateSubstore(ctx context.Context, p *access.Principal, input CreateStoreInput) (*model.Store, error)
	UpdateStore(ctx context.Context, p *access.Principal, id uuid.UUID, input UpdateStoreInput) (*model.Store, error)
	DeactivateStore(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.Store, error)
	ListStores(ctx context.Context, p *access.Principal) ([]model.Store, error)
	GetStore(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.Store, error)
	StoreStats(ctx context.Context, p *access.Principal, id uuid.UUID) (*StoreStats, error)
}

type CreateStoreInput struct {
	StoreCode    string `json:"storeCode" validate:"required,max=50"`
	StoreName    string `json:"storeName" validate:"required,max=255"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone string `json:"contactPhone"`
}

// UpdateStoreInput is a partial update; nil fields are left untouched.
type UpdateStoreInput struct {
	StoreName    *string `json:"storeName" validate:"omitempty,min=1,max=255"`
	Address      *string `json:"address"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	Country      *string `json:"country"`
	ContactEmail *string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone *string `json:"contactPhone"`
	Status       *string `json:"status"`
}

// StoreStats summarises a store's ledger and open transfers.
type StoreStats struct {
	StoreID    uuid.UUID                 `json:"storeId"`
	StoreName  string                    `json:"storeName"`
	StoreType  model.StoreType           `json:"storeType"`
	Users      int64                     `json:"users"`
	Items      int                       `json:"items"`
	TotalUnits int64                     `json:"totalUnits"`
	Valuation  decimal.Decimal           `json:"valuation"`
	LowStock   int                       `json:"lowStock"`
	Transfers  repository.TransferCounts `json:"transfers"`
}

type storeService struct {
	storeRepo     repository.StoreRepository
	userRepo      repository.UserRepository
	inventoryRepo repository.InventoryRepository
	transferRepo  repository.TransferRepository
	log           *zap.Logger
}

func NewStoreService(
	storeRepo repository.StoreRepository,
	userRepo repository.UserRepository,
	inventoryRepo repository.InventoryRepository,
	transferRepo repository.TransferRepository,
	log *zap.Logger,
) StoreService {
	return &storeService{
		storeRepo:     storeRepo,
		userRepo:      userRepo,
		inventoryRepo: inventoryRepo,
		transferRepo:  transferRepo,
		log:           log,
	}
}

func storeResource(store *model.Store) access.Resource {
	return access.Resource{CompanyID: store.CompanyID, StoreID: store.ID}
}

func (s *storeService) CreateSubstore(ctx context.Context, p *access.Principal, input CreateStoreInput) (*model.Store, error) {
	if err := access.Authorize(p, access.ActionStoreCreate, companyScope(p)); err != nil {
		return nil, err
	}

	input.StoreCode = strings.ToUpper(strings.TrimSpace(input.StoreCode))
	input.StoreName = strings.TrimSpace(input.StoreName)
	input.ContactEmail = model.NormalizeEmail(input.ContactEmail)
	if err := validate(input); err != nil {
		return nil, err
	}

	if _, err := s.storeRepo.FindByCode(ctx, p.CompanyID, input.StoreCode); err == nil {
		return nil, ErrStoreCodeTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.FromDB(err, "", "")
	}

	// The parent is always the company's main store.
	main, err := s.storeRepo.FindMain(ctx, p.CompanyID)
	if err != nil {
		return nil, apperror.FromDB(err, "main store not found", "")
	}

	store := &model.Store{
		CompanyID:     p.CompanyID,
		StoreCode:     input.StoreCode,
		StoreName:     input.StoreName,
		StoreType:     model.StoreTypeSubstore,
		ParentStoreID: &main.ID,
		Address:       strings.TrimSpace(input.Address),
		City:          strings.TrimSpace(input.City),
		State:         strings.TrimSpace(input.State),
		Country:       strings.TrimSpace(input.Country),
		ContactEmail:  input.ContactEmail,
		ContactPhone:  strings.TrimSpace(input.ContactPhone),
		Status:        model.StoreStatusActive,
	}
	store.CreatedBy = actor(p)
	store.UpdatedBy = actor(p)

	if err := s.storeRepo.Create(ctx, store); err != nil {
		return nil, apperror.FromDB(err, "", ErrStoreCodeTaken.Message)
	}

	s.log.Info("substore created",
		zap.String("company_id", store.CompanyID.String()),
		zap.String("store_id", store.ID.String()),
		zap.String("store_code", store.StoreCode),
	)
	return store, nil
}

func (s *storeService) UpdateStore(ctx context.Context, p *access.Principal, id uuid.UUID, input UpdateStoreInput) (*model.Store, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(p, access.ActionStoreUpdate, storeResource(store)); err != nil {
		return nil, err
	}
	if err := validate(input); err != nil {
		return nil, err
	}

	if input.Status != nil {
		status := model.StoreStatus(strings.ToUpper(strings.TrimSpace(*input.Status)))
		if status != model.StoreStatusActive && status != model.StoreStatusInactive {
			return nil, ErrInvalidStoreStatus
		}
		if status == model.StoreStatusInactive && store.IsMain() {
			return nil, ErrMainStoreDeactivation
		}
		store.Status = status
	}

	applyString(&store.StoreName, input.StoreName)
	applyString(&store.Address, input.Address)
	applyString(&store.City, input.City)
	applyString(&store.State, input.State)
	applyString(&store.Country, input.Country)
	applyString(&store.ContactPhone, input.ContactPhone)
	if input.ContactEmail != nil {
		store.ContactEmail = model.NormalizeEmail(*input.ContactEmail)
	}
	store.UpdatedBy = actor(p)

	if err := s.storeRepo.Update(ctx, store); err != nil {
		return nil, apperror.FromDB(err, ErrStoreNotFound.Message, ErrStoreCodeTaken.Message)
	}
	return store, nil
}

func (s *storeService) DeactivateStore(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.Store, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(p, access.ActionStoreDeactivate, storeResource(store)); err != nil {
		return nil, err
	}
	if store.IsMain() {
		return nil, ErrMainStoreDeactivation
	}

	store.Status = model.StoreStatusInactive
	store.UpdatedBy = actor(p)
	if err := s.storeRepo.Update(ctx, store); err != nil {
		return nil, apperror.FromDB(err, ErrStoreNotFound.Message, "")
	}

	s.log.Info("store deactivated", zap.String("store_id", store.ID.String()))
	return store, nil
}

func (s *storeService) ListStores(ctx context.Context, p *access.Principal) ([]model.Store, error) {
	if err := access.Authorize(p, access.ActionStoreRead, companyScope(p)); err != nil {
		return nil, err
	}

	if !p.IsMainAdmin() {
		store, err := s.load(ctx, p.StoreID)
		if err != nil {
			return nil, err
		}
		if err := access.Authorize(p, access.ActionStoreRead, storeResource(store)); err != nil {
			return nil, err
		}
		return []model.Store{*store}, nil
	}

	stores, err := s.storeRepo.ListByCompany(ctx, p.CompanyID)
	if err != nil {
		return nil, apperror.FromDB(err, "", "")
	}
	return stores, nil
}

func (s *storeService) GetStore(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.Store, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(p, access.ActionStoreRead, storeResource(store)); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *storeService) StoreStats(ctx context.Context, p *access.Principal, id uuid.UUID) (*StoreStats, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(p, access.ActionStoreStats, storeResource(store)); err != nil {
		return nil, err
	}

	stats := &StoreStats{
		StoreID:   store.ID,
		StoreName: store.StoreName,
		StoreType: store.StoreType,
		Valuation: decimal.Zero,
	}

	if stats.Users, err = s.userRepo.CountByStore(ctx, store.ID); err != nil {
		return nil, apperror.FromDB(err, "", "")
	}

	items, err := s.inventoryRepo.ListByStore(ctx, store.ID)
	if err != nil {
		return nil, apperror.FromDB(err, "", "")
	}
	stats.Items = len(items)
	for i := range items {
		stats.TotalUnits += int64(items[i].Quantity)
		stats.Valuation = stats.Valuation.Add(items[i].Value())
		if items[i].Quantity < model.LowStockThreshold {
			stats.LowStock++
		}
	}

	counts, err := s.transferRepo.CountsForStore(ctx, store.ID)
	if err != nil {
		return nil, apperror.FromDB(err, "", "")
	}
	stats.Transfers = *counts

	return stats, nil
}

func (s *storeService) load(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	store, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, ErrStoreNotFound.Message, "")
	}
	return store, nil
}
