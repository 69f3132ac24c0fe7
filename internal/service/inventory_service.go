package service

import (
	"context"
	"strings"

	"volt-inventory/internal/access"
	"volt-inventory/internal/apperror"
	"volt-inventory/internal/model"
	"volt-inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrItemNotFound     = apperror.NotFound("inventory item not found")
	ErrSKUTaken         = apperror.Conflict("SKU already exists")
	ErrInvalidCategory  = apperror.Validation("category must be one of the predefined categories")
	ErrNegativeQuantity = apperror.Validation("quantity cannot be negative")
	ErrNegativePrice    = apperror.Validation("unitPrice cannot be negative")
)

// InventoryService is the per-user ledger. Every read and write is limited
// to items owned by the calling principal.
type InventoryService interface {
	List(ctx context.Context, p *access.Principal) ([]model.InventoryItem, error)
	Get(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.InventoryItem, error)
	Create(ctx context.Context, p *access.Principal, input CreateItemInput) (*model.InventoryItem, error)
	Update(ctx context.Context, p *access.Principal, id uuid.UUID, input UpdateItemInput) (*model.InventoryItem, error)
	Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error
	Categories() []string
	Recategorize(ctx context.Context, p *access.Principal, input RecategorizeInput) (int64, error)
}

type CreateItemInput struct {
	ProductName string           `json:"productName" validate:"required,max=255"`
	Description string           `json:"description"`
	Category    string           `json:"category" validate:"required"`
	Quantity    *int             `json:"quantity" validate:"required"`
	UnitPrice   *decimal.Decimal `json:"unitPrice" validate:"required"`
	SKU         *string          `json:"sku" validate:"omitempty,max=64"`
	ImageURL    string           `json:"imageUrl" validate:"omitempty,max=512"`
}

// UpdateItemInput applies only the fields present in the request body.
type UpdateItemInput struct {
	ProductName *string          `json:"productName" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Quantity    *int             `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
	SKU         *string          `json:"sku" validate:"omitempty,max=64"`
	ImageURL    *string          `json:"imageUrl" validate:"omitempty,max=512"`
}

type RecategorizeInput struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

type inventoryService struct {
	inventoryRepo repository.InventoryRepository
	userRepo      repository.UserRepository
	log           *zap.Logger
}

func NewInventoryService(inventoryRepo repository.InventoryRepository, userRepo repository.UserRepository, log *zap.Logger) InventoryService {
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		userRepo:      userRepo,
		log:           log,
	}
}

func (s *inventoryService) List(ctx context.Context, p *access.Principal) ([]model.InventoryItem, error) {
	if err := access.Authorize(p, access.ActionInventoryRead, storeScope(p)); err != nil {
		return nil, err
	}

	items, err := s.inventoryRepo.ListByOwner(ctx, p.UserID)
	if err != nil {
		return nil, apperror.FromDB(err, "", "")
	}
	return items, nil
}

func (s *inventoryService) Get(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.InventoryItem, error) {
	if err := access.Authorize(p, access.ActionInventoryRead, storeScope(p)); err != nil {
		return nil, err
	}
	return s.loadOwned(ctx, p, access.ActionInventoryRead, id)
}

func (s *inventoryService) Create(ctx context.Context, p *access.Principal, input CreateItemInput) (*model.InventoryItem, error) {
	if err := access.Authorize(p, access.ActionInventoryWrite, storeScope(p)); err != nil {
		return nil, err
	}

	input.ProductName = strings.TrimSpace(input.ProductName)
	input.Category = strings.TrimSpace(input.Category)
	if err := validate(input); err != nil {
		return nil, err
	}
	if !model.IsValidCategory(input.Category) {
		return nil, ErrInvalidCategory
	}
	if *input.Quantity < 0 {
		return nil, ErrNegativeQuantity
	}
	if input.UnitPrice.IsNegative() {
		return nil, ErrNegativePrice
	}

	item := &model.InventoryItem{
		UserID:      p.UserID,
		ProductName: input.ProductName,
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Quantity:    *input.Quantity,
		UnitPrice:   input.UnitPrice.Round(2),
		SKU:         normalizeSKU(input.SKU),
		ImageURL:    strings.TrimSpace(input.ImageURL),
	}
	item.CreatedBy = actor(p)
	item.UpdatedBy = actor(p)

	if err := s.inventoryRepo.Create(ctx, item); err != nil {
		return nil, apperror.FromDB(err, "", ErrSKUTaken.Message)
	}
	return item, nil
}

func (s *inventoryService) Update(ctx context.Context, p *access.Principal, id uuid.UUID, input UpdateItemInput) (*model.InventoryItem, error) {
	if err := access.Authorize(p, access.ActionInventoryWrite, storeScope(p)); err != nil {
		return nil, err
	}
	if err := validate(input); err != nil {
		return nil, err
	}

	item, err := s.loadOwned(ctx, p, access.ActionInventoryWrite, id)
	if err != nil {
		return nil, err
	}

	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if !model.IsValidCategory(category) {
			return nil, ErrInvalidCategory
		}
		item.Category = category
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, ErrNegativeQuantity
		}
		item.Quantity = *input.Quantity
	}
	if input.UnitPrice != nil {
		if input.UnitPrice.IsNegative() {
			return nil, ErrNegativePrice
		}
		item.UnitPrice = input.UnitPrice.Round(2)
	}
	if input.SKU != nil {
		item.SKU = normalizeSKU(input.SKU)
	}
	applyString(&item.ProductName, input.ProductName)
	applyString(&item.Description, input.Description)
	applyString(&item.ImageURL, input.ImageURL)
	item.UpdatedBy = actor(p)

	if err := s.inventoryRepo.Update(ctx, item); err != nil {
		return nil, apperror.FromDB(err, ErrItemNotFound.Message, ErrSKUTaken.Message)
	}
	return item, nil
}

func (s *inventoryService) Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	if err := access.Authorize(p, access.ActionInventoryWrite, storeScope(p)); err != nil {
		return err
	}
	if _, err := s.loadOwned(ctx, p, access.ActionInventoryWrite, id); err != nil {
		return err
	}

	if err := s.inventoryRepo.Delete(ctx, p.UserID, id); err != nil {
		return apperror.FromDB(err, ErrItemNotFound.Message, "")
	}

	s.log.Info("inventory item deleted",
		zap.String("item_id", id.String()),
		zap.String("user_id", p.UserID.String()),
	)
	return nil
}

func (s *inventoryService) Categories() []string {
	categories := make([]string, len(model.Categories))
	copy(categories, model.Categories)
	return categories
}

// Recategorize moves every item of the caller from one category to another
// and returns how many were changed.
func (s *inventoryService) Recategorize(ctx context.Context, p *access.Principal, input RecategorizeInput) (int64, error) {
	if err := access.Authorize(p, access.ActionInventoryWrite, storeScope(p)); err != nil {
		return 0, err
	}

	input.From = strings.TrimSpace(input.From)
	input.To = strings.TrimSpace(input.To)
	if err := validate(input); err != nil {
		return 0, err
	}
	if !model.IsValidCategory(input.From) || !model.IsValidCategory(input.To) {
		return 0, ErrInvalidCategory
	}
	if input.From == input.To {
		return 0, apperror.Validation("from and to categories must differ")
	}

	updated, err := s.inventoryRepo.Recategorize(ctx, p.UserID, input.From, input.To, actor(p))
	if err != nil {
		return 0, apperror.FromDB(err, "", "")
	}
	return updated, nil
}

// loadOwned resolves the item and its owner, denies callers other than the
// owner, then re-reads the row through the owner-scoped query.
func (s *inventoryService) loadOwned(ctx context.Context, p *access.Principal, action access.Action, id uuid.UUID) (*model.InventoryItem, error) {
	item, err := s.inventoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, ErrItemNotFound.Message, "")
	}
	owner, err := s.userRepo.FindByID(ctx, item.UserID)
	if err != nil {
		return nil, apperror.FromDB(err, ErrItemNotFound.Message, "")
	}
	if err := access.Authorize(p, action, itemResource(item, owner)); err != nil {
		return nil, err
	}

	item, err = s.inventoryRepo.FindByOwner(ctx, p.UserID, id)
	if err != nil {
		return nil, apperror.FromDB(err, ErrItemNotFound.Message, "")
	}
	return item, nil
}

func itemResource(item *model.InventoryItem, owner *model.User) access.Resource {
	return access.Resource{
		CompanyID: owner.CompanyID,
		StoreID:   owner.StoreID,
		OwnerID:   item.UserID,
	}
}

// normalizeSKU trims the value; blank means no SKU, since SKUs are unique
// when present.
func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	v := strings.TrimSpace(*sku)
	if v == "" {
		return nil
	}
	return &v
}
