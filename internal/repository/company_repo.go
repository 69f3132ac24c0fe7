package repository

import (
	"context"

	"volt-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompanyRepository interface {
	WithTx(tx *gorm.DB) CompanyRepository
	Create(ctx context.Context, company *model.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, company *model.Company) error
	SetMainAdmin(ctx context.Context, companyID, userID uuid.UUID) error
}

type companyRepo struct {
	db *gorm.DB
}

func NewCompanyRepo(db *gorm.DB) CompanyRepository {
	return &companyRepo{db}
}

func (r *companyRepo) WithTx(tx *gorm.DB) CompanyRepository {
	return &companyRepo{tx}
}

func (r *companyRepo) Create(ctx context.Context, company *model.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *companyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Company{}).
		Where("LOWER(name) = LOWER(?)", name).
		Count(&count).Error
	return count > 0, err
}

func (r *companyRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Company{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

func (r *companyRepo) Update(ctx context.Context, company *model.Company) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(company).Error
}

func (r *companyRepo) SetMainAdmin(ctx context.Context, companyID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Company{}).
		Where("id = ?", companyID).
		Update("main_admin_id", userID).Error
}
