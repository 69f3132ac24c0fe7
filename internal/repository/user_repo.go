package repository

import (
	"context"

	"volt-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByResetToken(ctx context.Context, hashedToken string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.User, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.User, error)
	CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error)
	UpdateTokenVersion(ctx context.Context, userID uuid.UUID, version string) error
	Lock(ctx context.Context, id uuid.UUID) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) WithTx(tx *gorm.DB) UserRepository {
	return &userRepo{tx}
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Store").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Store").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByResetToken looks a user up by the stored hash only and locks the
// row. Expiry is checked by the caller against its own clock.
func (r *userRepo) FindByResetToken(ctx context.Context, hashedToken string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reset_password_token = ?", hashedToken).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
}

func (r *userRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Preload("Store").
		Where("company_id = ?", companyID).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Preload("Store").
		Where("store_id = ?", storeID).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("store_id = ?", storeID).Count(&count).Error
	return count, err
}

func (r *userRepo) UpdateTokenVersion(ctx context.Context, userID uuid.UUID, version string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("token_version", version).Error
}

// Lock takes a row lock on the user until the surrounding transaction ends.
// It serializes work that may create rows owned by the user.
func (r *userRepo) Lock(ctx context.Context, id uuid.UUID) error {
	var user model.User
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&user, "id = ?", id).Error
}
