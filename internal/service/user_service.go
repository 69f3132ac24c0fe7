package service

import (
	"context"
	"strings"
	"time"

	"volt-inventory/internal/access"
	"volt-inventory/internal/apperror"
	"volt-inventory/internal/mail"
	"volt-inventory/internal/model"
	"volt-inventory/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound          = apperror.NotFound("user not found")
	ErrMainAdminImmutable    = apperror.Domain("main admin cannot be modified")
	ErrMainAdminDeactivation = apperror.Domain("main admin cannot be deactivated")
	ErrSubstoreRequired      = apperror.Validation("store admins must be assigned to a substore")
	ErrInvalidUserStatus     = apperror.Validation("status must be ACTIVE or INACTIVE")
	ErrPasswordNotSet        = apperror.Domain("user must set a password before activation")
)

type UserService interface {
	CreateUser(ctx context.Context, p *access.Principal, input CreateUserInput) (*CreatedUser, error)
	ListUsers(ctx context.Context, p *access.Principal) ([]model.UserResponse, error)
	ListUsersByStore(ctx context.Context, p *access.Principal, storeID uuid.UUID) ([]model.UserResponse, error)
	GetUser(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.UserResponse, error)
	UpdateUser(ctx context.Context, p *access.Principal, id uuid.UUID, input UpdateUserInput) (*model.UserResponse, error)
	DeactivateUser(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.UserResponse, error)
}

type CreateUserInput struct {
	FirstName string    `json:"firstName" validate:"required,max=100"`
	LastName  string    `json:"lastName" validate:"required,max=100"`
	Email     string    `json:"email" validate:"required,email"`
	StoreID   uuid.UUID `json:"storeId" validate:"uuid_required"`
}

type UpdateUserInput struct {
	FirstName *string    `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName  *string    `json:"lastName" validate:"omitempty,min=1,max=100"`
	Status    *string    `json:"status"`
	StoreID   *uuid.UUID `json:"storeId"`
}

// CreatedUser reports whether the setup link reached the new admin. When it
// did not, the setup token has been withdrawn and the admin must use the
// forgot password flow.
type CreatedUser struct {
	User       model.UserResponse `json:"user"`
	InviteSent bool               `json:"inviteSent"`
}

type UserOptions struct {
	InviteTokenTTL time.Duration
	FrontendURL    string
}

type userService struct {
	userRepo  repository.UserRepository
	storeRepo repository.StoreRepository
	mailer    mail.Sender
	opts      UserOptions
	log       *zap.Logger
	now       func() time.Time
}

func NewUserService(
	userRepo repository.UserRepository,
	storeRepo repository.StoreRepository,
	mailer mail.Sender,
	opts UserOptions,
	log *zap.Logger,
) UserService {
	return &userService{
		userRepo:  userRepo,
		storeRepo: storeRepo,
		mailer:    mailer,
		opts:      opts,
		log:       log,
		now:       utcNow,
	}
}

func userResource(u *model.User) access.Resource {
	return access.Resource{CompanyID: u.CompanyID, StoreID: u.StoreID}
}

func (s *userService) CreateUser(ctx context.Context, p *access.Principal, input CreateUserInput) (*CreatedUser, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = model.NormalizeEmail(input.Email)
	if err := validate(input); err != nil {
		return nil, err
	}

	store, err := s.storeRepo.FindByID(ctx, input.StoreID)
	if err != nil {
		return nil, apperror.FromDB(err, ErrStoreNotFound.Message, "")
	}
	if err := access.Authorize(p, access.ActionUserCreate, storeResource(store)); err != nil {
		return nil, err
	}
	if store.IsMain() {
		return nil, ErrSubstoreRequired
	}
	if !store.IsActive() {
		return nil, ErrStoreInactive
	}

	if taken, err := s.userRepo.ExistsByEmail(ctx, input.Email); err != nil {
		return nil, apperror.FromDB(err, "", "")
	} else if taken {
		return nil, ErrEmailTaken
	}

	// The account cannot sign in until the invitee sets a password through
	// the emailed link.
	placeholder, err := model.RandomHex(32)
	if err != nil {
		return nil, apperror.Internal("failed to generate password", err)
	}

	creatorID := p.UserID
	user := &model.User{
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Email:           input.Email,
		Role:            model.RoleSubstoreAdmin,
		CompanyID:       store.CompanyID,
		StoreID:         store.ID,
		Status:          model.UserStatusPending,
		IsFirstLogin:    true,
		DefaultCurrency: model.DefaultCurrency,
		TokenVersion:    uuid.NewString(),
		CreatedByUserID: &creatorID,
	}
	user.CreatedBy = actor(p)
	user.UpdatedBy = actor(p)
	if err := user.SetPassword(placeholder); err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	token, err := user.IssueResetToken(s.now(), s.opts.InviteTokenTTL)
	if err != nil {
		return nil, apperror.Internal("failed to generate setup token", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.FromDB(err, "", ErrEmailTaken.Message)
	}
	user.Store = store

	sent := true
	msg := mail.InviteMessage(user.Email, user.FullName(), store.StoreName, mail.ResetLink(s.opts.FrontendURL, token))
	if err := s.mailer.Send(ctx, msg); err != nil {
		sent = false
		s.log.Warn("invite email not delivered, withdrawing setup token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		user.ClearResetToken()
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, apperror.FromDB(err, ErrUserNotFound.Message, "")
		}
	}

	s.log.Info("store admin created",
		zap.String("user_id", user.ID.String()),
		zap.String("store_id", store.ID.String()),
		zap.Bool("invite_sent", sent),
	)

	return &CreatedUser{User: user.ToResponse(), InviteSent: sent}, nil
}

func (s *userService) ListUsers(ctx context.Context, p *access.Principal) ([]model.UserResponse, error) {
	if err := access.Authorize(p, access.ActionUserList, companyScope(p)); err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListByCompany(ctx, p.CompanyID)
	if err != nil {
		return nil, apperror.FromDB(err, "", "")
	}
	return toResponses(users), nil
}

func (s *userService) ListUsersByStore(ctx context.Context, p *access.Principal, storeID uuid.UUID) ([]model.UserResponse, error) {
	store, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, apperror.FromDB(err, ErrStoreNotFound.Message, "")
	}
	if err := access.Authorize(p, access.ActionUserListByStore, storeResource(store)); err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListByStore(ctx, store.ID)
	if err != nil {
		return nil, apperror.FromDB(err, "", "")
	}
	return toResponses(users), nil
}

func (s *userService) GetUser(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(p, access.ActionUserRead, userResource(user)); err != nil {
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) UpdateUser(ctx context.Context, p *access.Principal, id uuid.UUID, input UpdateUserInput) (*model.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(p, access.ActionUserUpdate, userResource(user)); err != nil {
		return nil, err
	}
	if user.IsMainAdmin() {
		return nil, ErrMainAdminImmutable
	}
	if err := validate(input); err != nil {
		return nil, err
	}

	revoke := false

	applyString(&user.FirstName, input.FirstName)
	applyString(&user.LastName, input.LastName)

	if input.Status != nil {
		status := model.UserStatus(strings.ToUpper(strings.TrimSpace(*input.Status)))
		if status != model.UserStatusActive && status != model.UserStatusInactive {
			return nil, ErrInvalidUserStatus
		}
		// Pending accounts become active only through the first password set.
		if status == model.UserStatusActive && status != user.Status &&
			(user.Status == model.UserStatusPending || user.IsFirstLogin) {
			return nil, ErrPasswordNotSet
		}
		if status != user.Status {
			user.Status = status
			revoke = true
		}
	}

	if input.StoreID != nil && *input.StoreID != user.StoreID {
		store, err := s.storeRepo.FindByID(ctx, *input.StoreID)
		if err != nil {
			return nil, apperror.FromDB(err, ErrStoreNotFound.Message, "")
		}
		if err := access.Authorize(p, access.ActionUserUpdate, storeResource(store)); err != nil {
			return nil, err
		}
		if store.IsMain() {
			return nil, ErrSubstoreRequired
		}
		if !store.IsActive() {
			return nil, ErrStoreInactive
		}
		user.StoreID = store.ID
		user.Store = store
		revoke = true
	}

	// Tokens carry the store and are only valid for active users.
	if revoke {
		user.TokenVersion = uuid.NewString()
	}
	user.UpdatedBy = actor(p)

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperror.FromDB(err, ErrUserNotFound.Message, "")
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) DeactivateUser(ctx context.Context, p *access.Principal, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(p, access.ActionUserDeactivate, userResource(user)); err != nil {
		return nil, err
	}
	if user.IsMainAdmin() {
		return nil, ErrMainAdminDeactivation
	}

	user.Status = model.UserStatusInactive
	user.TokenVersion = uuid.NewString()
	user.UpdatedBy = actor(p)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperror.FromDB(err, ErrUserNotFound.Message, "")
	}

	s.log.Info("user deactivated", zap.String("user_id", user.ID.String()))
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) load(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, ErrUserNotFound.Message, "")
	}
	return user, nil
}

func toResponses(users []model.User) []model.UserResponse {
	responses := make([]model.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}
	return responses
}
