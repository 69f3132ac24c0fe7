package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"volt-inventory/internal/access"
	"volt-inventory/internal/apperror"
	"volt-inventory/internal/mail"
	"volt-inventory/internal/model"
	"volt-inventory/internal/repository"
	"volt-inventory/pkg/database"
	"volt-inventory/pkg/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = apperror.Auth("invalid credentials")
	ErrInvalidResetToken  = apperror.Auth("invalid or expired token")
	ErrNotAuthorized      = apperror.Auth(access.MsgNotAuthorized)
	ErrWrongPassword      = apperror.Validation("current password is incorrect")
	ErrPasswordTooShort   = apperror.Validation("password must be at least 6 characters")
	ErrEmailTaken         = apperror.Conflict("email already registered")
	ErrCompanyTaken       = apperror.Conflict("company name already registered")
)

const minPasswordLength = 6

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResponse, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	Logout(ctx context.Context, p *access.Principal) error
	Authenticate(ctx context.Context, token string) (*access.Principal, error)
	Profile(ctx context.Context, p *access.Principal) (*ProfileResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) (*AuthResponse, error)
	ChangePassword(ctx context.Context, p *access.Principal, input ChangePasswordInput) (*AuthResponse, error)
	Settings(ctx context.Context, p *access.Principal) (*SettingsResponse, error)
	UpdateSettings(ctx context.Context, p *access.Principal, input SettingsInput) (*SettingsResponse, error)
}

type RegisterInput struct {
	FirstName   string `json:"firstName" validate:"required,max=100"`
	LastName    string `json:"lastName" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	CompanyName string `json:"companyName" validate:"required,max=255"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// SettingsInput is a partial update. Company fields need the main admin.
type SettingsInput struct {
	DefaultCurrency *string `json:"defaultCurrency" validate:"omitempty,max=50"`
	Phone           *string `json:"phone"`
	Address         *string `json:"address"`
	City            *string `json:"city"`
	State           *string `json:"state"`
	Country         *string `json:"country"`
	Industry        *string `json:"industry"`
	Website         *string `json:"website"`
}

func (in SettingsInput) touchesCompany() bool {
	return in.Phone != nil || in.Address != nil || in.City != nil || in.State != nil ||
		in.Country != nil || in.Industry != nil || in.Website != nil
}

type AuthResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type ProfileResponse struct {
	User    model.UserResponse `json:"user"`
	Company *model.Company     `json:"company"`
}

type SettingsResponse struct {
	DefaultCurrency string         `json:"defaultCurrency"`
	Company         *model.Company `json:"company"`
}

// AuthOptions carries the token lifetimes and link base used by AuthService.
type AuthOptions struct {
	ResetTokenTTL time.Duration
	FrontendURL   string
}

type authService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	storeRepo   repository.StoreRepository
	tokens      *jwt.Manager
	mailer      mail.Sender
	opts        AuthOptions
	log         *zap.Logger
	now         func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	storeRepo repository.StoreRepository,
	tokens *jwt.Manager,
	mailer mail.Sender,
	opts AuthOptions,
	log *zap.Logger,
) AuthService {
	return &authService{
		db:          db,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		storeRepo:   storeRepo,
		tokens:      tokens,
		mailer:      mailer,
		opts:        opts,
		log:         log,
		now:         utcNow,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.CompanyName = strings.TrimSpace(input.CompanyName)
	input.Email = model.NormalizeEmail(input.Email)
	if err := validate(input); err != nil {
		return nil, err
	}

	// Fast paths for a friendly message; the unique indexes decide races.
	if taken, err := s.userRepo.ExistsByEmail(ctx, input.Email); err != nil {
		return nil, apperror.FromDB(err, "", "")
	} else if taken {
		return nil, ErrEmailTaken
	}
	if taken, err := s.companyRepo.ExistsByName(ctx, input.CompanyName); err != nil {
		return nil, apperror.FromDB(err, "", "")
	} else if taken {
		return nil, ErrCompanyTaken
	}
	if taken, err := s.companyRepo.ExistsByEmail(ctx, input.Email); err != nil {
		return nil, apperror.FromDB(err, "", "")
	} else if taken {
		return nil, ErrEmailTaken
	}

	now := s.now()
	companyID := uuid.New()
	company := &model.Company{
		Name:  input.CompanyName,
		Code:  model.CompanyCode(input.CompanyName, companyID),
		Email: input.Email,
	}
	company.ID = companyID

	user := &model.User{
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Email:           input.Email,
		Role:            model.RoleMainAdmin,
		CompanyID:       companyID,
		Status:          model.UserStatusActive,
		IsFirstLogin:    false,
		DefaultCurrency: model.DefaultCurrency,
		PasswordSetAt:   &now,
		TokenVersion:    uuid.NewString(),
	}
	user.ID = uuid.New()
	if err := user.SetPassword(input.Password); err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	store := &model.Store{
		CompanyID: companyID,
		StoreCode: model.MainStoreCode,
		StoreName: input.CompanyName + " - Main Store",
		Status:    model.StoreStatusActive,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company.CreatedBy = user.ID.String()
		if err := s.companyRepo.WithTx(tx).Create(ctx, company); err != nil {
			return err
		}

		store.CreatedBy = user.ID.String()
		if err := s.storeRepo.WithTx(tx).CreateMain(ctx, store); err != nil {
			return err
		}

		user.StoreID = store.ID
		user.CreatedBy = user.ID.String()
		if err := s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}

		return s.companyRepo.WithTx(tx).SetMainAdmin(ctx, companyID, user.ID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrMainStoreExists) {
			return nil, apperror.Conflict("company already has a main store")
		}
		return nil, apperror.FromDB(err, "", "email or company already registered")
	}

	user.Store = store
	s.log.Info("company registered",
		zap.String("company_id", companyID.String()),
		zap.String("company_code", company.Code),
		zap.String("user_id", user.ID.String()),
	)

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, model.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.FromDB(err, "", "")
	}

	if user.Status != model.UserStatusActive || !user.CheckPassword(input.Password) {
		return nil, ErrInvalidCredentials
	}

	// Single session: a new login invalidates earlier tokens.
	user.TokenVersion = uuid.NewString()
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, user.TokenVersion); err != nil {
		return nil, apperror.FromDB(err, "", "")
	}

	return s.issue(user)
}

func (s *authService) Logout(ctx context.Context, p *access.Principal) error {
	if err := access.Authorize(p, access.ActionProfile, companyScope(p)); err != nil {
		return err
	}
	return apperror.FromDB(s.userRepo.UpdateTokenVersion(ctx, p.UserID, uuid.NewString()), "user not found", "")
}

// Authenticate turns a bearer token into a principal. Any failure yields the
// same AuthError so callers cannot tell which check failed.
func (s *authService) Authenticate(ctx context.Context, token string) (*access.Principal, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, ErrNotAuthorized
	}

	p, err := access.PrincipalFromClaims(claims)
	if err != nil {
		return nil, ErrNotAuthorized
	}

	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAuthorized
		}
		return nil, apperror.FromDB(err, "", "")
	}

	if user.Status != model.UserStatusActive ||
		user.TokenVersion != claims.TokenVersion ||
		user.CompanyID != p.CompanyID ||
		user.StoreID != p.StoreID ||
		user.Role != p.Role {
		return nil, ErrNotAuthorized
	}

	return p, nil
}

func (s *authService) Profile(ctx context.Context, p *access.Principal) (*ProfileResponse, error) {
	if err := access.Authorize(p, access.ActionProfile, companyScope(p)); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, apperror.FromDB(err, "user not found", "")
	}
	company, err := s.companyRepo.FindByID(ctx, user.CompanyID)
	if err != nil {
		return nil, apperror.FromDB(err, "company not found", "")
	}

	return &ProfileResponse{User: user.ToResponse(), Company: company}, nil
}

// ForgotPassword stores a fresh reset token and mails the link. A delivery
// failure is logged and the token stays valid.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = model.NormalizeEmail(email)
	if email == "" {
		return apperror.Validation("email is required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return apperror.FromDB(err, "there is no user with that email", "")
	}

	token, err := user.IssueResetToken(s.now(), s.opts.ResetTokenTTL)
	if err != nil {
		return apperror.Internal("failed to generate reset token", err)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperror.FromDB(err, "user not found", "")
	}

	msg := mail.PasswordResetMessage(user.Email, mail.ResetLink(s.opts.FrontendURL, token))
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Warn("password reset email not delivered",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) (*AuthResponse, error) {
	if len(newPassword) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if token == "" {
		return nil, ErrInvalidResetToken
	}

	var user *model.User
	err := database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)

		found, err := users.FindByResetToken(ctx, model.HashResetToken(token))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidResetToken
			}
			return err
		}

		now := s.now()
		if !found.ResetTokenValid(now) {
			return ErrInvalidResetToken
		}

		if err := found.SetPassword(newPassword); err != nil {
			return apperror.Internal("failed to hash password", err)
		}
		found.ClearResetToken()
		found.PasswordSetAt = &now
		found.TokenVersion = uuid.NewString()
		if found.IsFirstLogin {
			found.IsFirstLogin = false
			if found.Status == model.UserStatusPending {
				found.Status = model.UserStatusActive
			}
		}
		found.UpdatedBy = found.ID.String()

		if err := users.Update(ctx, found); err != nil {
			return err
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, apperror.FromDB(err, "user not found", "")
	}

	// Reload for the store association used in the response.
	if reloaded, err := s.userRepo.FindByID(ctx, user.ID); err == nil {
		user = reloaded
	}

	return s.issue(user)
}

func (s *authService) ChangePassword(ctx context.Context, p *access.Principal, input ChangePasswordInput) (*AuthResponse, error) {
	if err := access.Authorize(p, access.ActionProfile, companyScope(p)); err != nil {
		return nil, err
	}
	if len(input.NewPassword) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if err := validate(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, apperror.FromDB(err, "user not found", "")
	}
	if !user.CheckPassword(input.CurrentPassword) {
		return nil, ErrWrongPassword
	}

	now := s.now()
	if err := user.SetPassword(input.NewPassword); err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}
	user.PasswordSetAt = &now
	user.TokenVersion = uuid.NewString()
	user.UpdatedBy = actor(p)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperror.FromDB(err, "user not found", "")
	}

	return s.issue(user)
}

func (s *authService) Settings(ctx context.Context, p *access.Principal) (*SettingsResponse, error) {
	if err := access.Authorize(p, access.ActionProfile, companyScope(p)); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, apperror.FromDB(err, "user not found", "")
	}
	company, err := s.companyRepo.FindByID(ctx, p.CompanyID)
	if err != nil {
		return nil, apperror.FromDB(err, "company not found", "")
	}

	return &SettingsResponse{DefaultCurrency: user.DefaultCurrency, Company: company}, nil
}

func (s *authService) UpdateSettings(ctx context.Context, p *access.Principal, input SettingsInput) (*SettingsResponse, error) {
	if err := access.Authorize(p, access.ActionProfile, companyScope(p)); err != nil {
		return nil, err
	}
	if input.touchesCompany() {
		if err := access.Authorize(p, access.ActionCompanyUpdate, companyScope(p)); err != nil {
			return nil, err
		}
	}
	if err := validate(input); err != nil {
		return nil, err
	}

	var resp SettingsResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.WithTx(tx).FindByID(ctx, p.UserID)
		if err != nil {
			return err
		}
		if input.DefaultCurrency != nil {
			user.DefaultCurrency = strings.TrimSpace(*input.DefaultCurrency)
			user.UpdatedBy = actor(p)
			if err := s.userRepo.WithTx(tx).Update(ctx, user); err != nil {
				return err
			}
		}

		company, err := s.companyRepo.WithTx(tx).FindByID(ctx, p.CompanyID)
		if err != nil {
			return err
		}
		if input.touchesCompany() {
			applyString(&company.Phone, input.Phone)
			applyString(&company.Address, input.Address)
			applyString(&company.City, input.City)
			applyString(&company.State, input.State)
			applyString(&company.Country, input.Country)
			applyString(&company.Industry, input.Industry)
			applyString(&company.Website, input.Website)
			company.UpdatedBy = actor(p)
			if err := s.companyRepo.WithTx(tx).Update(ctx, company); err != nil {
				return err
			}
		}

		resp = SettingsResponse{DefaultCurrency: user.DefaultCurrency, Company: company}
		return nil
	})
	if err != nil {
		return nil, apperror.FromDB(err, "user not found", "")
	}

	return &resp, nil
}

func (s *authService) issue(user *model.User) (*AuthResponse, error) {
	token, err := s.tokens.GenerateToken(jwt.Claims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         string(user.Role),
		CompanyID:    user.CompanyID,
		StoreID:      user.StoreID,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, apperror.Internal("failed to generate token", err)
	}
	return &AuthResponse{Token: token, User: user.ToResponse()}, nil
}
