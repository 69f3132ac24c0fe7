package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const DefaultCurrency = "USD - US Dollar"

// User represents an authenticated administrator. Every user belongs to
// exactly one store of one company.
type User struct {
	BaseModel
	FirstName           string     `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName            string     `gorm:"type:varchar(100);not null" json:"lastName"`
	Email               string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	Role                UserRole   `gorm:"type:varchar(20);not null" json:"role"`
	CompanyID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"companyId"`
	StoreID             uuid.UUID  `gorm:"type:uuid;not null;index" json:"storeId"`
	Store               *Store     `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	Status              UserStatus `gorm:"type:varchar(20);not null;default:PENDING" json:"status"`
	IsFirstLogin        bool       `gorm:"not null;default:false" json:"isFirstLogin"`
	DefaultCurrency     string     `gorm:"type:varchar(50)" json:"defaultCurrency"`
	PasswordSetAt       *time.Time `json:"passwordSetAt,omitempty"`
	ResetPasswordToken  *string    `gorm:"type:varchar(64);index" json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`
	TokenVersion        string     `gorm:"type:varchar(64);default:''" json:"-"` // For session revocation
	CreatedByUserID     *uuid.UUID `gorm:"type:uuid" json:"createdByUserId,omitempty"`
}

// NormalizeEmail lower-cases and trims an address; emails are unique
// case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) IsMainAdmin() bool {
	return u.Role == RoleMainAdmin
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// IssueResetToken stores the sha256 of a fresh random token with the given
// lifetime and returns the plaintext, which is never persisted.
func (u *User) IssueResetToken(now time.Time, ttl time.Duration) (string, error) {
	token, err := RandomHex(20)
	if err != nil {
		return "", err
	}
	hashed := HashResetToken(token)
	expire := now.Add(ttl)
	u.ResetPasswordToken = &hashed
	u.ResetPasswordExpire = &expire
	return token, nil
}

// ClearResetToken drops any outstanding reset token.
func (u *User) ClearResetToken() {
	u.ResetPasswordToken = nil
	u.ResetPasswordExpire = nil
}

// ResetTokenValid reports whether the stored token is still usable at now.
func (u *User) ResetTokenValid(now time.Time) bool {
	return u.ResetPasswordToken != nil && u.ResetPasswordExpire != nil && now.Before(*u.ResetPasswordExpire)
}

// HashResetToken is the one-way transform applied to reset tokens before
// they are stored or looked up.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RandomHex returns n random bytes hex encoded.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID              uuid.UUID  `json:"id"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Email           string     `json:"email"`
	Role            UserRole   `json:"role"`
	CompanyID       uuid.UUID  `json:"companyId"`
	StoreID         uuid.UUID  `json:"storeId"`
	StoreName       string     `json:"storeName,omitempty"`
	StoreCode       string     `json:"storeCode,omitempty"`
	Status          UserStatus `json:"status"`
	IsFirstLogin    bool       `json:"isFirstLogin"`
	DefaultCurrency string     `json:"defaultCurrency"`
	CreatedByUserID *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:              u.ID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Email:           u.Email,
		Role:            u.Role,
		CompanyID:       u.CompanyID,
		StoreID:         u.StoreID,
		Status:          u.Status,
		IsFirstLogin:    u.IsFirstLogin,
		DefaultCurrency: u.DefaultCurrency,
		CreatedByUserID: u.CreatedByUserID,
		CreatedAt:       u.CreatedAt,
	}
	if u.Store != nil {
		resp.StoreName = u.Store.StoreName
		resp.StoreCode = u.Store.StoreCode
	}
	return resp
}
