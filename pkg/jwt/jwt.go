package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
	ErrMalformed    = errors.New("malformed token claims")
)

const (
	roleMainAdmin     = "MAIN_ADMIN"
	roleSubstoreAdmin = "SUBSTORE_ADMIN"
)

// Claims represents the JWT claims structure
type Claims struct {
	UserID       uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	CompanyID    uuid.UUID `json:"companyId"`
	StoreID      uuid.UUID `json:"storeId"`
	IsMainAdmin  bool      `json:"isMainAdmin"`
	TokenVersion string    `json:"tokenVersion"`
	jwt.RegisteredClaims
}

// Validate is run by the parser after the registered claims checks. A token
// whose custom claims are incomplete or contradict each other is rejected.
func (c *Claims) Validate() error {
	if c.UserID == uuid.Nil || c.CompanyID == uuid.Nil || c.StoreID == uuid.Nil {
		return ErrMalformed
	}
	if c.Role != roleMainAdmin && c.Role != roleSubstoreAdmin {
		return ErrMalformed
	}
	if c.IsMainAdmin != (c.Role == roleMainAdmin) {
		return ErrMalformed
	}
	return nil
}

// Manager signs and verifies HS256 tokens with a single secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, issuer string) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

// GenerateToken fills the registered claims and signs the token.
func (m *Manager) GenerateToken(claims Claims) (string, error) {
	now := m.now()
	claims.IsMainAdmin = claims.Role == roleMainAdmin
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    m.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a JWT token. Every failure maps to
// ErrInvalidToken.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
