package model

// UserRole is the closed set of administrator roles.
type UserRole string

// Role codes as constants
const (
	RoleMainAdmin     UserRole = "MAIN_ADMIN"
	RoleSubstoreAdmin UserRole = "SUBSTORE_ADMIN"
)

func (r UserRole) Valid() bool {
	return r == RoleMainAdmin || r == RoleSubstoreAdmin
}

// UserStatus tracks whether an account may sign in.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
	UserStatusPending  UserStatus = "PENDING" // created, password not yet set
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusPending:
		return true
	}
	return false
}
