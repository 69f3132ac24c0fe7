// Package access decides whether an authenticated principal may perform an
// action on a resource. Evaluate is pure: no I/O and no state.
package access

import (
	"volt-inventory/internal/apperror"
	"volt-inventory/internal/model"
	"volt-inventory/pkg/jwt"

	"github.com/google/uuid"
)

// Principal is the verified caller, built from token claims.
type Principal struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
	StoreID   uuid.UUID
	Email     string
	Role      model.UserRole
}

func (p *Principal) IsMainAdmin() bool {
	return p != nil && p.Role == model.RoleMainAdmin
}

// PrincipalFromClaims converts decoded claims, rejecting any role outside
// the closed set.
func PrincipalFromClaims(c *jwt.Claims) (*Principal, error) {
	if c == nil {
		return nil, apperror.Auth(MsgNotAuthorized)
	}
	role := model.UserRole(c.Role)
	if !role.Valid() || c.UserID == uuid.Nil || c.CompanyID == uuid.Nil || c.StoreID == uuid.Nil {
		return nil, apperror.Auth(MsgNotAuthorized)
	}
	return &Principal{
		UserID:    c.UserID,
		CompanyID: c.CompanyID,
		StoreID:   c.StoreID,
		Email:     c.Email,
		Role:      role,
	}, nil
}

type Action string

const (
	ActionRegister       Action = "auth.register"
	ActionLogin          Action = "auth.login"
	ActionForgotPassword Action = "auth.forgot-password"
	ActionResetPassword  Action = "auth.reset-password"
	ActionHealth         Action = "system.health"

	ActionProfile         Action = "auth.profile"
	ActionCompanyUpdate   Action = "company.update"
	ActionStoreRead       Action = "store.read"
	ActionStoreStats      Action = "store.stats"
	ActionStoreCreate     Action = "store.create"
	ActionStoreUpdate     Action = "store.update"
	ActionStoreDeactivate Action = "store.deactivate"

	ActionUserList        Action = "user.list"
	ActionUserListByStore Action = "user.list-by-store"
	ActionUserRead        Action = "user.read"
	ActionUserCreate      Action = "user.create"
	ActionUserUpdate      Action = "user.update"
	ActionUserDeactivate  Action = "user.deactivate"

	ActionInventoryRead  Action = "inventory.read"
	ActionInventoryWrite Action = "inventory.write"

	ActionTransferRead     Action = "transfer.read"
	ActionTransferPush     Action = "transfer.push"
	ActionTransferRequest  Action = "transfer.request"
	ActionTransferReturn   Action = "transfer.return"
	ActionTransferApprove  Action = "transfer.approve"
	ActionTransferReject   Action = "transfer.reject"
	ActionTransferCancel   Action = "transfer.cancel"
	ActionTransferDispatch Action = "transfer.dispatch"
	ActionTransferReceive  Action = "transfer.receive"
)

const (
	MsgNotAuthorized = "not authorized to access this route"
	MsgOtherCompany  = "access denied: resource belongs to another company"
	MsgMainAdminOnly = "only the main admin can perform this action"
	MsgOtherStore    = "access denied: resource belongs to another store"
	MsgNotOwner      = "access denied: you do not own this item"
	MsgNotEndpoint   = "only an admin of the handling store can perform this action"
)

var publicActions = map[Action]bool{
	ActionRegister:       true,
	ActionLogin:          true,
	ActionForgotPassword: true,
	ActionResetPassword:  true,
	ActionHealth:         true,
}

// managementActions are denied to SUBSTORE_ADMIN whatever the store.
var managementActions = map[Action]bool{
	ActionCompanyUpdate:   true,
	ActionStoreCreate:     true,
	ActionStoreUpdate:     true,
	ActionStoreDeactivate: true,
	ActionUserList:        true,
	ActionUserCreate:      true,
	ActionUserUpdate:      true,
	ActionUserDeactivate:  true,
	ActionTransferPush:    true,
	ActionTransferApprove: true,
	ActionTransferReject:  true,
}

var ownerActions = map[Action]bool{
	ActionInventoryRead:  true,
	ActionInventoryWrite: true,
}

// handlerActions must be performed by an admin of Resource.StoreID, main
// admins included: dispatch belongs to the source store, receipt to the
// destination.
var handlerActions = map[Action]bool{
	ActionTransferDispatch: true,
	ActionTransferReceive:  true,
}

func IsPublic(action Action) bool {
	return publicActions[action]
}

// Resource identifies what an action targets. Zero fields are not checked,
// which is how route level gating evaluates an action before the target is
// loaded. PeerStoreID is the other endpoint of a transfer.
type Resource struct {
	CompanyID   uuid.UUID
	StoreID     uuid.UUID
	PeerStoreID uuid.UUID
	OwnerID     uuid.UUID
}

// Decision is the outcome of Evaluate. Kind and Reason are set on denial.
type Decision struct {
	Allowed bool
	Kind    apperror.Kind
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(kind apperror.Kind, reason string) Decision {
	return Decision{Kind: kind, Reason: reason}
}

// Evaluate applies, in order: public actions, authentication, the company
// boundary, item ownership and store handling, then role rules. Anything
// not explicitly allowed is denied.
func Evaluate(p *Principal, action Action, res Resource) Decision {
	if publicActions[action] {
		return allow()
	}
	if p == nil || !p.Role.Valid() {
		return deny(apperror.KindAuth, MsgNotAuthorized)
	}

	if res.CompanyID != uuid.Nil && res.CompanyID != p.CompanyID {
		return deny(apperror.KindAuthz, MsgOtherCompany)
	}

	if ownerActions[action] && res.OwnerID != uuid.Nil && res.OwnerID != p.UserID {
		return deny(apperror.KindAuthz, MsgNotOwner)
	}
	if handlerActions[action] && res.StoreID != uuid.Nil && res.StoreID != p.StoreID {
		return deny(apperror.KindAuthz, MsgNotEndpoint)
	}

	switch p.Role {
	case model.RoleMainAdmin:
		return allow()
	case model.RoleSubstoreAdmin:
		if managementActions[action] {
			return deny(apperror.KindAuthz, MsgMainAdminOnly)
		}
		if res.StoreID == uuid.Nil || res.StoreID == p.StoreID {
			return allow()
		}
		if res.PeerStoreID != uuid.Nil && res.PeerStoreID == p.StoreID {
			return allow()
		}
		return deny(apperror.KindAuthz, MsgOtherStore)
	}

	return deny(apperror.KindAuthz, MsgNotAuthorized)
}

// Authorize is Evaluate expressed as an error.
func Authorize(p *Principal, action Action, res Resource) error {
	d := Evaluate(p, action, res)
	if d.Allowed {
		return nil
	}
	return apperror.New(d.Kind, d.Reason)
}
