package service

import (
	"strings"
	"time"

	"volt-inventory/internal/access"
	"volt-inventory/internal/apperror"
	"volt-inventory/pkg/validator"
)

// validate runs struct tag validation and reports the first failure.
func validate(input interface{}) error {
	if errs := validator.ValidateStruct(input); len(errs) > 0 {
		return apperror.Validation(validator.Message(errs))
	}
	return nil
}

// actor is the value written to the created_by/updated_by audit columns.
func actor(p *access.Principal) string {
	if p == nil {
		return "system"
	}
	return p.UserID.String()
}

// companyScope is the resource for actions on the caller's own account or
// company. A nil principal yields an empty resource so Authorize can deny it.
func companyScope(p *access.Principal) access.Resource {
	if p == nil {
		return access.Resource{}
	}
	return access.Resource{CompanyID: p.CompanyID}
}

// storeScope additionally pins the caller's own store and identity.
func storeScope(p *access.Principal) access.Resource {
	if p == nil {
		return access.Resource{}
	}
	return access.Resource{CompanyID: p.CompanyID, StoreID: p.StoreID, OwnerID: p.UserID}
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}
