package model

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

type CompanyStatus string

const (
	CompanyStatusActive    CompanyStatus = "ACTIVE"
	CompanyStatusInactive  CompanyStatus = "INACTIVE"
	CompanyStatusSuspended CompanyStatus = "SUSPENDED"
)

type SubscriptionPlan string

const (
	PlanFree         SubscriptionPlan = "FREE"
	PlanBasic        SubscriptionPlan = "BASIC"
	PlanProfessional SubscriptionPlan = "PROFESSIONAL"
	PlanEnterprise   SubscriptionPlan = "ENTERPRISE"
)

// Company is a tenant. Name, code and email are unique across the system.
type Company struct {
	BaseModel
	Name             string           `gorm:"type:varchar(255);uniqueIndex;not null" json:"companyName"`
	Code             string           `gorm:"type:varchar(32);uniqueIndex;not null" json:"companyCode"`
	Email            string           `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone            string           `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Address          string           `gorm:"type:varchar(255)" json:"address,omitempty"`
	City             string           `gorm:"type:varchar(100)" json:"city,omitempty"`
	State            string           `gorm:"type:varchar(100)" json:"state,omitempty"`
	Country          string           `gorm:"type:varchar(100)" json:"country,omitempty"`
	Industry         string           `gorm:"type:varchar(100)" json:"industry,omitempty"`
	Website          string           `gorm:"type:varchar(255)" json:"website,omitempty"`
	MainAdminID      *uuid.UUID       `gorm:"type:uuid" json:"mainAdminId,omitempty"`
	Status           CompanyStatus    `gorm:"type:varchar(20);not null;default:ACTIVE" json:"status"`
	SubscriptionPlan SubscriptionPlan `gorm:"type:varchar(20);not null;default:FREE" json:"subscriptionPlan"`
}

// CompanyCode derives the stable company code from the name and the company
// id, e.g. "ACM-3F2A9B". It is computed once at registration.
func CompanyCode(name string, id uuid.UUID) string {
	var prefix []rune
	for _, r := range strings.ToUpper(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			prefix = append(prefix, r)
		}
		if len(prefix) == 3 {
			break
		}
	}
	for len(prefix) < 3 {
		prefix = append(prefix, 'X')
	}
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:6])
	return string(prefix) + "-" + suffix
}
