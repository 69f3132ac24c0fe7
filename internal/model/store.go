package model

import "github.com/google/uuid"

type StoreType string

const (
	StoreTypeMain     StoreType = "MAIN"
	StoreTypeSubstore StoreType = "SUBSTORE"
)

type StoreStatus string

const (
	StoreStatusActive   StoreStatus = "ACTIVE"
	StoreStatusInactive StoreStatus = "INACTIVE"
)

// MainStoreCode is the code of the store created with every company.
const MainStoreCode = "MS-001"

// Store belongs to one company. Exactly one MAIN store exists per company;
// the partial unique index backing that rule is created in repository.Migrate.
type Store struct {
	BaseModel
	CompanyID     uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_company_store_code" json:"companyId"`
	StoreCode     string      `gorm:"type:varchar(50);not null;uniqueIndex:idx_company_store_code" json:"storeCode"`
	StoreName     string      `gorm:"type:varchar(255);not null" json:"storeName"`
	StoreType     StoreType   `gorm:"type:varchar(20);not null;index" json:"storeType"`
	ParentStoreID *uuid.UUID  `gorm:"type:uuid" json:"parentStoreId"`
	Address       string      `gorm:"type:varchar(255)" json:"address,omitempty"`
	City          string      `gorm:"type:varchar(100)" json:"city,omitempty"`
	State         string      `gorm:"type:varchar(100)" json:"state,omitempty"`
	Country       string      `gorm:"type:varchar(100)" json:"country,omitempty"`
	ContactEmail  string      `gorm:"type:varchar(255)" json:"contactEmail,omitempty"`
	ContactPhone  string      `gorm:"type:varchar(50)" json:"contactPhone,omitempty"`
	Status        StoreStatus `gorm:"type:varchar(20);not null;default:ACTIVE" json:"status"`
}

func (s *Store) IsMain() bool {
	return s.StoreType == StoreTypeMain
}

func (s *Store) IsActive() bool {
	return s.Status == StoreStatusActive
}
