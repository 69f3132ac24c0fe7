package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransferType string

const (
	TransferPush    TransferType = "PUSH"    // main admin sends items to a substore
	TransferRequest TransferType = "REQUEST" // substore asks the main store for items
	TransferReturn  TransferType = "RETURN"  // substore sends items back to the main store
)

func (t TransferType) Valid() bool {
	switch t {
	case TransferPush, TransferRequest, TransferReturn:
		return true
	}
	return false
}

type TransferStatus string

const (
	TransferPending   TransferStatus = "PENDING"
	TransferApproved  TransferStatus = "APPROVED"
	TransferInTransit TransferStatus = "IN_TRANSIT"
	TransferReceived  TransferStatus = "RECEIVED"
	TransferRejected  TransferStatus = "REJECTED"
	TransferCancelled TransferStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed.
func (s TransferStatus) Terminal() bool {
	switch s {
	case TransferReceived, TransferRejected, TransferCancelled:
		return true
	}
	return false
}

// InventoryTransfer moves quantities between two stores of one company.
// Ledger quantities only change when the transfer becomes RECEIVED.
type InventoryTransfer struct {
	BaseModel
	CompanyID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"companyId"`
	TransferType TransferType   `gorm:"type:varchar(20);not null" json:"transferType"`
	FromStoreID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"fromStoreId"`
	ToStoreID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"toStoreId"`
	FromStore    *Store         `gorm:"foreignKey:FromStoreID" json:"fromStore,omitempty"`
	ToStore      *Store         `gorm:"foreignKey:ToStoreID" json:"toStore,omitempty"`
	Items        []TransferItem `gorm:"foreignKey:TransferID" json:"items"`
	Status       TransferStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Reason       string         `gorm:"type:text" json:"reason,omitempty"`
	RequestedBy  *uuid.UUID     `gorm:"type:uuid" json:"requestedBy,omitempty"`
	ApprovedBy   *uuid.UUID     `gorm:"type:uuid" json:"approvedBy,omitempty"`
	SentAt       *time.Time     `json:"sentAt,omitempty"`
	ReceivedAt   *time.Time     `json:"receivedAt,omitempty"`
}

func (InventoryTransfer) TableName() string {
	return "inventory_transfers"
}

// Total is the snapshot value of all line items.
func (t *InventoryTransfer) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range t.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// TransferItem is one line of a transfer. UnitPrice is captured when the
// transfer is created and never re-read from the ledger.
type TransferItem struct {
	ID                     uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	TransferID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"transferId"`
	Position               int             `gorm:"not null" json:"position"`
	InventoryID            uuid.UUID       `gorm:"type:uuid;not null" json:"inventoryId"`
	ProductName            string          `gorm:"type:varchar(255)" json:"productName"`
	Quantity               int             `gorm:"not null;check:chk_transfer_item_quantity,quantity >= 1" json:"quantity"`
	UnitPrice              decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unitPrice"`
	DestinationInventoryID *uuid.UUID      `gorm:"type:uuid" json:"destinationInventoryId,omitempty"`
}

func (TransferItem) TableName() string {
	return "inventory_transfer_items"
}

func (i *TransferItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
