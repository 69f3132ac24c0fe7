package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Categories is the closed list of inventory categories, in display order.
var Categories = []string{
	"Electronics",
	"Food",
	"Clothing",
	"Furniture",
	"Books",
	"Toys",
	"Sports",
	"Beauty",
	"Health",
	"Automotive",
	"Home & Garden",
	"Office Supplies",
	"Pet Supplies",
	"Jewelry",
	"Tools",
	"Other",
}

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// LowStockThreshold is the quantity under which an item counts as low stock.
const LowStockThreshold = 10

// InventoryItem is a line of a user's catalog. Ownership never changes.
type InventoryItem struct {
	BaseModel
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"userId"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"productName"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Category    string          `gorm:"type:varchar(50);not null;index" json:"category"`
	Quantity    int             `gorm:"not null;default:0;check:chk_inventory_quantity,quantity >= 0" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unitPrice"`
	SKU         *string         `gorm:"type:varchar(64);uniqueIndex" json:"sku,omitempty"`
	ImageURL    string          `gorm:"type:varchar(512)" json:"imageUrl,omitempty"`
}

// TableName specifies the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// Value is quantity times unit price.
func (i *InventoryItem) Value() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
