package repository

import (
	"volt-inventory/internal/model"

	"gorm.io/gorm"
)

// Storage level guarantees that AutoMigrate cannot express from tags.
var indexes = []string{
	// a company never ends up with two MAIN stores
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_main_store_per_company
		ON stores (company_id) WHERE store_type = 'MAIN'`,
	// company names are unique regardless of case
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_companies_name_lower
		ON companies (LOWER(name))`,
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Company{},
		&model.Store{},
		&model.User{},
		&model.InventoryItem{},
		&model.InventoryTransfer{},
		&model.TransferItem{},
	); err != nil {
		return err
	}

	for _, ddl := range indexes {
		if err := db.Exec(ddl).Error; err != nil {
			return err
		}
	}
	return nil
}
