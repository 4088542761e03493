package models

import (
	"time"

	"invoiceflow/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// All lists every persisted model, in dependency order, for auto-migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Client{},
		&Invoice{},
		&InvoiceItem{},
		&InvoiceSequence{},
		&AuditLog{},
	}
}
