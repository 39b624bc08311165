package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Object represents a single catalog entry.
// It belongs to zero or more categories through the object_categories join table.
type Object struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"not null"`
	Description string
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedDate time.Time       `gorm:"not null"`
	Categories  []Category      `gorm:"many2many:object_categories"`
}

func (o *Object) TableName() string {
	return "objects"
}
