package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookSale is a named, time-windowed batch discount.
type BookSale struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"`
	Description string

	DiscountType  string          `gorm:"size:20;default:'percentage'"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	ValidFrom time.Time `gorm:"not null"`
	ValidTo   time.Time `gorm:"not null"`
	IsActive  bool      `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []BookSaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// BookSaleItem may override the parent sale's value or pin a fixed price.
type BookSaleItem struct {
	ID     uint `gorm:"primaryKey"`
	SaleID uint `gorm:"not null;uniqueIndex:idx_sale_book"`
	BookID uint `gorm:"not null;uniqueIndex:idx_sale_book"`

	CustomDiscountValue decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	CustomSalePrice     decimal.NullDecimal `gorm:"type:decimal(10,2)"`

	CreatedAt time.Time

	Sale BookSale `gorm:"foreignKey:SaleID"`
	Book Book     `gorm:"foreignKey:BookID"`
}
