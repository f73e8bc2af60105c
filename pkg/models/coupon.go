package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DiscountPercentage   = "percentage"
	DiscountFixedAmount  = "fixed_amount"
	DiscountFreeShipping = "free_shipping"
)

type Coupon struct {
	ID          uint   `gorm:"primaryKey"`
	Code        string `gorm:"size:50;not null;uniqueIndex"`
	Name        string `gorm:"size:100"`
	Description string

	DiscountType  string          `gorm:"size:20;default:'percentage'"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	MinOrderAmount    decimal.Decimal     `gorm:"type:decimal(10,2);default:0"`
	MaxDiscountAmount decimal.NullDecimal `gorm:"type:decimal(10,2)"`

	// Zero means unlimited total usage.
	UsageLimit        int `gorm:"default:0"`
	UsageLimitPerUser int `gorm:"default:1"`

	ValidFrom time.Time `gorm:"not null"`
	ValidTo   time.Time `gorm:"not null"`

	FirstTimeUsersOnly bool `gorm:"default:false"`
	IsActive           bool `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Empty scope sets mean the coupon applies to everything.
	ApplicableCategories []Category `gorm:"many2many:coupon_categories"`
	ApplicableBooks      []Book     `gorm:"many2many:coupon_books"`
	ExcludedUsers        []User     `gorm:"many2many:coupon_excluded_users"`
}

// CouponUsage is append-only; counts against the coupon's usage limits.
type CouponUsage struct {
	ID             uint            `gorm:"primaryKey"`
	CouponID       uint            `gorm:"not null;index"`
	UserID         uint            `gorm:"not null;index"`
	OrderID        *uint
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt      time.Time

	Coupon Coupon `gorm:"foreignKey:CouponID"`
	User   User   `gorm:"foreignKey:UserID"`
}
