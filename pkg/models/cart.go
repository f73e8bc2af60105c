package models

import "time"

// Cart is one-to-one with a user and lives as long as the account does.
type Cart struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time

	User  User       `gorm:"foreignKey:UserID"`
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// CartItem never stores a price; pricing is computed on read.
type CartItem struct {
	ID        uint `gorm:"primaryKey"`
	CartID    uint `gorm:"not null;uniqueIndex:idx_cart_book"`
	BookID    uint `gorm:"not null;uniqueIndex:idx_cart_book"`
	Quantity  int  `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Book Book `gorm:"foreignKey:BookID"`
}
