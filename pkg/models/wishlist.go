package models

import "time"

const (
	WishlistPrivate = "private"
	WishlistPublic  = "public"
	WishlistFriends = "friends"
)

type WishlistItem struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_wishlist_user_book"`
	BookID    uint `gorm:"not null;uniqueIndex:idx_wishlist_user_book"`
	CreatedAt time.Time

	Book Book `gorm:"foreignKey:BookID"`
}

type WishlistCollection struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"not null;uniqueIndex:idx_collection_user_name"`
	Name        string `gorm:"size:100;not null;uniqueIndex:idx_collection_user_name"`
	Description string
	Privacy     string `gorm:"size:20;default:'private'"`
	IsDefault   bool   `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []WishlistCollectionItem `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
}

// Sorted by priority desc then added time desc.
type WishlistCollectionItem struct {
	ID           uint   `gorm:"primaryKey"`
	CollectionID uint   `gorm:"not null;uniqueIndex:idx_collection_book"`
	BookID       uint   `gorm:"not null;uniqueIndex:idx_collection_book"`
	Notes        string
	Priority     int `gorm:"default:1;check:priority >= 1 AND priority <= 5"`
	CreatedAt    time.Time

	Book Book `gorm:"foreignKey:BookID"`
}
