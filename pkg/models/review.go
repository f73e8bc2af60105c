package models

import "time"

const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

type Review struct {
	ID     uint `gorm:"primaryKey"`
	BookID uint `gorm:"not null;uniqueIndex:idx_review_book_user"`
	UserID uint `gorm:"not null;uniqueIndex:idx_review_book_user"`

	Rating  int    `gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Title   string `gorm:"size:200"`
	Comment string

	Status             string `gorm:"size:20;default:'pending'"`
	IsVerifiedPurchase bool   `gorm:"default:false"`

	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Book Book `gorm:"foreignKey:BookID"`
	User User `gorm:"foreignKey:UserID"`
}

type ReviewHelpful struct {
	ID        uint `gorm:"primaryKey"`
	ReviewID  uint `gorm:"not null;uniqueIndex:idx_helpful_review_user"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_helpful_review_user"`
	IsHelpful bool `gorm:"default:true"`
	CreatedAt time.Time
}
