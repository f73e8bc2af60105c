package models

import "time"

// SupportTicket. TicketNumber format: TK + 8 upper-hex. Status values share
// the ticket constants in vendor.go plus waiting_customer.
type SupportTicket struct {
	ID           uint   `gorm:"primaryKey"`
	TicketNumber string `gorm:"size:20;not null;uniqueIndex"`
	UserID       uint   `gorm:"not null;index"`
	OrderID      *uint
	Subject      string `gorm:"size:200;not null"`
	Category     string `gorm:"size:20;default:'general'"`
	Description  string
	Priority     string `gorm:"size:10;default:'medium'"`
	Status       string `gorm:"size:20;default:'open'"`
	AssignedTo   string `gorm:"size:80"`
	Rating       *int
	ResolvedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	User      User             `gorm:"foreignKey:UserID"`
	Responses []TicketResponse `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE"`
}

type TicketResponse struct {
	ID         uint   `gorm:"primaryKey"`
	TicketID   uint   `gorm:"not null;index"`
	Author     string `gorm:"size:80;not null"`
	Response   string `gorm:"not null"`
	IsInternal bool   `gorm:"default:false"`
	CreatedAt  time.Time
}

type FAQ struct {
	ID        uint   `gorm:"primaryKey"`
	Question  string `gorm:"size:300;not null"`
	Answer    string `gorm:"not null"`
	Category  string `gorm:"size:50"`
	IsActive  bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
