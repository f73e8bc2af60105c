package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	VendorPending   = "pending"
	VendorApproved  = "approved"
	VendorSuspended = "suspended"
	VendorRejected  = "rejected"
)

const (
	OfferPending   = "pending"
	OfferApproved  = "approved"
	OfferRejected  = "rejected"
	OfferProcessed = "processed"
)

type VendorProfile struct {
	ID                 uint   `gorm:"primaryKey"`
	UserID             uint   `gorm:"not null;uniqueIndex"`
	BusinessName       string `gorm:"size:200;not null"`
	RegistrationNumber string `gorm:"size:100"`
	ContactPerson      string `gorm:"size:100"`
	BusinessAddress    string
	City               string          `gorm:"size:100"`
	State              string          `gorm:"size:100"`
	Pincode            string          `gorm:"size:10"`
	Phone              string          `gorm:"size:15"`
	Email              string          `gorm:"size:200"`
	TaxID              string          `gorm:"size:50"`
	Status             string          `gorm:"size:20;default:'pending'"`
	Rating             decimal.Decimal `gorm:"type:decimal(3,2);default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	User User `gorm:"foreignKey:UserID"`
}

// StockOffer is a vendor's proposal to supply stock. TotalAmount is always
// quantity * unit price, recomputed on save.
type StockOffer struct {
	ID       uint `gorm:"primaryKey"`
	VendorID uint `gorm:"not null;index"`
	BookID   uint `gorm:"not null"`

	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	AvailabilityDate time.Time
	ExpiryDate       time.Time

	Notes      string
	Status     string `gorm:"size:20;default:'pending';index"`
	AdminNotes string
	ReviewedBy string `gorm:"size:80"`
	ReviewedAt *time.Time

	VendorDeliveryDate *time.Time
	VendorContactName  string `gorm:"size:100"`
	VendorContactPhone string `gorm:"size:15"`

	IsDelivered       bool `gorm:"default:false"`
	DeliveredAt       *time.Time
	DeliveredQuantity *int
	StaffConfirmedBy  string `gorm:"size:80"`
	StaffConfirmedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Vendor VendorProfile `gorm:"foreignKey:VendorID"`
	Book   Book          `gorm:"foreignKey:BookID"`
}

// OfferStatusNotification is appended on a whitelisted subset of supply
// pipeline transitions so the vendor can follow progress.
type OfferStatusNotification struct {
	ID           uint   `gorm:"primaryKey"`
	StockOfferID uint   `gorm:"not null;index"`
	Status       string `gorm:"size:20;not null"`
	Message      string
	IsRead       bool `gorm:"default:false"`
	CreatedAt    time.Time
}

const (
	TicketOpen            = "open"
	TicketInProgress      = "in_progress"
	TicketWaitingCustomer = "waiting_customer"
	TicketResolved        = "resolved"
	TicketClosed          = "closed"
)

// VendorTicket. TicketNumber format: VT + 8 upper-hex.
type VendorTicket struct {
	ID           uint   `gorm:"primaryKey"`
	TicketNumber string `gorm:"size:20;not null;uniqueIndex"`
	VendorID     uint   `gorm:"not null;index"`
	Subject      string `gorm:"size:200;not null"`
	Category     string `gorm:"size:20;default:'general'"`
	Description  string
	Priority     string `gorm:"size:10;default:'medium'"`
	Status       string `gorm:"size:20;default:'open'"`
	AssignedTo   string `gorm:"size:80"`
	ResolvedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Vendor    VendorProfile          `gorm:"foreignKey:VendorID"`
	Responses []VendorTicketResponse `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE"`
}

type VendorTicketResponse struct {
	ID         uint   `gorm:"primaryKey"`
	TicketID   uint   `gorm:"not null;index"`
	Author     string `gorm:"size:80;not null"`
	Response   string `gorm:"not null"`
	IsInternal bool   `gorm:"default:false"`
	CreatedAt  time.Time
}
