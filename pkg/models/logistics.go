package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PartnerActive    = "active"
	PartnerInactive  = "inactive"
	PartnerSuspended = "suspended"
)

const (
	ScheduleScheduled      = "scheduled"
	ScheduleConfirmed      = "confirmed"
	SchedulePickupAssigned = "pickup_assigned"
	ScheduleCollected      = "collected"
	ScheduleInTransit      = "in_transit"
	ScheduleArrived        = "arrived"
	ScheduleVerified       = "verified"
	ScheduleCompleted      = "completed"
)

type LogisticsPartner struct {
	ID            uint            `gorm:"primaryKey"`
	Name          string          `gorm:"size:200;not null"`
	ContactPerson string          `gorm:"size:100"`
	Phone         string          `gorm:"size:15"`
	Email         string          `gorm:"size:200"`
	VehicleType   string          `gorm:"size:20"`
	VehicleNumber string          `gorm:"size:20"`
	Status        string          `gorm:"size:20;default:'active'"`
	Rating        decimal.Decimal `gorm:"type:decimal(3,2);default:0"`
	CostPerKm     decimal.Decimal `gorm:"type:decimal(6,2);default:0"`
	BaseCost      decimal.Decimal `gorm:"type:decimal(8,2);default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type VendorLocation struct {
	ID            uint   `gorm:"primaryKey"`
	VendorID      uint   `gorm:"not null;index"`
	Name          string `gorm:"size:100;not null"`
	Address       string
	City          string `gorm:"size:100"`
	State         string `gorm:"size:100"`
	Pincode       string `gorm:"size:10"`
	ContactPerson string `gorm:"size:100"`
	Phone         string `gorm:"size:15"`
	IsPrimary     bool   `gorm:"default:false"`
	IsActive      bool   `gorm:"default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Vendor VendorProfile `gorm:"foreignKey:VendorID"`
}

// DeliverySchedule is the concrete pickup/delivery plan for an approved
// offer. Exactly one per StockOffer. Actual timestamps are written on first
// entry into the matching state and never overwritten.
type DeliverySchedule struct {
	ID           uint `gorm:"primaryKey"`
	StockOfferID uint `gorm:"not null;uniqueIndex"`
	VendorID     uint `gorm:"not null;index"`

	ScheduledDeliveryDate time.Time
	VendorLocationID      uint
	ContactPerson         string `gorm:"size:100"`
	ContactPhone          string `gorm:"size:15"`
	SpecialInstructions   string

	AssignedPartnerID     *uint
	EstimatedPickupTime   *time.Time
	ActualPickupTime      *time.Time
	EstimatedDeliveryTime *time.Time
	ActualDeliveryTime    *time.Time
	ConfirmedAt           *time.Time
	CompletedAt           *time.Time

	VerifiedQuantity *int
	QualityNotes     string

	Status    string `gorm:"size:20;default:'scheduled';index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	StockOffer      StockOffer        `gorm:"foreignKey:StockOfferID"`
	Vendor          VendorProfile     `gorm:"foreignKey:VendorID"`
	VendorLocation  VendorLocation    `gorm:"foreignKey:VendorLocationID"`
	AssignedPartner *LogisticsPartner `gorm:"foreignKey:AssignedPartnerID"`
}

// DeliveryTracking is append-only per schedule, newest first for display.
type DeliveryTracking struct {
	ID                 uint   `gorm:"primaryKey"`
	DeliveryScheduleID uint   `gorm:"not null;index"`
	Status             string `gorm:"size:20;not null"`
	Location           string `gorm:"size:255"`
	Notes              string
	UpdatedBy          string `gorm:"size:80"`
	CreatedAt          time.Time
}

// StockReceiptConfirmation is the warehouse staff's verification of an
// arrived delivery. The unique index on the schedule makes double
// confirmation impossible.
type StockReceiptConfirmation struct {
	ID                 uint   `gorm:"primaryKey"`
	DeliveryScheduleID uint   `gorm:"not null;uniqueIndex"`
	ReceivedBy         string `gorm:"size:80;not null"`

	BooksReceived   int    `gorm:"not null"`
	BooksAccepted   int    `gorm:"not null"`
	BooksRejected   int    `gorm:"not null;default:0"`
	RejectionReason string

	ConditionRating int `gorm:"default:5"`
	QualityNotes    string

	StockUpdated    bool `gorm:"default:false"`
	MovementCreated bool `gorm:"default:false"`

	CreatedAt time.Time
}
