package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DeliveryAssigned       = "assigned"
	DeliveryPickedUp       = "picked_up"
	DeliveryInTransit      = "in_transit"
	DeliveryOutForDelivery = "out_for_delivery"
	DeliveryDelivered      = "delivered"
	DeliveryFailed         = "failed"
	DeliveryReturnedBack   = "returned"
)

// DeliveryPartner handles customer-side order deliveries.
type DeliveryPartner struct {
	ID                 uint   `gorm:"primaryKey"`
	Name               string `gorm:"size:200;not null"`
	ContactPerson      string `gorm:"size:100"`
	Phone              string `gorm:"size:15"`
	Email              string `gorm:"size:200"`
	Address            string
	Status             string          `gorm:"size:20;default:'active'"`
	Rating             decimal.Decimal `gorm:"type:decimal(3,2);default:0"`
	CostPerDelivery    decimal.Decimal `gorm:"type:decimal(8,2);default:0"`
	MaxDailyDeliveries int             `gorm:"default:50"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Delivery is one-to-one with an order. TrackingID format: TRK + 10
// upper-hex.
type Delivery struct {
	ID                uint   `gorm:"primaryKey"`
	OrderID           uint   `gorm:"not null;uniqueIndex"`
	DeliveryPartnerID *uint
	TrackingID        string `gorm:"size:50;not null;uniqueIndex"`

	PickupAddress   string
	DeliveryAddress string

	PickedUpAt            *time.Time
	DeliveredAt           *time.Time
	EstimatedDeliveryTime time.Time
	ActualDeliveryTime    *time.Time

	Status       string          `gorm:"size:20;default:'assigned'"`
	DeliveryCost decimal.Decimal `gorm:"type:decimal(8,2);default:0"`
	Notes        string

	CustomerRating   *int
	CustomerFeedback string

	CreatedAt time.Time
	UpdatedAt time.Time

	Order           Order            `gorm:"foreignKey:OrderID"`
	DeliveryPartner *DeliveryPartner `gorm:"foreignKey:DeliveryPartnerID"`
}

type DeliveryUpdate struct {
	ID          uint   `gorm:"primaryKey"`
	DeliveryID  uint   `gorm:"not null;index"`
	Status      string `gorm:"size:20;not null"`
	Location    string `gorm:"size:200"`
	Description string
	CreatedAt   time.Time
}

// DeliveryLocation is a reference entity for warehouses and pickup points.
type DeliveryLocation struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"size:100;not null"`
	Address       string
	City          string `gorm:"size:100"`
	State         string `gorm:"size:100"`
	Pincode       string `gorm:"size:10"`
	IsWarehouse   bool   `gorm:"default:false"`
	IsPickupPoint bool   `gorm:"default:false"`
	CreatedAt     time.Time
}
