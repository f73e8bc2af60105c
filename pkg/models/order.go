package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderPending        = "pending"
	OrderConfirmed      = "confirmed"
	OrderProcessing     = "processing"
	OrderShipped        = "shipped"
	OrderOutForDelivery = "out_for_delivery"
	OrderDelivered      = "delivered"
	OrderCancelled      = "cancelled"
	OrderReturned       = "returned"
	OrderRefunded       = "refunded"
)

const (
	PaymentPending           = "pending"
	PaymentPaid              = "paid"
	PaymentFailed            = "failed"
	PaymentRefunded          = "refunded"
	PaymentPartiallyRefunded = "partially_refunded"
)

const (
	TrackOrderPlaced    = "order_placed"
	TrackConfirmed      = "confirmed"
	TrackPreparing      = "preparing"
	TrackShipped        = "shipped"
	TrackOutForDelivery = "out_for_delivery"
	TrackDelivered      = "delivered"
	TrackCancelled      = "cancelled"
	TrackReturned       = "returned"
)

const (
	ReturnRequested    = "requested"
	ReturnApproved     = "approved"
	ReturnRejected     = "rejected"
	ReturnItemReceived = "item_received"
	ReturnProcessing   = "processing"
	ReturnCompleted    = "completed"
)

// Order. OrderNumber is the opaque public identifier (ORD + 8 upper-hex).
type Order struct {
	ID          uint   `gorm:"primaryKey"`
	OrderNumber string `gorm:"size:20;not null;uniqueIndex"`
	UserID      uint   `gorm:"not null;index"`

	BillingFirstName string `gorm:"size:100"`
	BillingLastName  string `gorm:"size:100"`
	BillingEmail     string `gorm:"size:200"`
	BillingPhone     string `gorm:"size:15"`
	BillingAddress   string
	BillingCity      string `gorm:"size:100"`
	BillingState     string `gorm:"size:100"`
	BillingPincode   string `gorm:"size:10"`

	ShippingFirstName string `gorm:"size:100"`
	ShippingLastName  string `gorm:"size:100"`
	ShippingAddress   string
	ShippingCity      string `gorm:"size:100"`
	ShippingState     string `gorm:"size:100"`
	ShippingPincode   string `gorm:"size:10"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0"`
	ShippingCost   decimal.Decimal `gorm:"type:decimal(10,2);default:0"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2);default:0"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	CouponCode    string `gorm:"size:50"`
	Status        string `gorm:"size:20;default:'pending';index"`
	PaymentStatus string `gorm:"size:20;default:'pending'"`
	PaymentMethod string `gorm:"size:50"`
	Notes         string

	EstimatedDeliveryDate *time.Time
	DeliveredAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time

	User  User        `gorm:"foreignKey:UserID"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem freezes the effective price at the instant checkout began.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"not null;index"`
	BookID    uint            `gorm:"not null"`
	Quantity  int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Total     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time

	Book Book `gorm:"foreignKey:BookID"`
}

// OrderTracking is append-only, ordered by timestamp.
type OrderTracking struct {
	ID          uint   `gorm:"primaryKey"`
	OrderID     uint   `gorm:"not null;index"`
	Status      string `gorm:"size:20;not null"`
	Location    string `gorm:"size:200"`
	Description string
	CreatedAt   time.Time
}

// Return. ReturnNumber format: RET + 8 upper-hex.
type Return struct {
	ID           uint   `gorm:"primaryKey"`
	ReturnNumber string `gorm:"size:20;not null;uniqueIndex"`
	OrderID      uint   `gorm:"not null;index"`
	Reason       string `gorm:"size:20"`
	Description  string
	Status       string          `gorm:"size:20;default:'requested'"`
	RefundAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0"`
	ApprovedAt   *time.Time
	CompletedAt  *time.Time
	AdminNotes   string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Order Order        `gorm:"foreignKey:OrderID"`
	Items []ReturnItem `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE"`
}

type ReturnItem struct {
	ID          uint `gorm:"primaryKey"`
	ReturnID    uint `gorm:"not null;index"`
	OrderItemID uint `gorm:"not null"`
	Quantity    int  `gorm:"not null"`

	OrderItem OrderItem `gorm:"foreignKey:OrderItemID"`
}
