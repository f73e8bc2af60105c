package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentRecordCreated   = "created"
	PaymentRecordApproved  = "approved"
	PaymentRecordCompleted = "completed"
	PaymentRecordCancelled = "cancelled"
	PaymentRecordFailed    = "failed"
)

// PaymentRecord binds an order to an external authorization. ExternalID is
// the gateway's payment id; operations are idempotent on it.
type PaymentRecord struct {
	ID            uint            `gorm:"primaryKey"`
	OrderID       uint            `gorm:"not null;uniqueIndex"`
	ExternalID    string          `gorm:"size:100;not null;uniqueIndex"`
	PayerID       string          `gorm:"size:100"`
	ApprovalURL   string          `gorm:"size:500"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency      string          `gorm:"size:10;default:'INR'"`
	State         string          `gorm:"size:20;default:'created'"`
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Order Order `gorm:"foreignKey:OrderID"`
}
