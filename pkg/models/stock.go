package models

import "time"

const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
	MovementDamaged    = "damaged"
	MovementReturned   = "returned"
	MovementTransfer   = "transfer"
)

const (
	AuditScheduled  = "scheduled"
	AuditInProgress = "in_progress"
	AuditCompleted  = "completed"
	AuditCancelled  = "cancelled"
)

// Stock is a denormalized snapshot of the movement ledger, kept in the same
// transaction as every movement insert. The ledger is authoritative.
type Stock struct {
	ID               uint   `gorm:"primaryKey"`
	BookID           uint   `gorm:"not null;uniqueIndex"`
	Quantity         int    `gorm:"not null;default:0"`
	ReservedQuantity int    `gorm:"not null;default:0"`
	ReorderLevel     int    `gorm:"not null;default:10"`
	MaxStockLevel    int    `gorm:"not null;default:100"`
	LocationSection  string `gorm:"size:10"`
	LocationRow      string `gorm:"size:10"`
	LocationShelf    string `gorm:"size:20"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Book Book `gorm:"foreignKey:BookID"`
}

func (s *Stock) AvailableQuantity() int { return s.Quantity - s.ReservedQuantity }

func (s *Stock) NeedsReorder() bool { return s.AvailableQuantity() <= s.ReorderLevel }

func (s *Stock) IsOutOfStock() bool { return s.AvailableQuantity() <= 0 }

func (s *Stock) Location() string {
	if s.LocationSection != "" && s.LocationRow != "" && s.LocationShelf != "" {
		return s.LocationSection + "-" + s.LocationRow + "-" + s.LocationShelf
	}
	return "Not Assigned"
}

// StockMovement is append-only. Quantity is signed: positive for the IN
// family, negative for the OUT family.
type StockMovement struct {
	ID                 uint   `gorm:"primaryKey"`
	StockID            uint   `gorm:"not null;index"`
	MovementType       string `gorm:"size:20;not null"`
	Quantity           int    `gorm:"not null"`
	Reference          string `gorm:"size:100"`
	Reason             string `gorm:"size:200"`
	PerformedBy        string `gorm:"size:80"`
	DeliveryScheduleID *uint
	StockOfferID       *uint
	CreatedAt          time.Time

	Stock Stock `gorm:"foreignKey:StockID"`
}

type InventoryAudit struct {
	ID            uint   `gorm:"primaryKey"`
	AuditID       string `gorm:"size:20;not null;uniqueIndex"`
	CategoryID    *uint
	ScheduledDate time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	AssignedTo    string `gorm:"size:80"`
	Status        string `gorm:"size:20;default:'scheduled'"`
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []InventoryAuditItem `gorm:"foreignKey:InventoryAuditID;constraint:OnDelete:CASCADE"`
}

type InventoryAuditItem struct {
	ID               uint   `gorm:"primaryKey"`
	InventoryAuditID uint   `gorm:"not null;index"`
	StockID          uint   `gorm:"not null"`
	SystemQuantity   int    `gorm:"not null"`
	ActualQuantity   int    `gorm:"not null"`
	Variance         int    `gorm:"not null;default:0"`
	Notes            string `gorm:"size:200"`
	CreatedAt        time.Time

	Stock Stock `gorm:"foreignKey:StockID"`
}
