package stock

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
)

// Service covers the warehouse-facing operations: manual movements,
// location management, reports and inventory audits.
type Service struct {
	db           *gorm.DB
	ReorderLevel int
	MaxLevel     int
}

func New(db *gorm.DB, reorderLevel, maxLevel int) *Service {
	return &Service{db: db, ReorderLevel: reorderLevel, MaxLevel: maxLevel}
}

func (s *Service) Get(bookID uint) (*models.Stock, error) {
	var st models.Stock
	err := s.db.Preload("Book").Where("book_id = ?", bookID).First(&st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("stock")
		}
		return nil, err
	}
	return &st, nil
}

func (s *Service) List(page, size int) ([]models.Stock, int64, error) {
	var stocks []models.Stock
	var total int64
	if err := s.db.Model(&models.Stock{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := s.db.Preload("Book").
		Offset((page - 1) * size).Limit(size).
		Order("id").
		Find(&stocks).Error
	return stocks, total, err
}

func (s *Service) Movements(bookID uint, limit int) ([]models.StockMovement, error) {
	st, err := s.Get(bookID)
	if err != nil {
		return nil, err
	}
	var movements []models.StockMovement
	err = s.db.Where("stock_id = ?", st.ID).
		Order("created_at DESC").Limit(limit).
		Find(&movements).Error
	return movements, err
}

// AddStock and RemoveStock are the warehouse's manual corrections; both go
// through the ledger so the snapshot never drifts.
func (s *Service) AddStock(bookID uint, qty int, reference, reason, actor string) error {
	if qty <= 0 {
		return errs.InvalidInput("quantity must be positive")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		st, err := UpsertForBook(tx, bookID, s.ReorderLevel, s.MaxLevel)
		if err != nil {
			return err
		}
		_, err = Record(tx, st, models.MovementIn, qty, reference, reason, actor, nil)
		return err
	})
}

func (s *Service) RemoveStock(bookID uint, qty int, kind, reference, reason, actor string) error {
	if qty <= 0 {
		return errs.InvalidInput("quantity must be positive")
	}
	if kind != models.MovementOut && kind != models.MovementDamaged {
		return errs.InvalidInput("removal must use an out-family movement")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		st, err := LockForBook(tx, bookID)
		if err != nil {
			return err
		}
		if st.AvailableQuantity() < qty {
			return errs.InsufficientStock("cannot remove more than available")
		}
		_, err = Record(tx, st, kind, qty, reference, reason, actor, nil)
		return err
	})
}

func (s *Service) SetLocation(bookID uint, section, row, shelf, actor string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return UpdateLocation(tx, bookID, section, row, shelf, actor)
	})
}

// LowStock lists rows whose available quantity sits at or under the
// reorder level.
func (s *Service) LowStock() ([]models.Stock, error) {
	var stocks []models.Stock
	err := s.db.Preload("Book").
		Where("quantity - reserved_quantity <= reorder_level").
		Order("quantity - reserved_quantity").
		Find(&stocks).Error
	return stocks, err
}

// AuditLine is one counted stock position in a physical audit.
type AuditLine struct {
	StockID        uint
	ActualQuantity int
	Notes          string
}

func (s *Service) ScheduleAudit(categoryID *uint, scheduledDate time.Time, assignedTo string) (*models.InventoryAudit, error) {
	audit := &models.InventoryAudit{
		AuditID:       models.NewAuditID(),
		CategoryID:    categoryID,
		ScheduledDate: scheduledDate,
		AssignedTo:    assignedTo,
		Status:        models.AuditScheduled,
	}
	if err := s.db.Create(audit).Error; err != nil {
		return nil, err
	}
	return audit, nil
}

// CompleteAudit records counted lines with their variance against the
// system quantity. Discrepancies get an adjustment movement referencing
// the audit id.
func (s *Service) CompleteAudit(auditID string, lines []AuditLine, actor string) (*models.InventoryAudit, error) {
	var audit models.InventoryAudit
	if err := s.db.Where("audit_id = ?", auditID).First(&audit).Error; err != nil {
		return nil, errs.NotFound("audit")
	}
	if audit.Status == models.AuditCompleted || audit.Status == models.AuditCancelled {
		return nil, errs.InvalidTransition(audit.Status, models.AuditCompleted)
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			var st models.Stock
			if err := tx.First(&st, line.StockID).Error; err != nil {
				return errs.NotFound("stock")
			}
			item := models.InventoryAuditItem{
				InventoryAuditID: audit.ID,
				StockID:          st.ID,
				SystemQuantity:   st.Quantity,
				ActualQuantity:   line.ActualQuantity,
				Variance:         line.ActualQuantity - st.Quantity,
				Notes:            line.Notes,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			if item.Variance != 0 {
				locked, err := LockForBook(tx, st.BookID)
				if err != nil {
					return err
				}
				if _, err := Record(tx, locked, models.MovementAdjustment, item.Variance,
					audit.AuditID, "inventory audit variance", actor, nil); err != nil {
					return err
				}
			}
		}
		return tx.Model(&audit).Updates(map[string]interface{}{
			"status":       models.AuditCompleted,
			"started_at":   gorm.Expr("COALESCE(started_at, ?)", now),
			"completed_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &audit, nil
}
