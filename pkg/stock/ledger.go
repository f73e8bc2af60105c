package stock

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
)

// The ledger primitives take the caller's handle so checkout, cancellation
// and receipt confirmation can run them inside their own transactions.

// Movement kinds that add to on-hand when recorded with a positive qty.
func isInFamily(kind string) bool {
	return kind == models.MovementIn || kind == models.MovementReturned
}

func isOutFamily(kind string) bool {
	return kind == models.MovementOut || kind == models.MovementDamaged
}

// LockForBook loads the stock row for a book under a row lock. Every
// operation that reads available and then mutates must go through here so
// concurrent checkouts of the last unit serialize.
func LockForBook(tx *gorm.DB, bookID uint) (*models.Stock, error) {
	var st models.Stock
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("book_id = ?", bookID).
		First(&st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("stock")
		}
		return nil, err
	}
	return &st, nil
}

// UpsertForBook returns the stock row for a book, creating it with the
// given defaults when missing, locked either way.
func UpsertForBook(tx *gorm.DB, bookID uint, reorderLevel, maxLevel int) (*models.Stock, error) {
	st, err := LockForBook(tx, bookID)
	if err == nil {
		return st, nil
	}
	if errs.KindOf(err) != errs.KindNotFound {
		return nil, err
	}

	st = &models.Stock{
		BookID:        bookID,
		ReorderLevel:  reorderLevel,
		MaxStockLevel: maxLevel,
	}
	if err := tx.Create(st).Error; err != nil {
		return nil, fmt.Errorf("create stock row: %w", err)
	}
	return st, nil
}

// MovementOpts attaches supply-pipeline references to a movement.
type MovementOpts struct {
	DeliveryScheduleID *uint
	StockOfferID       *uint
}

// Record appends a movement and updates the snapshot in the same
// transaction. qty is the caller's magnitude; the stored quantity is signed
// by the movement kind. Adjustments keep the sign they are given.
func Record(tx *gorm.DB, st *models.Stock, kind string, qty int, reference, reason, actor string, opts *MovementOpts) (*models.StockMovement, error) {
	signed := qty
	switch {
	case isInFamily(kind):
		if qty < 0 {
			signed = -qty
		}
	case isOutFamily(kind):
		if qty > 0 {
			signed = -qty
		}
	case kind == models.MovementAdjustment, kind == models.MovementTransfer:
		// as given
	default:
		return nil, errs.InvalidInput("unknown movement type " + kind)
	}

	if st.Quantity+signed < 0 {
		return nil, errs.InvalidInput("movement would drive stock negative")
	}

	movement := &models.StockMovement{
		StockID:      st.ID,
		MovementType: kind,
		Quantity:     signed,
		Reference:    reference,
		Reason:       reason,
		PerformedBy:  actor,
	}
	if opts != nil {
		movement.DeliveryScheduleID = opts.DeliveryScheduleID
		movement.StockOfferID = opts.StockOfferID
	}
	if err := tx.Create(movement).Error; err != nil {
		return nil, fmt.Errorf("append movement: %w", err)
	}

	st.Quantity += signed
	if err := tx.Model(st).Update("quantity", st.Quantity).Error; err != nil {
		return nil, fmt.Errorf("update stock snapshot: %w", err)
	}

	if err := SyncBookStatus(tx, st); err != nil {
		return nil, err
	}
	return movement, nil
}

// Transfer records the paired entries for an internal transfer: source
// negative, destination positive, same reference.
func Transfer(tx *gorm.DB, from, to *models.Stock, qty int, reference, reason, actor string) error {
	if qty <= 0 {
		return errs.InvalidInput("transfer quantity must be positive")
	}
	if _, err := Record(tx, from, models.MovementTransfer, -qty, reference, reason, actor, nil); err != nil {
		return err
	}
	_, err := Record(tx, to, models.MovementTransfer, qty, reference, reason, actor, nil)
	return err
}

// Reserve holds qty units for a pending order. Fails with
// insufficient_stock when available < qty.
func Reserve(tx *gorm.DB, bookID uint, qty int) error {
	if qty <= 0 {
		return errs.InvalidInput("reserve quantity must be positive")
	}
	st, err := LockForBook(tx, bookID)
	if err != nil {
		return err
	}
	if st.AvailableQuantity() < qty {
		return errs.InsufficientStock(
			fmt.Sprintf("only %d units available", st.AvailableQuantity()))
	}
	st.ReservedQuantity += qty
	if err := tx.Model(st).Update("reserved_quantity", st.ReservedQuantity).Error; err != nil {
		return err
	}
	return SyncBookStatus(tx, st)
}

// Release returns a reservation to the available pool, clamping at zero so
// repeated cancellations stay idempotent.
func Release(tx *gorm.DB, bookID uint, qty int) error {
	st, err := LockForBook(tx, bookID)
	if err != nil {
		return err
	}
	st.ReservedQuantity -= qty
	if st.ReservedQuantity < 0 {
		st.ReservedQuantity = 0
	}
	if err := tx.Model(st).Update("reserved_quantity", st.ReservedQuantity).Error; err != nil {
		return err
	}
	return SyncBookStatus(tx, st)
}

// CommitReservation converts a reservation into fulfillment: the hold is
// dropped and an OUT movement of equal size is appended, atomically.
func CommitReservation(tx *gorm.DB, bookID uint, qty int, reference, actor string) error {
	st, err := LockForBook(tx, bookID)
	if err != nil {
		return err
	}
	if st.ReservedQuantity < qty {
		return errs.InvalidInput("commit exceeds reserved quantity")
	}
	st.ReservedQuantity -= qty
	if err := tx.Model(st).Update("reserved_quantity", st.ReservedQuantity).Error; err != nil {
		return err
	}
	_, err = Record(tx, st, models.MovementOut, qty, reference, "order fulfillment", actor, nil)
	return err
}

// UpdateLocation moves the stock's physical location and appends a
// zero-quantity adjustment so the ledger keeps audit continuity.
func UpdateLocation(tx *gorm.DB, bookID uint, section, row, shelf, actor string) error {
	st, err := LockForBook(tx, bookID)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		"location_section": section,
		"location_row":     row,
		"location_shelf":   shelf,
	}
	if err := tx.Model(st).Updates(updates).Error; err != nil {
		return err
	}
	_, err = Record(tx, st, models.MovementAdjustment, 0, "", "location update", actor, nil)
	return err
}

// SyncBookStatus flips the book between available and out_of_stock as the
// derived available quantity crosses zero. Discontinued books are left
// alone.
func SyncBookStatus(tx *gorm.DB, st *models.Stock) error {
	var book models.Book
	if err := tx.First(&book, st.BookID).Error; err != nil {
		return err
	}

	switch {
	case st.IsOutOfStock() && book.Status == models.BookAvailable:
		return tx.Model(&book).Update("status", models.BookOutOfStock).Error
	case !st.IsOutOfStock() && book.Status == models.BookOutOfStock:
		return tx.Model(&book).Update("status", models.BookAvailable).Error
	}
	return nil
}
