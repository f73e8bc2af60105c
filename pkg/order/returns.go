package order

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
	"github.com/bookhaven/bookstore/pkg/stock"
)

var returnTransitions = map[string][]string{
	models.ReturnRequested:    {models.ReturnApproved, models.ReturnRejected},
	models.ReturnApproved:     {models.ReturnItemReceived},
	models.ReturnItemReceived: {models.ReturnProcessing, models.ReturnCompleted},
	models.ReturnProcessing:   {models.ReturnCompleted},
}

type ReturnLine struct {
	OrderItemID uint `json:"orderItemId"`
	Quantity    int  `json:"quantity"`
}

// RequestReturn opens a return for a delivered order. Lines must reference
// items of that order and stay within the bought quantity.
func (s *Service) RequestReturn(userID, orderID uint, reason, description string, lines []ReturnLine) (*models.Return, error) {
	var ret models.Return
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ord models.Order
		if err := tx.Preload("Items").First(&ord, orderID).Error; err != nil {
			return errs.NotFound("order")
		}
		if ord.UserID != userID {
			return errs.Forbidden("order belongs to another user")
		}
		if ord.Status != models.OrderDelivered {
			return errs.InvalidTransition(ord.Status, models.OrderReturned)
		}
		if len(lines) == 0 {
			return errs.InvalidInput("no return items")
		}

		byID := make(map[uint]models.OrderItem, len(ord.Items))
		for _, item := range ord.Items {
			byID[item.ID] = item
		}

		ret = models.Return{
			ReturnNumber: models.NewReturnID(),
			OrderID:      ord.ID,
			Reason:       reason,
			Description:  description,
			Status:       models.ReturnRequested,
		}
		if err := tx.Create(&ret).Error; err != nil {
			return err
		}
		for _, line := range lines {
			item, ok := byID[line.OrderItemID]
			if !ok {
				return errs.InvalidField("orderItemId", "item does not belong to this order")
			}
			if line.Quantity < 1 || line.Quantity > item.Quantity {
				return errs.InvalidField("quantity", "exceeds ordered quantity")
			}
			if err := tx.Create(&models.ReturnItem{
				ReturnID:    ret.ID,
				OrderItemID: line.OrderItemID,
				Quantity:    line.Quantity,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetReturn(ret.ID)
}

func (s *Service) GetReturn(returnID uint) (*models.Return, error) {
	var ret models.Return
	err := s.db.Preload("Items").Preload("Items.OrderItem").Preload("Order").
		First(&ret, returnID).Error
	if err != nil {
		return nil, errs.NotFound("return")
	}
	return &ret, nil
}

func (s *Service) ListReturns(status string) ([]models.Return, error) {
	q := s.db.Preload("Order").Preload("Items")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var returns []models.Return
	err := q.Order("created_at DESC").Find(&returns).Error
	return returns, err
}

// AdvanceReturn moves the return along its lifecycle. Receiving the items
// restocks them with `returned` movements; completion sets the refund and
// flips the order's payment status.
func (s *Service) AdvanceReturn(returnID uint, to, adminNotes, actor string) error {
	return s.advanceReturn(returnID, to, adminNotes, actor, decimal.NullDecimal{})
}

// CompleteReturn finishes the return with an explicit refund amount.
func (s *Service) CompleteReturn(returnID uint, refund decimal.Decimal, adminNotes, actor string) error {
	return s.advanceReturn(returnID, models.ReturnCompleted, adminNotes, actor,
		decimal.NullDecimal{Decimal: refund, Valid: true})
}

func (s *Service) advanceReturn(returnID uint, to, adminNotes, actor string, refund decimal.NullDecimal) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var ret models.Return
		if err := tx.Preload("Items").Preload("Items.OrderItem").Preload("Order").
			First(&ret, returnID).Error; err != nil {
			return errs.NotFound("return")
		}
		allowed := false
		for _, next := range returnTransitions[ret.Status] {
			if next == to {
				allowed = true
				break
			}
		}
		if !allowed {
			return errs.InvalidTransition(ret.Status, to)
		}

		updates := map[string]interface{}{"status": to}
		if adminNotes != "" {
			updates["admin_notes"] = adminNotes
		}

		switch to {
		case models.ReturnApproved:
			updates["approved_at"] = gorm.Expr("CURRENT_TIMESTAMP")
		case models.ReturnItemReceived:
			for _, item := range ret.Items {
				st, err := stock.LockForBook(tx, item.OrderItem.BookID)
				if err != nil {
					return err
				}
				_, err = stock.Record(tx, st, models.MovementReturned, item.Quantity,
					ret.ReturnNumber, "customer return", actor, nil)
				if err != nil {
					return err
				}
			}
		case models.ReturnCompleted:
			amount := ret.Order.TotalAmount
			if refund.Valid {
				amount = refund.Decimal
			}
			updates["refund_amount"] = amount
			updates["completed_at"] = gorm.Expr("CURRENT_TIMESTAMP")

			paymentStatus := models.PaymentRefunded
			if amount.LessThan(ret.Order.TotalAmount) {
				paymentStatus = models.PaymentPartiallyRefunded
			}
			if err := tx.Model(&models.Order{}).Where("id = ?", ret.OrderID).Updates(map[string]interface{}{
				"status":         models.OrderRefunded,
				"payment_status": paymentStatus,
			}).Error; err != nil {
				return err
			}
			if err := appendTracking(tx, ret.OrderID, models.TrackReturned, "",
				"Return "+ret.ReturnNumber+" completed, refund issued"); err != nil {
				return err
			}
		}

		if to != models.ReturnCompleted && to != models.ReturnRejected {
			if ret.Order.Status == models.OrderDelivered && to == models.ReturnItemReceived {
				if err := tx.Model(&models.Order{}).Where("id = ?", ret.OrderID).
					Update("status", models.OrderReturned).Error; err != nil {
					return err
				}
				if err := appendTracking(tx, ret.OrderID, models.TrackReturned, "",
					"Return items received"); err != nil {
					return err
				}
			}
		}

		return tx.Model(&models.Return{}).Where("id = ?", ret.ID).Updates(updates).Error
	})
}
