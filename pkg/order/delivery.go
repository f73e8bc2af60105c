package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
)

// deliveryTransitions is the courier-side machine for customer orders.
var deliveryTransitions = map[string][]string{
	models.DeliveryAssigned:       {models.DeliveryPickedUp, models.DeliveryFailed},
	models.DeliveryPickedUp:       {models.DeliveryInTransit, models.DeliveryFailed},
	models.DeliveryInTransit:      {models.DeliveryOutForDelivery, models.DeliveryFailed},
	models.DeliveryOutForDelivery: {models.DeliveryDelivered, models.DeliveryFailed},
	models.DeliveryFailed:         {models.DeliveryOutForDelivery, models.DeliveryReturnedBack},
}

// orderStatusFor mirrors a delivery status onto the owning order. Empty
// means the order does not move for this delivery event.
func orderStatusFor(deliveryStatus string) string {
	switch deliveryStatus {
	case models.DeliveryPickedUp:
		return models.OrderShipped
	case models.DeliveryOutForDelivery:
		return models.OrderOutForDelivery
	case models.DeliveryDelivered:
		return models.OrderDelivered
	default:
		return ""
	}
}

// createDelivery runs inside payment capture: every confirmed order gets a
// delivery with a tracking id, assigned to the first active partner that
// still has daily capacity.
func (s *Service) createDelivery(tx *gorm.DB, ord *models.Order) error {
	pickup := ""
	var warehouse models.DeliveryLocation
	if err := tx.Where("is_warehouse = ?", true).First(&warehouse).Error; err == nil {
		pickup = fmt.Sprintf("%s, %s, %s %s", warehouse.Address, warehouse.City, warehouse.State, warehouse.Pincode)
	}

	partnerID, cost := s.pickPartner(tx)

	delivery := models.Delivery{
		OrderID:           ord.ID,
		DeliveryPartnerID: partnerID,
		TrackingID:        models.NewTrackingID(),
		PickupAddress:     pickup,
		DeliveryAddress: fmt.Sprintf("%s, %s, %s %s",
			ord.ShippingAddress, ord.ShippingCity, ord.ShippingState, ord.ShippingPincode),
		EstimatedDeliveryTime: time.Now().Add(5 * 24 * time.Hour),
		Status:                models.DeliveryAssigned,
		DeliveryCost:          cost,
	}
	if err := tx.Create(&delivery).Error; err != nil {
		return err
	}
	return tx.Create(&models.DeliveryUpdate{
		DeliveryID:  delivery.ID,
		Status:      models.DeliveryAssigned,
		Description: "Delivery created for order " + ord.OrderNumber,
	}).Error
}

// pickPartner returns the first active partner under its daily ceiling,
// or nil when none qualifies (the delivery stays unassigned).
func (s *Service) pickPartner(tx *gorm.DB) (*uint, decimal.Decimal) {
	var partners []models.DeliveryPartner
	if err := tx.Where("status = ?", "active").Order("rating DESC").Find(&partners).Error; err != nil {
		return nil, decimal.Zero
	}
	dayStart := time.Now().Truncate(24 * time.Hour)
	for i := range partners {
		var assignedToday int64
		tx.Model(&models.Delivery{}).
			Where("delivery_partner_id = ? AND created_at >= ?", partners[i].ID, dayStart).
			Count(&assignedToday)
		if int(assignedToday) < partners[i].MaxDailyDeliveries {
			return &partners[i].ID, partners[i].CostPerDelivery
		}
	}
	return nil, decimal.Zero
}

func (s *Service) DeliveryForOrder(orderID uint) (*models.Delivery, error) {
	var delivery models.Delivery
	err := s.db.Preload("DeliveryPartner").Where("order_id = ?", orderID).First(&delivery).Error
	if err != nil {
		return nil, errs.NotFound("delivery")
	}
	return &delivery, nil
}

func (s *Service) DeliveryByTrackingID(trackingID string) (*models.Delivery, error) {
	var delivery models.Delivery
	err := s.db.Preload("DeliveryPartner").Preload("Order").
		Where("tracking_id = ?", trackingID).First(&delivery).Error
	if err != nil {
		return nil, errs.NotFound("delivery")
	}
	return &delivery, nil
}

// UpdateDeliveryStatus advances the courier machine, stamps first-entry
// timestamps, appends a DeliveryUpdate, and mirrors the move onto the order.
func (s *Service) UpdateDeliveryStatus(deliveryID uint, status, location, notes, actor string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var delivery models.Delivery
		if err := tx.First(&delivery, deliveryID).Error; err != nil {
			return errs.NotFound("delivery")
		}
		allowed := false
		for _, next := range deliveryTransitions[delivery.Status] {
			if next == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return errs.InvalidTransition(delivery.Status, status)
		}

		now := time.Now()
		updates := map[string]interface{}{"status": status}
		if status == models.DeliveryPickedUp && delivery.PickedUpAt == nil {
			updates["picked_up_at"] = now
		}
		if status == models.DeliveryDelivered && delivery.DeliveredAt == nil {
			updates["delivered_at"] = now
			updates["actual_delivery_time"] = now
		}
		if err := tx.Model(&models.Delivery{}).Where("id = ?", delivery.ID).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.DeliveryUpdate{
			DeliveryID:  delivery.ID,
			Status:      status,
			Location:    location,
			Description: notes,
		}).Error; err != nil {
			return err
		}

		mirrored := orderStatusFor(status)
		if mirrored == "" {
			return nil
		}
		var ord models.Order
		if err := tx.First(&ord, delivery.OrderID).Error; err != nil {
			return err
		}
		if ord.Status == mirrored {
			return nil
		}
		// Walk intermediate states the courier skipped, e.g. an order still
		// in confirmed when the parcel is picked up.
		for ord.Status != mirrored {
			next := nextTowards(ord.Status, mirrored)
			if next == "" {
				return errs.InvalidTransition(ord.Status, mirrored)
			}
			orderUpdates := map[string]interface{}{"status": next}
			if next == models.OrderDelivered && ord.DeliveredAt == nil {
				orderUpdates["delivered_at"] = now
			}
			if err := tx.Model(&models.Order{}).Where("id = ?", ord.ID).Updates(orderUpdates).Error; err != nil {
				return err
			}
			if err := appendTracking(tx, ord.ID, trackStatus(next), location, "Delivery update by "+actor); err != nil {
				return err
			}
			ord.Status = next
		}
		return nil
	})
}

// nextTowards returns the single fulfillment step from `from` in the
// direction of `target`, or empty when no forward path exists.
func nextTowards(from, target string) string {
	path := []string{
		models.OrderConfirmed,
		models.OrderProcessing,
		models.OrderShipped,
		models.OrderOutForDelivery,
		models.OrderDelivered,
	}
	fromIdx, targetIdx := -1, -1
	for i, st := range path {
		if st == from {
			fromIdx = i
		}
		if st == target {
			targetIdx = i
		}
	}
	if fromIdx == -1 || targetIdx == -1 || fromIdx >= targetIdx {
		return ""
	}
	return path[fromIdx+1]
}

// RateDelivery records the customer's rating after a completed delivery.
func (s *Service) RateDelivery(deliveryID uint, rating int, feedback string) error {
	if rating < 1 || rating > 5 {
		return errs.InvalidField("rating", "must be between 1 and 5")
	}
	var delivery models.Delivery
	if err := s.db.First(&delivery, deliveryID).Error; err != nil {
		return errs.NotFound("delivery")
	}
	if delivery.Status != models.DeliveryDelivered {
		return errs.InvalidTransition(delivery.Status, "rated")
	}
	return s.db.Model(&delivery).Updates(map[string]interface{}{
		"customer_rating":   rating,
		"customer_feedback": feedback,
	}).Error
}
