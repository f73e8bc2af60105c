package supply

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
	"github.com/bookhaven/bookstore/pkg/stock"
)

type ReceiptInput struct {
	BooksReceived   int    `json:"booksReceived" binding:"required"`
	BooksAccepted   int    `json:"booksAccepted"`
	BooksRejected   int    `json:"booksRejected"`
	RejectionReason string `json:"rejectionReason"`
	ConditionRating int    `json:"conditionRating"`
	QualityNotes    string `json:"qualityNotes"`
}

// ConfirmReceipt is the warehouse staff's verification of an arrived
// delivery. One atomic block covers the confirmation row, the ledger
// append, the schedule's verified/completed transitions, and the offer
// closeout. A second confirmation for the same schedule is rejected.
func (s *Service) ConfirmReceipt(scheduleID uint, in ReceiptInput, staff string) (*models.StockReceiptConfirmation, error) {
	var confirmation models.StockReceiptConfirmation

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var schedule models.DeliverySchedule
		if err := tx.Preload("StockOffer").First(&schedule, scheduleID).Error; err != nil {
			return errs.NotFound("delivery schedule")
		}

		var existing models.StockReceiptConfirmation
		err := tx.Where("delivery_schedule_id = ?", schedule.ID).First(&existing).Error
		if err == nil {
			return errs.AlreadyConfirmed("delivery receipt already confirmed")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if schedule.Status != models.ScheduleArrived {
			return errs.InvalidTransition(schedule.Status, models.ScheduleVerified)
		}
		if in.BooksReceived != in.BooksAccepted+in.BooksRejected {
			return errs.InvalidField("booksReceived", "received must equal accepted plus rejected")
		}
		if in.BooksAccepted < 0 || in.BooksRejected < 0 {
			return errs.InvalidInput("counts cannot be negative")
		}
		if in.BooksRejected > 0 && in.RejectionReason == "" {
			return errs.InvalidField("rejectionReason", "required when books are rejected")
		}

		rating := in.ConditionRating
		if rating == 0 {
			rating = 5
		}
		confirmation = models.StockReceiptConfirmation{
			DeliveryScheduleID: schedule.ID,
			ReceivedBy:         staff,
			BooksReceived:      in.BooksReceived,
			BooksAccepted:      in.BooksAccepted,
			BooksRejected:      in.BooksRejected,
			RejectionReason:    in.RejectionReason,
			ConditionRating:    rating,
			QualityNotes:       in.QualityNotes,
		}
		if err := tx.Create(&confirmation).Error; err != nil {
			return err
		}

		offer := schedule.StockOffer
		now := time.Now()

		if in.BooksAccepted == 0 {
			// Full rejection: no ledger entry, offer closes rejected.
			if err := tx.Model(&models.DeliverySchedule{}).Where("id = ?", schedule.ID).Updates(map[string]interface{}{
				"status":            models.ScheduleCompleted,
				"completed_at":      now,
				"verified_quantity": 0,
				"quality_notes":     in.QualityNotes,
			}).Error; err != nil {
				return err
			}
			if err := appendScheduleTracking(tx, schedule.ID, models.ScheduleCompleted, "",
				"Delivery rejected at receipt: "+in.RejectionReason, staff); err != nil {
				return err
			}
			if err := tx.Model(&models.StockOffer{}).Where("id = ?", offer.ID).Updates(map[string]interface{}{
				"status":             models.OfferRejected,
				"is_delivered":       true,
				"delivered_at":       now,
				"delivered_quantity": 0,
				"staff_confirmed_by": staff,
				"staff_confirmed_at": now,
			}).Error; err != nil {
				return err
			}
			return notify(tx, offer.ID, models.OfferRejected,
				"Your delivery was rejected at receipt: "+in.RejectionReason)
		}

		st, err := stock.UpsertForBook(tx, offer.BookID, s.reorderLevel, s.maxLevel)
		if err != nil {
			return err
		}
		_, err = stock.Record(tx, st, models.MovementIn, in.BooksAccepted,
			fmt.Sprintf("Delivery-%d", schedule.ID), "vendor delivery receipt", staff,
			&stock.MovementOpts{DeliveryScheduleID: &schedule.ID, StockOfferID: &offer.ID})
		if err != nil {
			return err
		}
		if err := tx.Model(&confirmation).Updates(map[string]interface{}{
			"stock_updated":    true,
			"movement_created": true,
		}).Error; err != nil {
			return err
		}
		confirmation.StockUpdated = true
		confirmation.MovementCreated = true

		if err := tx.Model(&models.DeliverySchedule{}).Where("id = ?", schedule.ID).Updates(map[string]interface{}{
			"verified_quantity": in.BooksAccepted,
			"quality_notes":     in.QualityNotes,
		}).Error; err != nil {
			return err
		}
		if err := s.transition(tx, &schedule, models.ScheduleVerified, "",
			fmt.Sprintf("Receipt verified: %d accepted, %d rejected", in.BooksAccepted, in.BooksRejected),
			staff); err != nil {
			return err
		}
		if err := s.transition(tx, &schedule, models.ScheduleCompleted, "",
			"Delivery completed", staff); err != nil {
			return err
		}

		return tx.Model(&models.StockOffer{}).Where("id = ?", offer.ID).Updates(map[string]interface{}{
			"status":             models.OfferProcessed,
			"is_delivered":       true,
			"delivered_at":       now,
			"delivered_quantity": in.BooksAccepted,
			"staff_confirmed_by": staff,
			"staff_confirmed_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint("schedule", scheduleID).
		Int("accepted", confirmation.BooksAccepted).
		Int("rejected", confirmation.BooksRejected).
		Msg("delivery receipt confirmed")
	return &confirmation, nil
}

func (s *Service) ReceiptForSchedule(scheduleID uint) (*models.StockReceiptConfirmation, error) {
	var confirmation models.StockReceiptConfirmation
	err := s.db.Where("delivery_schedule_id = ?", scheduleID).First(&confirmation).Error
	if err != nil {
		return nil, errs.NotFound("receipt confirmation")
	}
	return &confirmation, nil
}
