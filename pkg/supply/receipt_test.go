package supply

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
)

func TestConfirmReceiptGuards(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user, offer, loc := approvedOfferWithLocation(t, db, svc, "receipt1", 10)

	schedule, _ := svc.CreateSchedule(user.ID, ScheduleInput{
		OfferID:               offer.ID,
		ScheduledDeliveryDate: time.Now().Add(48 * time.Hour),
		VendorLocationID:      loc.ID,
	})

	// A delivery still on the road cannot be received.
	_, err := svc.ConfirmReceipt(schedule.ID, ReceiptInput{BooksReceived: 10, BooksAccepted: 10}, "staff1")
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))

	svc.AdvanceSchedule(schedule.ID, models.ScheduleConfirmed, "", "", "logistics1")
	partner, _ := svc.CreatePartner(PartnerInput{Name: "Harbor Freight"})
	svc.AssignPartner(schedule.ID, partner.ID, nil, "logistics1")
	svc.AdvanceSchedule(schedule.ID, models.ScheduleCollected, "", "", "logistics1")
	svc.AdvanceSchedule(schedule.ID, models.ScheduleInTransit, "", "", "logistics1")
	svc.AdvanceSchedule(schedule.ID, models.ScheduleArrived, "", "", "logistics1")

	// Counts must balance.
	_, err = svc.ConfirmReceipt(schedule.ID, ReceiptInput{BooksReceived: 10, BooksAccepted: 7, BooksRejected: 2}, "staff1")
	assert.Equal(t, "booksReceived", errs.FieldOf(err))

	// Rejections need a reason.
	_, err = svc.ConfirmReceipt(schedule.ID, ReceiptInput{BooksReceived: 10, BooksAccepted: 8, BooksRejected: 2}, "staff1")
	assert.Equal(t, "rejectionReason", errs.FieldOf(err))
}

func TestConfirmReceiptPartialAcceptance(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user, schedule := arrivedSchedule(t, db, svc, "receipt2", 10)

	confirmation, err := svc.ConfirmReceipt(schedule.ID, ReceiptInput{
		BooksReceived:   10,
		BooksAccepted:   8,
		BooksRejected:   2,
		RejectionReason: "water damage on two copies",
		ConditionRating: 4,
	}, "staff1")
	assert.NoError(t, err)
	assert.True(t, confirmation.StockUpdated)
	assert.True(t, confirmation.MovementCreated)

	// The accepted copies landed in the ledger.
	var st models.Stock
	db.Where("book_id = ?", schedule.StockOffer.BookID).First(&st)
	assert.Equal(t, 8, st.Quantity)

	var movement models.StockMovement
	db.Where("stock_id = ?", st.ID).First(&movement)
	assert.Equal(t, models.MovementIn, movement.MovementType)
	assert.Equal(t, 8, movement.Quantity)
	assert.Equal(t, fmt.Sprintf("Delivery-%d", schedule.ID), movement.Reference)
	if assert.NotNil(t, movement.DeliveryScheduleID) {
		assert.Equal(t, schedule.ID, *movement.DeliveryScheduleID)
	}
	if assert.NotNil(t, movement.StockOfferID) {
		assert.Equal(t, schedule.StockOfferID, *movement.StockOfferID)
	}

	fresh, _ := svc.GetSchedule(schedule.ID)
	assert.Equal(t, models.ScheduleCompleted, fresh.Status)
	assert.NotNil(t, fresh.CompletedAt)
	if assert.NotNil(t, fresh.VerifiedQuantity) {
		assert.Equal(t, 8, *fresh.VerifiedQuantity)
	}

	offer, _ := svc.GetOffer(schedule.StockOfferID)
	assert.Equal(t, models.OfferProcessed, offer.Status)
	assert.True(t, offer.IsDelivered)
	if assert.NotNil(t, offer.DeliveredQuantity) {
		assert.Equal(t, 8, *offer.DeliveredQuantity)
	}
	assert.Equal(t, "staff1", offer.StaffConfirmedBy)

	// Completion pushed a notification to the vendor.
	notifications, _ := svc.Notifications(user.ID, false)
	assert.Equal(t, models.ScheduleCompleted, notifications[0].Status)

	// A second confirmation is flat out rejected.
	_, err = svc.ConfirmReceipt(schedule.ID, ReceiptInput{BooksReceived: 10, BooksAccepted: 10}, "staff2")
	assert.Equal(t, errs.KindAlreadyConfirmed, errs.KindOf(err))

	stored, err := svc.ReceiptForSchedule(schedule.ID)
	assert.NoError(t, err)
	assert.Equal(t, 4, stored.ConditionRating)
	assert.Equal(t, "staff1", stored.ReceivedBy)
}

func TestConfirmReceiptFullRejection(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user, schedule := arrivedSchedule(t, db, svc, "receipt3", 6)

	confirmation, err := svc.ConfirmReceipt(schedule.ID, ReceiptInput{
		BooksReceived:   6,
		BooksRejected:   6,
		RejectionReason: "wrong edition shipped",
	}, "staff1")
	assert.NoError(t, err)
	assert.False(t, confirmation.StockUpdated)
	assert.False(t, confirmation.MovementCreated)
	assert.Equal(t, 5, confirmation.ConditionRating) // unrated defaults to 5

	// Nothing reached the ledger.
	var count int64
	db.Model(&models.StockMovement{}).Count(&count)
	assert.Zero(t, count)

	fresh, _ := svc.GetSchedule(schedule.ID)
	assert.Equal(t, models.ScheduleCompleted, fresh.Status)
	if assert.NotNil(t, fresh.VerifiedQuantity) {
		assert.Zero(t, *fresh.VerifiedQuantity)
	}

	tracking, _ := svc.ScheduleTracking(schedule.ID)
	assert.Contains(t, tracking[0].Notes, "Delivery rejected at receipt: wrong edition shipped")

	offer, _ := svc.GetOffer(schedule.StockOfferID)
	assert.Equal(t, models.OfferRejected, offer.Status)
	assert.True(t, offer.IsDelivered)
	if assert.NotNil(t, offer.DeliveredQuantity) {
		assert.Zero(t, *offer.DeliveredQuantity)
	}

	notifications, _ := svc.Notifications(user.ID, false)
	assert.Contains(t, notifications[0].Message, "rejected at receipt")
}
