package supply

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
)

// approvedOfferWithLocation builds a vendor with an approved offer for a
// fresh book plus one pickup location.
func approvedOfferWithLocation(t *testing.T, db *gorm.DB, svc *Service, username string, qty int) (*models.User, *models.StockOffer, *models.VendorLocation) {
	user, _ := approvedVendorUser(t, db, svc, username)
	book := createTestBook(db, username+"-book")
	offer, err := svc.SubmitOffer(user.ID, OfferInput{BookID: book.ID, Quantity: qty, UnitPrice: decimal.NewFromInt(120)})
	assert.NoError(t, err)
	offer, err = svc.ReviewOffer(offer.ID, true, "", "admin1")
	assert.NoError(t, err)
	loc, err := svc.AddLocation(user.ID, LocationInput{Name: "Godown", City: "Nashik", IsPrimary: true})
	assert.NoError(t, err)
	return user, offer, loc
}

// arrivedSchedule walks a fresh schedule all the way to arrived.
func arrivedSchedule(t *testing.T, db *gorm.DB, svc *Service, username string, qty int) (*models.User, *models.DeliverySchedule) {
	user, offer, loc := approvedOfferWithLocation(t, db, svc, username, qty)
	schedule, err := svc.CreateSchedule(user.ID, ScheduleInput{
		OfferID:               offer.ID,
		ScheduledDeliveryDate: time.Now().Add(48 * time.Hour),
		VendorLocationID:      loc.ID,
	})
	assert.NoError(t, err)
	assert.NoError(t, svc.AdvanceSchedule(schedule.ID, models.ScheduleConfirmed, "", "", "logistics1"))

	partner, err := svc.CreatePartner(PartnerInput{Name: "Roadrunner Logistics"})
	assert.NoError(t, err)
	assert.NoError(t, svc.AssignPartner(schedule.ID, partner.ID, nil, "logistics1"))
	assert.NoError(t, svc.AdvanceSchedule(schedule.ID, models.ScheduleCollected, "Nashik", "", "logistics1"))
	assert.NoError(t, svc.AdvanceSchedule(schedule.ID, models.ScheduleInTransit, "NH48", "", "logistics1"))
	assert.NoError(t, svc.AdvanceSchedule(schedule.ID, models.ScheduleArrived, "Warehouse", "", "logistics1"))

	schedule, err = svc.GetSchedule(schedule.ID)
	assert.NoError(t, err)
	return user, schedule
}

func TestCreateScheduleGuards(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user, _ := approvedVendorUser(t, db, svc, "sched1")
	book := createTestBook(db, "sched1-book")
	loc, _ := svc.AddLocation(user.ID, LocationInput{Name: "Shed", City: "Pune"})
	in := ScheduleInput{ScheduledDeliveryDate: time.Now().Add(24 * time.Hour), VendorLocationID: loc.ID}

	// Pending offers cannot be scheduled.
	offer, _ := svc.SubmitOffer(user.ID, OfferInput{BookID: book.ID, Quantity: 5, UnitPrice: decimal.NewFromInt(80)})
	in.OfferID = offer.ID
	_, err := svc.CreateSchedule(user.ID, in)
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))

	svc.ReviewOffer(offer.ID, true, "", "admin1")

	// Another vendor cannot schedule someone else's offer.
	other, _ := approvedVendorUser(t, db, svc, "sched1-other")
	_, err = svc.CreateSchedule(other.ID, in)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	// Location must belong to the vendor.
	_, err = svc.CreateSchedule(user.ID, ScheduleInput{
		OfferID:               offer.ID,
		ScheduledDeliveryDate: in.ScheduledDeliveryDate,
		VendorLocationID:      9999,
	})
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	in.ContactPerson = "Ramesh Iyer"
	in.ContactPhone = "9820012345"
	schedule, err := svc.CreateSchedule(user.ID, in)
	assert.NoError(t, err)
	assert.Equal(t, models.ScheduleScheduled, schedule.Status)

	// The scheduled date and contact details are copied back onto the offer.
	fresh, _ := svc.GetOffer(offer.ID)
	assert.NotNil(t, fresh.VendorDeliveryDate)
	assert.Equal(t, "Ramesh Iyer", fresh.VendorContactName)
	assert.Equal(t, "9820012345", fresh.VendorContactPhone)

	tracking, _ := svc.ScheduleTracking(schedule.ID)
	if assert.Len(t, tracking, 1) {
		assert.Equal(t, "vendor", tracking[0].UpdatedBy)
	}

	// One schedule per offer.
	_, err = svc.CreateSchedule(user.ID, in)
	assert.Equal(t, errs.KindConstraint, errs.KindOf(err))
}

func TestAdvanceScheduleChain(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user, offer, loc := approvedOfferWithLocation(t, db, svc, "sched2", 10)

	schedule, err := svc.CreateSchedule(user.ID, ScheduleInput{
		OfferID:               offer.ID,
		ScheduledDeliveryDate: time.Now().Add(24 * time.Hour),
		VendorLocationID:      loc.ID,
	})
	assert.NoError(t, err)

	// No skipping steps.
	err = svc.AdvanceSchedule(schedule.ID, models.ScheduleCollected, "", "", "logistics1")
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))

	assert.NoError(t, svc.AdvanceSchedule(schedule.ID, models.ScheduleConfirmed, "", "", "logistics1"))
	fresh, _ := svc.GetSchedule(schedule.ID)
	assert.NotNil(t, fresh.ConfirmedAt)

	// pickup_assigned requires a partner on the schedule.
	err = svc.AdvanceSchedule(schedule.ID, models.SchedulePickupAssigned, "", "", "logistics1")
	assert.Equal(t, errs.KindInvalidInput, errs.KindOf(err))

	partner, _ := svc.CreatePartner(PartnerInput{Name: "Swift Carriers"})
	assert.NoError(t, svc.AssignPartner(schedule.ID, partner.ID, nil, "logistics1"))
	fresh, _ = svc.GetSchedule(schedule.ID)
	assert.Equal(t, models.SchedulePickupAssigned, fresh.Status)

	assert.NoError(t, svc.AdvanceSchedule(schedule.ID, models.ScheduleCollected, "Nashik", "", "logistics1"))
	assert.NoError(t, svc.AdvanceSchedule(schedule.ID, models.ScheduleInTransit, "", "", "logistics1"))
	assert.NoError(t, svc.AdvanceSchedule(schedule.ID, models.ScheduleArrived, "Warehouse", "", "logistics1"))
	fresh, _ = svc.GetSchedule(schedule.ID)
	assert.NotNil(t, fresh.ActualPickupTime)
	assert.NotNil(t, fresh.ActualDeliveryTime)

	// verified and completed only happen through receipt confirmation.
	err = svc.AdvanceSchedule(schedule.ID, models.ScheduleVerified, "", "", "warehouse1")
	assert.Equal(t, errs.KindInvalidInput, errs.KindOf(err))
	err = svc.AdvanceSchedule(schedule.ID, models.ScheduleCompleted, "", "", "warehouse1")
	assert.Equal(t, errs.KindInvalidInput, errs.KindOf(err))

	// confirmed, collected, in_transit and arrived each notified the vendor.
	notifications, _ := svc.Notifications(user.ID, false)
	assert.Len(t, notifications, 5) // offer approval plus four transit updates
}

func TestAssignPartnerRules(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user, offer, loc := approvedOfferWithLocation(t, db, svc, "sched3", 6)

	schedule, _ := svc.CreateSchedule(user.ID, ScheduleInput{
		OfferID:               offer.ID,
		ScheduledDeliveryDate: time.Now().Add(24 * time.Hour),
		VendorLocationID:      loc.ID,
	})

	partner, _ := svc.CreatePartner(PartnerInput{Name: "First Mile"})

	// A scheduled delivery is not assignable yet.
	err := svc.AssignPartner(schedule.ID, partner.ID, nil, "logistics1")
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))

	svc.AdvanceSchedule(schedule.ID, models.ScheduleConfirmed, "", "", "logistics1")

	// Suspended partners never qualify.
	suspended, _ := svc.CreatePartner(PartnerInput{Name: "Benched Freight"})
	assert.NoError(t, svc.SetPartnerStatus(suspended.ID, models.PartnerSuspended))
	err = svc.AssignPartner(schedule.ID, suspended.ID, nil, "logistics1")
	assert.Equal(t, errs.KindInvalidInput, errs.KindOf(err))

	pickup := time.Now().Add(12 * time.Hour)
	assert.NoError(t, svc.AssignPartner(schedule.ID, partner.ID, &pickup, "logistics1"))
	fresh, _ := svc.GetSchedule(schedule.ID)
	assert.Equal(t, models.SchedulePickupAssigned, fresh.Status)
	assert.NotNil(t, fresh.EstimatedPickupTime)

	// Reassignment before collection records the swap.
	replacement, _ := svc.CreatePartner(PartnerInput{Name: "Second Wind"})
	assert.NoError(t, svc.AssignPartner(schedule.ID, replacement.ID, nil, "logistics1"))
	tracking, _ := svc.ScheduleTracking(schedule.ID)
	assert.Contains(t, tracking[0].Notes, "reassigned from First Mile to Second Wind")

	// Once collected the partner is locked in.
	svc.AdvanceSchedule(schedule.ID, models.ScheduleCollected, "", "", "logistics1")
	err = svc.AssignPartner(schedule.ID, partner.ID, nil, "logistics1")
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))
}

func TestPartnerStatusValidation(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)

	partner, err := svc.CreatePartner(PartnerInput{Name: "Metro Vans", VehicleType: "van"})
	assert.NoError(t, err)
	assert.Equal(t, models.PartnerActive, partner.Status)

	assert.Equal(t, "status", errs.FieldOf(svc.SetPartnerStatus(partner.ID, "parked")))
	assert.Equal(t, errs.KindNotFound, errs.KindOf(svc.SetPartnerStatus(9999, models.PartnerInactive)))

	assert.NoError(t, svc.SetPartnerStatus(partner.ID, models.PartnerInactive))
	active, _ := svc.ListPartners(models.PartnerActive)
	assert.Empty(t, active)
}
