package supply

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
)

// scheduleTransitions is the supply delivery machine. `verified` and
// `completed` are reachable only through receipt confirmation.
var scheduleTransitions = map[string][]string{
	models.ScheduleScheduled:      {models.ScheduleConfirmed},
	models.ScheduleConfirmed:      {models.SchedulePickupAssigned},
	models.SchedulePickupAssigned: {models.ScheduleCollected},
	models.ScheduleCollected:      {models.ScheduleInTransit},
	models.ScheduleInTransit:      {models.ScheduleArrived},
	models.ScheduleArrived:        {models.ScheduleVerified},
	models.ScheduleVerified:       {models.ScheduleCompleted},
}

// notifiedScheduleStatuses is the whitelist of transitions that generate a
// vendor notification.
var notifiedScheduleStatuses = map[string]string{
	models.ScheduleConfirmed: "Delivery schedule confirmed by logistics.",
	models.ScheduleCollected: "Your books were collected by the logistics partner.",
	models.ScheduleInTransit: "Your delivery is in transit to the warehouse.",
	models.ScheduleArrived:   "Your delivery arrived at the warehouse.",
	models.ScheduleCompleted: "Your delivery was received and verified.",
}

type ScheduleInput struct {
	OfferID               uint      `json:"offerId" binding:"required"`
	ScheduledDeliveryDate time.Time `json:"scheduledDeliveryDate" binding:"required"`
	VendorLocationID      uint      `json:"vendorLocationId" binding:"required"`
	ContactPerson         string    `json:"contactPerson"`
	ContactPhone          string    `json:"contactPhone"`
	SpecialInstructions   string    `json:"specialInstructions"`
}

// CreateSchedule lets the vendor plan delivery of an approved offer. The
// unique index on the offer enforces at most one schedule.
func (s *Service) CreateSchedule(userID uint, in ScheduleInput) (*models.DeliverySchedule, error) {
	profile, err := s.approvedVendor(userID)
	if err != nil {
		return nil, err
	}

	var schedule models.DeliverySchedule
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var offer models.StockOffer
		if err := tx.First(&offer, in.OfferID).Error; err != nil {
			return errs.NotFound("stock offer")
		}
		if offer.VendorID != profile.ID {
			return errs.Forbidden("offer belongs to another vendor")
		}
		if offer.Status != models.OfferApproved {
			return errs.InvalidTransition(offer.Status, "scheduled")
		}

		var existing models.DeliverySchedule
		err := tx.Where("stock_offer_id = ?", offer.ID).First(&existing).Error
		if err == nil {
			return errs.Constraint("offer already has a delivery schedule")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var location models.VendorLocation
		if err := tx.Where("id = ? AND vendor_id = ?", in.VendorLocationID, profile.ID).
			First(&location).Error; err != nil {
			return errs.NotFound("vendor location")
		}

		schedule = models.DeliverySchedule{
			StockOfferID:          offer.ID,
			VendorID:              profile.ID,
			ScheduledDeliveryDate: in.ScheduledDeliveryDate,
			VendorLocationID:      location.ID,
			ContactPerson:         in.ContactPerson,
			ContactPhone:          in.ContactPhone,
			SpecialInstructions:   in.SpecialInstructions,
			Status:                models.ScheduleScheduled,
		}
		if err := tx.Create(&schedule).Error; err != nil {
			return err
		}
		if err := tx.Model(&offer).Updates(map[string]interface{}{
			"vendor_delivery_date": in.ScheduledDeliveryDate,
			"vendor_contact_name":  in.ContactPerson,
			"vendor_contact_phone": in.ContactPhone,
		}).Error; err != nil {
			return err
		}
		return appendScheduleTracking(tx, schedule.ID, models.ScheduleScheduled,
			location.City, "Delivery scheduled by vendor", "vendor")
	})
	if err != nil {
		return nil, err
	}
	return s.GetSchedule(schedule.ID)
}

func (s *Service) GetSchedule(scheduleID uint) (*models.DeliverySchedule, error) {
	var schedule models.DeliverySchedule
	err := s.db.
		Preload("StockOffer").Preload("StockOffer.Book").
		Preload("Vendor").Preload("VendorLocation").Preload("AssignedPartner").
		First(&schedule, scheduleID).Error
	if err != nil {
		return nil, errs.NotFound("delivery schedule")
	}
	return &schedule, nil
}

func (s *Service) ListSchedules(status string) ([]models.DeliverySchedule, error) {
	q := s.db.Preload("StockOffer").Preload("StockOffer.Book").
		Preload("Vendor").Preload("AssignedPartner")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var schedules []models.DeliverySchedule
	err := q.Order("scheduled_delivery_date").Find(&schedules).Error
	return schedules, err
}

func (s *Service) ScheduleTracking(scheduleID uint) ([]models.DeliveryTracking, error) {
	var entries []models.DeliveryTracking
	err := s.db.Where("delivery_schedule_id = ?", scheduleID).
		Order("created_at DESC").Find(&entries).Error
	return entries, err
}

// AdvanceSchedule moves the schedule one step along the pipeline. Every
// transition appends tracking; first entry into a state stamps its
// timestamp; whitelisted statuses notify the vendor.
func (s *Service) AdvanceSchedule(scheduleID uint, to, location, notes, actor string) error {
	if to == models.ScheduleVerified || to == models.ScheduleCompleted {
		return errs.InvalidInput("receipt confirmation drives verification and completion")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var schedule models.DeliverySchedule
		if err := tx.First(&schedule, scheduleID).Error; err != nil {
			return errs.NotFound("delivery schedule")
		}
		return s.transition(tx, &schedule, to, location, notes, actor)
	})
}

func (s *Service) transition(tx *gorm.DB, schedule *models.DeliverySchedule, to, location, notes, actor string) error {
	allowed := false
	for _, next := range scheduleTransitions[schedule.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return errs.InvalidTransition(schedule.Status, to)
	}
	if to == models.SchedulePickupAssigned && schedule.AssignedPartnerID == nil {
		return errs.InvalidInput("assign a logistics partner first")
	}

	now := time.Now()
	updates := map[string]interface{}{"status": to}
	switch to {
	case models.ScheduleConfirmed:
		if schedule.ConfirmedAt == nil {
			updates["confirmed_at"] = now
		}
	case models.ScheduleCollected:
		if schedule.ActualPickupTime == nil {
			updates["actual_pickup_time"] = now
		}
	case models.ScheduleArrived:
		if schedule.ActualDeliveryTime == nil {
			updates["actual_delivery_time"] = now
		}
	case models.ScheduleCompleted:
		if schedule.CompletedAt == nil {
			updates["completed_at"] = now
		}
	}
	if err := tx.Model(&models.DeliverySchedule{}).Where("id = ?", schedule.ID).Updates(updates).Error; err != nil {
		return err
	}
	schedule.Status = to

	if notes == "" {
		notes = "Status updated"
	}
	if err := appendScheduleTracking(tx, schedule.ID, to, location, notes, actor); err != nil {
		return err
	}
	if message, ok := notifiedScheduleStatuses[to]; ok {
		if err := notify(tx, schedule.StockOfferID, to, message); err != nil {
			return err
		}
	}
	return nil
}

// AssignPartner puts a logistics partner on the schedule. Only active
// partners qualify; reassignment is allowed until the books are collected
// and leaves a note naming the replaced partner.
func (s *Service) AssignPartner(scheduleID, partnerID uint, estimatedPickup *time.Time, actor string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var schedule models.DeliverySchedule
		if err := tx.Preload("AssignedPartner").First(&schedule, scheduleID).Error; err != nil {
			return errs.NotFound("delivery schedule")
		}
		switch schedule.Status {
		case models.ScheduleConfirmed, models.SchedulePickupAssigned:
		default:
			return errs.InvalidTransition(schedule.Status, models.SchedulePickupAssigned)
		}

		var partner models.LogisticsPartner
		if err := tx.First(&partner, partnerID).Error; err != nil {
			return errs.NotFound("logistics partner")
		}
		if partner.Status != models.PartnerActive {
			return errs.InvalidInput("logistics partner is not active")
		}

		note := fmt.Sprintf("Partner %s assigned", partner.Name)
		if schedule.AssignedPartner != nil && schedule.AssignedPartner.ID != partner.ID {
			note = fmt.Sprintf("Partner reassigned from %s to %s", schedule.AssignedPartner.Name, partner.Name)
		}

		updates := map[string]interface{}{"assigned_partner_id": partner.ID}
		if estimatedPickup != nil {
			updates["estimated_pickup_time"] = *estimatedPickup
		}
		if err := tx.Model(&models.DeliverySchedule{}).Where("id = ?", schedule.ID).Updates(updates).Error; err != nil {
			return err
		}

		if schedule.Status == models.ScheduleConfirmed {
			schedule.AssignedPartnerID = &partner.ID
			return s.transition(tx, &schedule, models.SchedulePickupAssigned, "", note, actor)
		}
		return appendScheduleTracking(tx, schedule.ID, schedule.Status, "", note, actor)
	})
}

func appendScheduleTracking(tx *gorm.DB, scheduleID uint, status, location, notes, actor string) error {
	return tx.Create(&models.DeliveryTracking{
		DeliveryScheduleID: scheduleID,
		Status:             status,
		Location:           location,
		Notes:              notes,
		UpdatedBy:          actor,
	}).Error
}

type PartnerInput struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	VehicleType   string `json:"vehicleType"`
	VehicleNumber string `json:"vehicleNumber"`
}

func (s *Service) CreatePartner(in PartnerInput) (*models.LogisticsPartner, error) {
	partner := models.LogisticsPartner{
		Name:          in.Name,
		ContactPerson: in.ContactPerson,
		Phone:         in.Phone,
		Email:         in.Email,
		VehicleType:   in.VehicleType,
		VehicleNumber: in.VehicleNumber,
		Status:        models.PartnerActive,
	}
	if err := s.db.Create(&partner).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (s *Service) ListPartners(status string) ([]models.LogisticsPartner, error) {
	q := s.db.Order("name")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var partners []models.LogisticsPartner
	err := q.Find(&partners).Error
	return partners, err
}

func (s *Service) SetPartnerStatus(partnerID uint, status string) error {
	switch status {
	case models.PartnerActive, models.PartnerInactive, models.PartnerSuspended:
	default:
		return errs.InvalidField("status", "unknown partner status")
	}
	res := s.db.Model(&models.LogisticsPartner{}).Where("id = ?", partnerID).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("logistics partner")
	}
	return nil
}
