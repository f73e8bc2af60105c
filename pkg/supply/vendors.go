package supply

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
)

// Service is the vendor supply pipeline: profiles, stock offers, delivery
// schedules, receipt confirmation, and vendor support tickets.
type Service struct {
	db           *gorm.DB
	reorderLevel int
	maxLevel     int
	logger       zerolog.Logger
}

func New(db *gorm.DB, reorderLevel, maxLevel int, logger zerolog.Logger) *Service {
	return &Service{db: db, reorderLevel: reorderLevel, maxLevel: maxLevel, logger: logger}
}

type VendorInput struct {
	BusinessName       string `json:"businessName" binding:"required"`
	RegistrationNumber string `json:"registrationNumber"`
	ContactPerson      string `json:"contactPerson"`
	BusinessAddress    string `json:"businessAddress"`
	City               string `json:"city"`
	State              string `json:"state"`
	Pincode            string `json:"pincode"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
	TaxID              string `json:"taxId"`
}

// Register creates the vendor profile in pending state. One profile per
// user; offers are rejected until an admin approves the profile.
func (s *Service) Register(userID uint, in VendorInput) (*models.VendorProfile, error) {
	var existing models.VendorProfile
	err := s.db.Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		return nil, errs.Constraint("vendor profile already exists for this user")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profile := models.VendorProfile{
		UserID:             userID,
		BusinessName:       in.BusinessName,
		RegistrationNumber: in.RegistrationNumber,
		ContactPerson:      in.ContactPerson,
		BusinessAddress:    in.BusinessAddress,
		City:               in.City,
		State:              in.State,
		Pincode:            in.Pincode,
		Phone:              in.Phone,
		Email:              in.Email,
		TaxID:              in.TaxID,
		Status:             models.VendorPending,
	}
	if err := s.db.Create(&profile).Error; err != nil {
		return nil, err
	}
	s.logger.Info().Uint("vendor", profile.ID).Str("business", profile.BusinessName).Msg("vendor registered")
	return &profile, nil
}

func (s *Service) VendorByUser(userID uint) (*models.VendorProfile, error) {
	var profile models.VendorProfile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, errs.NotFound("vendor profile")
	}
	return &profile, nil
}

func (s *Service) ListVendors(status string) ([]models.VendorProfile, error) {
	q := s.db.Preload("User")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var vendors []models.VendorProfile
	err := q.Order("created_at DESC").Find(&vendors).Error
	return vendors, err
}

// SetVendorStatus is the admin review of a profile.
func (s *Service) SetVendorStatus(vendorID uint, status string) error {
	switch status {
	case models.VendorApproved, models.VendorRejected, models.VendorSuspended:
	default:
		return errs.InvalidField("status", "unknown vendor status")
	}
	res := s.db.Model(&models.VendorProfile{}).Where("id = ?", vendorID).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("vendor profile")
	}
	return nil
}

// approvedVendor loads the profile and gates on approval.
func (s *Service) approvedVendor(userID uint) (*models.VendorProfile, error) {
	profile, err := s.VendorByUser(userID)
	if err != nil {
		return nil, err
	}
	if profile.Status != models.VendorApproved {
		return nil, errs.Forbidden("vendor profile is not approved")
	}
	return profile, nil
}

type LocationInput struct {
	Name          string `json:"name" binding:"required"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Pincode       string `json:"pincode"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	IsPrimary     bool   `json:"isPrimary"`
}

// AddLocation registers a pickup location. Marking one primary clears the
// flag on the vendor's other locations.
func (s *Service) AddLocation(userID uint, in LocationInput) (*models.VendorLocation, error) {
	profile, err := s.approvedVendor(userID)
	if err != nil {
		return nil, err
	}
	var loc models.VendorLocation
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if in.IsPrimary {
			if err := tx.Model(&models.VendorLocation{}).
				Where("vendor_id = ?", profile.ID).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		loc = models.VendorLocation{
			VendorID:      profile.ID,
			Name:          in.Name,
			Address:       in.Address,
			City:          in.City,
			State:         in.State,
			Pincode:       in.Pincode,
			ContactPerson: in.ContactPerson,
			Phone:         in.Phone,
			IsPrimary:     in.IsPrimary,
			IsActive:      true,
		}
		return tx.Create(&loc).Error
	})
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (s *Service) Locations(userID uint) ([]models.VendorLocation, error) {
	profile, err := s.VendorByUser(userID)
	if err != nil {
		return nil, err
	}
	var locations []models.VendorLocation
	err = s.db.Where("vendor_id = ? AND is_active = ?", profile.ID, true).
		Order("is_primary DESC, created_at").Find(&locations).Error
	return locations, err
}

type TicketInput struct {
	Subject     string `json:"subject" binding:"required"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

func (s *Service) OpenTicket(userID uint, in TicketInput) (*models.VendorTicket, error) {
	profile, err := s.VendorByUser(userID)
	if err != nil {
		return nil, err
	}
	ticket := models.VendorTicket{
		TicketNumber: models.NewVendorTicketID(),
		VendorID:     profile.ID,
		Subject:      in.Subject,
		Category:     in.Category,
		Description:  in.Description,
		Priority:     in.Priority,
		Status:       models.TicketOpen,
	}
	if ticket.Category == "" {
		ticket.Category = "general"
	}
	if ticket.Priority == "" {
		ticket.Priority = "medium"
	}
	if err := s.db.Create(&ticket).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *Service) Tickets(userID uint) ([]models.VendorTicket, error) {
	profile, err := s.VendorByUser(userID)
	if err != nil {
		return nil, err
	}
	var tickets []models.VendorTicket
	err = s.db.Preload("Responses").Where("vendor_id = ?", profile.ID).
		Order("created_at DESC").Find(&tickets).Error
	return tickets, err
}

func (s *Service) RespondToTicket(ticketID uint, author, response string, internal bool) (*models.VendorTicketResponse, error) {
	var ticket models.VendorTicket
	if err := s.db.First(&ticket, ticketID).Error; err != nil {
		return nil, errs.NotFound("ticket")
	}
	if ticket.Status == models.TicketClosed {
		return nil, errs.InvalidTransition(ticket.Status, "responded")
	}
	resp := models.VendorTicketResponse{
		TicketID:   ticket.ID,
		Author:     author,
		Response:   response,
		IsInternal: internal,
	}
	if err := s.db.Create(&resp).Error; err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Service) SetTicketStatus(ticketID uint, status, assignedTo string) error {
	switch status {
	case models.TicketOpen, models.TicketInProgress, models.TicketWaitingCustomer,
		models.TicketResolved, models.TicketClosed:
	default:
		return errs.InvalidField("status", "unknown ticket status")
	}
	var ticket models.VendorTicket
	if err := s.db.First(&ticket, ticketID).Error; err != nil {
		return errs.NotFound("ticket")
	}
	updates := map[string]interface{}{"status": status}
	if assignedTo != "" {
		updates["assigned_to"] = assignedTo
	}
	if status == models.TicketResolved && ticket.ResolvedAt == nil {
		updates["resolved_at"] = time.Now()
	}
	return s.db.Model(&ticket).Updates(updates).Error
}
