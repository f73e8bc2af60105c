package supply

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
)

type OfferInput struct {
	BookID           uint            `json:"bookId" binding:"required"`
	Quantity         int             `json:"quantity" binding:"required"`
	UnitPrice        decimal.Decimal `json:"unitPrice" binding:"required"`
	AvailabilityDate time.Time       `json:"availabilityDate"`
	ExpiryDate       time.Time       `json:"expiryDate"`
	Notes            string          `json:"notes"`
}

// SubmitOffer files a supply proposal. The total is always recomputed from
// quantity and unit price; client-sent totals are ignored.
func (s *Service) SubmitOffer(userID uint, in OfferInput) (*models.StockOffer, error) {
	profile, err := s.approvedVendor(userID)
	if err != nil {
		return nil, err
	}
	if in.Quantity < 1 {
		return nil, errs.InvalidField("quantity", "must be at least 1")
	}
	if in.UnitPrice.LessThanOrEqual(decimal.Zero) {
		return nil, errs.InvalidField("unitPrice", "must be positive")
	}
	var book models.Book
	if err := s.db.First(&book, in.BookID).Error; err != nil {
		return nil, errs.NotFound("book")
	}

	offer := models.StockOffer{
		VendorID:         profile.ID,
		BookID:           in.BookID,
		Quantity:         in.Quantity,
		UnitPrice:        in.UnitPrice,
		TotalAmount:      in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))),
		AvailabilityDate: in.AvailabilityDate,
		ExpiryDate:       in.ExpiryDate,
		Notes:            in.Notes,
		Status:           models.OfferPending,
	}
	if err := s.db.Create(&offer).Error; err != nil {
		return nil, err
	}
	s.logger.Info().Uint("offer", offer.ID).Uint("vendor", profile.ID).
		Uint("book", offer.BookID).Int("qty", offer.Quantity).Msg("stock offer submitted")
	return &offer, nil
}

func (s *Service) GetOffer(offerID uint) (*models.StockOffer, error) {
	var offer models.StockOffer
	err := s.db.Preload("Vendor").Preload("Book").First(&offer, offerID).Error
	if err != nil {
		return nil, errs.NotFound("stock offer")
	}
	return &offer, nil
}

func (s *Service) ListOffers(status string, vendorID uint) ([]models.StockOffer, error) {
	q := s.db.Preload("Vendor").Preload("Book")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if vendorID != 0 {
		q = q.Where("vendor_id = ?", vendorID)
	}
	var offers []models.StockOffer
	err := q.Order("created_at DESC").Find(&offers).Error
	return offers, err
}

func (s *Service) OffersForUser(userID uint) ([]models.StockOffer, error) {
	profile, err := s.VendorByUser(userID)
	if err != nil {
		return nil, err
	}
	return s.ListOffers("", profile.ID)
}

// ReviewOffer approves or rejects a pending offer and stamps the reviewer.
// Both outcomes notify the vendor.
func (s *Service) ReviewOffer(offerID uint, approve bool, adminNotes, reviewer string) (*models.StockOffer, error) {
	var offer models.StockOffer
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&offer, offerID).Error; err != nil {
			return errs.NotFound("stock offer")
		}
		if offer.Status != models.OfferPending {
			to := models.OfferRejected
			if approve {
				to = models.OfferApproved
			}
			return errs.InvalidTransition(offer.Status, to)
		}

		status := models.OfferRejected
		message := "Your stock offer was rejected."
		if approve {
			status = models.OfferApproved
			message = "Your stock offer was approved. Please schedule the delivery."
		}
		now := time.Now()
		if err := tx.Model(&offer).Updates(map[string]interface{}{
			"status":      status,
			"admin_notes": adminNotes,
			"reviewed_by": reviewer,
			"reviewed_at": now,
		}).Error; err != nil {
			return err
		}
		offer.Status = status
		return notify(tx, offer.ID, status, message)
	})
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (s *Service) Notifications(userID uint, unreadOnly bool) ([]models.OfferStatusNotification, error) {
	profile, err := s.VendorByUser(userID)
	if err != nil {
		return nil, err
	}
	q := s.db.
		Joins("JOIN stock_offers ON stock_offers.id = offer_status_notifications.stock_offer_id").
		Where("stock_offers.vendor_id = ?", profile.ID)
	if unreadOnly {
		q = q.Where("offer_status_notifications.is_read = ?", false)
	}
	var notifications []models.OfferStatusNotification
	err = q.Order("offer_status_notifications.created_at DESC").Find(&notifications).Error
	return notifications, err
}

func (s *Service) MarkNotificationRead(notificationID uint) error {
	res := s.db.Model(&models.OfferStatusNotification{}).
		Where("id = ?", notificationID).Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("notification")
	}
	return nil
}

func notify(tx *gorm.DB, offerID uint, status, message string) error {
	return tx.Create(&models.OfferStatusNotification{
		StockOfferID: offerID,
		Status:       status,
		Message:      message,
	}).Error
}
