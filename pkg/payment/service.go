package payment

import (
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/circuitbreaker"
	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
	"github.com/bookhaven/bookstore/pkg/order"
)

// Service drives the payment lifecycle for orders. Gateway calls go
// through a circuit breaker so a dead gateway fails fast instead of
// stacking up timeouts.
type Service struct {
	db       *gorm.DB
	gateway  Gateway
	breaker  *circuitbreaker.CircuitBreaker
	orders   *order.Service
	currency string
	logger   zerolog.Logger
}

func New(db *gorm.DB, gateway Gateway, breaker *circuitbreaker.CircuitBreaker, orders *order.Service, currency string, logger zerolog.Logger) *Service {
	return &Service{
		db:       db,
		gateway:  gateway,
		breaker:  breaker,
		orders:   orders,
		currency: currency,
		logger:   logger,
	}
}

// Create authorizes the order amount with the gateway and persists the
// PaymentRecord. Calling it again for the same order returns the existing
// record instead of creating a second authorization.
func (s *Service) Create(orderID uint, returnURL, cancelURL string) (*models.PaymentRecord, error) {
	ord, err := s.orders.Get(orderID)
	if err != nil {
		return nil, err
	}
	if ord.Status != models.OrderPending {
		return nil, errs.InvalidTransition(ord.Status, "payment")
	}

	var existing models.PaymentRecord
	err = s.db.Where("order_id = ?", ord.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var result *CreateResult
	err = s.breaker.Execute(func() error {
		var gerr error
		result, gerr = s.gateway.CreatePayment(ord.TotalAmount, s.currency, returnURL, cancelURL)
		return gerr
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return nil, errs.PaymentFailed("payment gateway unavailable", err)
		}
		return nil, errs.PaymentFailed("payment creation failed", err)
	}

	record := models.PaymentRecord{
		OrderID:     ord.ID,
		ExternalID:  result.ExternalID,
		ApprovalURL: result.ApprovalURL,
		Amount:      ord.TotalAmount,
		Currency:    s.currency,
		State:       models.PaymentRecordCreated,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}
	s.logger.Info().Str("order", ord.OrderNumber).Str("payment", record.ExternalID).Msg("payment created")
	return &record, nil
}

// Execute captures an approved payment. On gateway success the record is
// completed and the order moves to confirmed via capture; on gateway
// failure the record is marked failed and the error surfaces to the caller.
func (s *Service) Execute(externalID, payerID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := s.db.Where("external_id = ?", externalID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("payment")
	}
	if err != nil {
		return nil, err
	}
	if record.State == models.PaymentRecordCompleted {
		return &record, nil
	}
	if record.State == models.PaymentRecordCancelled {
		return nil, errs.InvalidTransition(record.State, models.PaymentRecordCompleted)
	}

	err = s.breaker.Execute(func() error {
		return s.gateway.ExecutePayment(externalID, payerID)
	})
	if err != nil {
		reason := err.Error()
		if uerr := s.db.Model(&record).Updates(map[string]interface{}{
			"state":          models.PaymentRecordFailed,
			"failure_reason": reason,
		}).Error; uerr != nil {
			return nil, uerr
		}
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return nil, errs.PaymentFailed("payment gateway unavailable", err)
		}
		return nil, errs.PaymentFailed("payment execution failed", err)
	}

	if err := s.db.Model(&record).Updates(map[string]interface{}{
		"state":    models.PaymentRecordCompleted,
		"payer_id": payerID,
	}).Error; err != nil {
		return nil, err
	}
	if err := s.orders.PaymentCapture(record.OrderID, "payment"); err != nil {
		return nil, err
	}

	record.State = models.PaymentRecordCompleted
	record.PayerID = payerID
	s.logger.Info().Str("payment", externalID).Uint("order", record.OrderID).Msg("payment completed")
	return &record, nil
}

// Cancel moves the record to cancelled. The order itself is released
// through the order cancellation path, not from here.
func (s *Service) Cancel(orderID uint) error {
	var record models.PaymentRecord
	err := s.db.Where("order_id = ?", orderID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound("payment")
	}
	if err != nil {
		return err
	}
	if record.State == models.PaymentRecordCompleted {
		return errs.InvalidTransition(record.State, models.PaymentRecordCancelled)
	}
	return s.db.Model(&record).Update("state", models.PaymentRecordCancelled).Error
}

func (s *Service) Get(orderID uint) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := s.db.Where("order_id = ?", orderID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("payment")
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
