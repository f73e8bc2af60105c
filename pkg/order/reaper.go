package order

import (
	"fmt"
	"time"

	"github.com/bookhaven/bookstore/pkg/models"
)

// EnqueueExpiry schedules the unpaid-order reaper for one order. The job
// re-checks state when it fires; a paid or cancelled order is left alone.
func (s *Service) EnqueueExpiry(orderID uint, placedAt time.Time) {
	if s.queue == nil {
		return
	}
	s.queue.Enqueue(fmt.Sprintf("expire-order-%d", orderID), placedAt.Add(s.pendingTTL), func() error {
		return s.ExpireIfPending(orderID)
	})
}

// ExpireIfPending cancels the order when it is still pending and unpaid.
func (s *Service) ExpireIfPending(orderID uint) error {
	var ord models.Order
	if err := s.db.First(&ord, orderID).Error; err != nil {
		return nil
	}
	if ord.Status != models.OrderPending || ord.PaymentStatus == models.PaymentPaid {
		return nil
	}
	s.logger.Info().Str("order", ord.OrderNumber).Msg("pending order expired, cancelling")
	return s.Cancel(ord.ID, "system")
}

// BootstrapExpiry re-enqueues reaper jobs for pending orders that survived
// a restart. Orders already past the TTL fire on the next worker tick.
func (s *Service) BootstrapExpiry() error {
	var pending []models.Order
	if err := s.db.Where("status = ?", models.OrderPending).Find(&pending).Error; err != nil {
		return err
	}
	for _, ord := range pending {
		s.EnqueueExpiry(ord.ID, ord.CreatedAt)
	}
	if len(pending) > 0 {
		s.logger.Info().Int("count", len(pending)).Msg("re-enqueued pending order expirations")
	}
	return nil
}
