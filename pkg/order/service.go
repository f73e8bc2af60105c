package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/cart"
	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/jobs"
	"github.com/bookhaven/bookstore/pkg/models"
	"github.com/bookhaven/bookstore/pkg/pricing"
	"github.com/bookhaven/bookstore/pkg/stock"
)

// transitions is the permitted order state machine. Confirmed is reachable
// only through payment capture; everything else goes through Transition.
var transitions = map[string][]string{
	models.OrderPending:        {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed:      {models.OrderProcessing, models.OrderCancelled},
	models.OrderProcessing:     {models.OrderShipped},
	models.OrderShipped:        {models.OrderOutForDelivery},
	models.OrderOutForDelivery: {models.OrderDelivered},
	models.OrderDelivered:      {models.OrderReturned},
	models.OrderReturned:       {models.OrderRefunded},
}

func canTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Service struct {
	db         *gorm.DB
	pricing    *pricing.Service
	queue      *jobs.Queue
	pendingTTL time.Duration
	logger     zerolog.Logger
}

func New(db *gorm.DB, pricingSvc *pricing.Service, queue *jobs.Queue, pendingTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		db:         db,
		pricing:    pricingSvc,
		queue:      queue,
		pendingTTL: pendingTTL,
		logger:     logger,
	}
}

// Address is one side of the checkout form.
type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
}

type CheckoutInput struct {
	Billing        Address         `json:"billing"`
	Shipping       Address         `json:"shipping"`
	SameAsBilling  bool            `json:"sameAsBilling"`
	CouponCode     string          `json:"couponCode"`
	PaymentMethod  string          `json:"paymentMethod"`
	Notes          string          `json:"notes"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
}

// Checkout turns the user's cart into a pending order. The whole sequence
// runs in one transaction: availability checks under row locks, frozen
// prices, reservations, coupon usage, tracking, and emptying the cart all
// commit or roll back together.
func (s *Service) Checkout(userID uint, in CheckoutInput, now time.Time) (*models.Order, error) {
	var created models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var basket models.Cart
		if err := tx.Where("user_id = ?", userID).First(&basket).Error; err != nil {
			return errs.InvalidInput("cart is empty")
		}
		var items []models.CartItem
		if err := tx.Preload("Book").Where("cart_id = ?", basket.ID).Order("created_at").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return errs.InvalidInput("cart is empty")
		}

		// Lock every stock row up front and collect shortfalls so the
		// caller sees all of them at once.
		var shortfalls []string
		for _, item := range items {
			st, err := stock.LockForBook(tx, item.BookID)
			if err != nil {
				return err
			}
			if st.AvailableQuantity() < item.Quantity {
				shortfalls = append(shortfalls, fmt.Sprintf("%s: requested %d, available %d",
					item.Book.Title, item.Quantity, st.AvailableQuantity()))
			}
		}
		if len(shortfalls) > 0 {
			return errs.InsufficientStock(strings.Join(shortfalls, "; "))
		}

		shipping := in.Shipping
		if in.SameAsBilling {
			shipping = in.Billing
		}

		bookIDs := make([]uint, 0, len(items))
		for _, item := range items {
			bookIDs = append(bookIDs, item.BookID)
		}
		saleMap, err := s.pricing.SaleMap(bookIDs, now)
		if err != nil {
			return err
		}

		ord := models.Order{
			OrderNumber:       models.NewOrderID(),
			UserID:            userID,
			BillingFirstName:  in.Billing.FirstName,
			BillingLastName:   in.Billing.LastName,
			BillingEmail:      in.Billing.Email,
			BillingPhone:      in.Billing.Phone,
			BillingAddress:    in.Billing.Address,
			BillingCity:       in.Billing.City,
			BillingState:      in.Billing.State,
			BillingPincode:    in.Billing.Pincode,
			ShippingFirstName: shipping.FirstName,
			ShippingLastName:  shipping.LastName,
			ShippingAddress:   shipping.Address,
			ShippingCity:      shipping.City,
			ShippingState:     shipping.State,
			ShippingPincode:   shipping.Pincode,
			Status:            models.OrderPending,
			PaymentStatus:     models.PaymentPending,
			PaymentMethod:     in.PaymentMethod,
			Notes:             in.Notes,
			ShippingCost:      in.ShippingCost,
			TaxAmount:         in.TaxAmount,
			Subtotal:          decimal.Zero,
			DiscountAmount:    decimal.Zero,
		}
		if err := tx.Create(&ord).Error; err != nil {
			return err
		}

		couponItems := make([]pricing.CouponItem, 0, len(items))
		for _, item := range items {
			price := item.Book.Price
			if saleItem, ok := saleMap[item.BookID]; ok {
				price = pricing.SalePrice(item.Book.Price, &saleItem)
			}
			line := models.OrderItem{
				OrderID:  ord.ID,
				BookID:   item.BookID,
				Quantity: item.Quantity,
				Price:    price,
				Total:    price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			ord.Subtotal = ord.Subtotal.Add(line.Total)
			couponItems = append(couponItems, pricing.CouponItem{
				BookID:     item.BookID,
				CategoryID: item.Book.CategoryID,
				UnitPrice:  price,
				Quantity:   item.Quantity,
			})

			if err := stock.Reserve(tx, item.BookID, item.Quantity); err != nil {
				return err
			}
		}

		if in.CouponCode != "" {
			coupon, err := s.pricing.GetCoupon(in.CouponCode)
			if err != nil {
				return err
			}
			if err := s.pricing.CanUse(coupon, userID, ord.Subtotal, couponItems, now); err != nil {
				return err
			}
			ord.DiscountAmount = pricing.Discount(coupon, couponItems)
			ord.CouponCode = coupon.Code
			if coupon.DiscountType == models.DiscountFreeShipping {
				ord.ShippingCost = decimal.Zero
			}
			usage := models.CouponUsage{
				CouponID:       coupon.ID,
				UserID:         userID,
				OrderID:        &ord.ID,
				DiscountAmount: ord.DiscountAmount,
			}
			if err := tx.Create(&usage).Error; err != nil {
				return err
			}
		}

		ord.TotalAmount = ord.Subtotal.Sub(ord.DiscountAmount).Add(ord.ShippingCost).Add(ord.TaxAmount)
		if err := tx.Model(&models.Order{}).Where("id = ?", ord.ID).Updates(map[string]interface{}{
			"subtotal":        ord.Subtotal,
			"discount_amount": ord.DiscountAmount,
			"shipping_cost":   ord.ShippingCost,
			"coupon_code":     ord.CouponCode,
			"total_amount":    ord.TotalAmount,
		}).Error; err != nil {
			return err
		}

		if err := appendTracking(tx, ord.ID, models.TrackOrderPlaced, "", "Order placed"); err != nil {
			return err
		}
		if err := cart.Clear(tx, basket.ID); err != nil {
			return err
		}

		created = ord
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.EnqueueExpiry(created.ID, created.CreatedAt)
	s.logger.Info().Str("order", created.OrderNumber).Uint("user", userID).
		Str("total", created.TotalAmount.String()).Msg("order placed")
	return s.Get(created.ID)
}

func (s *Service) Get(orderID uint) (*models.Order, error) {
	var ord models.Order
	err := s.db.Preload("Items").Preload("Items.Book").First(&ord, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("order")
	}
	if err != nil {
		return nil, err
	}
	return &ord, nil
}

// GetByNumber resolves the opaque public identifier.
func (s *Service) GetByNumber(orderNumber string) (*models.Order, error) {
	var ord models.Order
	err := s.db.Preload("Items").Preload("Items.Book").
		Where("order_number = ?", orderNumber).First(&ord).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("order")
	}
	if err != nil {
		return nil, err
	}
	return &ord, nil
}

func (s *Service) ListForUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Items").Preload("Items.Book").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (s *Service) List(status string, page, size int) ([]models.Order, int64, error) {
	q := s.db.Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []models.Order
	err := q.Preload("Items").Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&orders).Error
	return orders, total, err
}

func (s *Service) Tracking(orderID uint) ([]models.OrderTracking, error) {
	var entries []models.OrderTracking
	err := s.db.Where("order_id = ?", orderID).Order("created_at").Find(&entries).Error
	return entries, err
}

// Cancel releases every reservation and stamps the order cancelled.
// Calling it on an already cancelled order is a no-op.
func (s *Service) Cancel(orderID uint, actor string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var ord models.Order
		if err := tx.Preload("Items").First(&ord, orderID).Error; err != nil {
			return errs.NotFound("order")
		}
		if ord.Status == models.OrderCancelled {
			return nil
		}
		if !canTransition(ord.Status, models.OrderCancelled) {
			return errs.InvalidTransition(ord.Status, models.OrderCancelled)
		}

		// Reservations exist only while payment is outstanding; Release
		// clamps at zero so a confirmed-order cancel stays safe.
		for _, item := range ord.Items {
			if err := stock.Release(tx, item.BookID, item.Quantity); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{"status": models.OrderCancelled}
		if ord.PaymentStatus == models.PaymentPending {
			updates["payment_status"] = models.PaymentFailed
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", ord.ID).Updates(updates).Error; err != nil {
			return err
		}
		return appendTracking(tx, ord.ID, models.TrackCancelled, "", "Order cancelled by "+actor)
	})
}

// PaymentCapture converts reservations into fulfillment: payment goes to
// paid, the order to confirmed, and each line's reserved units become an
// outbound movement referencing the order number.
func (s *Service) PaymentCapture(orderID uint, actor string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ord models.Order
		if err := tx.Preload("Items").First(&ord, orderID).Error; err != nil {
			return errs.NotFound("order")
		}
		if !canTransition(ord.Status, models.OrderConfirmed) {
			return errs.InvalidTransition(ord.Status, models.OrderConfirmed)
		}

		for _, item := range ord.Items {
			if err := stock.CommitReservation(tx, item.BookID, item.Quantity, ord.OrderNumber, actor); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", ord.ID).Updates(map[string]interface{}{
			"status":         models.OrderConfirmed,
			"payment_status": models.PaymentPaid,
		}).Error; err != nil {
			return err
		}
		if err := appendTracking(tx, ord.ID, models.TrackConfirmed, "", "Payment received, order confirmed"); err != nil {
			return err
		}
		return s.createDelivery(tx, &ord)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Uint("order", orderID).Msg("payment captured")
	return nil
}

// Transition moves the order along the fulfillment path. Pending→confirmed
// is rejected here; that edge belongs to PaymentCapture.
func (s *Service) Transition(orderID uint, to, location, description, actor string) error {
	if to == models.OrderConfirmed || to == models.OrderCancelled {
		return errs.InvalidInput("use the payment or cancellation operation for this status")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var ord models.Order
		if err := tx.First(&ord, orderID).Error; err != nil {
			return errs.NotFound("order")
		}
		if !canTransition(ord.Status, to) {
			return errs.InvalidTransition(ord.Status, to)
		}

		updates := map[string]interface{}{"status": to}
		if to == models.OrderDelivered && ord.DeliveredAt == nil {
			updates["delivered_at"] = time.Now()
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", ord.ID).Updates(updates).Error; err != nil {
			return err
		}
		if description == "" {
			description = "Status updated by " + actor
		}
		return appendTracking(tx, ord.ID, trackStatus(to), location, description)
	})
}

func trackStatus(orderStatus string) string {
	switch orderStatus {
	case models.OrderProcessing:
		return models.TrackPreparing
	default:
		return orderStatus
	}
}

func appendTracking(tx *gorm.DB, orderID uint, status, location, description string) error {
	return tx.Create(&models.OrderTracking{
		OrderID:     orderID,
		Status:      status,
		Location:    location,
		Description: description,
	}).Error
}
