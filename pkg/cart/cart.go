package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
	"github.com/bookhaven/bookstore/pkg/pricing"
)

// Service owns the per-user basket. Prices are computed on read through
// the pricing service; the cart itself never checks stock.
type Service struct {
	db      *gorm.DB
	pricing *pricing.Service
}

func New(db *gorm.DB, pricingSvc *pricing.Service) *Service {
	return &Service{db: db, pricing: pricingSvc}
}

// GetOrCreate returns the user's cart, creating it on first use. The
// unique index on user_id keeps it one per user.
func (s *Service) GetOrCreate(userID uint) (*models.Cart, error) {
	var c models.Cart
	err := s.db.Where("user_id = ?", userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c = models.Cart{UserID: userID}
		if err := s.db.Create(&c).Error; err != nil {
			return nil, err
		}
		return &c, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Add merges qty into an existing line for the same book.
func (s *Service) Add(userID, bookID uint, qty int) (*models.CartItem, error) {
	if qty < 1 {
		return nil, errs.InvalidInput("quantity must be at least 1")
	}
	var book models.Book
	if err := s.db.First(&book, bookID).Error; err != nil {
		return nil, errs.NotFound("book")
	}

	c, err := s.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	var item models.CartItem
	err = s.db.Where("cart_id = ? AND book_id = ?", c.ID, bookID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		item = models.CartItem{CartID: c.ID, BookID: bookID, Quantity: qty}
		if err := s.db.Create(&item).Error; err != nil {
			return nil, err
		}
		return &item, nil
	}
	if err != nil {
		return nil, err
	}

	item.Quantity += qty
	if err := s.db.Model(&item).Update("quantity", item.Quantity).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func (s *Service) UpdateQuantity(userID, itemID uint, qty int) error {
	if qty < 0 {
		return errs.InvalidInput("quantity cannot be negative")
	}
	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return err
	}
	if qty == 0 {
		return s.db.Delete(item).Error
	}
	return s.db.Model(item).Update("quantity", qty).Error
}

func (s *Service) Remove(userID, itemID uint) error {
	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return err
	}
	return s.db.Delete(item).Error
}

func (s *Service) ownedItem(userID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, errs.NotFound("cart item")
	}
	return &item, nil
}

func (s *Service) Items(userID uint) ([]models.CartItem, error) {
	c, err := s.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	var items []models.CartItem
	err = s.db.Preload("Book").Preload("Book.Category").
		Where("cart_id = ?", c.ID).
		Order("created_at").
		Find(&items).Error
	return items, err
}

// ItemSummary is one priced cart line.
type ItemSummary struct {
	ItemID         uint            `json:"itemId"`
	BookID         uint            `json:"bookId"`
	Title          string          `json:"title"`
	Quantity       int             `json:"quantity"`
	ListPrice      decimal.Decimal `json:"listPrice"`
	EffectivePrice decimal.Decimal `json:"effectivePrice"`
	LineTotal      decimal.Decimal `json:"lineTotal"`
	OnSale         bool            `json:"onSale"`
}

type Summary struct {
	Items            []ItemSummary   `json:"items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	OriginalSubtotal decimal.Decimal `json:"originalSubtotal"`
	SaleSavings      decimal.Decimal `json:"saleSavings"`
}

// PriceSummary prices the basket at now: effective prices per line,
// subtotal, and what the sales saved against list.
func (s *Service) PriceSummary(userID uint, now time.Time) (*Summary, error) {
	items, err := s.Items(userID)
	if err != nil {
		return nil, err
	}

	bookIDs := make([]uint, 0, len(items))
	for _, item := range items {
		bookIDs = append(bookIDs, item.BookID)
	}
	saleMap, err := s.pricing.SaleMap(bookIDs, now)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Items:            make([]ItemSummary, 0, len(items)),
		Subtotal:         decimal.Zero,
		OriginalSubtotal: decimal.Zero,
	}
	for _, item := range items {
		effective := item.Book.Price
		onSale := false
		if saleItem, ok := saleMap[item.BookID]; ok {
			effective = pricing.SalePrice(item.Book.Price, &saleItem)
			onSale = effective.LessThan(item.Book.Price)
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		lineTotal := effective.Mul(qty)

		summary.Items = append(summary.Items, ItemSummary{
			ItemID:         item.ID,
			BookID:         item.BookID,
			Title:          item.Book.Title,
			Quantity:       item.Quantity,
			ListPrice:      item.Book.Price,
			EffectivePrice: effective,
			LineTotal:      lineTotal,
			OnSale:         onSale,
		})
		summary.Subtotal = summary.Subtotal.Add(lineTotal)
		summary.OriginalSubtotal = summary.OriginalSubtotal.Add(item.Book.Price.Mul(qty))
	}
	summary.SaleSavings = summary.OriginalSubtotal.Sub(summary.Subtotal)
	return summary, nil
}

// CouponItems converts the basket to the pricing engine's view of it.
func (s *Service) CouponItems(userID uint, now time.Time) ([]pricing.CouponItem, decimal.Decimal, error) {
	items, err := s.Items(userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	bookIDs := make([]uint, 0, len(items))
	for _, item := range items {
		bookIDs = append(bookIDs, item.BookID)
	}
	saleMap, err := s.pricing.SaleMap(bookIDs, now)
	if err != nil {
		return nil, decimal.Zero, err
	}

	couponItems := make([]pricing.CouponItem, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		effective := item.Book.Price
		if saleItem, ok := saleMap[item.BookID]; ok {
			effective = pricing.SalePrice(item.Book.Price, &saleItem)
		}
		couponItems = append(couponItems, pricing.CouponItem{
			BookID:     item.BookID,
			CategoryID: item.Book.CategoryID,
			UnitPrice:  effective,
			Quantity:   item.Quantity,
		})
		subtotal = subtotal.Add(effective.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return couponItems, subtotal, nil
}

// CouponCheck is the evaluation of one coupon against the basket.
type CouponCheck struct {
	Code     string          `json:"code"`
	OK       bool            `json:"ok"`
	Reason   string          `json:"reason,omitempty"`
	Discount decimal.Decimal `json:"discount"`
}

// ApplicableCoupons evaluates every live coupon against the basket so the
// storefront can offer the ones worth applying.
func (s *Service) ApplicableCoupons(userID uint, now time.Time) ([]CouponCheck, error) {
	couponItems, subtotal, err := s.CouponItems(userID, now)
	if err != nil {
		return nil, err
	}

	var coupons []models.Coupon
	err = s.db.
		Preload("ApplicableCategories").
		Preload("ApplicableBooks").
		Preload("ExcludedUsers").
		Where("is_active = ?", true).
		Where("valid_from <= ? AND valid_to >= ?", now, now).
		Find(&coupons).Error
	if err != nil {
		return nil, err
	}

	checks := make([]CouponCheck, 0, len(coupons))
	for i := range coupons {
		coupon := &coupons[i]
		check := CouponCheck{Code: coupon.Code, Discount: decimal.Zero}
		if err := s.pricing.CanUse(coupon, userID, subtotal, couponItems, now); err != nil {
			if errs.KindOf(err) != errs.KindCouponRejected {
				return nil, err
			}
			check.Reason = errs.SubreasonOf(err)
		} else {
			check.OK = true
			check.Discount = pricing.Discount(coupon, couponItems)
		}
		checks = append(checks, check)
	}
	return checks, nil
}

// CheckCoupon evaluates one named code against the basket. Unlike
// checkout it records nothing, so calling it any number of times yields
// the same answer for the same basket.
func (s *Service) CheckCoupon(userID uint, code string, now time.Time) (*CouponCheck, error) {
	coupon, err := s.pricing.GetCoupon(code)
	if err != nil {
		return nil, err
	}
	couponItems, subtotal, err := s.CouponItems(userID, now)
	if err != nil {
		return nil, err
	}

	check := CouponCheck{Code: coupon.Code, Discount: decimal.Zero}
	if err := s.pricing.CanUse(coupon, userID, subtotal, couponItems, now); err != nil {
		if errs.KindOf(err) != errs.KindCouponRejected {
			return nil, err
		}
		check.Reason = errs.SubreasonOf(err)
		return &check, nil
	}
	check.OK = true
	check.Discount = pricing.Discount(coupon, couponItems)
	return &check, nil
}

// Clear empties the basket. Checkout calls this inside its transaction.
func Clear(tx *gorm.DB, cartID uint) error {
	return tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
