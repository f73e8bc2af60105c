package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
)

// CouponItem is one cart or order line as the coupon engine sees it:
// effective unit price, quantity and the book's category for scoping.
type CouponItem struct {
	BookID     uint
	CategoryID uint
	UnitPrice  decimal.Decimal
	Quantity   int
}

// GetCoupon loads a coupon with its scope sets by code.
func (s *Service) GetCoupon(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := s.db.
		Preload("ApplicableCategories").
		Preload("ApplicableBooks").
		Preload("ExcludedUsers").
		Where("code = ?", code).
		First(&coupon).Error
	if err != nil {
		return nil, errs.NotFound("coupon")
	}
	return &coupon, nil
}

// CanUse runs the eligibility rules in order and returns a coupon_rejected
// error with a subreason on the first failure. The caller supplies now so
// checkout and re-validation agree on the instant being evaluated.
func (s *Service) CanUse(coupon *models.Coupon, userID uint, orderAmount decimal.Decimal, items []CouponItem, now time.Time) error {
	if !coupon.IsActive || now.Before(coupon.ValidFrom) || now.After(coupon.ValidTo) {
		return errs.CouponRejected("expired", "coupon is not active or outside its validity window")
	}

	if orderAmount.LessThan(coupon.MinOrderAmount) {
		return errs.CouponRejected("min_order",
			fmt.Sprintf("minimum order amount is %s", coupon.MinOrderAmount.StringFixed(2)))
	}

	if coupon.UsageLimit > 0 {
		var total int64
		if err := s.db.Model(&models.CouponUsage{}).Where("coupon_id = ?", coupon.ID).Count(&total).Error; err != nil {
			return err
		}
		if total >= int64(coupon.UsageLimit) {
			return errs.CouponRejected("limit", "coupon usage limit reached")
		}
	}

	if coupon.UsageLimitPerUser > 0 {
		var mine int64
		if err := s.db.Model(&models.CouponUsage{}).
			Where("coupon_id = ? AND user_id = ?", coupon.ID, userID).
			Count(&mine).Error; err != nil {
			return err
		}
		if mine >= int64(coupon.UsageLimitPerUser) {
			return errs.CouponRejected("limit", "you have already used this coupon")
		}
	}

	for _, u := range coupon.ExcludedUsers {
		if u.ID == userID {
			return errs.CouponRejected("excluded", "you are not eligible for this coupon")
		}
	}

	if coupon.FirstTimeUsersOnly {
		var paid int64
		if err := s.db.Model(&models.Order{}).
			Where("user_id = ? AND payment_status = ?", userID, models.PaymentPaid).
			Count(&paid).Error; err != nil {
			return err
		}
		if paid > 0 {
			return errs.CouponRejected("first_time_only", "this coupon is for first-time customers only")
		}
	}

	if len(applicableItems(coupon, items)) == 0 {
		return errs.CouponRejected("ineligible_items", "no items in the cart qualify for this coupon")
	}

	return nil
}

// Discount computes the coupon's discount over the applicable items.
// Free-shipping coupons return zero here; the shipping layer applies them.
func Discount(coupon *models.Coupon, items []CouponItem) decimal.Decimal {
	applicable := applicableItems(coupon, items)
	if len(applicable) == 0 {
		return decimal.Zero
	}

	base := decimal.Zero
	for _, item := range applicable {
		base = base.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	switch coupon.DiscountType {
	case models.DiscountPercentage:
		discount := base.Mul(coupon.DiscountValue).Div(hundred)
		if coupon.MaxDiscountAmount.Valid && discount.GreaterThan(coupon.MaxDiscountAmount.Decimal) {
			discount = coupon.MaxDiscountAmount.Decimal
		}
		return discount
	case models.DiscountFixedAmount:
		if coupon.DiscountValue.GreaterThan(base) {
			return base
		}
		return coupon.DiscountValue
	default:
		return decimal.Zero
	}
}

// applicableItems filters items by the coupon's book/category scope.
// Both sets empty means the coupon is universal.
func applicableItems(coupon *models.Coupon, items []CouponItem) []CouponItem {
	if len(coupon.ApplicableBooks) == 0 && len(coupon.ApplicableCategories) == 0 {
		return items
	}

	books := make(map[uint]bool, len(coupon.ApplicableBooks))
	for _, b := range coupon.ApplicableBooks {
		books[b.ID] = true
	}
	categories := make(map[uint]bool, len(coupon.ApplicableCategories))
	for _, c := range coupon.ApplicableCategories {
		categories[c.ID] = true
	}

	var out []CouponItem
	for _, item := range items {
		if books[item.BookID] || categories[item.CategoryID] {
			out = append(out, item)
		}
	}
	return out
}
