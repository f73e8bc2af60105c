package pricing

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
)

type SaleItemInput struct {
	BookID              uint                `json:"bookId" binding:"required"`
	CustomDiscountValue decimal.NullDecimal `json:"customDiscountValue"`
	CustomSalePrice     decimal.NullDecimal `json:"customSalePrice"`
}

type SaleInput struct {
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description"`
	DiscountType  string          `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue" binding:"required"`
	ValidFrom     time.Time       `json:"validFrom" binding:"required"`
	ValidTo       time.Time       `json:"validTo" binding:"required"`
	Items         []SaleItemInput `json:"items" binding:"required"`
}

// CreateSale sets up a sale and its per-book items in one transaction. Book
// flags is_on_sale and original_price are updated so listings can filter
// without joining sales.
func (s *Service) CreateSale(in SaleInput) (*models.BookSale, error) {
	if in.DiscountType == "" {
		in.DiscountType = models.DiscountPercentage
	}
	if in.DiscountType != models.DiscountPercentage && in.DiscountType != models.DiscountFixedAmount {
		return nil, errs.InvalidField("discountType", "must be percentage or fixed_amount")
	}
	if !in.ValidTo.After(in.ValidFrom) {
		return nil, errs.InvalidField("validTo", "must be after validFrom")
	}
	if len(in.Items) == 0 {
		return nil, errs.InvalidField("items", "a sale needs at least one book")
	}

	var sale models.BookSale
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sale = models.BookSale{
			Name:          in.Name,
			Description:   in.Description,
			DiscountType:  in.DiscountType,
			DiscountValue: in.DiscountValue,
			ValidFrom:     in.ValidFrom,
			ValidTo:       in.ValidTo,
			IsActive:      true,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}
		for _, itemIn := range in.Items {
			var book models.Book
			if err := tx.First(&book, itemIn.BookID).Error; err != nil {
				return errs.NotFound("book")
			}
			item := models.BookSaleItem{
				SaleID:              sale.ID,
				BookID:              book.ID,
				CustomDiscountValue: itemIn.CustomDiscountValue,
				CustomSalePrice:     itemIn.CustomSalePrice,
			}
			item.Sale = sale
			salePrice := SalePrice(book.Price, &item)
			if salePrice.GreaterThan(book.Price) {
				return errs.InvalidField("customSalePrice", "sale price exceeds list price")
			}
			item.Sale = models.BookSale{}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			if err := tx.Model(&book).Updates(map[string]interface{}{
				"is_on_sale":     true,
				"original_price": book.Price,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// DeactivateSale ends a sale and clears the is_on_sale flag on books that
// no other active sale still covers.
func (s *Service) DeactivateSale(saleID uint, now time.Time) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var sale models.BookSale
		if err := tx.Preload("Items").First(&sale, saleID).Error; err != nil {
			return errs.NotFound("sale")
		}
		if err := tx.Model(&sale).Update("is_active", false).Error; err != nil {
			return err
		}
		for _, item := range sale.Items {
			var others int64
			err := tx.Model(&models.BookSaleItem{}).
				Joins("JOIN book_sales ON book_sales.id = book_sale_items.sale_id").
				Where("book_sale_items.book_id = ? AND book_sales.id != ?", item.BookID, sale.ID).
				Where("book_sales.is_active = ?", true).
				Where("book_sales.valid_from <= ? AND book_sales.valid_to >= ?", now, now).
				Count(&others).Error
			if err != nil {
				return err
			}
			if others == 0 {
				if err := tx.Model(&models.Book{}).Where("id = ?", item.BookID).
					Update("is_on_sale", false).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

type CouponInput struct {
	Code               string              `json:"code" binding:"required"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	DiscountType       string              `json:"discountType"`
	DiscountValue      decimal.Decimal     `json:"discountValue" binding:"required"`
	MinOrderAmount     decimal.Decimal     `json:"minOrderAmount"`
	MaxDiscountAmount  decimal.NullDecimal `json:"maxDiscountAmount"`
	UsageLimit         int                 `json:"usageLimit"`
	UsageLimitPerUser  int                 `json:"usageLimitPerUser"`
	ValidFrom          time.Time           `json:"validFrom" binding:"required"`
	ValidTo            time.Time           `json:"validTo" binding:"required"`
	FirstTimeUsersOnly bool                `json:"firstTimeUsersOnly"`
	CategoryIDs        []uint              `json:"categoryIds"`
	BookIDs            []uint              `json:"bookIds"`
}

func (s *Service) CreateCoupon(in CouponInput) (*models.Coupon, error) {
	if in.DiscountType == "" {
		in.DiscountType = models.DiscountPercentage
	}
	switch in.DiscountType {
	case models.DiscountPercentage, models.DiscountFixedAmount, models.DiscountFreeShipping:
	default:
		return nil, errs.InvalidField("discountType", "unknown discount type")
	}
	if !in.ValidTo.After(in.ValidFrom) {
		return nil, errs.InvalidField("validTo", "must be after validFrom")
	}
	if in.UsageLimitPerUser == 0 {
		in.UsageLimitPerUser = 1
	}

	var coupon models.Coupon
	err := s.db.Transaction(func(tx *gorm.DB) error {
		coupon = models.Coupon{
			Code:               in.Code,
			Name:               in.Name,
			Description:        in.Description,
			DiscountType:       in.DiscountType,
			DiscountValue:      in.DiscountValue,
			MinOrderAmount:     in.MinOrderAmount,
			MaxDiscountAmount:  in.MaxDiscountAmount,
			UsageLimit:         in.UsageLimit,
			UsageLimitPerUser:  in.UsageLimitPerUser,
			ValidFrom:          in.ValidFrom,
			ValidTo:            in.ValidTo,
			FirstTimeUsersOnly: in.FirstTimeUsersOnly,
			IsActive:           true,
		}
		if err := tx.Create(&coupon).Error; err != nil {
			return errs.Constraint("coupon code already exists")
		}
		if len(in.CategoryIDs) > 0 {
			var categories []models.Category
			if err := tx.Find(&categories, in.CategoryIDs).Error; err != nil {
				return err
			}
			if err := tx.Model(&coupon).Association("ApplicableCategories").Replace(categories); err != nil {
				return err
			}
		}
		if len(in.BookIDs) > 0 {
			var books []models.Book
			if err := tx.Find(&books, in.BookIDs).Error; err != nil {
				return err
			}
			if err := tx.Model(&coupon).Association("ApplicableBooks").Replace(books); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (s *Service) SetCouponActive(couponID uint, active bool) error {
	res := s.db.Model(&models.Coupon{}).Where("id = ?", couponID).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("coupon")
	}
	return nil
}

func (s *Service) ListCoupons() ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := s.db.Order("created_at DESC").Find(&coupons).Error
	return coupons, err
}
