package pricing

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// Service computes effective prices and evaluates coupons. Catalog, cart
// and orders consume it instead of reaching into sale rows themselves.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ActiveSaleItem returns the sale item covering the book at now, or nil.
// When several active sales cover the same book the one whose parent sale
// was created most recently wins.
func (s *Service) ActiveSaleItem(bookID uint, now time.Time) (*models.BookSaleItem, error) {
	var items []models.BookSaleItem
	err := s.db.
		Joins("JOIN book_sales ON book_sales.id = book_sale_items.sale_id").
		Where("book_sale_items.book_id = ?", bookID).
		Where("book_sales.is_active = ?", true).
		Where("book_sales.valid_from <= ? AND book_sales.valid_to >= ?", now, now).
		Order("book_sales.created_at DESC").
		Preload("Sale").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// SaleMap precomputes book -> sale item for the current instant, applying
// the same tie-break as ActiveSaleItem. Used for carts and listings.
func (s *Service) SaleMap(bookIDs []uint, now time.Time) (map[uint]models.BookSaleItem, error) {
	result := make(map[uint]models.BookSaleItem)
	if len(bookIDs) == 0 {
		return result, nil
	}

	var items []models.BookSaleItem
	err := s.db.
		Joins("JOIN book_sales ON book_sales.id = book_sale_items.sale_id").
		Where("book_sale_items.book_id IN ?", bookIDs).
		Where("book_sales.is_active = ?", true).
		Where("book_sales.valid_from <= ? AND book_sales.valid_to >= ?", now, now).
		Order("book_sales.created_at DESC").
		Preload("Sale").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if _, seen := result[item.BookID]; !seen {
			result[item.BookID] = item
		}
	}
	return result, nil
}

// SalePrice applies a sale item to a list price: a pinned price wins, then
// an overriding value, then the parent sale's value. Clamped to [0, list].
func SalePrice(listPrice decimal.Decimal, item *models.BookSaleItem) decimal.Decimal {
	if item == nil {
		return listPrice
	}
	if item.CustomSalePrice.Valid {
		return clamp(item.CustomSalePrice.Decimal, listPrice)
	}

	value := item.Sale.DiscountValue
	if item.CustomDiscountValue.Valid {
		value = item.CustomDiscountValue.Decimal
	}

	var price decimal.Decimal
	switch item.Sale.DiscountType {
	case models.DiscountPercentage:
		price = listPrice.Sub(listPrice.Mul(value).Div(hundred))
	default:
		price = listPrice.Sub(value)
	}
	return clamp(price, listPrice)
}

func clamp(price, listPrice decimal.Decimal) decimal.Decimal {
	if price.IsNegative() {
		return decimal.Zero
	}
	if price.GreaterThan(listPrice) {
		return listPrice
	}
	return price
}

// EffectivePrice is the per-unit price a customer pays right now, sales
// included, coupons excluded.
func (s *Service) EffectivePrice(book *models.Book, now time.Time) (decimal.Decimal, error) {
	item, err := s.ActiveSaleItem(book.ID, now)
	if err != nil {
		return decimal.Zero, err
	}
	return SalePrice(book.Price, item), nil
}

// DiscountPercentage is the rounded percent saved against the list price.
func DiscountPercentage(listPrice, salePrice decimal.Decimal) int {
	if listPrice.IsZero() || !salePrice.LessThan(listPrice) {
		return 0
	}
	pct := listPrice.Sub(salePrice).Div(listPrice).Mul(hundred)
	return int(pct.Round(0).IntPart())
}

// ActiveSales lists sales whose window covers now, newest first.
func (s *Service) ActiveSales(now time.Time) ([]models.BookSale, error) {
	var sales []models.BookSale
	err := s.db.
		Where("is_active = ?", true).
		Where("valid_from <= ? AND valid_to >= ?", now, now).
		Order("created_at DESC").
		Preload("Items").
		Find(&sales).Error
	return sales, err
}
