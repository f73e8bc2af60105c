package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/models"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect test database")
	}
	db.AutoMigrate(models.All()...)
	return db
}

func createTestBook(db *gorm.DB, title string, price string) *models.Book {
	category := models.Category{Name: "Fiction " + title, Slug: "fiction-" + title, IsActive: true}
	db.Create(&category)
	book := models.Book{
		Title:      title,
		Slug:       title,
		CategoryID: category.ID,
		Price:      decimal.RequireFromString(price),
		Status:     models.BookAvailable,
	}
	db.Create(&book)
	return &book
}

func TestSalePricePercentage(t *testing.T) {
	item := &models.BookSaleItem{
		Sale: models.BookSale{
			DiscountType:  models.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(20),
		},
	}

	price := SalePrice(decimal.NewFromInt(500), item)
	assert.True(t, price.Equal(decimal.NewFromInt(400)), "got %s", price)
}

func TestSalePriceFixedAmount(t *testing.T) {
	item := &models.BookSaleItem{
		Sale: models.BookSale{
			DiscountType:  models.DiscountFixedAmount,
			DiscountValue: decimal.NewFromInt(150),
		},
	}

	price := SalePrice(decimal.NewFromInt(500), item)
	assert.True(t, price.Equal(decimal.NewFromInt(350)), "got %s", price)
}

func TestSalePriceClampedAtZero(t *testing.T) {
	item := &models.BookSaleItem{
		Sale: models.BookSale{
			DiscountType:  models.DiscountFixedAmount,
			DiscountValue: decimal.NewFromInt(900),
		},
	}

	price := SalePrice(decimal.NewFromInt(500), item)
	assert.True(t, price.Equal(decimal.Zero), "got %s", price)
}

func TestSalePriceCustomOverrides(t *testing.T) {
	listPrice := decimal.NewFromInt(500)

	withValue := &models.BookSaleItem{
		CustomDiscountValue: decimal.NewNullDecimal(decimal.NewFromInt(50)),
		Sale: models.BookSale{
			DiscountType:  models.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(10),
		},
	}
	assert.True(t, SalePrice(listPrice, withValue).Equal(decimal.NewFromInt(250)))

	withPinnedPrice := &models.BookSaleItem{
		CustomDiscountValue: decimal.NewNullDecimal(decimal.NewFromInt(50)),
		CustomSalePrice:     decimal.NewNullDecimal(decimal.NewFromInt(199)),
		Sale: models.BookSale{
			DiscountType:  models.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(10),
		},
	}
	assert.True(t, SalePrice(listPrice, withPinnedPrice).Equal(decimal.NewFromInt(199)))
}

func TestSalePriceNeverExceedsList(t *testing.T) {
	item := &models.BookSaleItem{
		CustomSalePrice: decimal.NewNullDecimal(decimal.NewFromInt(999)),
	}
	price := SalePrice(decimal.NewFromInt(500), item)
	assert.True(t, price.Equal(decimal.NewFromInt(500)), "got %s", price)
}

func TestActiveSaleItemWindowAndTieBreak(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	book := createTestBook(db, "midnight-library", "500.00")
	now := time.Now()

	expired := models.BookSale{
		Name:          "Last Month",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(50),
		ValidFrom:     now.Add(-30 * 24 * time.Hour),
		ValidTo:       now.Add(-20 * 24 * time.Hour),
		IsActive:      true,
		CreatedAt:     now.Add(-30 * 24 * time.Hour),
	}
	db.Create(&expired)
	db.Create(&models.BookSaleItem{SaleID: expired.ID, BookID: book.ID})

	older := models.BookSale{
		Name:          "Monsoon Sale",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		ValidFrom:     now.Add(-24 * time.Hour),
		ValidTo:       now.Add(24 * time.Hour),
		IsActive:      true,
		CreatedAt:     now.Add(-2 * time.Hour),
	}
	db.Create(&older)
	db.Create(&models.BookSaleItem{SaleID: older.ID, BookID: book.ID})

	newer := models.BookSale{
		Name:          "Weekend Flash",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(20),
		ValidFrom:     now.Add(-time.Hour),
		ValidTo:       now.Add(time.Hour),
		IsActive:      true,
		CreatedAt:     now.Add(-time.Hour),
	}
	db.Create(&newer)
	db.Create(&models.BookSaleItem{SaleID: newer.ID, BookID: book.ID})

	item, err := svc.ActiveSaleItem(book.ID, now)
	assert.NoError(t, err)
	if assert.NotNil(t, item) {
		assert.Equal(t, newer.ID, item.SaleID)
	}

	price, err := svc.EffectivePrice(book, now)
	assert.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(400)), "got %s", price)
}

func TestActiveSaleItemNoneActive(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	book := createTestBook(db, "quiet-book", "300.00")

	item, err := svc.ActiveSaleItem(book.ID, time.Now())
	assert.NoError(t, err)
	assert.Nil(t, item)

	price, err := svc.EffectivePrice(book, time.Now())
	assert.NoError(t, err)
	assert.True(t, price.Equal(book.Price))
}

func TestSaleMapCoversOnlyListedBooks(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	onSale := createTestBook(db, "on-sale", "200.00")
	regular := createTestBook(db, "regular", "200.00")
	now := time.Now()

	sale := models.BookSale{
		Name:          "Picks",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(25),
		ValidFrom:     now.Add(-time.Hour),
		ValidTo:       now.Add(time.Hour),
		IsActive:      true,
	}
	db.Create(&sale)
	db.Create(&models.BookSaleItem{SaleID: sale.ID, BookID: onSale.ID})

	saleMap, err := svc.SaleMap([]uint{onSale.ID, regular.ID}, now)
	assert.NoError(t, err)
	assert.Len(t, saleMap, 1)
	_, ok := saleMap[onSale.ID]
	assert.True(t, ok)
}

func TestDiscountPercentage(t *testing.T) {
	assert.Equal(t, 20, DiscountPercentage(decimal.NewFromInt(500), decimal.NewFromInt(400)))
	assert.Equal(t, 0, DiscountPercentage(decimal.NewFromInt(500), decimal.NewFromInt(500)))
	assert.Equal(t, 0, DiscountPercentage(decimal.Zero, decimal.Zero))
	assert.Equal(t, 33, DiscountPercentage(decimal.NewFromInt(300), decimal.NewFromInt(200)))
}
