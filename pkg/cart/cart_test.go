package cart

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
	"github.com/bookhaven/bookstore/pkg/pricing"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect test database")
	}
	db.AutoMigrate(models.All()...)
	return db
}

func setupService(db *gorm.DB) *Service {
	return New(db, pricing.New(db))
}

func createTestUser(db *gorm.DB, username string) *models.User {
	user := models.User{Username: username, Role: models.RoleCustomer}
	db.Create(&user)
	return &user
}

func createTestBook(db *gorm.DB, title string, price string) *models.Book {
	category := models.Category{Name: "Cat " + title, Slug: "cat-" + title, IsActive: true}
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

func TestAddMergesLines(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user := createTestUser(db, "shopper")
	book := createTestBook(db, "merged", "250.00")

	first, err := svc.Add(user.ID, book.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, first.Quantity)

	second, err := svc.Add(user.ID, book.ID, 2)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Quantity)

	items, err := svc.Items(user.ID)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestAddValidation(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user := createTestUser(db, "shopper")
	book := createTestBook(db, "valid", "250.00")

	_, err := svc.Add(user.ID, book.ID, 0)
	assert.Equal(t, errs.KindInvalidInput, errs.KindOf(err))

	_, err = svc.Add(user.ID, 999, 1)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user := createTestUser(db, "shopper")
	book := createTestBook(db, "removed", "250.00")

	item, _ := svc.Add(user.ID, book.ID, 2)
	assert.NoError(t, svc.UpdateQuantity(user.ID, item.ID, 5))

	items, _ := svc.Items(user.ID)
	assert.Equal(t, 5, items[0].Quantity)

	assert.NoError(t, svc.UpdateQuantity(user.ID, item.ID, 0))
	items, _ = svc.Items(user.ID)
	assert.Len(t, items, 0)
}

func TestCartOwnership(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	owner := createTestUser(db, "owner")
	thief := createTestUser(db, "thief")
	book := createTestBook(db, "owned", "250.00")

	item, _ := svc.Add(owner.ID, book.ID, 1)

	err := svc.UpdateQuantity(thief.ID, item.ID, 99)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	err = svc.Remove(thief.ID, item.ID)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestPriceSummaryWithSale(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user := createTestUser(db, "shopper")
	onSale := createTestBook(db, "discounted", "500.00")
	regular := createTestBook(db, "full-price", "200.00")
	now := time.Now()

	sale := models.BookSale{
		Name:          "Weekend",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(20),
		ValidFrom:     now.Add(-time.Hour),
		ValidTo:       now.Add(time.Hour),
		IsActive:      true,
	}
	db.Create(&sale)
	db.Create(&models.BookSaleItem{SaleID: sale.ID, BookID: onSale.ID})

	svc.Add(user.ID, onSale.ID, 2)
	svc.Add(user.ID, regular.ID, 1)

	summary, err := svc.PriceSummary(user.ID, now)
	assert.NoError(t, err)
	assert.Len(t, summary.Items, 2)

	// 2 x 400 + 1 x 200
	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(1000)), "got %s", summary.Subtotal)
	assert.True(t, summary.OriginalSubtotal.Equal(decimal.NewFromInt(1200)))
	assert.True(t, summary.SaleSavings.Equal(decimal.NewFromInt(200)))

	for _, line := range summary.Items {
		if line.BookID == onSale.ID {
			assert.True(t, line.OnSale)
			assert.True(t, line.EffectivePrice.Equal(decimal.NewFromInt(400)))
		} else {
			assert.False(t, line.OnSale)
		}
	}
}

func TestApplicableCoupons(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user := createTestUser(db, "shopper")
	book := createTestBook(db, "couponable", "400.00")
	now := time.Now()

	db.Create(&models.Coupon{
		Code:              "SAVE10",
		DiscountType:      models.DiscountPercentage,
		DiscountValue:     decimal.NewFromInt(10),
		ValidFrom:         now.Add(-time.Hour),
		ValidTo:           now.Add(time.Hour),
		UsageLimitPerUser: 1,
		IsActive:          true,
	})
	db.Create(&models.Coupon{
		Code:              "BIGSPEND",
		DiscountType:      models.DiscountPercentage,
		DiscountValue:     decimal.NewFromInt(20),
		MinOrderAmount:    decimal.NewFromInt(5000),
		ValidFrom:         now.Add(-time.Hour),
		ValidTo:           now.Add(time.Hour),
		UsageLimitPerUser: 1,
		IsActive:          true,
	})

	svc.Add(user.ID, book.ID, 1)

	checks, err := svc.ApplicableCoupons(user.ID, now)
	assert.NoError(t, err)
	assert.Len(t, checks, 2)

	byCode := map[string]CouponCheck{}
	for _, check := range checks {
		byCode[check.Code] = check
	}
	assert.True(t, byCode["SAVE10"].OK)
	assert.True(t, byCode["SAVE10"].Discount.Equal(decimal.NewFromInt(40)))
	assert.False(t, byCode["BIGSPEND"].OK)
	assert.Equal(t, "min_order", byCode["BIGSPEND"].Reason)
}

func TestCheckCoupon(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user := createTestUser(db, "shopper")
	book := createTestBook(db, "couponed", "400.00")
	now := time.Now()

	db.Create(&models.Coupon{
		Code:              "SAVE10",
		DiscountType:      models.DiscountPercentage,
		DiscountValue:     decimal.NewFromInt(10),
		ValidFrom:         now.Add(-time.Hour),
		ValidTo:           now.Add(time.Hour),
		UsageLimitPerUser: 1,
		IsActive:          true,
	})
	db.Create(&models.Coupon{
		Code:              "BIGSPEND",
		DiscountType:      models.DiscountPercentage,
		DiscountValue:     decimal.NewFromInt(20),
		MinOrderAmount:    decimal.NewFromInt(5000),
		ValidFrom:         now.Add(-time.Hour),
		ValidTo:           now.Add(time.Hour),
		UsageLimitPerUser: 1,
		IsActive:          true,
	})

	svc.Add(user.ID, book.ID, 1)

	check, err := svc.CheckCoupon(user.ID, "SAVE10", now)
	assert.NoError(t, err)
	assert.True(t, check.OK)
	assert.True(t, check.Discount.Equal(decimal.NewFromInt(40)), "got %s", check.Discount)

	// Checking records nothing, so the answer never changes with repetition.
	again, err := svc.CheckCoupon(user.ID, "SAVE10", now)
	assert.NoError(t, err)
	assert.True(t, again.OK)
	assert.True(t, again.Discount.Equal(check.Discount))

	rejected, err := svc.CheckCoupon(user.ID, "BIGSPEND", now)
	assert.NoError(t, err)
	assert.False(t, rejected.OK)
	assert.Equal(t, "min_order", rejected.Reason)
	assert.True(t, rejected.Discount.IsZero())

	_, err = svc.CheckCoupon(user.ID, "NOSUCHCODE", now)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestClearEmptiesBasket(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user := createTestUser(db, "shopper")
	book := createTestBook(db, "cleared", "100.00")

	svc.Add(user.ID, book.ID, 3)
	c, _ := svc.GetOrCreate(user.ID)

	assert.NoError(t, Clear(db, c.ID))
	items, _ := svc.Items(user.ID)
	assert.Len(t, items, 0)
}
