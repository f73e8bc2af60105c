package review

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/errs"
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

func createTestUser(db *gorm.DB, username string) *models.User {
	user := models.User{Username: username, Role: models.RoleCustomer}
	db.Create(&user)
	return &user
}

func createTestBook(db *gorm.DB, title string) *models.Book {
	category := models.Category{Name: "Cat " + title, Slug: "cat-" + title, IsActive: true}
	db.Create(&category)
	book := models.Book{
		Title:      title,
		Slug:       title,
		CategoryID: category.ID,
		Price:      decimal.NewFromInt(250),
		Status:     models.BookAvailable,
	}
	db.Create(&book)
	return &book
}

// deliveredOrderFor plants a delivered order containing the book so the
// review counts as a verified purchase.
func deliveredOrderFor(db *gorm.DB, userID, bookID uint) {
	order := models.Order{
		OrderNumber: models.NewOrderID(),
		UserID:      userID,
		Status:      models.OrderDelivered,
		Subtotal:    decimal.NewFromInt(250),
		TotalAmount: decimal.NewFromInt(250),
	}
	db.Create(&order)
	db.Create(&models.OrderItem{
		OrderID:  order.ID,
		BookID:   bookID,
		Quantity: 1,
		Price:    decimal.NewFromInt(250),
		Total:    decimal.NewFromInt(250),
	})
}

func TestCreateReview(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	user := createTestUser(db, "reader1")
	book := createTestBook(db, "The Long Field")
	deliveredOrderFor(db, user.ID, book.ID)

	r, err := svc.Create(user.ID, book.ID, 4, "Loved it", "Great pacing.")
	assert.NoError(t, err)
	assert.Equal(t, models.ReviewPending, r.Status)
	assert.True(t, r.IsVerifiedPurchase)

	// One review per user per book.
	_, err = svc.Create(user.ID, book.ID, 5, "Again", "")
	assert.Equal(t, errs.KindConstraint, errs.KindOf(err))

	_, err = svc.Create(user.ID, book.ID, 6, "", "")
	assert.Equal(t, "rating", errs.FieldOf(err))
	_, err = svc.Create(user.ID, 9999, 3, "", "")
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	// No delivered order means no verified badge.
	other := createTestUser(db, "reader2")
	r2, err := svc.Create(other.ID, book.ID, 3, "", "Borrowed a copy.")
	assert.NoError(t, err)
	assert.False(t, r2.IsVerifiedPurchase)
}

func TestModerationGate(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	user := createTestUser(db, "reader3")
	book := createTestBook(db, "Moderated")

	r, _ := svc.Create(user.ID, book.ID, 5, "Hidden", "Not visible yet.")

	visible, err := svc.ForBook(book.ID)
	assert.NoError(t, err)
	assert.Empty(t, visible)

	pending, _ := svc.Pending()
	assert.Len(t, pending, 1)

	assert.NoError(t, svc.Moderate(r.ID, true))
	visible, _ = svc.ForBook(book.ID)
	if assert.Len(t, visible, 1) {
		assert.Equal(t, models.ReviewApproved, visible[0].Status)
		assert.NotNil(t, visible[0].ApprovedAt)
	}

	// Rejection hides the review again.
	other := createTestUser(db, "reader4")
	r2, _ := svc.Create(other.ID, book.ID, 1, "Spam", "buy cheap watches")
	assert.NoError(t, svc.Moderate(r2.ID, false))
	visible, _ = svc.ForBook(book.ID)
	assert.Len(t, visible, 1)

	assert.Equal(t, errs.KindNotFound, errs.KindOf(svc.Moderate(9999, true)))
}

func TestEditSendsBackToModeration(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	user := createTestUser(db, "reader5")
	book := createTestBook(db, "Edited")

	r, _ := svc.Create(user.ID, book.ID, 2, "Meh", "")
	svc.Moderate(r.ID, true)

	edited, err := svc.Edit(user.ID, r.ID, 4, "Better on reread", "It grew on me.")
	assert.NoError(t, err)
	assert.Equal(t, models.ReviewPending, edited.Status)
	assert.Equal(t, 4, edited.Rating)

	visible, _ := svc.ForBook(book.ID)
	assert.Empty(t, visible)

	// Only the author can edit.
	thief := createTestUser(db, "reader6")
	_, err = svc.Edit(thief.ID, r.ID, 1, "", "")
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	_, err = svc.Edit(user.ID, r.ID, 0, "", "")
	assert.Equal(t, "rating", errs.FieldOf(err))
}

func TestAverageRating(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	book := createTestBook(db, "Rated")

	avg, err := svc.AverageRating(book.ID)
	assert.NoError(t, err)
	assert.Zero(t, avg)

	for i, rating := range []int{5, 4, 2} {
		u := createTestUser(db, "rater"+string(rune('a'+i)))
		r, _ := svc.Create(u.ID, book.ID, rating, "", "")
		svc.Moderate(r.ID, true)
	}
	// A pending review does not count.
	pendingUser := createTestUser(db, "rater-pending")
	svc.Create(pendingUser.ID, book.ID, 1, "", "")

	avg, _ = svc.AverageRating(book.ID)
	assert.InDelta(t, 11.0/3.0, avg, 0.001)
	total, _ := svc.TotalReviews(book.ID)
	assert.Equal(t, int64(3), total)
}

func TestToggleHelpful(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	author := createTestUser(db, "author")
	voter := createTestUser(db, "voter")
	book := createTestBook(db, "Helpful")

	r, _ := svc.Create(author.ID, book.ID, 5, "", "")
	svc.Moderate(r.ID, true)

	count, err := svc.ToggleHelpful(voter.ID, r.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Toggling again withdraws the vote.
	count, _ = svc.ToggleHelpful(voter.ID, r.ID)
	assert.Zero(t, count)
	count, _ = svc.ToggleHelpful(voter.ID, r.ID)
	assert.Equal(t, int64(1), count)

	_, err = svc.ToggleHelpful(voter.ID, 9999)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}
