package wishlist

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
		Price:      decimal.NewFromInt(199),
		Status:     models.BookAvailable,
	}
	db.Create(&book)
	return &book
}

func TestToggle(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	user := createTestUser(db, "wisher1")
	book := createTestBook(db, "Wanted")

	on, err := svc.Toggle(user.ID, book.ID)
	assert.NoError(t, err)
	assert.True(t, on)

	present, _ := svc.Contains(user.ID, book.ID)
	assert.True(t, present)

	on, err = svc.Toggle(user.ID, book.ID)
	assert.NoError(t, err)
	assert.False(t, on)
	present, _ = svc.Contains(user.ID, book.ID)
	assert.False(t, present)

	_, err = svc.Toggle(user.ID, 9999)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestListIsPerUser(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	user := createTestUser(db, "wisher2")
	other := createTestUser(db, "wisher3")
	book := createTestBook(db, "Shared Taste")

	svc.Toggle(user.ID, book.ID)
	svc.Toggle(other.ID, book.ID)

	items, err := svc.List(user.ID)
	assert.NoError(t, err)
	if assert.Len(t, items, 1) {
		assert.Equal(t, book.ID, items[0].BookID)
	}
}

func TestCreateCollection(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	user := createTestUser(db, "collector1")

	first, err := svc.CreateCollection(user.ID, "To Read", "", "")
	assert.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, models.WishlistPrivate, first.Privacy)

	second, err := svc.CreateCollection(user.ID, "Gift Ideas", "birthdays", models.WishlistPublic)
	assert.NoError(t, err)
	assert.False(t, second.IsDefault)

	// Names are unique per user, not globally.
	_, err = svc.CreateCollection(user.ID, "To Read", "", "")
	assert.Equal(t, errs.KindConstraint, errs.KindOf(err))
	other := createTestUser(db, "collector2")
	_, err = svc.CreateCollection(other.ID, "To Read", "", "")
	assert.NoError(t, err)

	_, err = svc.CreateCollection(user.ID, "", "", "")
	assert.Equal(t, "name", errs.FieldOf(err))
	_, err = svc.CreateCollection(user.ID, "Odd", "", "secret")
	assert.Equal(t, "privacy", errs.FieldOf(err))

	collections, _ := svc.Collections(user.ID)
	if assert.Len(t, collections, 2) {
		assert.Equal(t, "To Read", collections[0].Name) // default sorts first
	}
}

func TestCollectionItems(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	user := createTestUser(db, "collector3")
	col, _ := svc.CreateCollection(user.ID, "Classics", "", "")

	low := createTestBook(db, "Background Read")
	high := createTestBook(db, "Must Have")
	svc.AddToCollection(user.ID, col.ID, low.ID, 2, "")
	svc.AddToCollection(user.ID, col.ID, high.ID, 5, "signed edition if possible")

	items, err := svc.CollectionItems(user.ID, col.ID)
	assert.NoError(t, err)
	if assert.Len(t, items, 2) {
		assert.Equal(t, high.ID, items[0].BookID) // highest priority first
	}

	// Re-adding updates in place instead of duplicating.
	updated, err := svc.AddToCollection(user.ID, col.ID, low.ID, 4, "moved up")
	assert.NoError(t, err)
	assert.Equal(t, 4, updated.Priority)
	items, _ = svc.CollectionItems(user.ID, col.ID)
	assert.Len(t, items, 2)

	_, err = svc.AddToCollection(user.ID, col.ID, low.ID, 6, "")
	assert.Equal(t, "priority", errs.FieldOf(err))

	// Another user cannot see or touch the collection.
	thief := createTestUser(db, "collector4")
	_, err = svc.CollectionItems(thief.ID, col.ID)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	_, err = svc.AddToCollection(thief.ID, col.ID, high.ID, 3, "")
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	assert.NoError(t, svc.RemoveFromCollection(user.ID, col.ID, high.ID))
	assert.Equal(t, errs.KindNotFound, errs.KindOf(svc.RemoveFromCollection(user.ID, col.ID, high.ID)))
}

func TestDeleteCollection(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	user := createTestUser(db, "collector5")

	def, _ := svc.CreateCollection(user.ID, "Default", "", "")
	extra, _ := svc.CreateCollection(user.ID, "Extra", "", "")
	book := createTestBook(db, "Disposable")
	svc.AddToCollection(user.ID, extra.ID, book.ID, 1, "")

	err := svc.DeleteCollection(user.ID, def.ID)
	assert.Equal(t, errs.KindInvalidInput, errs.KindOf(err))

	assert.NoError(t, svc.DeleteCollection(user.ID, extra.ID))
	collections, _ := svc.Collections(user.ID)
	assert.Len(t, collections, 1)

	// Items went with the collection.
	var count int64
	db.Model(&models.WishlistCollectionItem{}).Count(&count)
	assert.Zero(t, count)
}
