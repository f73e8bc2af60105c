package supply

import (
	"testing"

	"github.com/rs/zerolog"
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

func setupService(db *gorm.DB) *Service {
	return New(db, 10, 100, zerolog.Nop())
}

func createVendorUser(db *gorm.DB, username string) *models.User {
	user := models.User{Username: username, Role: models.RoleVendor}
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
		Price:      decimal.NewFromInt(300),
		Status:     models.BookAvailable,
	}
	db.Create(&book)
	return &book
}

// approvedVendorUser registers and approves a vendor in one step.
func approvedVendorUser(t *testing.T, db *gorm.DB, svc *Service, username string) (*models.User, *models.VendorProfile) {
	user := createVendorUser(db, username)
	profile, err := svc.Register(user.ID, VendorInput{BusinessName: username + " Books Pvt Ltd", City: "Pune"})
	assert.NoError(t, err)
	assert.NoError(t, svc.SetVendorStatus(profile.ID, models.VendorApproved))
	profile, err = svc.VendorByUser(user.ID)
	assert.NoError(t, err)
	return user, profile
}

func TestRegisterVendorOncePerUser(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user := createVendorUser(db, "newvendor")

	profile, err := svc.Register(user.ID, VendorInput{BusinessName: "Fresh Pages"})
	assert.NoError(t, err)
	assert.Equal(t, models.VendorPending, profile.Status)

	_, err = svc.Register(user.ID, VendorInput{BusinessName: "Second Attempt"})
	assert.Equal(t, errs.KindConstraint, errs.KindOf(err))
}

func TestVendorStatusGatesOffers(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user := createVendorUser(db, "pendingvendor")
	book := createTestBook(db, "gated-book")
	svc.Register(user.ID, VendorInput{BusinessName: "Waiting Room Books"})

	_, err := svc.SubmitOffer(user.ID, OfferInput{BookID: book.ID, Quantity: 5, UnitPrice: decimal.NewFromInt(100)})
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	err = svc.SetVendorStatus(99, models.VendorApproved)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	err = svc.SetVendorStatus(1, "promoted")
	assert.Equal(t, errs.KindInvalidInput, errs.KindOf(err))
}

func TestAddLocationPrimaryFlag(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user, _ := approvedVendorUser(t, db, svc, "located")

	first, err := svc.AddLocation(user.ID, LocationInput{Name: "Main Godown", City: "Pune", IsPrimary: true})
	assert.NoError(t, err)
	assert.True(t, first.IsPrimary)

	second, err := svc.AddLocation(user.ID, LocationInput{Name: "City Shop", City: "Mumbai", IsPrimary: true})
	assert.NoError(t, err)
	assert.True(t, second.IsPrimary)

	locations, err := svc.Locations(user.ID)
	assert.NoError(t, err)
	assert.Len(t, locations, 2)
	// Primary first; the old primary has been cleared.
	assert.Equal(t, second.ID, locations[0].ID)
	assert.False(t, locations[1].IsPrimary)
}

func TestVendorTickets(t *testing.T) {
	db := setupTestDB()
	svc := setupService(db)
	user, _ := approvedVendorUser(t, db, svc, "ticketed")

	ticket, err := svc.OpenTicket(user.ID, TicketInput{Subject: "Payment delay"})
	assert.NoError(t, err)
	assert.Contains(t, ticket.TicketNumber, "VT")
	assert.Equal(t, "general", ticket.Category)
	assert.Equal(t, "medium", ticket.Priority)

	_, err = svc.RespondToTicket(ticket.ID, "support1", "Looking into it", false)
	assert.NoError(t, err)

	assert.NoError(t, svc.SetTicketStatus(ticket.ID, models.TicketResolved, "support1"))
	tickets, _ := svc.Tickets(user.ID)
	if assert.Len(t, tickets, 1) {
		assert.Equal(t, models.TicketResolved, tickets[0].Status)
		assert.NotNil(t, tickets[0].ResolvedAt)
		assert.Len(t, tickets[0].Responses, 1)
	}

	// Closed tickets take no more responses.
	assert.NoError(t, svc.SetTicketStatus(ticket.ID, models.TicketClosed, ""))
	_, err = svc.RespondToTicket(ticket.ID, "support1", "too late", false)
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))
}
