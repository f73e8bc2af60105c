package support

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

func createTestOrder(db *gorm.DB, userID uint) *models.Order {
	order := models.Order{
		OrderNumber: models.NewOrderID(),
		UserID:      userID,
		Status:      models.OrderDelivered,
		Subtotal:    decimal.NewFromInt(500),
		TotalAmount: decimal.NewFromInt(500),
	}
	db.Create(&order)
	return &order
}

func TestOpenTicket(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	user := createTestUser(db, "customer1")

	ticket, err := svc.OpenTicket(user.ID, TicketInput{Subject: "Where is my order?"})
	assert.NoError(t, err)
	assert.Contains(t, ticket.TicketNumber, "TK")
	assert.Equal(t, models.TicketOpen, ticket.Status)
	assert.Equal(t, "general", ticket.Category)
	assert.Equal(t, "medium", ticket.Priority)
}

func TestOpenTicketWithOrder(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	user := createTestUser(db, "customer2")
	order := createTestOrder(db, user.ID)

	ticket, err := svc.OpenTicket(user.ID, TicketInput{Subject: "Damaged book", OrderID: &order.ID})
	assert.NoError(t, err)
	if assert.NotNil(t, ticket.OrderID) {
		assert.Equal(t, order.ID, *ticket.OrderID)
	}

	// The order must exist and belong to the opener.
	missing := uint(9999)
	_, err = svc.OpenTicket(user.ID, TicketInput{Subject: "x", OrderID: &missing})
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	other := createTestUser(db, "customer3")
	_, err = svc.OpenTicket(other.ID, TicketInput{Subject: "x", OrderID: &order.ID})
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
}

func TestTicketLifecycle(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	user := createTestUser(db, "customer4")

	ticket, _ := svc.OpenTicket(user.ID, TicketInput{Subject: "Refund pending"})

	_, err := svc.Respond(ticket.ID, "agent1", "Checking with finance.", false)
	assert.NoError(t, err)
	_, err = svc.Respond(ticket.ID, "agent1", "escalate if no reply by friday", true)
	assert.NoError(t, err)

	assert.Equal(t, "status", errs.FieldOf(svc.SetStatus(ticket.ID, "archived", "")))
	assert.NoError(t, svc.SetStatus(ticket.ID, models.TicketInProgress, "agent1"))

	assert.NoError(t, svc.SetStatus(ticket.ID, models.TicketResolved, ""))
	fresh, _ := svc.Get(ticket.ID)
	assert.Equal(t, "agent1", fresh.AssignedTo)
	assert.NotNil(t, fresh.ResolvedAt)
	assert.Len(t, fresh.Responses, 2)
	stamped := *fresh.ResolvedAt

	// resolved_at is written once.
	assert.NoError(t, svc.SetStatus(ticket.ID, models.TicketOpen, ""))
	assert.NoError(t, svc.SetStatus(ticket.ID, models.TicketResolved, ""))
	fresh, _ = svc.Get(ticket.ID)
	assert.True(t, fresh.ResolvedAt.Equal(stamped))

	// Closed tickets take no more responses.
	assert.NoError(t, svc.SetStatus(ticket.ID, models.TicketClosed, ""))
	_, err = svc.Respond(ticket.ID, "agent1", "too late", false)
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))
}

func TestRateTicket(t *testing.T) {
	db := setupTestDB()
	svc := New(db)
	user := createTestUser(db, "customer5")

	ticket, _ := svc.OpenTicket(user.ID, TicketInput{Subject: "Slow site"})

	// Open tickets cannot be rated yet.
	err := svc.Rate(user.ID, ticket.ID, 5)
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))

	svc.SetStatus(ticket.ID, models.TicketResolved, "agent1")

	assert.Equal(t, "rating", errs.FieldOf(svc.Rate(user.ID, ticket.ID, 6)))

	stranger := createTestUser(db, "customer6")
	err = svc.Rate(stranger.ID, ticket.ID, 4)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	assert.NoError(t, svc.Rate(user.ID, ticket.ID, 4))
	fresh, _ := svc.Get(ticket.ID)
	if assert.NotNil(t, fresh.Rating) {
		assert.Equal(t, 4, *fresh.Rating)
	}
}

func TestSearchFAQ(t *testing.T) {
	db := setupTestDB()
	svc := New(db)

	svc.CreateFAQ("How do I track my order?", "Open the order page and follow the tracking link.", "orders")
	svc.CreateFAQ("How do refunds work?", "Refunds are issued to the original payment method.", "payments")
	inactive, _ := svc.CreateFAQ("Old question", "Old answer about refunds.", "payments")
	db.Model(inactive).Update("is_active", false)

	_, err := svc.CreateFAQ("", "missing question", "")
	assert.Equal(t, errs.KindInvalidInput, errs.KindOf(err))

	// Matches question or answer text, active entries only.
	results, err := svc.SearchFAQ("refund", "")
	assert.NoError(t, err)
	assert.Len(t, results, 1)

	results, _ = svc.SearchFAQ("", "orders")
	if assert.Len(t, results, 1) {
		assert.Contains(t, results[0].Question, "track")
	}

	results, _ = svc.SearchFAQ("teleport", "")
	assert.Empty(t, results)
}
