package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/cart"
	"github.com/bookhaven/bookstore/pkg/circuitbreaker"
	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/jobs"
	"github.com/bookhaven/bookstore/pkg/models"
	"github.com/bookhaven/bookstore/pkg/order"
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

func setupServices(db *gorm.DB, gateway Gateway) (*Service, *order.Service) {
	orders := order.New(db, pricing.New(db), jobs.NewQueue(), 30*time.Minute, zerolog.Nop())
	breaker := circuitbreaker.New(5, 30*time.Second)
	return New(db, gateway, breaker, orders, "INR", zerolog.Nop()), orders
}

func pendingOrder(t *testing.T, db *gorm.DB, orders *order.Service, username string) *models.Order {
	user := models.User{Username: username, Role: models.RoleCustomer}
	db.Create(&user)
	category := models.Category{Name: "Cat " + username, Slug: "cat-" + username, IsActive: true}
	db.Create(&category)
	book := models.Book{
		Title: username + "-book", Slug: username + "-book",
		CategoryID: category.ID, Price: decimal.NewFromInt(400), Status: models.BookAvailable,
	}
	db.Create(&book)
	db.Create(&models.Stock{BookID: book.ID, Quantity: 10, ReorderLevel: 10, MaxStockLevel: 100})

	basket := cart.New(db, pricing.New(db))
	_, err := basket.Add(user.ID, book.ID, 1)
	assert.NoError(t, err)

	ord, err := orders.Checkout(user.ID, order.CheckoutInput{
		Billing:       order.Address{FirstName: "Asha", Address: "12 MG Road", City: "Bengaluru", State: "Karnataka", Pincode: "560001"},
		SameAsBilling: true,
		PaymentMethod: "card",
	}, time.Now())
	assert.NoError(t, err)
	return ord
}

func TestCreatePaymentIdempotent(t *testing.T) {
	db := setupTestDB()
	svc, orders := setupServices(db, NewSandboxGateway())
	ord := pendingOrder(t, db, orders, "payer")

	record, err := svc.Create(ord.ID, "https://shop/return", "https://shop/cancel")
	assert.NoError(t, err)
	assert.Contains(t, record.ExternalID, "PAY-")
	assert.Contains(t, record.ApprovalURL, record.ExternalID)
	assert.Equal(t, models.PaymentRecordCreated, record.State)
	assert.True(t, record.Amount.Equal(ord.TotalAmount))
	assert.Equal(t, "INR", record.Currency)

	again, err := svc.Create(ord.ID, "https://shop/return", "https://shop/cancel")
	assert.NoError(t, err)
	assert.Equal(t, record.ID, again.ID)

	var count int64
	db.Model(&models.PaymentRecord{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreatePaymentRequiresPendingOrder(t *testing.T) {
	db := setupTestDB()
	svc, orders := setupServices(db, NewSandboxGateway())
	ord := pendingOrder(t, db, orders, "cancelled-payer")
	assert.NoError(t, orders.Cancel(ord.ID, "customer"))

	_, err := svc.Create(ord.ID, "", "")
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))
}

func TestExecutePaymentConfirmsOrder(t *testing.T) {
	db := setupTestDB()
	svc, orders := setupServices(db, NewSandboxGateway())
	ord := pendingOrder(t, db, orders, "approver")

	record, _ := svc.Create(ord.ID, "", "")

	executed, err := svc.Execute(record.ExternalID, "PAYER123")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentRecordCompleted, executed.State)
	assert.Equal(t, "PAYER123", executed.PayerID)

	fresh, _ := orders.Get(ord.ID)
	assert.Equal(t, models.OrderConfirmed, fresh.Status)
	assert.Equal(t, models.PaymentPaid, fresh.PaymentStatus)

	// Re-executing a completed payment is a no-op, not a double capture.
	again, err := svc.Execute(record.ExternalID, "PAYER123")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentRecordCompleted, again.State)

	var movements int64
	db.Model(&models.StockMovement{}).Where("reference = ?", ord.OrderNumber).Count(&movements)
	assert.Equal(t, int64(1), movements)
}

func TestExecutePaymentDeclined(t *testing.T) {
	db := setupTestDB()
	svc, orders := setupServices(db, NewSandboxGateway())
	ord := pendingOrder(t, db, orders, "declined")

	record, _ := svc.Create(ord.ID, "", "")

	_, err := svc.Execute(record.ExternalID, "FAIL42")
	assert.Equal(t, errs.KindPaymentFailed, errs.KindOf(err))

	stored, _ := svc.Get(ord.ID)
	assert.Equal(t, models.PaymentRecordFailed, stored.State)
	assert.Contains(t, stored.FailureReason, "declined")

	// The order stays pending with its reservation; the reaper or the
	// customer decides what happens next.
	fresh, _ := orders.Get(ord.ID)
	assert.Equal(t, models.OrderPending, fresh.Status)

	var st models.Stock
	db.Where("book_id = ?", fresh.Items[0].BookID).First(&st)
	assert.Equal(t, 1, st.ReservedQuantity)
}

func TestCancelPayment(t *testing.T) {
	db := setupTestDB()
	svc, orders := setupServices(db, NewSandboxGateway())
	ord := pendingOrder(t, db, orders, "canceller")

	record, _ := svc.Create(ord.ID, "", "")
	assert.NoError(t, svc.Cancel(ord.ID))

	stored, _ := svc.Get(ord.ID)
	assert.Equal(t, models.PaymentRecordCancelled, stored.State)

	// A cancelled payment cannot be executed.
	_, err := svc.Execute(record.ExternalID, "PAYER123")
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))
}

func TestCancelCompletedPaymentRejected(t *testing.T) {
	db := setupTestDB()
	svc, orders := setupServices(db, NewSandboxGateway())
	ord := pendingOrder(t, db, orders, "late-canceller")

	record, _ := svc.Create(ord.ID, "", "")
	svc.Execute(record.ExternalID, "PAYER123")

	err := svc.Cancel(ord.ID)
	assert.Equal(t, errs.KindInvalidTransition, errs.KindOf(err))
}

// deadGateway fails every call, for exercising the breaker.
type deadGateway struct{}

func (deadGateway) CreatePayment(amount decimal.Decimal, currency, returnURL, cancelURL string) (*CreateResult, error) {
	return nil, errors.New("gateway: connection refused")
}

func (deadGateway) ExecutePayment(externalID, payerID string) error {
	return errors.New("gateway: connection refused")
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	db := setupTestDB()
	orders := order.New(db, pricing.New(db), jobs.NewQueue(), 30*time.Minute, zerolog.Nop())
	breaker := circuitbreaker.New(2, time.Hour)
	svc := New(db, deadGateway{}, breaker, orders, "INR", zerolog.Nop())

	ord := pendingOrder(t, db, orders, "unlucky")

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ord.ID, "", "")
		assert.Equal(t, errs.KindPaymentFailed, errs.KindOf(err))
	}

	// The breaker is open now; the gateway is no longer called.
	_, err := svc.Create(ord.ID, "", "")
	assert.Equal(t, errs.KindPaymentFailed, errs.KindOf(err))
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, circuitbreaker.StateOpen, breaker.State())
}

func TestSandboxGatewayRejectsNonPositiveAmounts(t *testing.T) {
	gateway := NewSandboxGateway()
	_, err := gateway.CreatePayment(decimal.Zero, "INR", "", "")
	assert.Error(t, err)

	_, err = gateway.CreatePayment(decimal.NewFromInt(100), "INR", "", "")
	assert.NoError(t, err)
}
