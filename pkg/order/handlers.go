package order

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
	"github.com/bookhaven/bookstore/pkg/web"
)

// RegisterRoutes wires the customer order surface, the staff fulfillment
// surface, and the courier delivery surface.
func (s *Service) RegisterRoutes(customer, staff, courier *gin.RouterGroup) {
	customer.POST("/checkout", s.checkout)
	customer.GET("/orders", s.myOrders)
	customer.GET("/orders/:number", s.orderDetail)
	customer.GET("/orders/:number/tracking", s.orderTracking)
	customer.POST("/orders/:number/cancel", s.cancelOrder)
	customer.POST("/orders/:number/return", s.requestReturn)
	customer.GET("/deliveries/:trackingId", s.trackDelivery)
	customer.POST("/deliveries/:trackingId/rate", s.rateDelivery)

	staff.GET("/orders", s.listOrders)
	staff.POST("/orders/:number/status", s.updateStatus)
	staff.GET("/returns", s.listReturns)
	staff.POST("/returns/:id/advance", s.advanceReturnHandler)
	staff.POST("/returns/:id/complete", s.completeReturnHandler)

	courier.POST("/deliveries/:trackingId/status", s.updateDeliveryStatus)
}

func (s *Service) checkout(c *gin.Context) {
	user := web.CurrentUser(c)
	var in CheckoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	ord, err := s.Checkout(user.ID, in, time.Now())
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, ord)
}

func (s *Service) myOrders(c *gin.Context) {
	user := web.CurrentUser(c)
	orders, err := s.ListForUser(user.ID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// ownedOrder resolves the order by public number and checks it belongs to
// the caller unless the caller is staff.
func (s *Service) ownedOrder(c *gin.Context) (*models.Order, bool) {
	ord, err := s.GetByNumber(c.Param("number"))
	if err != nil {
		errs.JSON(c, err)
		return nil, false
	}
	user := web.CurrentUser(c)
	if ord.UserID != user.ID && user.Role == models.RoleCustomer {
		errs.JSON(c, errs.NotFound("order"))
		return nil, false
	}
	return ord, true
}

func (s *Service) orderDetail(c *gin.Context) {
	ord, ok := s.ownedOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ord)
}

func (s *Service) orderTracking(c *gin.Context) {
	ord, ok := s.ownedOrder(c)
	if !ok {
		return
	}
	entries, err := s.Tracking(ord.ID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracking": entries})
}

func (s *Service) cancelOrder(c *gin.Context) {
	ord, ok := s.ownedOrder(c)
	if !ok {
		return
	}
	user := web.CurrentUser(c)
	if err := s.Cancel(ord.ID, user.Username); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order cancelled"})
}

func (s *Service) requestReturn(c *gin.Context) {
	ord, ok := s.ownedOrder(c)
	if !ok {
		return
	}
	user := web.CurrentUser(c)
	var in struct {
		Reason      string       `json:"reason" binding:"required"`
		Description string       `json:"description"`
		Items       []ReturnLine `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	ret, err := s.RequestReturn(user.ID, ord.ID, in.Reason, in.Description, in.Items)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, ret)
}

func (s *Service) listOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	orders, total, err := s.List(c.Query("status"), page, size)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": orders, "total": total, "page": page, "size": size})
}

func (s *Service) updateStatus(c *gin.Context) {
	ord, err := s.GetByNumber(c.Param("number"))
	if err != nil {
		errs.JSON(c, err)
		return
	}
	var in struct {
		Status      string `json:"status" binding:"required"`
		Location    string `json:"location"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	user := web.CurrentUser(c)
	if err := s.Transition(ord.ID, in.Status, in.Location, in.Description, user.Username); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order updated"})
}

func (s *Service) listReturns(c *gin.Context) {
	returns, err := s.ListReturns(c.Query("status"))
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"returns": returns})
}

func (s *Service) advanceReturnHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		errs.JSON(c, errs.InvalidField("id", "must be a numeric id"))
		return
	}
	var in struct {
		Status     string `json:"status" binding:"required"`
		AdminNotes string `json:"adminNotes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	user := web.CurrentUser(c)
	if err := s.AdvanceReturn(uint(id), in.Status, in.AdminNotes, user.Username); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "return updated"})
}

func (s *Service) completeReturnHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		errs.JSON(c, errs.InvalidField("id", "must be a numeric id"))
		return
	}
	var in struct {
		RefundAmount string `json:"refundAmount" binding:"required"`
		AdminNotes   string `json:"adminNotes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	refund, err := decimal.NewFromString(in.RefundAmount)
	if err != nil {
		errs.JSON(c, errs.InvalidField("refundAmount", "must be a decimal amount"))
		return
	}
	user := web.CurrentUser(c)
	if err := s.CompleteReturn(uint(id), refund, in.AdminNotes, user.Username); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "return completed"})
}

func (s *Service) trackDelivery(c *gin.Context) {
	delivery, err := s.DeliveryByTrackingID(c.Param("trackingId"))
	if err != nil {
		errs.JSON(c, err)
		return
	}
	var updates []models.DeliveryUpdate
	if err := s.db.Where("delivery_id = ?", delivery.ID).Order("created_at").Find(&updates).Error; err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery": delivery, "updates": updates})
}

func (s *Service) rateDelivery(c *gin.Context) {
	delivery, err := s.DeliveryByTrackingID(c.Param("trackingId"))
	if err != nil {
		errs.JSON(c, err)
		return
	}
	user := web.CurrentUser(c)
	if delivery.Order.UserID != user.ID {
		errs.JSON(c, errs.NotFound("delivery"))
		return
	}
	var in struct {
		Rating   int    `json:"rating" binding:"required"`
		Feedback string `json:"feedback"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	if err := s.RateDelivery(delivery.ID, in.Rating, in.Feedback); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "thank you for the feedback"})
}

func (s *Service) updateDeliveryStatus(c *gin.Context) {
	delivery, err := s.DeliveryByTrackingID(c.Param("trackingId"))
	if err != nil {
		errs.JSON(c, err)
		return
	}
	var in struct {
		Status   string `json:"status" binding:"required"`
		Location string `json:"location"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	user := web.CurrentUser(c)
	if err := s.UpdateDeliveryStatus(delivery.ID, in.Status, in.Location, in.Notes, user.Username); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "delivery updated"})
}
