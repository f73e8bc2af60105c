package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
	"github.com/bookhaven/bookstore/pkg/web"
)

func (s *Service) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/payments", s.createPayment)
	r.POST("/payments/execute", s.executePayment)
	r.POST("/payments/:orderNumber/cancel", s.cancelPayment)
	r.GET("/payments/:orderNumber", s.getPayment)
}

// resolveOrder maps the public order number to the caller's order.
func (s *Service) resolveOrder(c *gin.Context, orderNumber string) (*models.Order, bool) {
	ord, err := s.orders.GetByNumber(orderNumber)
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

func (s *Service) createPayment(c *gin.Context) {
	var in struct {
		OrderNumber string `json:"orderNumber" binding:"required"`
		ReturnURL   string `json:"returnUrl" binding:"required"`
		CancelURL   string `json:"cancelUrl" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	ord, ok := s.resolveOrder(c, in.OrderNumber)
	if !ok {
		return
	}
	record, err := s.Create(ord.ID, in.ReturnURL, in.CancelURL)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"externalId":  record.ExternalID,
		"approvalUrl": record.ApprovalURL,
		"state":       record.State,
	})
}

func (s *Service) executePayment(c *gin.Context) {
	var in struct {
		ExternalID string `json:"externalId" binding:"required"`
		PayerID    string `json:"payerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	record, err := s.Execute(in.ExternalID, in.PayerID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"externalId": record.ExternalID, "state": record.State})
}

func (s *Service) cancelPayment(c *gin.Context) {
	ord, ok := s.resolveOrder(c, c.Param("orderNumber"))
	if !ok {
		return
	}
	if err := s.Cancel(ord.ID); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment cancelled"})
}

func (s *Service) getPayment(c *gin.Context) {
	ord, ok := s.resolveOrder(c, c.Param("orderNumber"))
	if !ok {
		return
	}
	record, err := s.Get(ord.ID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
