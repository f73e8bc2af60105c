package cart

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/web"
)

func (s *Service) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/cart", s.viewCart)
	r.POST("/cart/items", s.addItem)
	r.PUT("/cart/items/:id", s.updateItem)
	r.DELETE("/cart/items/:id", s.removeItem)
	r.GET("/cart/coupons", s.availableCoupons)
	r.POST("/cart/apply-coupon", s.applyCoupon)
}

func (s *Service) viewCart(c *gin.Context) {
	user := web.CurrentUser(c)
	summary, err := s.PriceSummary(user.ID, time.Now())
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Service) addItem(c *gin.Context) {
	user := web.CurrentUser(c)
	var in struct {
		BookID   uint `json:"bookId" binding:"required"`
		Quantity int  `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	item, err := s.Add(user.ID, in.BookID, in.Quantity)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Service) updateItem(c *gin.Context) {
	user := web.CurrentUser(c)
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		errs.JSON(c, errs.InvalidField("id", "must be a numeric id"))
		return
	}
	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	if err := s.UpdateQuantity(user.ID, uint(itemID), in.Quantity); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart updated"})
}

func (s *Service) removeItem(c *gin.Context) {
	user := web.CurrentUser(c)
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		errs.JSON(c, errs.InvalidField("id", "must be a numeric id"))
		return
	}
	if err := s.Remove(user.ID, uint(itemID)); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item removed"})
}

func (s *Service) applyCoupon(c *gin.Context) {
	user := web.CurrentUser(c)
	var in struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidField("code", "coupon code is required"))
		return
	}
	check, err := s.CheckCoupon(user.ID, in.Code, time.Now())
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (s *Service) availableCoupons(c *gin.Context) {
	user := web.CurrentUser(c)
	checks, err := s.ApplicableCoupons(user.ID, time.Now())
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": checks})
}
