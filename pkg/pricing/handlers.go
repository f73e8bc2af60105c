package pricing

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookhaven/bookstore/pkg/errs"
)

func (s *Service) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.GET("/sales", s.activeSales)

	admin.POST("/sales", s.createSale)
	admin.POST("/sales/:id/deactivate", s.deactivateSale)
	admin.GET("/coupons", s.listCoupons)
	admin.POST("/coupons", s.createCoupon)
	admin.PATCH("/coupons/:id/active", s.setCouponActive)
}

func (s *Service) activeSales(c *gin.Context) {
	sales, err := s.ActiveSales(time.Now())
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales})
}

func (s *Service) createSale(c *gin.Context) {
	var in SaleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	sale, err := s.CreateSale(in)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func (s *Service) deactivateSale(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		errs.JSON(c, errs.InvalidField("id", "must be a numeric id"))
		return
	}
	if err := s.DeactivateSale(uint(id), time.Now()); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sale deactivated"})
}

func (s *Service) listCoupons(c *gin.Context) {
	coupons, err := s.ListCoupons()
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

func (s *Service) createCoupon(c *gin.Context) {
	var in CouponInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	coupon, err := s.CreateCoupon(in)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

func (s *Service) setCouponActive(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		errs.JSON(c, errs.InvalidField("id", "must be a numeric id"))
		return
	}
	var in struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	if err := s.SetCouponActive(uint(id), in.Active); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "coupon updated"})
}
