package stock

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/web"
)

// RegisterRoutes wires the warehouse inventory surface.
func (s *Service) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stock", s.listStock)
	r.GET("/stock/low", s.lowStock)
	r.GET("/stock/:bookId", s.getStock)
	r.GET("/stock/:bookId/movements", s.movements)
	r.POST("/stock/:bookId/add", s.addStock)
	r.POST("/stock/:bookId/remove", s.removeStock)
	r.PUT("/stock/:bookId/location", s.setLocation)
	r.POST("/audits", s.scheduleAudit)
	r.POST("/audits/:auditId/complete", s.completeAudit)
}

func bookIDParam(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("bookId"), 10, 32)
	if err != nil {
		errs.JSON(c, errs.InvalidField("bookId", "must be a numeric id"))
		return 0, false
	}
	return uint(v), true
}

func (s *Service) listStock(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	stocks, total, err := s.List(page, size)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": stocks, "total": total, "page": page, "size": size})
}

func (s *Service) lowStock(c *gin.Context) {
	stocks, err := s.LowStock()
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": stocks})
}

func (s *Service) getStock(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}
	st, err := s.Get(bookID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stock":     st,
		"available": st.AvailableQuantity(),
		"location":  st.Location(),
	})
}

func (s *Service) movements(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := s.Movements(bookID, limit)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": entries})
}

func (s *Service) addStock(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}
	var in struct {
		Quantity  int    `json:"quantity" binding:"required"`
		Reference string `json:"reference"`
		Reason    string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	user := web.CurrentUser(c)
	if err := s.AddStock(bookID, in.Quantity, in.Reference, in.Reason, user.Username); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stock added"})
}

func (s *Service) removeStock(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}
	var in struct {
		Quantity  int    `json:"quantity" binding:"required"`
		Kind      string `json:"kind"`
		Reference string `json:"reference"`
		Reason    string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	user := web.CurrentUser(c)
	if err := s.RemoveStock(bookID, in.Quantity, in.Kind, in.Reference, in.Reason, user.Username); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stock removed"})
}

func (s *Service) setLocation(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}
	var in struct {
		Section string `json:"section"`
		Row     string `json:"row"`
		Shelf   string `json:"shelf"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	user := web.CurrentUser(c)
	if err := s.SetLocation(bookID, in.Section, in.Row, in.Shelf, user.Username); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "location updated"})
}

func (s *Service) scheduleAudit(c *gin.Context) {
	var in struct {
		CategoryID    *uint     `json:"categoryId"`
		ScheduledDate time.Time `json:"scheduledDate" binding:"required"`
		AssignedTo    string    `json:"assignedTo"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	audit, err := s.ScheduleAudit(in.CategoryID, in.ScheduledDate, in.AssignedTo)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, audit)
}

func (s *Service) completeAudit(c *gin.Context) {
	var in struct {
		Lines []AuditLine `json:"lines" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	user := web.CurrentUser(c)
	audit, err := s.CompleteAudit(c.Param("auditId"), in.Lines, user.Username)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, audit)
}
