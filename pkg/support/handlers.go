package support

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
	"github.com/bookhaven/bookstore/pkg/web"
)

func (s *Service) RegisterRoutes(public, authed, staff *gin.RouterGroup) {
	public.GET("/faq", s.searchFAQ)

	authed.POST("/tickets", s.openTicket)
	authed.GET("/tickets", s.myTickets)
	authed.GET("/tickets/:id", s.getTicket)
	authed.POST("/tickets/:id/respond", s.respond)
	authed.POST("/tickets/:id/rate", s.rate)

	staff.GET("/tickets", s.listAll)
	staff.POST("/tickets/:id/status", s.setStatus)
	staff.POST("/faq", s.createFAQ)
}

func ticketIDParam(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		errs.JSON(c, errs.InvalidField("id", "must be a numeric id"))
		return 0, false
	}
	return uint(v), true
}

func (s *Service) searchFAQ(c *gin.Context) {
	faqs, err := s.SearchFAQ(c.Query("q"), c.Query("category"))
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"faqs": faqs})
}

func (s *Service) openTicket(c *gin.Context) {
	user := web.CurrentUser(c)
	var in TicketInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	ticket, err := s.OpenTicket(user.ID, in)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

func (s *Service) myTickets(c *gin.Context) {
	user := web.CurrentUser(c)
	tickets, err := s.ForUser(user.ID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func (s *Service) getTicket(c *gin.Context) {
	id, ok := ticketIDParam(c)
	if !ok {
		return
	}
	ticket, err := s.Get(id)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	user := web.CurrentUser(c)
	if ticket.UserID != user.ID && user.Role == models.RoleCustomer {
		errs.JSON(c, errs.NotFound("ticket"))
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (s *Service) respond(c *gin.Context) {
	id, ok := ticketIDParam(c)
	if !ok {
		return
	}
	var in struct {
		Response   string `json:"response" binding:"required"`
		IsInternal bool   `json:"isInternal"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	user := web.CurrentUser(c)
	internal := in.IsInternal && user.Role != models.RoleCustomer
	resp, err := s.Respond(id, user.Username, in.Response, internal)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Service) rate(c *gin.Context) {
	id, ok := ticketIDParam(c)
	if !ok {
		return
	}
	var in struct {
		Rating int `json:"rating" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	user := web.CurrentUser(c)
	if err := s.Rate(user.ID, id, in.Rating); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "thanks for the feedback"})
}

func (s *Service) listAll(c *gin.Context) {
	tickets, err := s.List(c.Query("status"))
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func (s *Service) setStatus(c *gin.Context) {
	id, ok := ticketIDParam(c)
	if !ok {
		return
	}
	var in struct {
		Status     string `json:"status" binding:"required"`
		AssignedTo string `json:"assignedTo"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	if err := s.SetStatus(id, in.Status, in.AssignedTo); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ticket updated"})
}

func (s *Service) createFAQ(c *gin.Context) {
	var in struct {
		Question string `json:"question" binding:"required"`
		Answer   string `json:"answer" binding:"required"`
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	faq, err := s.CreateFAQ(in.Question, in.Answer, in.Category)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, faq)
}
