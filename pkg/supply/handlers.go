package supply

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/web"
)

// RegisterRoutes wires the vendor surface, the admin review surface, the
// logistics surface, and the warehouse receipt surface.
func (s *Service) RegisterRoutes(vendor, admin, logistics, warehouse *gin.RouterGroup) {
	vendor.POST("/vendors/register", s.register)
	vendor.GET("/vendors/me", s.myProfile)
	vendor.POST("/vendors/locations", s.addLocation)
	vendor.GET("/vendors/locations", s.listLocations)
	vendor.POST("/offers", s.submitOffer)
	vendor.GET("/offers", s.myOffers)
	vendor.POST("/schedules", s.createSchedule)
	vendor.GET("/notifications", s.listNotifications)
	vendor.POST("/notifications/:id/read", s.readNotification)
	vendor.POST("/tickets", s.openTicket)
	vendor.GET("/tickets", s.listTickets)

	admin.GET("/vendors", s.listVendors)
	admin.POST("/vendors/:id/status", s.setVendorStatus)
	admin.GET("/offers", s.listAllOffers)
	admin.POST("/offers/:id/review", s.reviewOffer)
	admin.POST("/partners", s.createPartner)
	admin.GET("/partners", s.listPartners)
	admin.POST("/partners/:id/status", s.setPartnerStatus)
	admin.POST("/tickets/:id/respond", s.respondTicket)
	admin.POST("/tickets/:id/status", s.setTicketStatus)

	logistics.GET("/schedules", s.listSchedules)
	logistics.GET("/schedules/:id", s.getSchedule)
	logistics.GET("/schedules/:id/tracking", s.scheduleTracking)
	logistics.POST("/schedules/:id/advance", s.advanceSchedule)
	logistics.POST("/schedules/:id/assign", s.assignPartner)

	warehouse.POST("/schedules/:id/receipt", s.confirmReceipt)
	warehouse.GET("/schedules/:id/receipt", s.getReceipt)
}

func idParam(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		errs.JSON(c, errs.InvalidField("id", "must be a numeric id"))
		return 0, false
	}
	return uint(v), true
}

func (s *Service) register(c *gin.Context) {
	user := web.CurrentUser(c)
	var in VendorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	profile, err := s.Register(user.ID, in)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (s *Service) myProfile(c *gin.Context) {
	user := web.CurrentUser(c)
	profile, err := s.VendorByUser(user.ID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Service) addLocation(c *gin.Context) {
	user := web.CurrentUser(c)
	var in LocationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	loc, err := s.AddLocation(user.ID, in)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, loc)
}

func (s *Service) listLocations(c *gin.Context) {
	user := web.CurrentUser(c)
	locations, err := s.Locations(user.ID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

func (s *Service) submitOffer(c *gin.Context) {
	user := web.CurrentUser(c)
	var in OfferInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	offer, err := s.SubmitOffer(user.ID, in)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

func (s *Service) myOffers(c *gin.Context) {
	user := web.CurrentUser(c)
	offers, err := s.OffersForUser(user.ID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

func (s *Service) createSchedule(c *gin.Context) {
	user := web.CurrentUser(c)
	var in ScheduleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	schedule, err := s.CreateSchedule(user.ID, in)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

func (s *Service) listNotifications(c *gin.Context) {
	user := web.CurrentUser(c)
	notifications, err := s.Notifications(user.ID, c.Query("unread") == "true")
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (s *Service) readNotification(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := s.MarkNotificationRead(id); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification read"})
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

func (s *Service) listTickets(c *gin.Context) {
	user := web.CurrentUser(c)
	tickets, err := s.Tickets(user.ID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func (s *Service) listVendors(c *gin.Context) {
	vendors, err := s.ListVendors(c.Query("status"))
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": vendors})
}

func (s *Service) setVendorStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	if err := s.SetVendorStatus(id, in.Status); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "vendor updated"})
}

func (s *Service) listAllOffers(c *gin.Context) {
	offers, err := s.ListOffers(c.Query("status"), 0)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

func (s *Service) reviewOffer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in struct {
		Approve    bool   `json:"approve"`
		AdminNotes string `json:"adminNotes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	user := web.CurrentUser(c)
	offer, err := s.ReviewOffer(id, in.Approve, in.AdminNotes, user.Username)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (s *Service) createPartner(c *gin.Context) {
	var in PartnerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	partner, err := s.CreatePartner(in)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, partner)
}

func (s *Service) listPartners(c *gin.Context) {
	partners, err := s.ListPartners(c.Query("status"))
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"partners": partners})
}

func (s *Service) setPartnerStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	if err := s.SetPartnerStatus(id, in.Status); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "partner updated"})
}

func (s *Service) respondTicket(c *gin.Context) {
	id, ok := idParam(c)
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
	resp, err := s.RespondToTicket(id, user.Username, in.Response, in.IsInternal)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Service) setTicketStatus(c *gin.Context) {
	id, ok := idParam(c)
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
	if err := s.SetTicketStatus(id, in.Status, in.AssignedTo); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ticket updated"})
}

func (s *Service) listSchedules(c *gin.Context) {
	schedules, err := s.ListSchedules(c.Query("status"))
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

func (s *Service) getSchedule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	schedule, err := s.GetSchedule(id)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (s *Service) scheduleTracking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	entries, err := s.ScheduleTracking(id)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracking": entries})
}

func (s *Service) advanceSchedule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
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
	if err := s.AdvanceSchedule(id, in.Status, in.Location, in.Notes, user.Username); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "schedule updated"})
}

func (s *Service) assignPartner(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in struct {
		PartnerID       uint       `json:"partnerId" binding:"required"`
		EstimatedPickup *time.Time `json:"estimatedPickup"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	user := web.CurrentUser(c)
	if err := s.AssignPartner(id, in.PartnerID, in.EstimatedPickup, user.Username); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "partner assigned"})
}

func (s *Service) confirmReceipt(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in ReceiptInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	user := web.CurrentUser(c)
	confirmation, err := s.ConfirmReceipt(id, in, user.Username)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, confirmation)
}

func (s *Service) getReceipt(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	confirmation, err := s.ReceiptForSchedule(id)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, confirmation)
}
