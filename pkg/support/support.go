package support

import (
	"time"

	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
)

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

type TicketInput struct {
	Subject     string `json:"subject" binding:"required"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	OrderID     *uint  `json:"orderId"`
}

func (s *Service) OpenTicket(userID uint, in TicketInput) (*models.SupportTicket, error) {
	if in.OrderID != nil {
		var ord models.Order
		if err := s.db.First(&ord, *in.OrderID).Error; err != nil {
			return nil, errs.NotFound("order")
		}
		if ord.UserID != userID {
			return nil, errs.Forbidden("order belongs to another user")
		}
	}
	ticket := models.SupportTicket{
		TicketNumber: models.NewTicketID(),
		UserID:       userID,
		OrderID:      in.OrderID,
		Subject:      in.Subject,
		Category:     in.Category,
		Description:  in.Description,
		Priority:     in.Priority,
		Status:       models.TicketOpen,
	}
	if ticket.Category == "" {
		ticket.Category = "general"
	}
	if ticket.Priority == "" {
		ticket.Priority = "medium"
	}
	if err := s.db.Create(&ticket).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *Service) Get(ticketID uint) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	err := s.db.Preload("Responses").Preload("User").First(&ticket, ticketID).Error
	if err != nil {
		return nil, errs.NotFound("ticket")
	}
	return &ticket, nil
}

func (s *Service) ForUser(userID uint) ([]models.SupportTicket, error) {
	var tickets []models.SupportTicket
	err := s.db.Preload("Responses").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tickets).Error
	return tickets, err
}

func (s *Service) List(status string) ([]models.SupportTicket, error) {
	q := s.db.Preload("User")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var tickets []models.SupportTicket
	err := q.Order("created_at DESC").Find(&tickets).Error
	return tickets, err
}

// Respond appends a reply. Internal responses are staff notes hidden from
// the customer view.
func (s *Service) Respond(ticketID uint, author, response string, internal bool) (*models.TicketResponse, error) {
	ticket, err := s.Get(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == models.TicketClosed {
		return nil, errs.InvalidTransition(ticket.Status, "responded")
	}
	resp := models.TicketResponse{
		TicketID:   ticket.ID,
		Author:     author,
		Response:   response,
		IsInternal: internal,
	}
	if err := s.db.Create(&resp).Error; err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Service) SetStatus(ticketID uint, status, assignedTo string) error {
	switch status {
	case models.TicketOpen, models.TicketInProgress, models.TicketWaitingCustomer,
		models.TicketResolved, models.TicketClosed:
	default:
		return errs.InvalidField("status", "unknown ticket status")
	}
	var ticket models.SupportTicket
	if err := s.db.First(&ticket, ticketID).Error; err != nil {
		return errs.NotFound("ticket")
	}
	updates := map[string]interface{}{"status": status}
	if assignedTo != "" {
		updates["assigned_to"] = assignedTo
	}
	if status == models.TicketResolved && ticket.ResolvedAt == nil {
		updates["resolved_at"] = time.Now()
	}
	return s.db.Model(&ticket).Updates(updates).Error
}

// Rate records the customer's satisfaction after resolution.
func (s *Service) Rate(userID, ticketID uint, rating int) error {
	if rating < 1 || rating > 5 {
		return errs.InvalidField("rating", "must be between 1 and 5")
	}
	var ticket models.SupportTicket
	if err := s.db.First(&ticket, ticketID).Error; err != nil {
		return errs.NotFound("ticket")
	}
	if ticket.UserID != userID {
		return errs.Forbidden("ticket belongs to another user")
	}
	if ticket.Status != models.TicketResolved && ticket.Status != models.TicketClosed {
		return errs.InvalidTransition(ticket.Status, "rated")
	}
	return s.db.Model(&ticket).Update("rating", rating).Error
}

// SearchFAQ does a case-insensitive substring match over active entries.
func (s *Service) SearchFAQ(query, category string) ([]models.FAQ, error) {
	q := s.db.Where("is_active = ?", true)
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("question LIKE ? OR answer LIKE ?", like, like)
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var faqs []models.FAQ
	err := q.Order("category, id").Find(&faqs).Error
	return faqs, err
}

func (s *Service) CreateFAQ(question, answer, category string) (*models.FAQ, error) {
	if question == "" || answer == "" {
		return nil, errs.InvalidInput("question and answer are required")
	}
	faq := models.FAQ{Question: question, Answer: answer, Category: category, IsActive: true}
	if err := s.db.Create(&faq).Error; err != nil {
		return nil, err
	}
	return &faq, nil
}
