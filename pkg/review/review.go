package review

import (
	"errors"

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

// Create files a review. A user gets one review per book; a second write
// must go through Edit. verified_purchase is derived from the user's
// delivered orders at write time.
func (s *Service) Create(userID, bookID uint, rating int, title, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, errs.InvalidField("rating", "must be between 1 and 5")
	}
	if err := s.db.First(&models.Book{}, bookID).Error; err != nil {
		return nil, errs.NotFound("book")
	}

	var existing models.Review
	err := s.db.Where("book_id = ? AND user_id = ?", bookID, userID).First(&existing).Error
	if err == nil {
		return nil, errs.Constraint("you already reviewed this book")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	verified, err := s.hasDeliveredOrder(userID, bookID)
	if err != nil {
		return nil, err
	}

	r := models.Review{
		BookID:             bookID,
		UserID:             userID,
		Rating:             rating,
		Title:              title,
		Comment:            comment,
		Status:             models.ReviewPending,
		IsVerifiedPurchase: verified,
	}
	if err := s.db.Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// Edit rewrites the user's review and sends it back to moderation.
func (s *Service) Edit(userID, reviewID uint, rating int, title, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, errs.InvalidField("rating", "must be between 1 and 5")
	}
	var r models.Review
	if err := s.db.First(&r, reviewID).Error; err != nil {
		return nil, errs.NotFound("review")
	}
	if r.UserID != userID {
		return nil, errs.Forbidden("review belongs to another user")
	}
	if err := s.db.Model(&r).Updates(map[string]interface{}{
		"rating":  rating,
		"title":   title,
		"comment": comment,
		"status":  models.ReviewPending,
	}).Error; err != nil {
		return nil, err
	}
	r.Rating = rating
	r.Title = title
	r.Comment = comment
	r.Status = models.ReviewPending
	return &r, nil
}

func (s *Service) hasDeliveredOrder(userID, bookID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.book_id = ?",
			userID, models.OrderDelivered, bookID).
		Count(&count).Error
	return count > 0, err
}

// Moderate approves or rejects a pending review.
func (s *Service) Moderate(reviewID uint, approve bool) error {
	var r models.Review
	if err := s.db.First(&r, reviewID).Error; err != nil {
		return errs.NotFound("review")
	}
	updates := map[string]interface{}{"status": models.ReviewRejected}
	if approve {
		updates["status"] = models.ReviewApproved
		updates["approved_at"] = gorm.Expr("CURRENT_TIMESTAMP")
	}
	return s.db.Model(&r).Updates(updates).Error
}

// ForBook lists approved reviews, newest first.
func (s *Service) ForBook(bookID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.Preload("User").
		Where("book_id = ? AND status = ?", bookID, models.ReviewApproved).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (s *Service) Pending() ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.Preload("User").Preload("Book").
		Where("status = ?", models.ReviewPending).
		Order("created_at").
		Find(&reviews).Error
	return reviews, err
}

// AverageRating is the arithmetic mean over approved reviews, 0 when there
// are none.
func (s *Service) AverageRating(bookID uint) (float64, error) {
	var avg *float64
	err := s.db.Model(&models.Review{}).
		Where("book_id = ? AND status = ?", bookID, models.ReviewApproved).
		Select("AVG(rating)").Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (s *Service) TotalReviews(bookID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Review{}).
		Where("book_id = ? AND status = ?", bookID, models.ReviewApproved).
		Count(&count).Error
	return count, err
}

// ToggleHelpful flips the user's helpful vote on a review and returns the
// new vote count.
func (s *Service) ToggleHelpful(userID, reviewID uint) (int64, error) {
	if err := s.db.First(&models.Review{}, reviewID).Error; err != nil {
		return 0, errs.NotFound("review")
	}

	var vote models.ReviewHelpful
	err := s.db.Where("review_id = ? AND user_id = ?", reviewID, userID).First(&vote).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		vote = models.ReviewHelpful{ReviewID: reviewID, UserID: userID, IsHelpful: true}
		if err := s.db.Create(&vote).Error; err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	default:
		if err := s.db.Model(&vote).Update("is_helpful", !vote.IsHelpful).Error; err != nil {
			return 0, err
		}
	}
	return s.HelpfulCount(reviewID)
}

func (s *Service) HelpfulCount(reviewID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.ReviewHelpful{}).
		Where("review_id = ? AND is_helpful = ?", reviewID, true).
		Count(&count).Error
	return count, err
}
