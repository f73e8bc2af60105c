package review

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/web"
)

func (s *Service) RegisterRoutes(public, authed, moderation *gin.RouterGroup) {
	public.GET("/reviews/book/:bookId", s.bookReviews)

	authed.POST("/reviews/book/:bookId", s.createReview)
	authed.PUT("/reviews/:id", s.editReview)
	authed.POST("/reviews/:id/helpful", s.toggleHelpful)

	moderation.GET("/reviews/pending", s.pendingReviews)
	moderation.POST("/reviews/:id/moderate", s.moderate)
}

func bookIDParam(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("bookId"), 10, 32)
	if err != nil {
		errs.JSON(c, errs.InvalidField("bookId", "must be a numeric id"))
		return 0, false
	}
	return uint(v), true
}

func reviewIDParam(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		errs.JSON(c, errs.InvalidField("id", "must be a numeric id"))
		return 0, false
	}
	return uint(v), true
}

func (s *Service) bookReviews(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}
	reviews, err := s.ForBook(bookID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	avg, err := s.AverageRating(bookID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	total, err := s.TotalReviews(bookID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reviews":       reviews,
		"averageRating": avg,
		"totalReviews":  total,
	})
}

func (s *Service) createReview(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}
	var in struct {
		Rating  int    `json:"rating" binding:"required"`
		Title   string `json:"title"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	user := web.CurrentUser(c)
	r, err := s.Create(user.ID, bookID, in.Rating, in.Title, in.Comment)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (s *Service) editReview(c *gin.Context) {
	id, ok := reviewIDParam(c)
	if !ok {
		return
	}
	var in struct {
		Rating  int    `json:"rating" binding:"required"`
		Title   string `json:"title"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	user := web.CurrentUser(c)
	r, err := s.Edit(user.ID, id, in.Rating, in.Title, in.Comment)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Service) toggleHelpful(c *gin.Context) {
	id, ok := reviewIDParam(c)
	if !ok {
		return
	}
	user := web.CurrentUser(c)
	count, err := s.ToggleHelpful(user.ID, id)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"helpfulCount": count})
}

func (s *Service) pendingReviews(c *gin.Context) {
	reviews, err := s.Pending()
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

func (s *Service) moderate(c *gin.Context) {
	id, ok := reviewIDParam(c)
	if !ok {
		return
	}
	var in struct {
		Approve bool `json:"approve"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	if err := s.Moderate(id, in.Approve); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "review moderated"})
}
