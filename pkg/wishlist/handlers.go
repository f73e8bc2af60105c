package wishlist

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/web"
)

func (s *Service) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/wishlist/toggle/:bookId", s.toggle)
	r.GET("/wishlist", s.list)
	r.POST("/wishlist/collections", s.createCollection)
	r.GET("/wishlist/collections", s.listCollections)
	r.GET("/wishlist/collections/:id", s.collectionItems)
	r.POST("/wishlist/collections/:id/items", s.addToCollection)
	r.DELETE("/wishlist/collections/:id/items/:bookId", s.removeFromCollection)
	r.DELETE("/wishlist/collections/:id", s.deleteCollection)
}

func param(c *gin.Context, key string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(key), 10, 32)
	if err != nil {
		errs.JSON(c, errs.InvalidField(key, "must be a numeric id"))
		return 0, false
	}
	return uint(v), true
}

func (s *Service) toggle(c *gin.Context) {
	bookID, ok := param(c, "bookId")
	if !ok {
		return
	}
	user := web.CurrentUser(c)
	added, err := s.Toggle(user.ID, bookID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inWishlist": added})
}

func (s *Service) list(c *gin.Context) {
	user := web.CurrentUser(c)
	items, err := s.List(user.ID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Service) createCollection(c *gin.Context) {
	user := web.CurrentUser(c)
	var in struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Privacy     string `json:"privacy"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	col, err := s.CreateCollection(user.ID, in.Name, in.Description, in.Privacy)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, col)
}

func (s *Service) listCollections(c *gin.Context) {
	user := web.CurrentUser(c)
	collections, err := s.Collections(user.ID)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": collections})
}

func (s *Service) collectionItems(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}
	user := web.CurrentUser(c)
	items, err := s.CollectionItems(user.ID, id)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Service) addToCollection(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}
	var in struct {
		BookID   uint   `json:"bookId" binding:"required"`
		Priority int    `json:"priority"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	if in.Priority == 0 {
		in.Priority = 1
	}
	user := web.CurrentUser(c)
	item, err := s.AddToCollection(user.ID, id, in.BookID, in.Priority, in.Notes)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Service) removeFromCollection(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}
	bookID, ok := param(c, "bookId")
	if !ok {
		return
	}
	user := web.CurrentUser(c)
	if err := s.RemoveFromCollection(user.ID, id, bookID); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item removed"})
}

func (s *Service) deleteCollection(c *gin.Context) {
	id, ok := param(c, "id")
	if !ok {
		return
	}
	user := web.CurrentUser(c)
	if err := s.DeleteCollection(user.ID, id); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "collection deleted"})
}
