package catalog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bookhaven/bookstore/pkg/errs"
)

// RegisterRoutes wires the public catalog surface and the admin catalog
// management surface.
func (s *Service) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.GET("/navigation", s.getNavigation)
	public.GET("/books", s.listBooks)
	public.GET("/books/search", s.searchBooks)
	public.GET("/books/:slug", s.getBook)
	public.GET("/categories/:slug", s.getCategory)
	public.GET("/breadcrumbs/*slugs", s.getBreadcrumbs)

	admin.POST("/books", s.createBook)
	admin.PUT("/books/:id", s.updateBook)
	admin.POST("/categories", s.createCategory)
	admin.POST("/subcategories", s.createSubCategory)
	admin.POST("/subsubcategories", s.createSubSubCategory)
	admin.PATCH("/categories/:id/active", s.setCategoryActive)
}

func (s *Service) getNavigation(c *gin.Context) {
	nav, err := s.Navigation()
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"navigation": nav})
}

func (s *Service) listBooks(c *gin.Context) {
	filter := ListFilter{
		CategorySlug: c.Query("category"),
		Status:       c.Query("status"),
		Featured:     c.Query("featured") == "true",
		Bestseller:   c.Query("bestseller") == "true",
		OnSale:       c.Query("onSale") == "true",
		Page:         intQuery(c, "page", 1),
		Size:         sizeQuery(c, 20),
	}
	books, total, err := s.ListBooks(filter)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": books, "total": total, "page": filter.Page, "size": filter.Size})
}

func (s *Service) searchBooks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		errs.JSON(c, errs.InvalidField("q", "required"))
		return
	}
	page := intQuery(c, "page", 1)
	size := sizeQuery(c, 20)
	books, total, err := s.Search(query, page, size)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": books, "total": total, "page": page, "size": size})
}

func (s *Service) getBook(c *gin.Context) {
	book, err := s.GetBySlug(c.Param("slug"))
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Service) getCategory(c *gin.Context) {
	category, err := s.GetCategoryBySlug(c.Param("slug"))
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (s *Service) getBreadcrumbs(c *gin.Context) {
	raw := strings.Trim(c.Param("slugs"), "/")
	if raw == "" {
		errs.JSON(c, errs.InvalidInput("at least one slug is required"))
		return
	}
	crumbs, err := s.Breadcrumbs(strings.Split(raw, "/"))
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"breadcrumbs": crumbs})
}

func (s *Service) createBook(c *gin.Context) {
	var in BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	book, err := s.CreateBook(in)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (s *Service) updateBook(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		errs.JSON(c, err)
		return
	}
	var in BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	book, err := s.UpdateBook(id, in)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Service) createCategory(c *gin.Context) {
	var in struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	category, err := s.CreateCategory(in.Name, in.Description)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (s *Service) createSubCategory(c *gin.Context) {
	var in struct {
		CategoryID  uint   `json:"categoryId" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	sub, err := s.CreateSubCategory(in.CategoryID, in.Name, in.Description)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (s *Service) createSubSubCategory(c *gin.Context) {
	var in struct {
		SubCategoryID uint   `json:"subCategoryId" binding:"required"`
		Name          string `json:"name" binding:"required"`
		Description   string `json:"description"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	subsub, err := s.CreateSubSubCategory(in.SubCategoryID, in.Name, in.Description)
	if err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, subsub)
}

func (s *Service) setCategoryActive(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		errs.JSON(c, err)
		return
	}
	var in struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		errs.JSON(c, errs.InvalidInput("invalid request format"))
		return
	}
	if err := s.SetCategoryActive(id, in.Active); err != nil {
		errs.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category updated"})
}

const maxPageSize = 100

func intQuery(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}

// sizeQuery reads the page size, clamped to 1..maxPageSize.
func sizeQuery(c *gin.Context, def int) int {
	size := intQuery(c, "size", def)
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

func pathID(c *gin.Context, key string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(key), 10, 32)
	if err != nil {
		return 0, errs.InvalidField(key, "must be a numeric id")
	}
	return uint(v), nil
}
