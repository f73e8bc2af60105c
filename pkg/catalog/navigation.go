package catalog

import (
	"errors"

	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
)

const navCacheKey = "navigation"

// NavNode is one entry of the navigation snapshot. Children are nested so
// the rendering layer never walks the tree itself.
type NavNode struct {
	ID       uint      `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	IsActive bool      `json:"isActive"`
	Children []NavNode `json:"children,omitempty"`
}

// Navigation returns the active category tree, cached until the TTL
// expires or a tree mutation invalidates it.
func (s *Service) Navigation() ([]NavNode, error) {
	if cached, ok := s.cache.Get(navCacheKey); ok {
		return cached.([]NavNode), nil
	}

	var categories []models.Category
	if err := s.db.Where("is_active = ?", true).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	var subs []models.SubCategory
	if err := s.db.Where("is_active = ?", true).Order("name").Find(&subs).Error; err != nil {
		return nil, err
	}
	var subSubs []models.SubSubCategory
	if err := s.db.Where("is_active = ?", true).Order("name").Find(&subSubs).Error; err != nil {
		return nil, err
	}

	subSubByParent := make(map[uint][]NavNode)
	for _, ss := range subSubs {
		subSubByParent[ss.SubCategoryID] = append(subSubByParent[ss.SubCategoryID], NavNode{
			ID: ss.ID, Name: ss.Name, Slug: ss.Slug, IsActive: ss.IsActive,
		})
	}
	subByParent := make(map[uint][]NavNode)
	for _, sub := range subs {
		subByParent[sub.CategoryID] = append(subByParent[sub.CategoryID], NavNode{
			ID: sub.ID, Name: sub.Name, Slug: sub.Slug, IsActive: sub.IsActive,
			Children: subSubByParent[sub.ID],
		})
	}

	tree := make([]NavNode, 0, len(categories))
	for _, c := range categories {
		tree = append(tree, NavNode{
			ID: c.ID, Name: c.Name, Slug: c.Slug, IsActive: c.IsActive,
			Children: subByParent[c.ID],
		})
	}

	s.cache.Set(navCacheKey, tree, s.navTTL)
	return tree, nil
}

func (s *Service) invalidateNavigation() {
	s.cache.Invalidate(navCacheKey)
}

// Breadcrumb resolution: a path of 1-3 slugs names a category, then a
// subcategory, then a sub-subcategory. Returned as explicit data; the HTTP
// layer never parses URLs to reconstruct it.
type Breadcrumb struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (s *Service) Breadcrumbs(slugs []string) ([]Breadcrumb, error) {
	if len(slugs) == 0 || len(slugs) > 3 {
		return nil, errs.InvalidInput("breadcrumb path must have 1 to 3 slugs")
	}

	var category models.Category
	if err := s.db.Where("slug = ?", slugs[0]).First(&category).Error; err != nil {
		return nil, errs.NotFound("category")
	}
	crumbs := []Breadcrumb{{Name: category.Name, Slug: category.Slug}}
	if len(slugs) == 1 {
		return crumbs, nil
	}

	var sub models.SubCategory
	if err := s.db.Where("category_id = ? AND slug = ?", category.ID, slugs[1]).First(&sub).Error; err != nil {
		return nil, errs.NotFound("subcategory")
	}
	crumbs = append(crumbs, Breadcrumb{Name: sub.Name, Slug: sub.Slug})
	if len(slugs) == 2 {
		return crumbs, nil
	}

	var subSub models.SubSubCategory
	if err := s.db.Where("sub_category_id = ? AND slug = ?", sub.ID, slugs[2]).First(&subSub).Error; err != nil {
		return nil, errs.NotFound("sub-subcategory")
	}
	return append(crumbs, Breadcrumb{Name: subSub.Name, Slug: subSub.Slug}), nil
}

// Category tree writes. Each invalidates the navigation snapshot.

func (s *Service) CreateCategory(name, description string) (*models.Category, error) {
	slug, err := uniqueSlug(s.db, "categories", Slugify(name), 0)
	if err != nil {
		return nil, err
	}
	category := &models.Category{Name: name, Slug: slug, Description: description, IsActive: true}
	if err := s.db.Create(category).Error; err != nil {
		return nil, errs.Wrap(errs.KindConstraint, "create category", err)
	}
	s.invalidateNavigation()
	return category, nil
}

func (s *Service) CreateSubCategory(categoryID uint, name, description string) (*models.SubCategory, error) {
	var category models.Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		return nil, errs.NotFound("category")
	}
	sub := &models.SubCategory{
		CategoryID:  categoryID,
		Name:        name,
		Slug:        Slugify(name),
		Description: description,
		IsActive:    true,
	}
	if err := s.db.Create(sub).Error; err != nil {
		return nil, errs.Wrap(errs.KindConstraint, "create subcategory", err)
	}
	s.invalidateNavigation()
	return sub, nil
}

func (s *Service) CreateSubSubCategory(subCategoryID uint, name, description string) (*models.SubSubCategory, error) {
	var sub models.SubCategory
	if err := s.db.First(&sub, subCategoryID).Error; err != nil {
		return nil, errs.NotFound("subcategory")
	}
	subSub := &models.SubSubCategory{
		SubCategoryID: subCategoryID,
		Name:          name,
		Slug:          Slugify(name),
		Description:   description,
		IsActive:      true,
	}
	if err := s.db.Create(subSub).Error; err != nil {
		return nil, errs.Wrap(errs.KindConstraint, "create sub-subcategory", err)
	}
	s.invalidateNavigation()
	return subSub, nil
}

func (s *Service) SetCategoryActive(categoryID uint, active bool) error {
	res := s.db.Model(&models.Category{}).Where("id = ?", categoryID).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("category")
	}
	s.invalidateNavigation()
	return nil
}

func (s *Service) GetCategoryBySlug(slug string) (*models.Category, error) {
	var category models.Category
	err := s.db.Where("slug = ?", slug).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("category")
		}
		return nil, err
	}
	return &category, nil
}
