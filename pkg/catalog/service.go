package catalog

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/cache"
	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/models"
	"github.com/bookhaven/bookstore/pkg/stock"
)

type Service struct {
	db      *gorm.DB
	cache   *cache.Snapshot
	navTTL  time.Duration
	reorder int
	maxLvl  int
}

func New(db *gorm.DB, snapshots *cache.Snapshot, navTTL time.Duration, reorderLevel, maxLevel int) *Service {
	return &Service{db: db, cache: snapshots, navTTL: navTTL, reorder: reorderLevel, maxLvl: maxLevel}
}

// BookInput carries everything needed to create or update a book.
type BookInput struct {
	Title            string              `json:"title" binding:"required"`
	AuthorNames      []string            `json:"authorNames"`
	PublisherID      *uint               `json:"publisherId"`
	ISBN             string              `json:"isbn"`
	ISBN13           string              `json:"isbn13"`
	CategoryID       uint                `json:"categoryId" binding:"required"`
	SubCategoryID    *uint               `json:"subCategoryId"`
	SubSubCategoryID *uint               `json:"subSubCategoryId"`
	Description      string              `json:"description"`
	ShortDescription string              `json:"shortDescription"`
	Format           string              `json:"format"`
	Pages            int                 `json:"pages"`
	Language         string              `json:"language"`
	Price            decimal.Decimal     `json:"price"`
	OriginalPrice    decimal.NullDecimal `json:"originalPrice"`
	Edition          string              `json:"edition"`
}

var validFormats = map[string]bool{
	models.FormatHardcover: true,
	models.FormatPaperback: true,
	models.FormatEbook:     true,
	models.FormatAudiobook: true,
}

// validateHierarchy enforces the fixed-depth category triple: the
// subcategory must belong to the category, the sub-subcategory to the
// subcategory.
func validateHierarchy(tx *gorm.DB, categoryID uint, subID, subSubID *uint) error {
	var category models.Category
	if err := tx.First(&category, categoryID).Error; err != nil {
		return errs.InvalidField("category", "category does not exist")
	}
	if subID == nil {
		if subSubID != nil {
			return errs.InvalidField("subsubcategory", "sub-subcategory requires a subcategory")
		}
		return nil
	}
	var sub models.SubCategory
	if err := tx.First(&sub, *subID).Error; err != nil {
		return errs.InvalidField("subcategory", "subcategory does not exist")
	}
	if sub.CategoryID != categoryID {
		return errs.InvalidField("subcategory", "subcategory does not belong to the selected category")
	}
	if subSubID == nil {
		return nil
	}
	var subSub models.SubSubCategory
	if err := tx.First(&subSub, *subSubID).Error; err != nil {
		return errs.InvalidField("subsubcategory", "sub-subcategory does not exist")
	}
	if subSub.SubCategoryID != *subID {
		return errs.InvalidField("subsubcategory", "sub-subcategory does not belong to the selected subcategory")
	}
	return nil
}

// uniqueISBN rejects a duplicate ISBN or ISBN-13. Empty values are exempt;
// excludeID keeps a book's own row out of the check on update.
func uniqueISBN(tx *gorm.DB, isbn, isbn13 string, excludeID uint) error {
	check := func(column, value string) error {
		if value == "" {
			return nil
		}
		var count int64
		q := tx.Model(&models.Book{}).Where(column+" = ?", value)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errs.Constraint("another book already uses this " + column)
		}
		return nil
	}
	if err := check("isbn", isbn); err != nil {
		return err
	}
	return check("isbn13", isbn13)
}

func (s *Service) validateInput(in BookInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return errs.InvalidField("title", "title is required")
	}
	if in.Price.IsNegative() {
		return errs.InvalidField("price", "price cannot be negative")
	}
	if in.Format != "" && !validFormats[in.Format] {
		return errs.InvalidField("format", "unknown book format")
	}
	return nil
}

// CreateBook validates the category triple, generates a unique slug and
// creates the stock row in the same transaction. Stock creation is an
// explicit step here, not a side effect hidden behind a model hook.
func (s *Service) CreateBook(in BookInput) (*models.Book, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	var book models.Book
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := validateHierarchy(tx, in.CategoryID, in.SubCategoryID, in.SubSubCategoryID); err != nil {
			return err
		}
		if err := uniqueISBN(tx, in.ISBN, in.ISBN13, 0); err != nil {
			return err
		}

		slug, err := uniqueSlug(tx, "books", Slugify(in.Title), 0)
		if err != nil {
			return err
		}

		authors, err := resolveAuthors(tx, in.AuthorNames)
		if err != nil {
			return err
		}

		book = models.Book{
			Title:            in.Title,
			Slug:             slug,
			PublisherID:      in.PublisherID,
			ISBN:             in.ISBN,
			ISBN13:           in.ISBN13,
			CategoryID:       in.CategoryID,
			SubCategoryID:    in.SubCategoryID,
			SubSubCategoryID: in.SubSubCategoryID,
			Description:      in.Description,
			ShortDescription: in.ShortDescription,
			Format:           orDefault(in.Format, models.FormatPaperback),
			Pages:            in.Pages,
			Language:         orDefault(in.Language, "English"),
			Price:            in.Price,
			OriginalPrice:    in.OriginalPrice,
			Edition:          in.Edition,
			Status:           models.BookOutOfStock,
			Authors:          authors,
		}
		if err := tx.Create(&book).Error; err != nil {
			return errs.Wrap(errs.KindConstraint, "create book", err)
		}

		_, err = stock.UpsertForBook(tx, book.ID, s.reorder, s.maxLvl)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBook re-validates the triple and regenerates the slug only when
// the title changed.
func (s *Service) UpdateBook(bookID uint, in BookInput) (*models.Book, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	var book models.Book
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, bookID).Error; err != nil {
			return errs.NotFound("book")
		}
		if err := validateHierarchy(tx, in.CategoryID, in.SubCategoryID, in.SubSubCategoryID); err != nil {
			return err
		}
		if err := uniqueISBN(tx, in.ISBN, in.ISBN13, book.ID); err != nil {
			return err
		}

		if in.Title != book.Title {
			slug, err := uniqueSlug(tx, "books", Slugify(in.Title), book.ID)
			if err != nil {
				return err
			}
			book.Slug = slug
		}

		book.Title = in.Title
		book.PublisherID = in.PublisherID
		book.ISBN = in.ISBN
		book.ISBN13 = in.ISBN13
		book.CategoryID = in.CategoryID
		book.SubCategoryID = in.SubCategoryID
		book.SubSubCategoryID = in.SubSubCategoryID
		book.Description = in.Description
		book.ShortDescription = in.ShortDescription
		if in.Format != "" {
			book.Format = in.Format
		}
		book.Pages = in.Pages
		if in.Language != "" {
			book.Language = in.Language
		}
		book.Price = in.Price
		book.OriginalPrice = in.OriginalPrice
		book.Edition = in.Edition

		if len(in.AuthorNames) > 0 {
			authors, err := resolveAuthors(tx, in.AuthorNames)
			if err != nil {
				return err
			}
			if err := tx.Model(&book).Association("Authors").Replace(authors); err != nil {
				return err
			}
		}
		return tx.Save(&book).Error
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func resolveAuthors(tx *gorm.DB, names []string) ([]models.Author, error) {
	var authors []models.Author
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var author models.Author
		err := tx.Where("name = ?", name).First(&author).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			author = models.Author{Name: name}
			if err := tx.Create(&author).Error; err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}
		authors = append(authors, author)
	}
	return authors, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// GetBySlug loads a book with its relations and bumps the view counter.
func (s *Service) GetBySlug(slug string) (*models.Book, error) {
	var book models.Book
	err := s.db.
		Preload("Authors").
		Preload("Publisher").
		Preload("Category").
		Preload("SubCategory").
		Preload("SubSubCategory").
		Where("slug = ?", slug).
		First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("book")
		}
		return nil, err
	}
	s.db.Model(&book).UpdateColumn("views_count", gorm.Expr("views_count + 1"))
	book.ViewsCount++
	return &book, nil
}

type ListFilter struct {
	CategorySlug string
	Status       string
	Featured     bool
	Bestseller   bool
	OnSale       bool
	Page         int
	Size         int
}

func (s *Service) ListBooks(f ListFilter) ([]models.Book, int64, error) {
	q := s.db.Model(&models.Book{})
	if f.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = books.category_id").
			Where("categories.slug = ?", f.CategorySlug)
	}
	if f.Status != "" {
		q = q.Where("books.status = ?", f.Status)
	}
	if f.Featured {
		q = q.Where("is_featured = ?", true)
	}
	if f.Bestseller {
		q = q.Where("is_bestseller = ?", true)
	}
	if f.OnSale {
		q = q.Where("is_on_sale = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []models.Book
	err := q.Preload("Authors").Preload("Category").
		Order("books.created_at DESC").
		Offset((f.Page - 1) * f.Size).Limit(f.Size).
		Find(&books).Error
	return books, total, err
}

// Search matches a substring against title, author name, ISBNs and
// description.
func (s *Service) Search(query string, page, size int) ([]models.Book, int64, error) {
	pattern := "%" + strings.TrimSpace(query) + "%"
	base := s.db.Model(&models.Book{}).
		Joins("LEFT JOIN book_authors ON book_authors.book_id = books.id").
		Joins("LEFT JOIN authors ON authors.id = book_authors.author_id").
		Where(
			s.db.Where("books.title LIKE ?", pattern).
				Or("authors.name LIKE ?", pattern).
				Or("books.isbn LIKE ?", pattern).
				Or("books.isbn13 LIKE ?", pattern).
				Or("books.description LIKE ?", pattern),
		).
		Distinct("books.id")

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ids []uint
	if err := base.Offset((page - 1) * size).Limit(size).Pluck("books.id", &ids).Error; err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []models.Book{}, total, nil
	}

	var books []models.Book
	err := s.db.Preload("Authors").Preload("Category").
		Where("id IN ?", ids).
		Find(&books).Error
	return books, total, err
}
