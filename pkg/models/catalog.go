package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FormatHardcover = "hardcover"
	FormatPaperback = "paperback"
	FormatEbook     = "ebook"
	FormatAudiobook = "audiobook"
)

const (
	BookAvailable    = "available"
	BookOutOfStock   = "out_of_stock"
	BookDiscontinued = "discontinued"
)

type Category struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null;uniqueIndex"`
	Slug        string `gorm:"size:100;not null;uniqueIndex"`
	Description string
	IsActive    bool `gorm:"default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type SubCategory struct {
	ID          uint   `gorm:"primaryKey"`
	CategoryID  uint   `gorm:"not null;uniqueIndex:idx_subcat_slug"`
	Name        string `gorm:"size:100;not null"`
	Slug        string `gorm:"size:100;not null;uniqueIndex:idx_subcat_slug"`
	Description string
	IsActive    bool `gorm:"default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Category Category `gorm:"foreignKey:CategoryID"`
}

type SubSubCategory struct {
	ID            uint   `gorm:"primaryKey"`
	SubCategoryID uint   `gorm:"not null;uniqueIndex:idx_subsubcat_slug"`
	Name          string `gorm:"size:100;not null"`
	Slug          string `gorm:"size:100;not null;uniqueIndex:idx_subsubcat_slug"`
	Description   string
	IsActive      bool `gorm:"default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	SubCategory SubCategory `gorm:"foreignKey:SubCategoryID"`
}

type Author struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:200;not null"`
	Biography   string
	Nationality string `gorm:"size:100"`
	Website     string `gorm:"size:300"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Publisher struct {
	ID              uint   `gorm:"primaryKey"`
	Name            string `gorm:"size:200;not null"`
	Description     string
	Website         string `gorm:"size:300"`
	EstablishedYear int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Book struct {
	ID               uint   `gorm:"primaryKey"`
	Title            string `gorm:"size:300;not null"`
	Slug             string `gorm:"size:300;not null;uniqueIndex"`
	PublisherID      *uint
	ISBN             string `gorm:"column:isbn;size:20;index"`
	ISBN13           string `gorm:"column:isbn13;size:20;index"`
	CategoryID       uint   `gorm:"not null;index:idx_books_category_status"`
	SubCategoryID    *uint
	SubSubCategoryID *uint
	Description      string
	ShortDescription string `gorm:"size:500"`
	Format           string `gorm:"size:20;default:'paperback'"`
	Pages            int
	Language         string          `gorm:"size:50;default:'English'"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	OriginalPrice    decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	CoverImage       string          `gorm:"size:500"`
	PublicationDate  *time.Time
	Edition          string `gorm:"size:50"`
	Status           string `gorm:"size:20;default:'available';index:idx_books_category_status"`
	IsFeatured       bool   `gorm:"default:false"`
	IsBestseller     bool   `gorm:"default:false"`
	IsOnSale         bool   `gorm:"default:false"`
	ViewsCount       int    `gorm:"default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Publisher      *Publisher      `gorm:"foreignKey:PublisherID"`
	Category       Category        `gorm:"foreignKey:CategoryID"`
	SubCategory    *SubCategory    `gorm:"foreignKey:SubCategoryID"`
	SubSubCategory *SubSubCategory `gorm:"foreignKey:SubSubCategoryID"`
	Authors        []Author        `gorm:"many2many:book_authors"`
}
