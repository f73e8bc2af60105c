package wishlist

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

// Toggle adds the book to the flat wishlist, or removes it when already
// present. Returns true when the book ends up on the list.
func (s *Service) Toggle(userID, bookID uint) (bool, error) {
	if err := s.db.First(&models.Book{}, bookID).Error; err != nil {
		return false, errs.NotFound("book")
	}

	var item models.WishlistItem
	err := s.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		item = models.WishlistItem{UserID: userID, BookID: bookID}
		if err := s.db.Create(&item).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.db.Delete(&item).Error; err != nil {
		return false, err
	}
	return false, nil
}

func (s *Service) List(userID uint) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.db.Preload("Book").Preload("Book.Authors").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (s *Service) Contains(userID, bookID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.WishlistItem{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	return count > 0, err
}

// CreateCollection makes a named collection. The first collection a user
// creates becomes the default; names are unique per user.
func (s *Service) CreateCollection(userID uint, name, description, privacy string) (*models.WishlistCollection, error) {
	if name == "" {
		return nil, errs.InvalidField("name", "required")
	}
	switch privacy {
	case "":
		privacy = models.WishlistPrivate
	case models.WishlistPrivate, models.WishlistPublic, models.WishlistFriends:
	default:
		return nil, errs.InvalidField("privacy", "unknown privacy setting")
	}

	var col models.WishlistCollection
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var dup models.WishlistCollection
		err := tx.Where("user_id = ? AND name = ?", userID, name).First(&dup).Error
		if err == nil {
			return errs.Constraint("collection name already in use")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var existing int64
		if err := tx.Model(&models.WishlistCollection{}).
			Where("user_id = ?", userID).Count(&existing).Error; err != nil {
			return err
		}

		col = models.WishlistCollection{
			UserID:      userID,
			Name:        name,
			Description: description,
			Privacy:     privacy,
			IsDefault:   existing == 0,
		}
		return tx.Create(&col).Error
	})
	if err != nil {
		return nil, err
	}
	return &col, nil
}

func (s *Service) Collections(userID uint) ([]models.WishlistCollection, error) {
	var collections []models.WishlistCollection
	err := s.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at").
		Find(&collections).Error
	return collections, err
}

// CollectionItems returns the collection's books sorted by priority desc,
// newest first within the same priority.
func (s *Service) CollectionItems(userID, collectionID uint) ([]models.WishlistCollectionItem, error) {
	if _, err := s.ownedCollection(userID, collectionID); err != nil {
		return nil, err
	}
	var items []models.WishlistCollectionItem
	err := s.db.Preload("Book").
		Where("collection_id = ?", collectionID).
		Order("priority DESC, created_at DESC").
		Find(&items).Error
	return items, err
}

// AddToCollection puts a book in the collection with a priority. Adding a
// book that is already there updates its priority and notes instead.
func (s *Service) AddToCollection(userID, collectionID, bookID uint, priority int, notes string) (*models.WishlistCollectionItem, error) {
	if priority < 1 || priority > 5 {
		return nil, errs.InvalidField("priority", "must be between 1 and 5")
	}
	if _, err := s.ownedCollection(userID, collectionID); err != nil {
		return nil, err
	}
	if err := s.db.First(&models.Book{}, bookID).Error; err != nil {
		return nil, errs.NotFound("book")
	}

	var item models.WishlistCollectionItem
	err := s.db.Where("collection_id = ? AND book_id = ?", collectionID, bookID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		item = models.WishlistCollectionItem{
			CollectionID: collectionID,
			BookID:       bookID,
			Priority:     priority,
			Notes:        notes,
		}
		if err := s.db.Create(&item).Error; err != nil {
			return nil, err
		}
		return &item, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(&item).Updates(map[string]interface{}{
		"priority": priority,
		"notes":    notes,
	}).Error; err != nil {
		return nil, err
	}
	item.Priority = priority
	item.Notes = notes
	return &item, nil
}

func (s *Service) RemoveFromCollection(userID, collectionID, bookID uint) error {
	if _, err := s.ownedCollection(userID, collectionID); err != nil {
		return err
	}
	res := s.db.Where("collection_id = ? AND book_id = ?", collectionID, bookID).
		Delete(&models.WishlistCollectionItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("collection item")
	}
	return nil
}

// DeleteCollection drops the collection and its items. The default
// collection cannot be deleted.
func (s *Service) DeleteCollection(userID, collectionID uint) error {
	col, err := s.ownedCollection(userID, collectionID)
	if err != nil {
		return err
	}
	if col.IsDefault {
		return errs.InvalidInput("cannot delete the default collection")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", col.ID).
			Delete(&models.WishlistCollectionItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(col).Error
	})
}

func (s *Service) ownedCollection(userID, collectionID uint) (*models.WishlistCollection, error) {
	var col models.WishlistCollection
	err := s.db.Where("id = ? AND user_id = ?", collectionID, userID).First(&col).Error
	if err != nil {
		return nil, errs.NotFound("collection")
	}
	return &col, nil
}
