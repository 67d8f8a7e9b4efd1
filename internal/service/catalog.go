package service

import (
	"context"
	"errors"
	"strings"

	"bookforum/internal/middleware"
	"bookforum/internal/models"
	"bookforum/internal/validation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookService owns the shared book catalog and per-user ownership rows.
// Catalog identity is content-addressed: trimmed (title, author) compared
// case-insensitively names the record, so adds and renames go through
// lookup-or-create and merge steps instead of blind writes.
type BookService struct {
	db *gorm.DB
}

// NewBookService returns a new BookService.
func NewBookService(db *gorm.DB) *BookService {
	return &BookService{db: db}
}

// AddOwnedBook adds a book to the user's collection. If a catalog record
// already matches the normalized (title, author), the user acquires a
// reference to that record instead of creating a duplicate. Adding a book
// the user already owns is a no-op returning the existing record.
func (s *BookService) AddOwnedBook(ctx context.Context, userID uint, title, author, genre string) (*models.Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	genre = strings.TrimSpace(genre)

	if err := validation.ValidateBookTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateBookAuthor(author); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateBookGenre(genre); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	var book models.Book
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("LOWER(title) = LOWER(?) AND LOWER(author) = LOWER(?)", title, author).
			First(&book).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			book = models.Book{Title: title, Author: author, Genre: genre}
			if err := tx.Create(&book).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		}

		var owned int64
		if err := tx.Model(&models.OwnedBook{}).
			Where("user_id = ? AND book_id = ?", userID, book.ID).
			Count(&owned).Error; err != nil {
			return err
		}
		if owned > 0 {
			return nil
		}

		return tx.Create(&models.OwnedBook{UserID: userID, BookID: book.ID}).Error
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}
	return &book, nil
}

// RemoveOwnedBook drops the user's ownership of a book. The catalog record
// itself is left in place even when orphaned; orphan cleanup belongs to the
// cascade paths that create orphans knowingly.
func (s *BookService) RemoveOwnedBook(ctx context.Context, userID, bookID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&models.OwnedBook{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Owned book", bookID)
	}
	return nil
}

// EditOwnedBook renames a book in the user's collection. If the new
// (title, author) pair collides with a different catalog record, the user's
// ownership is redirected to that record, its empty genre is back-filled,
// and the original record is deleted when no other user still references
// it. Without a collision the record is renamed in place.
func (s *BookService) EditOwnedBook(ctx context.Context, userID, bookID uint, newTitle, newAuthor, newGenre string) (*models.Book, error) {
	newTitle = strings.TrimSpace(newTitle)
	newAuthor = strings.TrimSpace(newAuthor)
	newGenre = strings.TrimSpace(newGenre)

	if err := validation.ValidateBookTitle(newTitle); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateBookAuthor(newAuthor); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateBookGenre(newGenre); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	var result models.Book
	merged := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Book", bookID)
			}
			return err
		}

		var owned int64
		if err := tx.Model(&models.OwnedBook{}).
			Where("user_id = ? AND book_id = ?", userID, bookID).
			Count(&owned).Error; err != nil {
			return err
		}
		if owned == 0 {
			return models.NewForbiddenError("You do not own this book")
		}

		var existing models.Book
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("LOWER(title) = LOWER(?) AND LOWER(author) = LOWER(?) AND id <> ?", newTitle, newAuthor, bookID).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Free identity: rename in place.
			book.Title = newTitle
			book.Author = newAuthor
			if newGenre != "" {
				book.Genre = newGenre
			}
			if err := tx.Save(&book).Error; err != nil {
				return err
			}
			result = book
			return nil
		case err != nil:
			return err
		}

		// Collision: merge onto the existing record.
		if err := tx.Where("user_id = ? AND book_id = ?", userID, bookID).
			Delete(&models.OwnedBook{}).Error; err != nil {
			return err
		}

		var alreadyOwns int64
		if err := tx.Model(&models.OwnedBook{}).
			Where("user_id = ? AND book_id = ?", userID, existing.ID).
			Count(&alreadyOwns).Error; err != nil {
			return err
		}
		if alreadyOwns == 0 {
			if err := tx.Create(&models.OwnedBook{UserID: userID, BookID: existing.ID}).Error; err != nil {
				return err
			}
		}

		if existing.Genre == "" && newGenre != "" {
			existing.Genre = newGenre
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		}

		var remaining int64
		if err := tx.Model(&models.OwnedBook{}).
			Where("book_id = ?", bookID).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			if err := tx.Where("book_id = ?", bookID).Delete(&models.HiddenForumBook{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Forum{}).
				Where("featured_book_id = ?", bookID).
				Update("featured_book_id", nil).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Book{}, bookID).Error; err != nil {
				return err
			}
		}

		result = existing
		merged = true
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	if merged {
		middleware.BookMerges.Inc()
	}
	return &result, nil
}
