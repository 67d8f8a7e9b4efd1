package repository

import (
	"context"
	"errors"

	"bookforum/internal/models"

	"gorm.io/gorm"
)

// BookRepository defines persistence operations for the shared book catalog.
type BookRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	// FindByTitleAuthor matches on trimmed title and author, case-insensitively.
	// Returns nil, nil when no catalog record matches.
	FindByTitleAuthor(ctx context.Context, title, author string) (*models.Book, error)
	Create(ctx context.Context, book *models.Book) error
	OwnerCount(ctx context.Context, bookID uint) (int64, error)
	ListOwnedByUser(ctx context.Context, userID uint) ([]models.Book, error)
}

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository returns a new BookRepository implementation.
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Book", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &book, nil
}

func (r *bookRepository) FindByTitleAuthor(ctx context.Context, title, author string) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Where("LOWER(title) = LOWER(?) AND LOWER(author) = LOWER(?)", title, author).
		First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &book, nil
}

func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *bookRepository) OwnerCount(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OwnedBook{}).
		Where("book_id = ?", bookID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *bookRepository) ListOwnedByUser(ctx context.Context, userID uint) ([]models.Book, error) {
	var books []models.Book
	err := r.db.WithContext(ctx).
		Joins("JOIN owned_books ON owned_books.book_id = books.id").
		Where("owned_books.user_id = ?", userID).
		Order("books.title").
		Find(&books).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return books, nil
}
