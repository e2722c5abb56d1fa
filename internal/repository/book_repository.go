package repository

import (
	"context"

	"gorm.io/gorm"

	"librarium/internal/model"
)

// BookRepository defines book persistence operations.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Book, error)
	FindByISBN(ctx context.Context, isbn string) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Search(ctx context.Context, term string) ([]model.Book, error)
	TopRated(ctx context.Context, limit int) ([]model.Book, error)
}

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository.
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *bookRepository) Update(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Book{}, id).Error
}

func (r *bookRepository) FindByID(ctx context.Context, id uint) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) List(ctx context.Context) ([]model.Book, error) {
	var books []model.Book
	if err := r.db.WithContext(ctx).Order("title").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// Search matches the term against title and author, case-insensitively.
// An empty term returns the full catalog.
func (r *bookRepository) Search(ctx context.Context, term string) ([]model.Book, error) {
	if term == "" {
		return r.List(ctx)
	}
	pattern := "%" + term + "%"
	var books []model.Book
	if err := r.db.WithContext(ctx).
		Where("title LIKE ? OR author LIKE ?", pattern, pattern).
		Order("title").
		Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) TopRated(ctx context.Context, limit int) ([]model.Book, error) {
	var books []model.Book
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("rating DESC, rating_count DESC").
		Limit(limit).
		Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}
