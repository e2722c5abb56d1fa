package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"librarium/internal/cache"
	apperrors "librarium/internal/errors"
	"librarium/internal/model"
	"librarium/internal/repository"
)

const bookCacheTTL = 5 * time.Minute

const defaultTopRatedCount = 10

var maxRating = decimal.NewFromInt(5)

// BookService handles catalog management and rating aggregation.
type BookService interface {
	CreateBook(ctx context.Context, book *model.Book) error
	UpdateBook(ctx context.Context, book *model.Book) error
	DeleteBook(ctx context.Context, id uint) error
	GetBook(ctx context.Context, id uint) (*model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	SearchBooks(ctx context.Context, term string) ([]model.Book, error)
	TopRatedBooks(ctx context.Context, count int) ([]model.Book, error)

	RateBook(ctx context.Context, bookID, userID uint, value decimal.Decimal) error
}

type bookService struct {
	tx       repository.TxManager
	bookRepo repository.BookRepository
	userRepo repository.UserRepository
	cache    *cache.Client
}

// NewBookService creates a new book service.
func NewBookService(tx repository.TxManager, bookRepo repository.BookRepository, userRepo repository.UserRepository, cache *cache.Client) BookService {
	return &bookService{
		tx:       tx,
		bookRepo: bookRepo,
		userRepo: userRepo,
		cache:    cache,
	}
}

func (s *bookService) cacheKey(id uint) string {
	return fmt.Sprintf("book:%d", id)
}

// CreateBook adds a title to the catalog. Stock may not be negative and the
// ISBN must be unique across active and inactive books.
func (s *bookService) CreateBook(ctx context.Context, book *model.Book) error {
	if book.Stock < 0 {
		return apperrors.ErrNegativeStock
	}

	existing, err := s.bookRepo.FindByISBN(ctx, book.ISBN)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check ISBN: %w", err)
	}
	if existing != nil {
		return apperrors.ErrDuplicateISBN
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

// UpdateBook updates catalog details of an existing book.
func (s *bookService) UpdateBook(ctx context.Context, book *model.Book) error {
	existing, err := s.findBook(ctx, book.ID)
	if err != nil {
		return err
	}
	if book.Stock < 0 {
		return apperrors.ErrNegativeStock
	}

	existing.Title = book.Title
	existing.Author = book.Author
	existing.ISBN = book.ISBN
	existing.Stock = book.Stock
	existing.Active = book.Active
	existing.Category = book.Category
	existing.CoverURL = book.CoverURL

	if err := s.bookRepo.Update(ctx, existing); err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(book.ID))
	return nil
}

// DeleteBook removes a book from the catalog.
func (s *bookService) DeleteBook(ctx context.Context, id uint) error {
	if _, err := s.findBook(ctx, id); err != nil {
		return err
	}
	if err := s.bookRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

// GetBook retrieves a book by ID with caching.
func (s *bookService) GetBook(ctx context.Context, id uint) (*model.Book, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.Book
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	book, err := s.findBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(book); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, bookCacheTTL)
	}
	return book, nil
}

func (s *bookService) ListBooks(ctx context.Context) ([]model.Book, error) {
	return s.bookRepo.List(ctx)
}

func (s *bookService) SearchBooks(ctx context.Context, term string) ([]model.Book, error) {
	return s.bookRepo.Search(ctx, term)
}

func (s *bookService) TopRatedBooks(ctx context.Context, count int) ([]model.Book, error) {
	if count <= 0 {
		count = defaultTopRatedCount
	}
	return s.bookRepo.TopRated(ctx, count)
}

// RateBook upserts the caller's rating for a book and recomputes the book's
// mean rating and rating count from the full set of rating rows, all inside
// one transaction. Only end users rate books.
func (s *bookService) RateBook(ctx context.Context, bookID, userID uint, value decimal.Decimal) error {
	if value.IsNegative() || value.GreaterThan(maxRating) {
		return apperrors.ErrInvalidRating
	}

	return s.tx.WithTransaction(ctx, func(ctx context.Context, r *repository.Repos) error {
		user, err := r.Users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrUserNotFound
			}
			return fmt.Errorf("find user: %w", err)
		}
		if user.Role != model.RoleEndUser {
			return apperrors.ErrRoleNotPermitted
		}

		book, err := r.Books.FindByID(ctx, bookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBookNotFound
			}
			return fmt.Errorf("find book: %w", err)
		}

		now := time.Now().UTC()
		rating, err := r.Ratings.FindByBookAndUser(ctx, book.ID, user.ID)
		switch {
		case err == nil:
			rating.Value = value
			rating.UpdatedAt = now
			if err := r.Ratings.Update(ctx, rating); err != nil {
				return fmt.Errorf("update rating: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			rating = &model.Rating{BookID: book.ID, UserID: user.ID, Value: value}
			if err := r.Ratings.Create(ctx, rating); err != nil {
				return fmt.Errorf("create rating: %w", err)
			}
		default:
			return fmt.Errorf("find rating: %w", err)
		}

		// Full re-scan: the mean is always recomputed from every rating
		// row rather than adjusted incrementally.
		ratings, err := r.Ratings.FindByBookID(ctx, book.ID)
		if err != nil {
			return fmt.Errorf("list ratings: %w", err)
		}
		sum := decimal.Zero
		for _, rt := range ratings {
			sum = sum.Add(rt.Value)
		}
		book.RatingCount = len(ratings)
		book.Rating = sum.Div(decimal.NewFromInt(int64(len(ratings)))).Round(2)

		if err := r.Books.Update(ctx, book); err != nil {
			return fmt.Errorf("update book rating: %w", err)
		}

		_ = s.cache.Delete(ctx, s.cacheKey(book.ID))
		return nil
	})
}

func (s *bookService) findBook(ctx context.Context, id uint) (*model.Book, error) {
	book, err := s.bookRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}
	return book, nil
}
