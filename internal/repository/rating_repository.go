package repository

import (
	"context"

	"gorm.io/gorm"

	"librarium/internal/model"
)

// RatingRepository defines rating persistence operations.
type RatingRepository interface {
	Create(ctx context.Context, rating *model.Rating) error
	Update(ctx context.Context, rating *model.Rating) error
	FindByBookAndUser(ctx context.Context, bookID, userID uint) (*model.Rating, error)
	FindByBookID(ctx context.Context, bookID uint) ([]model.Rating, error)
}

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository creates a new rating repository.
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Create(ctx context.Context, rating *model.Rating) error {
	return r.db.WithContext(ctx).Create(rating).Error
}

func (r *ratingRepository) Update(ctx context.Context, rating *model.Rating) error {
	return r.db.WithContext(ctx).Save(rating).Error
}

func (r *ratingRepository) FindByBookAndUser(ctx context.Context, bookID, userID uint) (*model.Rating, error) {
	var rating model.Rating
	if err := r.db.WithContext(ctx).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		First(&rating).Error; err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *ratingRepository) FindByBookID(ctx context.Context, bookID uint) ([]model.Rating, error) {
	var ratings []model.Rating
	if err := r.db.WithContext(ctx).Where("book_id = ?", bookID).Find(&ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}
