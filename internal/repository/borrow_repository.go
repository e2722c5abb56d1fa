package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"librarium/internal/model"
)

// BorrowRepository defines borrow persistence operations.
type BorrowRepository interface {
	Create(ctx context.Context, borrow *model.Borrow) error
	Update(ctx context.Context, borrow *model.Borrow) error
	FindByID(ctx context.Context, id uint) (*model.Borrow, error)
	FindByUserID(ctx context.Context, userID uint) ([]model.Borrow, error)
	FindActiveByUserID(ctx context.Context, userID uint) ([]model.Borrow, error)
	FindAllActive(ctx context.Context) ([]model.Borrow, error)
	FindReturnRequests(ctx context.Context) ([]model.Borrow, error)
	FindOverdue(ctx context.Context, now time.Time) ([]model.Borrow, error)
	CountOutstandingByUserID(ctx context.Context, userID uint) (int64, error)
}

type borrowRepository struct {
	db *gorm.DB
}

// NewBorrowRepository creates a new borrow repository.
func NewBorrowRepository(db *gorm.DB) BorrowRepository {
	return &borrowRepository{db: db}
}

func (r *borrowRepository) Create(ctx context.Context, borrow *model.Borrow) error {
	return r.db.WithContext(ctx).Create(borrow).Error
}

func (r *borrowRepository) Update(ctx context.Context, borrow *model.Borrow) error {
	return r.db.WithContext(ctx).Save(borrow).Error
}

func (r *borrowRepository) FindByID(ctx context.Context, id uint) (*model.Borrow, error) {
	var borrow model.Borrow
	if err := r.db.WithContext(ctx).First(&borrow, id).Error; err != nil {
		return nil, err
	}
	return &borrow, nil
}

func (r *borrowRepository) FindByUserID(ctx context.Context, userID uint) ([]model.Borrow, error) {
	var borrows []model.Borrow
	if err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("borrowed_at DESC").
		Find(&borrows).Error; err != nil {
		return nil, err
	}
	return borrows, nil
}

func (r *borrowRepository) FindActiveByUserID(ctx context.Context, userID uint) ([]model.Borrow, error) {
	var borrows []model.Borrow
	if err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ? AND status IN ?", userID, []model.BorrowStatus{model.BorrowActive, model.BorrowOverdue}).
		Order("borrowed_at DESC").
		Find(&borrows).Error; err != nil {
		return nil, err
	}
	return borrows, nil
}

func (r *borrowRepository) FindAllActive(ctx context.Context) ([]model.Borrow, error) {
	var borrows []model.Borrow
	if err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("User").
		Where("status IN ?", []model.BorrowStatus{model.BorrowActive, model.BorrowOverdue}).
		Order("borrowed_at DESC").
		Find(&borrows).Error; err != nil {
		return nil, err
	}
	return borrows, nil
}

func (r *borrowRepository) FindReturnRequests(ctx context.Context) ([]model.Borrow, error) {
	var borrows []model.Borrow
	if err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("User").
		Where("status = ? AND return_requested = ?", model.BorrowReturnRequested, true).
		Order("return_requested_at").
		Find(&borrows).Error; err != nil {
		return nil, err
	}
	return borrows, nil
}

// FindOverdue returns Active borrows whose due date has already passed.
func (r *borrowRepository) FindOverdue(ctx context.Context, now time.Time) ([]model.Borrow, error) {
	var borrows []model.Borrow
	if err := r.db.WithContext(ctx).
		Where("status = ? AND due_at < ?", model.BorrowActive, now).
		Find(&borrows).Error; err != nil {
		return nil, err
	}
	return borrows, nil
}

// CountOutstandingByUserID counts borrows the user has not yet returned.
// Overdue borrows still occupy a slot against the borrow cap.
func (r *borrowRepository) CountOutstandingByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Borrow{}).
		Where("user_id = ? AND status IN ?", userID, []model.BorrowStatus{model.BorrowActive, model.BorrowOverdue}).
		Count(&count).Error
	return count, err
}
