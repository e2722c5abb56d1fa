package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"librarium/internal/model"
)

// ReservationRepository defines reservation persistence operations.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	Update(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id uint) (*model.Reservation, error)
	FindByUserID(ctx context.Context, userID uint) ([]model.Reservation, error)
	FindActiveByUserID(ctx context.Context, userID uint) ([]model.Reservation, error)
	FindAllActive(ctx context.Context) ([]model.Reservation, error)
	FindCheckInRequests(ctx context.Context) ([]model.Reservation, error)
	FindExpired(ctx context.Context, now time.Time) ([]model.Reservation, error)
	CountActiveByUserID(ctx context.Context, userID uint) (int64, error)
	HasActiveForBook(ctx context.Context, bookID uint) (bool, error)
}

type reservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository creates a new reservation repository.
func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepository) Update(ctx context.Context, reservation *model.Reservation) error {
	return r.db.WithContext(ctx).Save(reservation).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, id uint) (*model.Reservation, error) {
	var reservation model.Reservation
	if err := r.db.WithContext(ctx).First(&reservation, id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) FindByUserID(ctx context.Context, userID uint) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("reserved_at DESC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) FindActiveByUserID(ctx context.Context, userID uint) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ? AND status = ?", userID, model.ReservationActive).
		Order("reserved_at DESC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) FindAllActive(ctx context.Context) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("User").
		Where("status = ?", model.ReservationActive).
		Order("reserved_at DESC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) FindCheckInRequests(ctx context.Context) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("User").
		Where("status = ? AND check_in_requested = ?", model.ReservationActive, true).
		Order("check_in_requested_at").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// FindExpired returns Active reservations whose deadline has already passed.
func (r *reservationRepository) FindExpired(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", model.ReservationActive, now).
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) CountActiveByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("user_id = ? AND status = ?", userID, model.ReservationActive).
		Count(&count).Error
	return count, err
}

// HasActiveForBook reports whether the book already carries an active
// reservation. Only one outstanding reservation per book is permitted.
func (r *reservationRepository) HasActiveForBook(ctx context.Context, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("book_id = ? AND status = ?", bookID, model.ReservationActive).
		Count(&count).Error
	return count > 0, err
}
