package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "librarium/internal/errors"
	"librarium/internal/model"
	"librarium/internal/repository"
)

const (
	// DefaultHoldDuration is how long a reservation holds a copy.
	DefaultHoldDuration = 24 * time.Hour
	// DefaultBorrowDuration is how long a checked-in copy may be kept.
	DefaultBorrowDuration = 14 * 24 * time.Hour
	// MaxActiveReservations caps active reservations per user.
	MaxActiveReservations = 3
	// MaxOutstandingBorrows caps concurrent borrows per user.
	MaxOutstandingBorrows = 3
)

// ReservationService governs a reservation from creation to check-in,
// expiry or cancellation, keeping book stock consistent at every transition.
type ReservationService interface {
	Reserve(ctx context.Context, bookID, userID uint) (*model.Reservation, error)
	RequestCheckIn(ctx context.Context, reservationID, userID uint) error
	AcceptCheckIn(ctx context.Context, reservationID, librarianID uint) (*model.Borrow, error)
	Cancel(ctx context.Context, reservationID, userID uint) error
	SweepExpired(ctx context.Context, now time.Time) (int, error)

	UserReservations(ctx context.Context, userID uint) ([]model.Reservation, error)
	UserActiveReservations(ctx context.Context, userID uint) ([]model.Reservation, error)
	AllActiveReservations(ctx context.Context) ([]model.Reservation, error)
	CheckInRequests(ctx context.Context) ([]model.Reservation, error)
}

type reservationService struct {
	tx              repository.TxManager
	reservationRepo repository.ReservationRepository
	holdDuration    time.Duration
	borrowDuration  time.Duration
}

// NewReservationService creates a new reservation service.
func NewReservationService(tx repository.TxManager, reservationRepo repository.ReservationRepository) ReservationService {
	return &reservationService{
		tx:              tx,
		reservationRepo: reservationRepo,
		holdDuration:    DefaultHoldDuration,
		borrowDuration:  DefaultBorrowDuration,
	}
}

// Reserve places a hold on one copy of a book. The availability checks and
// the insert run in a single write transaction so two concurrent requests
// cannot both claim the last copy.
func (s *reservationService) Reserve(ctx context.Context, bookID, userID uint) (*model.Reservation, error) {
	var reservation *model.Reservation

	err := s.tx.WithTransaction(ctx, func(ctx context.Context, r *repository.Repos) error {
		user, err := r.Users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrUserNotFound
			}
			return fmt.Errorf("find user: %w", err)
		}

		book, err := r.Books.FindByID(ctx, bookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBookNotFound
			}
			return fmt.Errorf("find book: %w", err)
		}

		if book.Stock <= 0 || !book.Active {
			return apperrors.ErrBookUnavailable
		}

		reserved, err := r.Reservations.HasActiveForBook(ctx, book.ID)
		if err != nil {
			return fmt.Errorf("check active reservation: %w", err)
		}
		if reserved {
			return apperrors.ErrBookAlreadyReserved
		}

		active, err := r.Reservations.CountActiveByUserID(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("count active reservations: %w", err)
		}
		if active >= MaxActiveReservations {
			return apperrors.ErrReservationLimit
		}

		now := time.Now().UTC()
		reservation = &model.Reservation{
			BookID:     book.ID,
			UserID:     user.ID,
			ReservedAt: now,
			ExpiresAt:  now.Add(s.holdDuration),
			Status:     model.ReservationActive,
		}
		if err := r.Reservations.Create(ctx, reservation); err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}

		if err := takeCopy(book); err != nil {
			return err
		}
		if err := r.Books.Update(ctx, book); err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// RequestCheckIn flags an active reservation for librarian pickup approval.
// A reservation whose deadline already passed is expired on the spot, its
// copy goes back on the shelf, and the request fails.
func (s *reservationService) RequestCheckIn(ctx context.Context, reservationID, userID uint) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context, r *repository.Repos) error {
		reservation, err := s.findReservation(ctx, r, reservationID)
		if err != nil {
			return err
		}
		if reservation.UserID != userID {
			return apperrors.ErrNotOwner
		}
		if reservation.Status != model.ReservationActive {
			return apperrors.ErrReservationNotActive
		}

		now := time.Now().UTC()
		if now.After(reservation.ExpiresAt) {
			if err := s.expire(ctx, r, reservation); err != nil {
				return err
			}
			return apperrors.ErrReservationExpired
		}

		reservation.CheckInRequested = true
		reservation.CheckInRequestedAt = &now
		if err := r.Reservations.Update(ctx, reservation); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		return nil
	})
}

// AcceptCheckIn converts a requested reservation into a borrow. Stock does
// not change: the copy moves from reserved to borrowed. The borrow cap is
// enforced inside the same transaction as the insert.
func (s *reservationService) AcceptCheckIn(ctx context.Context, reservationID, librarianID uint) (*model.Borrow, error) {
	var borrow *model.Borrow

	err := s.tx.WithTransaction(ctx, func(ctx context.Context, r *repository.Repos) error {
		reservation, err := s.findReservation(ctx, r, reservationID)
		if err != nil {
			return err
		}
		if !reservation.CheckInRequested {
			return apperrors.ErrNoCheckInRequest
		}
		if reservation.Status != model.ReservationActive {
			return apperrors.ErrReservationNotActive
		}

		outstanding, err := r.Borrows.CountOutstandingByUserID(ctx, reservation.UserID)
		if err != nil {
			return fmt.Errorf("count outstanding borrows: %w", err)
		}
		if outstanding >= MaxOutstandingBorrows {
			return apperrors.ErrBorrowLimit
		}

		now := time.Now().UTC()
		borrow = &model.Borrow{
			BookID:       reservation.BookID,
			UserID:       reservation.UserID,
			BorrowedAt:   now,
			DueAt:        now.Add(s.borrowDuration),
			Status:       model.BorrowActive,
			ApprovedByID: &librarianID,
		}
		if err := r.Borrows.Create(ctx, borrow); err != nil {
			return fmt.Errorf("create borrow: %w", err)
		}

		reservation.Status = model.ReservationCheckedIn
		reservation.CheckedInAt = &now
		if err := r.Reservations.Update(ctx, reservation); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return borrow, nil
}

// Cancel releases an active reservation and puts its copy back on the shelf.
func (s *reservationService) Cancel(ctx context.Context, reservationID, userID uint) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context, r *repository.Repos) error {
		reservation, err := s.findReservation(ctx, r, reservationID)
		if err != nil {
			return err
		}
		if reservation.UserID != userID {
			return apperrors.ErrNotOwner
		}
		if reservation.Status != model.ReservationActive {
			return apperrors.ErrReservationNotActive
		}

		book, err := r.Books.FindByID(ctx, reservation.BookID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find book: %w", err)
		}
		if book != nil {
			returnCopy(book)
			if err := r.Books.Update(ctx, book); err != nil {
				return fmt.Errorf("update stock: %w", err)
			}
		}

		reservation.Status = model.ReservationCancelled
		if err := r.Reservations.Update(ctx, reservation); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		return nil
	})
}

// SweepExpired transitions every past-deadline active reservation to Expired
// and restores its stock. Idempotent: a swept reservation is no longer
// Active, so running the sweep again leaves it untouched.
func (s *reservationService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	swept := 0
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, r *repository.Repos) error {
		expired, err := r.Reservations.FindExpired(ctx, now)
		if err != nil {
			return fmt.Errorf("find expired reservations: %w", err)
		}
		for i := range expired {
			if err := s.expire(ctx, r, &expired[i]); err != nil {
				return err
			}
			swept++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}

// expire marks a reservation Expired and returns its copy to stock.
func (s *reservationService) expire(ctx context.Context, r *repository.Repos, reservation *model.Reservation) error {
	reservation.Status = model.ReservationExpired
	if err := r.Reservations.Update(ctx, reservation); err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}

	book, err := r.Books.FindByID(ctx, reservation.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("find book: %w", err)
	}
	returnCopy(book)
	if err := r.Books.Update(ctx, book); err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	return nil
}

func (s *reservationService) findReservation(ctx context.Context, r *repository.Repos, id uint) (*model.Reservation, error) {
	reservation, err := r.Reservations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrReservationNotFound
		}
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	return reservation, nil
}

func (s *reservationService) UserReservations(ctx context.Context, userID uint) ([]model.Reservation, error) {
	return s.reservationRepo.FindByUserID(ctx, userID)
}

func (s *reservationService) UserActiveReservations(ctx context.Context, userID uint) ([]model.Reservation, error) {
	return s.reservationRepo.FindActiveByUserID(ctx, userID)
}

func (s *reservationService) AllActiveReservations(ctx context.Context) ([]model.Reservation, error) {
	return s.reservationRepo.FindAllActive(ctx)
}

func (s *reservationService) CheckInRequests(ctx context.Context) ([]model.Reservation, error) {
	return s.reservationRepo.FindCheckInRequests(ctx)
}
