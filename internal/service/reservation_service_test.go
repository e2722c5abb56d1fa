package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	apperrors "librarium/internal/errors"
	"librarium/internal/model"
	"librarium/internal/repository"
)

func newReservationEnv() (*MockBookRepository, *MockUserRepository, *MockReservationRepository, *MockBorrowRepository, ReservationService) {
	books := new(MockBookRepository)
	users := new(MockUserRepository)
	reservations := new(MockReservationRepository)
	borrows := new(MockBorrowRepository)
	tx := &fakeTxManager{repos: &repository.Repos{
		Books:        books,
		Users:        users,
		Reservations: reservations,
		Borrows:      borrows,
		Ratings:      new(MockRatingRepository),
	}}
	return books, users, reservations, borrows, NewReservationService(tx, reservations)
}

func TestReservationService_Reserve(t *testing.T) {
	reader := &model.User{ID: 7, Role: model.RoleEndUser, Active: true}

	tests := []struct {
		name          string
		setupMock     func(books *MockBookRepository, users *MockUserRepository, reservations *MockReservationRepository)
		expectedError error
	}{
		{
			name: "successful reservation decrements stock",
			setupMock: func(books *MockBookRepository, users *MockUserRepository, reservations *MockReservationRepository) {
				users.On("FindByID", mock.Anything, uint(7)).Return(reader, nil)
				books.On("FindByID", mock.Anything, uint(1)).Return(&model.Book{ID: 1, Stock: 2, Active: true}, nil)
				reservations.On("HasActiveForBook", mock.Anything, uint(1)).Return(false, nil)
				reservations.On("CountActiveByUserID", mock.Anything, uint(7)).Return(int64(0), nil)
				reservations.On("Create", mock.Anything, mock.AnythingOfType("*model.Reservation")).Return(nil)
				books.On("Update", mock.Anything, mock.MatchedBy(func(b *model.Book) bool {
					return b.Stock == 1
				})).Return(nil)
			},
			expectedError: nil,
		},
		{
			name: "out of stock",
			setupMock: func(books *MockBookRepository, users *MockUserRepository, reservations *MockReservationRepository) {
				users.On("FindByID", mock.Anything, uint(7)).Return(reader, nil)
				books.On("FindByID", mock.Anything, uint(1)).Return(&model.Book{ID: 1, Stock: 0, Active: true}, nil)
			},
			expectedError: apperrors.ErrBookUnavailable,
		},
		{
			name: "inactive book",
			setupMock: func(books *MockBookRepository, users *MockUserRepository, reservations *MockReservationRepository) {
				users.On("FindByID", mock.Anything, uint(7)).Return(reader, nil)
				books.On("FindByID", mock.Anything, uint(1)).Return(&model.Book{ID: 1, Stock: 3, Active: false}, nil)
			},
			expectedError: apperrors.ErrBookUnavailable,
		},
		{
			name: "book already reserved by someone",
			setupMock: func(books *MockBookRepository, users *MockUserRepository, reservations *MockReservationRepository) {
				users.On("FindByID", mock.Anything, uint(7)).Return(reader, nil)
				books.On("FindByID", mock.Anything, uint(1)).Return(&model.Book{ID: 1, Stock: 2, Active: true}, nil)
				reservations.On("HasActiveForBook", mock.Anything, uint(1)).Return(true, nil)
			},
			expectedError: apperrors.ErrBookAlreadyReserved,
		},
		{
			name: "reader at reservation cap",
			setupMock: func(books *MockBookRepository, users *MockUserRepository, reservations *MockReservationRepository) {
				users.On("FindByID", mock.Anything, uint(7)).Return(reader, nil)
				books.On("FindByID", mock.Anything, uint(1)).Return(&model.Book{ID: 1, Stock: 2, Active: true}, nil)
				reservations.On("HasActiveForBook", mock.Anything, uint(1)).Return(false, nil)
				reservations.On("CountActiveByUserID", mock.Anything, uint(7)).Return(int64(MaxActiveReservations), nil)
			},
			expectedError: apperrors.ErrReservationLimit,
		},
		{
			name: "book not found",
			setupMock: func(books *MockBookRepository, users *MockUserRepository, reservations *MockReservationRepository) {
				users.On("FindByID", mock.Anything, uint(7)).Return(reader, nil)
				books.On("FindByID", mock.Anything, uint(1)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrBookNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, users, reservations, _, svc := newReservationEnv()
			tt.setupMock(books, users, reservations)

			reservation, err := svc.Reserve(context.Background(), 1, 7)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, reservation)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, reservation)
				assert.Equal(t, model.ReservationActive, reservation.Status)
				assert.WithinDuration(t, time.Now().UTC().Add(DefaultHoldDuration), reservation.ExpiresAt, time.Minute)
			}

			books.AssertExpectations(t)
			reservations.AssertExpectations(t)
		})
	}
}

func TestReservationService_RequestCheckIn(t *testing.T) {
	t.Run("marks active reservation as requested", func(t *testing.T) {
		_, _, reservations, _, svc := newReservationEnv()
		reservations.On("FindByID", mock.Anything, uint(5)).Return(&model.Reservation{
			ID:        5,
			UserID:    7,
			Status:    model.ReservationActive,
			ExpiresAt: time.Now().UTC().Add(time.Hour),
		}, nil)
		reservations.On("Update", mock.Anything, mock.MatchedBy(func(r *model.Reservation) bool {
			return r.CheckInRequested && r.CheckInRequestedAt != nil
		})).Return(nil)

		err := svc.RequestCheckIn(context.Background(), 5, 7)
		assert.NoError(t, err)
		reservations.AssertExpectations(t)
	})

	t.Run("rejects a caller who does not own the reservation", func(t *testing.T) {
		_, _, reservations, _, svc := newReservationEnv()
		reservations.On("FindByID", mock.Anything, uint(5)).Return(&model.Reservation{
			ID: 5, UserID: 7, Status: model.ReservationActive,
		}, nil)

		err := svc.RequestCheckIn(context.Background(), 5, 99)
		assert.ErrorIs(t, err, apperrors.ErrNotOwner)
	})

	t.Run("expires a past-deadline reservation and restores stock", func(t *testing.T) {
		books, _, reservations, _, svc := newReservationEnv()
		reservations.On("FindByID", mock.Anything, uint(5)).Return(&model.Reservation{
			ID:        5,
			BookID:    1,
			UserID:    7,
			Status:    model.ReservationActive,
			ExpiresAt: time.Now().UTC().Add(-time.Hour),
		}, nil)
		reservations.On("Update", mock.Anything, mock.MatchedBy(func(r *model.Reservation) bool {
			return r.Status == model.ReservationExpired
		})).Return(nil)
		books.On("FindByID", mock.Anything, uint(1)).Return(&model.Book{ID: 1, Stock: 0, Active: true}, nil)
		books.On("Update", mock.Anything, mock.MatchedBy(func(b *model.Book) bool {
			return b.Stock == 1
		})).Return(nil)

		err := svc.RequestCheckIn(context.Background(), 5, 7)
		assert.ErrorIs(t, err, apperrors.ErrReservationExpired)
		books.AssertExpectations(t)
		reservations.AssertExpectations(t)
	})

	t.Run("rejects a cancelled reservation", func(t *testing.T) {
		_, _, reservations, _, svc := newReservationEnv()
		reservations.On("FindByID", mock.Anything, uint(5)).Return(&model.Reservation{
			ID: 5, UserID: 7, Status: model.ReservationCancelled,
		}, nil)

		err := svc.RequestCheckIn(context.Background(), 5, 7)
		assert.ErrorIs(t, err, apperrors.ErrReservationNotActive)
	})
}

func TestReservationService_AcceptCheckIn(t *testing.T) {
	t.Run("opens a borrow without touching stock", func(t *testing.T) {
		books, _, reservations, borrows, svc := newReservationEnv()
		reservations.On("FindByID", mock.Anything, uint(5)).Return(&model.Reservation{
			ID:               5,
			BookID:           1,
			UserID:           7,
			Status:           model.ReservationActive,
			CheckInRequested: true,
		}, nil)
		borrows.On("CountOutstandingByUserID", mock.Anything, uint(7)).Return(int64(1), nil)
		borrows.On("Create", mock.Anything, mock.AnythingOfType("*model.Borrow")).Return(nil)
		reservations.On("Update", mock.Anything, mock.MatchedBy(func(r *model.Reservation) bool {
			return r.Status == model.ReservationCheckedIn && r.CheckedInAt != nil
		})).Return(nil)

		borrow, err := svc.AcceptCheckIn(context.Background(), 5, 42)
		assert.NoError(t, err)
		assert.NotNil(t, borrow)
		assert.Equal(t, model.BorrowActive, borrow.Status)
		assert.Equal(t, uint(7), borrow.UserID)
		assert.Equal(t, uint(42), *borrow.ApprovedByID)
		assert.WithinDuration(t, time.Now().UTC().Add(DefaultBorrowDuration), borrow.DueAt, time.Minute)

		// Stock never changes here: the copy moves from reserved to borrowed.
		books.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		reservations.AssertExpectations(t)
		borrows.AssertExpectations(t)
	})

	t.Run("rejects when no check-in was requested", func(t *testing.T) {
		_, _, reservations, _, svc := newReservationEnv()
		reservations.On("FindByID", mock.Anything, uint(5)).Return(&model.Reservation{
			ID: 5, UserID: 7, Status: model.ReservationActive,
		}, nil)

		borrow, err := svc.AcceptCheckIn(context.Background(), 5, 42)
		assert.ErrorIs(t, err, apperrors.ErrNoCheckInRequest)
		assert.Nil(t, borrow)
	})

	t.Run("rejects when the reader is at the borrow cap", func(t *testing.T) {
		_, _, reservations, borrows, svc := newReservationEnv()
		reservations.On("FindByID", mock.Anything, uint(5)).Return(&model.Reservation{
			ID: 5, UserID: 7, Status: model.ReservationActive, CheckInRequested: true,
		}, nil)
		borrows.On("CountOutstandingByUserID", mock.Anything, uint(7)).Return(int64(MaxOutstandingBorrows), nil)

		borrow, err := svc.AcceptCheckIn(context.Background(), 5, 42)
		assert.ErrorIs(t, err, apperrors.ErrBorrowLimit)
		assert.Nil(t, borrow)
	})
}

func TestReservationService_Cancel(t *testing.T) {
	t.Run("restores stock and marks cancelled", func(t *testing.T) {
		books, _, reservations, _, svc := newReservationEnv()
		reservations.On("FindByID", mock.Anything, uint(5)).Return(&model.Reservation{
			ID: 5, BookID: 1, UserID: 7, Status: model.ReservationActive,
		}, nil)
		books.On("FindByID", mock.Anything, uint(1)).Return(&model.Book{ID: 1, Stock: 1}, nil)
		books.On("Update", mock.Anything, mock.MatchedBy(func(b *model.Book) bool {
			return b.Stock == 2
		})).Return(nil)
		reservations.On("Update", mock.Anything, mock.MatchedBy(func(r *model.Reservation) bool {
			return r.Status == model.ReservationCancelled
		})).Return(nil)

		err := svc.Cancel(context.Background(), 5, 7)
		assert.NoError(t, err)
		books.AssertExpectations(t)
		reservations.AssertExpectations(t)
	})

	t.Run("cancelling twice fails", func(t *testing.T) {
		_, _, reservations, _, svc := newReservationEnv()
		reservations.On("FindByID", mock.Anything, uint(5)).Return(&model.Reservation{
			ID: 5, BookID: 1, UserID: 7, Status: model.ReservationCancelled,
		}, nil)

		err := svc.Cancel(context.Background(), 5, 7)
		assert.ErrorIs(t, err, apperrors.ErrReservationNotActive)
	})
}

func TestReservationService_SweepExpired(t *testing.T) {
	now := time.Now().UTC()

	t.Run("expires every past-deadline reservation", func(t *testing.T) {
		books, _, reservations, _, svc := newReservationEnv()
		expired := []model.Reservation{
			{ID: 1, BookID: 10, Status: model.ReservationActive, ExpiresAt: now.Add(-2 * time.Hour)},
			{ID: 2, BookID: 11, Status: model.ReservationActive, ExpiresAt: now.Add(-time.Hour)},
		}
		reservations.On("FindExpired", mock.Anything, now).Return(expired, nil)
		reservations.On("Update", mock.Anything, mock.MatchedBy(func(r *model.Reservation) bool {
			return r.Status == model.ReservationExpired
		})).Return(nil).Twice()
		books.On("FindByID", mock.Anything, uint(10)).Return(&model.Book{ID: 10, Stock: 0}, nil)
		books.On("FindByID", mock.Anything, uint(11)).Return(&model.Book{ID: 11, Stock: 3}, nil)
		books.On("Update", mock.Anything, mock.AnythingOfType("*model.Book")).Return(nil).Twice()

		swept, err := svc.SweepExpired(context.Background(), now)
		assert.NoError(t, err)
		assert.Equal(t, 2, swept)
		reservations.AssertExpectations(t)
		books.AssertExpectations(t)
	})

	t.Run("nothing to sweep", func(t *testing.T) {
		_, _, reservations, _, svc := newReservationEnv()
		reservations.On("FindExpired", mock.Anything, now).Return([]model.Reservation{}, nil)

		swept, err := svc.SweepExpired(context.Background(), now)
		assert.NoError(t, err)
		assert.Zero(t, swept)
	})
}
