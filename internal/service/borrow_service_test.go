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

func newBorrowEnv() (*MockBookRepository, *MockUserRepository, *MockBorrowRepository, BorrowService) {
	books := new(MockBookRepository)
	users := new(MockUserRepository)
	borrows := new(MockBorrowRepository)
	tx := &fakeTxManager{repos: &repository.Repos{
		Books:        books,
		Users:        users,
		Reservations: new(MockReservationRepository),
		Borrows:      borrows,
		Ratings:      new(MockRatingRepository),
	}}
	return books, users, borrows, NewBorrowService(tx, borrows)
}

func TestBorrowService_Issue(t *testing.T) {
	reader := &model.User{ID: 7, Role: model.RoleEndUser, Active: true}

	tests := []struct {
		name          string
		setupMock     func(books *MockBookRepository, users *MockUserRepository, borrows *MockBorrowRepository)
		expectedError error
	}{
		{
			name: "successful desk issuance decrements stock",
			setupMock: func(books *MockBookRepository, users *MockUserRepository, borrows *MockBorrowRepository) {
				users.On("FindByID", mock.Anything, uint(7)).Return(reader, nil)
				books.On("FindByID", mock.Anything, uint(1)).Return(&model.Book{ID: 1, Stock: 1, Active: true}, nil)
				borrows.On("CountOutstandingByUserID", mock.Anything, uint(7)).Return(int64(0), nil)
				borrows.On("Create", mock.Anything, mock.AnythingOfType("*model.Borrow")).Return(nil)
				books.On("Update", mock.Anything, mock.MatchedBy(func(b *model.Book) bool {
					return b.Stock == 0
				})).Return(nil)
			},
			expectedError: nil,
		},
		{
			name: "out of stock",
			setupMock: func(books *MockBookRepository, users *MockUserRepository, borrows *MockBorrowRepository) {
				users.On("FindByID", mock.Anything, uint(7)).Return(reader, nil)
				books.On("FindByID", mock.Anything, uint(1)).Return(&model.Book{ID: 1, Stock: 0, Active: true}, nil)
			},
			expectedError: apperrors.ErrBookUnavailable,
		},
		{
			name: "reader at borrow cap",
			setupMock: func(books *MockBookRepository, users *MockUserRepository, borrows *MockBorrowRepository) {
				users.On("FindByID", mock.Anything, uint(7)).Return(reader, nil)
				books.On("FindByID", mock.Anything, uint(1)).Return(&model.Book{ID: 1, Stock: 2, Active: true}, nil)
				borrows.On("CountOutstandingByUserID", mock.Anything, uint(7)).Return(int64(MaxOutstandingBorrows), nil)
			},
			expectedError: apperrors.ErrBorrowLimit,
		},
		{
			name: "unknown reader",
			setupMock: func(books *MockBookRepository, users *MockUserRepository, borrows *MockBorrowRepository) {
				users.On("FindByID", mock.Anything, uint(7)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, users, borrows, svc := newBorrowEnv()
			tt.setupMock(books, users, borrows)

			borrow, err := svc.Issue(context.Background(), 1, 7, 42)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, borrow)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, borrow)
				assert.Equal(t, model.BorrowActive, borrow.Status)
				assert.Equal(t, uint(42), *borrow.ApprovedByID)
				assert.WithinDuration(t, time.Now().UTC().Add(DefaultBorrowDuration), borrow.DueAt, time.Minute)
			}

			books.AssertExpectations(t)
			borrows.AssertExpectations(t)
		})
	}
}

func TestBorrowService_RequestReturn(t *testing.T) {
	t.Run("flags an active borrow", func(t *testing.T) {
		_, _, borrows, svc := newBorrowEnv()
		borrows.On("FindByID", mock.Anything, uint(3)).Return(&model.Borrow{
			ID: 3, UserID: 7, Status: model.BorrowActive,
		}, nil)
		borrows.On("Update", mock.Anything, mock.MatchedBy(func(b *model.Borrow) bool {
			return b.ReturnRequested && b.Status == model.BorrowReturnRequested
		})).Return(nil)

		err := svc.RequestReturn(context.Background(), 3, 7)
		assert.NoError(t, err)
		borrows.AssertExpectations(t)
	})

	t.Run("rejects a non-owner", func(t *testing.T) {
		_, _, borrows, svc := newBorrowEnv()
		borrows.On("FindByID", mock.Anything, uint(3)).Return(&model.Borrow{
			ID: 3, UserID: 7, Status: model.BorrowActive,
		}, nil)

		err := svc.RequestReturn(context.Background(), 3, 99)
		assert.ErrorIs(t, err, apperrors.ErrNotOwner)
	})

	t.Run("rejects an already returned borrow", func(t *testing.T) {
		_, _, borrows, svc := newBorrowEnv()
		borrows.On("FindByID", mock.Anything, uint(3)).Return(&model.Borrow{
			ID: 3, UserID: 7, Status: model.BorrowReturned,
		}, nil)

		err := svc.RequestReturn(context.Background(), 3, 7)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyReturned)
	})
}

func TestBorrowService_AcceptReturn(t *testing.T) {
	t.Run("closes the borrow and restores stock", func(t *testing.T) {
		books, _, borrows, svc := newBorrowEnv()
		borrows.On("FindByID", mock.Anything, uint(3)).Return(&model.Borrow{
			ID: 3, BookID: 1, UserID: 7, Status: model.BorrowReturnRequested, ReturnRequested: true,
		}, nil)
		books.On("FindByID", mock.Anything, uint(1)).Return(&model.Book{ID: 1, Stock: 0}, nil)
		books.On("Update", mock.Anything, mock.MatchedBy(func(b *model.Book) bool {
			return b.Stock == 1
		})).Return(nil)
		borrows.On("Update", mock.Anything, mock.MatchedBy(func(b *model.Borrow) bool {
			return b.Status == model.BorrowReturned && b.ReturnedAt != nil && *b.ReturnAcceptedByID == uint(42)
		})).Return(nil)

		err := svc.AcceptReturn(context.Background(), 3, 42)
		assert.NoError(t, err)
		books.AssertExpectations(t)
		borrows.AssertExpectations(t)
	})

	t.Run("rejects when no return was requested", func(t *testing.T) {
		_, _, borrows, svc := newBorrowEnv()
		borrows.On("FindByID", mock.Anything, uint(3)).Return(&model.Borrow{
			ID: 3, UserID: 7, Status: model.BorrowActive,
		}, nil)

		err := svc.AcceptReturn(context.Background(), 3, 42)
		assert.ErrorIs(t, err, apperrors.ErrNoReturnRequest)
	})

	t.Run("accepting twice fails", func(t *testing.T) {
		_, _, borrows, svc := newBorrowEnv()
		borrows.On("FindByID", mock.Anything, uint(3)).Return(&model.Borrow{
			ID: 3, UserID: 7, Status: model.BorrowReturned, ReturnRequested: true,
		}, nil)

		err := svc.AcceptReturn(context.Background(), 3, 42)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyReturned)
	})
}

func TestBorrowService_SweepOverdue(t *testing.T) {
	now := time.Now().UTC()

	t.Run("flags past-due borrows and keeps stock unchanged", func(t *testing.T) {
		books, _, borrows, svc := newBorrowEnv()
		overdue := []model.Borrow{
			{ID: 1, BookID: 10, Status: model.BorrowActive, DueAt: now.Add(-24 * time.Hour)},
			{ID: 2, BookID: 11, Status: model.BorrowActive, DueAt: now.Add(-time.Hour)},
		}
		borrows.On("FindOverdue", mock.Anything, now).Return(overdue, nil)
		borrows.On("Update", mock.Anything, mock.MatchedBy(func(b *model.Borrow) bool {
			return b.Status == model.BorrowOverdue
		})).Return(nil).Twice()

		swept, err := svc.SweepOverdue(context.Background(), now)
		assert.NoError(t, err)
		assert.Equal(t, 2, swept)

		// The copy is still out, so the sweep never touches the book.
		books.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		borrows.AssertExpectations(t)
	})

	t.Run("nothing overdue", func(t *testing.T) {
		_, _, borrows, svc := newBorrowEnv()
		borrows.On("FindOverdue", mock.Anything, now).Return([]model.Borrow{}, nil)

		swept, err := svc.SweepOverdue(context.Background(), now)
		assert.NoError(t, err)
		assert.Zero(t, swept)
	})
}
