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

// BorrowService governs a checked-out copy from issuance to return,
// restoring stock when a librarian accepts the return.
type BorrowService interface {
	Issue(ctx context.Context, bookID, userID, librarianID uint) (*model.Borrow, error)
	RequestReturn(ctx context.Context, borrowID, userID uint) error
	AcceptReturn(ctx context.Context, borrowID, librarianID uint) error
	SweepOverdue(ctx context.Context, now time.Time) (int, error)

	UserBorrows(ctx context.Context, userID uint) ([]model.Borrow, error)
	UserActiveBorrows(ctx context.Context, userID uint) ([]model.Borrow, error)
	AllActiveBorrows(ctx context.Context) ([]model.Borrow, error)
	ReturnRequests(ctx context.Context) ([]model.Borrow, error)
}

type borrowService struct {
	tx             repository.TxManager
	borrowRepo     repository.BorrowRepository
	borrowDuration time.Duration
}

// NewBorrowService creates a new borrow service.
func NewBorrowService(tx repository.TxManager, borrowRepo repository.BorrowRepository) BorrowService {
	return &borrowService{
		tx:             tx,
		borrowRepo:     borrowRepo,
		borrowDuration: DefaultBorrowDuration,
	}
}

// Issue lends a copy directly at the desk, without a prior reservation. The
// copy leaves the shelf here, so stock is decremented, unlike a check-in
// where the reserved copy already left it.
func (s *borrowService) Issue(ctx context.Context, bookID, userID, librarianID uint) (*model.Borrow, error) {
	var borrow *model.Borrow

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

		outstanding, err := r.Borrows.CountOutstandingByUserID(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("count outstanding borrows: %w", err)
		}
		if outstanding >= MaxOutstandingBorrows {
			return apperrors.ErrBorrowLimit
		}

		now := time.Now().UTC()
		borrow = &model.Borrow{
			BookID:       book.ID,
			UserID:       user.ID,
			BorrowedAt:   now,
			DueAt:        now.Add(s.borrowDuration),
			Status:       model.BorrowActive,
			ApprovedByID: &librarianID,
		}
		if err := r.Borrows.Create(ctx, borrow); err != nil {
			return fmt.Errorf("create borrow: %w", err)
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
	return borrow, nil
}

// RequestReturn flags a borrow for librarian return approval.
func (s *borrowService) RequestReturn(ctx context.Context, borrowID, userID uint) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context, r *repository.Repos) error {
		borrow, err := s.findBorrow(ctx, r, borrowID)
		if err != nil {
			return err
		}
		if borrow.UserID != userID {
			return apperrors.ErrNotOwner
		}
		if borrow.Status == model.BorrowReturned {
			return apperrors.ErrAlreadyReturned
		}

		now := time.Now().UTC()
		borrow.ReturnRequested = true
		borrow.ReturnRequestedAt = &now
		borrow.Status = model.BorrowReturnRequested
		if err := r.Borrows.Update(ctx, borrow); err != nil {
			return fmt.Errorf("update borrow: %w", err)
		}
		return nil
	})
}

// AcceptReturn closes a borrow and puts its copy back on the shelf.
func (s *borrowService) AcceptReturn(ctx context.Context, borrowID, librarianID uint) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context, r *repository.Repos) error {
		borrow, err := s.findBorrow(ctx, r, borrowID)
		if err != nil {
			return err
		}
		if !borrow.ReturnRequested {
			return apperrors.ErrNoReturnRequest
		}
		if borrow.Status == model.BorrowReturned {
			return apperrors.ErrAlreadyReturned
		}

		book, err := r.Books.FindByID(ctx, borrow.BookID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find book: %w", err)
		}
		if book != nil {
			returnCopy(book)
			if err := r.Books.Update(ctx, book); err != nil {
				return fmt.Errorf("update stock: %w", err)
			}
		}

		now := time.Now().UTC()
		borrow.Status = model.BorrowReturned
		borrow.ReturnedAt = &now
		borrow.ReturnAcceptedByID = &librarianID
		if err := r.Borrows.Update(ctx, borrow); err != nil {
			return fmt.Errorf("update borrow: %w", err)
		}
		return nil
	})
}

// SweepOverdue transitions every past-due active borrow to Overdue. The copy
// stays out, so stock does not change. Idempotent.
func (s *borrowService) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	swept := 0
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, r *repository.Repos) error {
		overdue, err := r.Borrows.FindOverdue(ctx, now)
		if err != nil {
			return fmt.Errorf("find overdue borrows: %w", err)
		}
		for i := range overdue {
			overdue[i].Status = model.BorrowOverdue
			if err := r.Borrows.Update(ctx, &overdue[i]); err != nil {
				return fmt.Errorf("update borrow: %w", err)
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

func (s *borrowService) findBorrow(ctx context.Context, r *repository.Repos, id uint) (*model.Borrow, error) {
	borrow, err := r.Borrows.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBorrowNotFound
		}
		return nil, fmt.Errorf("find borrow: %w", err)
	}
	return borrow, nil
}

func (s *borrowService) UserBorrows(ctx context.Context, userID uint) ([]model.Borrow, error) {
	return s.borrowRepo.FindByUserID(ctx, userID)
}

func (s *borrowService) UserActiveBorrows(ctx context.Context, userID uint) ([]model.Borrow, error) {
	return s.borrowRepo.FindActiveByUserID(ctx, userID)
}

func (s *borrowService) AllActiveBorrows(ctx context.Context) ([]model.Borrow, error) {
	return s.borrowRepo.FindAllActive(ctx)
}

func (s *borrowService) ReturnRequests(ctx context.Context) ([]model.Borrow, error) {
	return s.borrowRepo.FindReturnRequests(ctx)
}
