package service

import (
	apperrors "librarium/internal/errors"
	"librarium/internal/model"
)

// Inventory ledger: Book.Stock counts the copies not currently held by an
// active reservation or borrow. Both helpers mutate the in-memory entity
// only; the caller persists the book in the same transaction as the
// lifecycle transition the stock change accompanies.

// takeCopy removes one copy from the shelf.
func takeCopy(book *model.Book) error {
	if book.Stock <= 0 {
		return apperrors.ErrNegativeStock
	}
	book.Stock--
	return nil
}

// returnCopy puts one copy back on the shelf (cancellation, expiry, return).
func returnCopy(book *model.Book) {
	book.Stock++
}
