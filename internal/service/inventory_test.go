package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "librarium/internal/errors"
	"librarium/internal/model"
)

func TestTakeCopy(t *testing.T) {
	book := &model.Book{Stock: 1}

	assert.NoError(t, takeCopy(book))
	assert.Equal(t, 0, book.Stock)

	// Stock never goes below zero.
	assert.ErrorIs(t, takeCopy(book), apperrors.ErrNegativeStock)
	assert.Equal(t, 0, book.Stock)
}

func TestReturnCopy(t *testing.T) {
	book := &model.Book{Stock: 0}
	returnCopy(book)
	assert.Equal(t, 1, book.Stock)
}
