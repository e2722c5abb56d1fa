package errors

import (
	"errors"
	"net/http"
)

// Business-rule errors. These are synchronous, non-retryable failures raised
// by the service layer; persistence failures are not mapped here and
// propagate as infrastructure errors.
var (
	// ErrBookNotFound is returned when a book does not exist.
	ErrBookNotFound = errors.New("book not found")
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrReservationNotFound is returned when a reservation does not exist.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrBorrowNotFound is returned when a borrow record does not exist.
	ErrBorrowNotFound = errors.New("borrow record not found")

	// ErrNegativeStock is returned when an operation would drive stock below zero.
	ErrNegativeStock = errors.New("stock cannot be negative")
	// ErrInvalidRating is returned when a rating value is outside [0, 5].
	ErrInvalidRating = errors.New("rating must be between 0 and 5")

	// ErrDuplicateISBN is returned when a book with the same ISBN already exists.
	ErrDuplicateISBN = errors.New("a book with this ISBN already exists")
	// ErrDuplicateUser is returned when the username or email is already taken.
	ErrDuplicateUser = errors.New("username or email already in use")
	// ErrBookAlreadyReserved is returned when the book already has an active reservation.
	ErrBookAlreadyReserved = errors.New("book is already reserved by another user")
	// ErrBookUnavailable is returned when the book is inactive or out of stock.
	ErrBookUnavailable = errors.New("book is not available for reservation")

	// ErrReservationLimit is returned when a user already holds the maximum active reservations.
	ErrReservationLimit = errors.New("maximum of 3 active reservations reached")
	// ErrBorrowLimit is returned when a user already holds the maximum outstanding borrows.
	ErrBorrowLimit = errors.New("maximum of 3 active borrowed books reached")

	// ErrNotOwner is returned when a user acts on a reservation or borrow they do not own.
	ErrNotOwner = errors.New("operation allowed only for the owner")
	// ErrRoleNotPermitted is returned when the caller's role may not perform the operation.
	ErrRoleNotPermitted = errors.New("role is not permitted to perform this operation")

	// ErrReservationNotActive is returned when a reservation has left the Active state.
	ErrReservationNotActive = errors.New("reservation is not active")
	// ErrNoCheckInRequest is returned when accepting a check-in that was never requested.
	ErrNoCheckInRequest = errors.New("no check-in request for this reservation")
	// ErrAlreadyReturned is returned when a borrow has already been returned.
	ErrAlreadyReturned = errors.New("book has already been returned")
	// ErrNoReturnRequest is returned when accepting a return that was never requested.
	ErrNoReturnRequest = errors.New("no return request for this borrow")

	// ErrReservationExpired is returned when the reservation deadline has passed.
	ErrReservationExpired = errors.New("reservation has expired")

	// ErrTokenInvalid is returned when a password token is missing, expired or consumed.
	ErrTokenInvalid = errors.New("invalid or expired token")
	// ErrMailDelivery is returned when a notification email could not be sent.
	ErrMailDelivery = errors.New("failed to deliver notification email")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

var httpByErr = map[error]*HTTPError{
	ErrBookNotFound:        {http.StatusNotFound, ErrBookNotFound.Error(), "BOOK_NOT_FOUND"},
	ErrUserNotFound:        {http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND"},
	ErrReservationNotFound: {http.StatusNotFound, ErrReservationNotFound.Error(), "RESERVATION_NOT_FOUND"},
	ErrBorrowNotFound:      {http.StatusNotFound, ErrBorrowNotFound.Error(), "BORROW_NOT_FOUND"},

	ErrNegativeStock: {http.StatusBadRequest, ErrNegativeStock.Error(), "NEGATIVE_STOCK"},
	ErrInvalidRating: {http.StatusBadRequest, ErrInvalidRating.Error(), "INVALID_RATING"},

	ErrDuplicateISBN:       {http.StatusConflict, ErrDuplicateISBN.Error(), "DUPLICATE_ISBN"},
	ErrDuplicateUser:       {http.StatusConflict, ErrDuplicateUser.Error(), "DUPLICATE_USER"},
	ErrBookAlreadyReserved: {http.StatusConflict, ErrBookAlreadyReserved.Error(), "BOOK_ALREADY_RESERVED"},
	ErrBookUnavailable:     {http.StatusConflict, ErrBookUnavailable.Error(), "BOOK_UNAVAILABLE"},

	ErrReservationLimit: {http.StatusUnprocessableEntity, ErrReservationLimit.Error(), "RESERVATION_LIMIT"},
	ErrBorrowLimit:      {http.StatusUnprocessableEntity, ErrBorrowLimit.Error(), "BORROW_LIMIT"},

	ErrNotOwner:         {http.StatusForbidden, ErrNotOwner.Error(), "NOT_OWNER"},
	ErrRoleNotPermitted: {http.StatusForbidden, ErrRoleNotPermitted.Error(), "ROLE_NOT_PERMITTED"},

	ErrReservationNotActive: {http.StatusConflict, ErrReservationNotActive.Error(), "RESERVATION_NOT_ACTIVE"},
	ErrNoCheckInRequest:     {http.StatusConflict, ErrNoCheckInRequest.Error(), "NO_CHECKIN_REQUEST"},
	ErrAlreadyReturned:      {http.StatusConflict, ErrAlreadyReturned.Error(), "ALREADY_RETURNED"},
	ErrNoReturnRequest:      {http.StatusConflict, ErrNoReturnRequest.Error(), "NO_RETURN_REQUEST"},

	ErrReservationExpired: {http.StatusGone, ErrReservationExpired.Error(), "RESERVATION_EXPIRED"},

	ErrTokenInvalid: {http.StatusBadRequest, ErrTokenInvalid.Error(), "TOKEN_INVALID"},
	ErrMailDelivery: {http.StatusBadGateway, ErrMailDelivery.Error(), "MAIL_DELIVERY_FAILED"},
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors map to a
// generic 500 so infrastructure failures never leak details to the client.
func MapErrorToHTTP(err error) *HTTPError {
	for domainErr, httpErr := range httpByErr {
		if errors.Is(err, domainErr) {
			return httpErr
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
