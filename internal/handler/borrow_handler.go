package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"librarium/internal/errors"
	"librarium/internal/service"
)

// BorrowHandler handles the borrow lifecycle endpoints.
type BorrowHandler struct {
	borrowService service.BorrowService
}

// NewBorrowHandler creates a new borrow handler.
func NewBorrowHandler(borrowService service.BorrowService) *BorrowHandler {
	return &BorrowHandler{borrowService: borrowService}
}

// IssueRequest represents a direct desk issuance.
type IssueRequest struct {
	BookID uint `json:"book_id" validate:"required"`
	UserID uint `json:"user_id" validate:"required"`
}

// Issue godoc
// @Summary Issue a book directly at the desk
// @Description Opens a 14 day borrow without a prior reservation and decrements stock.
// @Tags borrows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body IssueRequest true "Book and borrower"
// @Success 201 {object} model.Borrow
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /borrows [post]
func (h *BorrowHandler) Issue(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req IssueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	borrow, err := h.borrowService.Issue(c.Request().Context(), req.BookID, req.UserID, claims.UserID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, borrow)
}

// RequestReturn godoc
// @Summary Ask to return a borrowed book
// @Tags borrows
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrow ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /borrows/{id}/return [post]
func (h *BorrowHandler) RequestReturn(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.borrowService.RequestReturn(c.Request().Context(), id, claims.UserID); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "return requested"})
}

// AcceptReturn godoc
// @Summary Approve a return and restore stock
// @Tags borrows
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrow ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /borrows/{id}/accept-return [post]
func (h *BorrowHandler) AcceptReturn(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.borrowService.AcceptReturn(c.Request().Context(), id, claims.UserID); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "return accepted"})
}

// MyBorrows godoc
// @Summary List the caller's borrows
// @Tags borrows
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only outstanding borrows"
// @Success 200 {array} model.Borrow
// @Router /borrows/mine [get]
func (h *BorrowHandler) MyBorrows(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if c.QueryParam("active") == "true" {
		borrows, err := h.borrowService.UserActiveBorrows(ctx, claims.UserID)
		if err != nil {
			httpErr := errors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		return c.JSON(http.StatusOK, borrows)
	}

	borrows, err := h.borrowService.UserBorrows(ctx, claims.UserID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, borrows)
}

// ActiveBorrows godoc
// @Summary List all outstanding borrows
// @Tags borrows
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Borrow
// @Router /borrows [get]
func (h *BorrowHandler) ActiveBorrows(c echo.Context) error {
	borrows, err := h.borrowService.AllActiveBorrows(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, borrows)
}

// ReturnRequests godoc
// @Summary List pending return requests
// @Tags borrows
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Borrow
// @Router /borrows/return-requests [get]
func (h *BorrowHandler) ReturnRequests(c echo.Context) error {
	borrows, err := h.borrowService.ReturnRequests(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, borrows)
}
