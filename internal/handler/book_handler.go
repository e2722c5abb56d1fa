package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"librarium/internal/errors"
	"librarium/internal/model"
	"librarium/internal/service"
)

// BookHandler handles catalog and rating endpoints.
type BookHandler struct {
	bookService service.BookService
}

// NewBookHandler creates a new book handler.
func NewBookHandler(bookService service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// BookRequest represents a book create/update payload.
type BookRequest struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	ISBN     string `json:"isbn" validate:"required"`
	Stock    int    `json:"stock"`
	Active   bool   `json:"active"`
	Category string `json:"category"`
	CoverURL string `json:"cover_url"`
}

// RateRequest represents a rating payload.
type RateRequest struct {
	Value string `json:"value" validate:"required"`
}

// CreateBook godoc
// @Summary Add a book to the catalog
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BookRequest true "Book data"
// @Success 201 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /books [post]
func (h *BookHandler) CreateBook(c echo.Context) error {
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	book := &model.Book{
		Title:    req.Title,
		Author:   req.Author,
		ISBN:     req.ISBN,
		Stock:    req.Stock,
		Active:   req.Active,
		Category: req.Category,
		CoverURL: req.CoverURL,
	}
	if err := h.bookService.CreateBook(c.Request().Context(), book); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, book)
}

// UpdateBook godoc
// @Summary Update a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param request body BookRequest true "Book data"
// @Success 200 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [put]
func (h *BookHandler) UpdateBook(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	book := &model.Book{
		ID:       id,
		Title:    req.Title,
		Author:   req.Author,
		ISBN:     req.ISBN,
		Stock:    req.Stock,
		Active:   req.Active,
		Category: req.Category,
		CoverURL: req.CoverURL,
	}
	if err := h.bookService.UpdateBook(c.Request().Context(), book); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, book)
}

// DeleteBook godoc
// @Summary Remove a book from the catalog
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 204 "No Content"
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [delete]
func (h *BookHandler) DeleteBook(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.bookService.DeleteBook(c.Request().Context(), id); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.NoContent(http.StatusNoContent)
}

// GetBook godoc
// @Summary Get a book by id
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} model.Book
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [get]
func (h *BookHandler) GetBook(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	book, err := h.bookService.GetBook(c.Request().Context(), id)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, book)
}

// ListBooks godoc
// @Summary List or search the catalog
// @Tags books
// @Produce json
// @Param q query string false "Search term (title or author)"
// @Success 200 {array} model.Book
// @Router /books [get]
func (h *BookHandler) ListBooks(c echo.Context) error {
	term := c.QueryParam("q")
	var (
		books []model.Book
		err   error
	)
	if term != "" {
		books, err = h.bookService.SearchBooks(c.Request().Context(), term)
	} else {
		books, err = h.bookService.ListBooks(c.Request().Context())
	}
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, books)
}

// TopRatedBooks godoc
// @Summary List top rated books
// @Tags books
// @Produce json
// @Param count query int false "Number of books (default 10)"
// @Success 200 {array} model.Book
// @Router /books/top [get]
func (h *BookHandler) TopRatedBooks(c echo.Context) error {
	count, _ := strconv.Atoi(c.QueryParam("count"))
	books, err := h.bookService.TopRatedBooks(c.Request().Context(), count)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, books)
}

// RateBook godoc
// @Summary Rate a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param request body RateRequest true "Rating value (0-5)"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id}/ratings [post]
func (h *BookHandler) RateBook(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req RateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid rating value",
			Code:  "INVALID_RATING",
		})
	}

	if err := h.bookService.RateBook(c.Request().Context(), id, claims.UserID, value); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "rating recorded"})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
