package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"librarium/internal/errors"
	"librarium/internal/service"
)

// ReservationHandler handles the reservation lifecycle endpoints.
type ReservationHandler struct {
	reservationService service.ReservationService
}

// NewReservationHandler creates a new reservation handler.
func NewReservationHandler(reservationService service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// ReserveRequest represents a reservation request.
type ReserveRequest struct {
	BookID uint `json:"book_id" validate:"required"`
}

// Reserve godoc
// @Summary Reserve a copy of a book
// @Description Places a 24 hour hold and decrements stock. A book can only hold one active reservation at a time, and a reader at most three.
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ReserveRequest true "Book to reserve"
// @Success 201 {object} model.Reservation
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /reservations [post]
func (h *ReservationHandler) Reserve(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req ReserveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	reservation, err := h.reservationService.Reserve(c.Request().Context(), req.BookID, claims.UserID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, reservation)
}

// RequestCheckIn godoc
// @Summary Ask to convert a reservation into a borrow
// @Description Only the reservation's owner may request check-in. A reservation past its hold deadline is expired instead, and its copy returns to stock.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 410 {object} errors.ErrorResponse
// @Router /reservations/{id}/check-in [post]
func (h *ReservationHandler) RequestCheckIn(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.reservationService.RequestCheckIn(c.Request().Context(), id, claims.UserID); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "check-in requested"})
}

// AcceptCheckIn godoc
// @Summary Approve a check-in request and open a borrow
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 201 {object} model.Borrow
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /reservations/{id}/accept [post]
func (h *ReservationHandler) AcceptCheckIn(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	borrow, err := h.reservationService.AcceptCheckIn(c.Request().Context(), id, claims.UserID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, borrow)
}

// Cancel godoc
// @Summary Cancel an active reservation
// @Description Cancelling returns the held copy to stock.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.reservationService.Cancel(c.Request().Context(), id, claims.UserID); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "reservation cancelled"})
}

// MyReservations godoc
// @Summary List the caller's reservations
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only active reservations"
// @Success 200 {array} model.Reservation
// @Router /reservations/mine [get]
func (h *ReservationHandler) MyReservations(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if c.QueryParam("active") == "true" {
		reservations, err := h.reservationService.UserActiveReservations(ctx, claims.UserID)
		if err != nil {
			httpErr := errors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		return c.JSON(http.StatusOK, reservations)
	}

	reservations, err := h.reservationService.UserReservations(ctx, claims.UserID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, reservations)
}

// ActiveReservations godoc
// @Summary List all active reservations
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Reservation
// @Router /reservations [get]
func (h *ReservationHandler) ActiveReservations(c echo.Context) error {
	reservations, err := h.reservationService.AllActiveReservations(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, reservations)
}

// CheckInRequests godoc
// @Summary List pending check-in requests
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Reservation
// @Router /reservations/check-in-requests [get]
func (h *ReservationHandler) CheckInRequests(c echo.Context) error {
	reservations, err := h.reservationService.CheckInRequests(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, reservations)
}
