package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"librarium/internal/auth"
	"librarium/internal/config"
	"librarium/internal/handler"
	"librarium/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	bookHandler *handler.BookHandler,
	reservationHandler *handler.ReservationHandler,
	borrowHandler *handler.BorrowHandler,
) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)
	api.POST("/account/create-password", userHandler.SetPassword)
	api.POST("/account/forgot-password", userHandler.RequestPasswordReset)
	api.POST("/account/reset-password", userHandler.ResetPassword)

	// Catalog browsing is open to anonymous readers.
	api.GET("/books", bookHandler.ListBooks)
	api.GET("/books/top", bookHandler.TopRatedBooks)
	api.GET("/books/:id", bookHandler.GetBook)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return &auth.Claims{}
		},
	}))

	staff := requireRole(model.RoleLibrarian)
	admin := requireRole(model.RoleAdmin)

	// Reader routes
	secured.POST("/books/:id/ratings", bookHandler.RateBook)
	secured.POST("/reservations", reservationHandler.Reserve)
	secured.POST("/reservations/:id/check-in", reservationHandler.RequestCheckIn)
	secured.POST("/reservations/:id/cancel", reservationHandler.Cancel)
	secured.GET("/reservations/mine", reservationHandler.MyReservations)
	secured.POST("/borrows/:id/return", borrowHandler.RequestReturn)
	secured.GET("/borrows/mine", borrowHandler.MyBorrows)

	// Librarian routes
	secured.POST("/books", bookHandler.CreateBook, staff)
	secured.PUT("/books/:id", bookHandler.UpdateBook, staff)
	secured.DELETE("/books/:id", bookHandler.DeleteBook, staff)
	secured.GET("/reservations", reservationHandler.ActiveReservations, staff)
	secured.GET("/reservations/check-in-requests", reservationHandler.CheckInRequests, staff)
	secured.POST("/reservations/:id/accept", reservationHandler.AcceptCheckIn, staff)
	secured.POST("/borrows", borrowHandler.Issue, staff)
	secured.GET("/borrows", borrowHandler.ActiveBorrows, staff)
	secured.GET("/borrows/return-requests", borrowHandler.ReturnRequests, staff)
	secured.POST("/borrows/:id/accept-return", borrowHandler.AcceptReturn, staff)
	secured.POST("/users", userHandler.CreateUser, staff)

	// Admin routes
	secured.GET("/users", userHandler.ListUsers, admin)
	secured.GET("/users/:id", userHandler.GetUser, admin)
}

// requireRole rejects callers whose token role is below the given role.
// Role creation rules are enforced separately in the user service.
func requireRole(min model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}
			if !claims.Role.AtLeast(min) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
