package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"librarium/docs"

	"librarium/internal/auth"
	"librarium/internal/cache"
	"librarium/internal/config"
	"librarium/internal/db"
	"librarium/internal/handler"
	"librarium/internal/mail"
	"librarium/internal/model"
	"librarium/internal/repository"
	"librarium/internal/router"
	"librarium/internal/service"
	"librarium/internal/worker"
)

// @title Librarium API
// @version 1.0
// @description Library inventory and lending API with reservations, borrows, ratings, and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	gormDB, err := db.NewSQLite(cfg.SQLitePath)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Book{},
		&model.Reservation{},
		&model.Borrow{},
		&model.Rating{},
	); err != nil {
		logger.Error("auto-migrate failed", "error", err)
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Repositories
	bookRepo := repository.NewBookRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)
	reservationRepo := repository.NewReservationRepository(gormDB)
	borrowRepo := repository.NewBorrowRepository(gormDB)
	txManager := repository.NewTxManager(gormDB)

	// Auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	mailer := mail.NewSMTPMailer(
		cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword,
		cfg.SenderEmail, cfg.SenderName, cfg.BaseURL,
	)

	// Services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo, tokenStore, mailer)
	bookService := service.NewBookService(txManager, bookRepo, userRepo, cacheClient)
	reservationService := service.NewReservationService(txManager, reservationRepo)
	borrowService := service.NewBorrowService(txManager, borrowRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	bookHandler := handler.NewBookHandler(bookService)
	reservationHandler := handler.NewReservationHandler(reservationService)
	borrowHandler := handler.NewBorrowHandler(borrowService)

	e := echo.New()
	router.Register(
		e,
		cfg,
		authHandler,
		userHandler,
		bookHandler,
		reservationHandler,
		borrowHandler,
	)

	// Background sweeper for expired reservations and overdue borrows
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	sweeper := worker.NewSweeper(reservationService, borrowService, cfg.SweepInterval, logger)
	go sweeper.Run(sweepCtx)

	logger.Info("server starting", "port", cfg.ServerPort, "sweep_interval", cfg.SweepInterval.String())

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		logger.Error("server start failed", "error", err)
		os.Exit(1)
	}
}
