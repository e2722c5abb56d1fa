package worker

import (
	"context"
	"log/slog"
	"time"

	"librarium/internal/service"
)

// Sweeper periodically expires overdue reservations and flags overdue
// borrows. Both sweeps are idempotent, so overlapping runs after a slow
// tick are harmless.
type Sweeper struct {
	reservations service.ReservationService
	borrows      service.BorrowService
	interval     time.Duration
	logger       *slog.Logger
}

// NewSweeper creates a sweeper that runs every interval.
func NewSweeper(reservations service.ReservationService, borrows service.BorrowService, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		reservations: reservations,
		borrows:      borrows,
		interval:     interval,
		logger:       logger,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()

	expired, err := s.reservations.SweepExpired(ctx, now)
	if err != nil {
		s.logger.Error("reservation sweep failed", "error", err)
	} else if expired > 0 {
		s.logger.Info("expired reservations swept", "count", expired)
	}

	overdue, err := s.borrows.SweepOverdue(ctx, now)
	if err != nil {
		s.logger.Error("borrow sweep failed", "error", err)
	} else if overdue > 0 {
		s.logger.Info("overdue borrows flagged", "count", overdue)
	}
}
