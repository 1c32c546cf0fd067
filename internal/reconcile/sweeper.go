// Package reconcile finds orders stuck awaiting payment and asks the payment
// provider whether they were paid after all.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"ecoshopy/internal/config"
	"ecoshopy/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Reconciler is the slice of the order service the sweeper drives.
type Reconciler interface {
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	ReconcilePayment(ctx context.Context, order *model.Order) (bool, error)
}

// Sweeper periodically reconciles stale AWAITING_PAYMENT orders.
type Sweeper struct {
	orders      Reconciler
	interval    time.Duration
	staleAfter  time.Duration
	concurrency int
	batchSize   int
	now         func() time.Time
	logger      zerolog.Logger
}

// NewSweeper creates a sweeper from configuration.
func NewSweeper(orders Reconciler, cfg config.ReconcileConfig, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		orders:      orders,
		interval:    cfg.Interval,
		staleAfter:  cfg.StaleAfter,
		concurrency: cfg.Concurrency,
		batchSize:   cfg.BatchSize,
		now:         time.Now,
		logger:      logger.With().Str("component", "reconcile").Logger(),
	}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("stale_after", s.staleAfter).
		Int("concurrency", s.concurrency).
		Msg("reconciliation sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("reconciliation sweep failed")
		}

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reconciliation sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep runs a single pass over one batch of stale orders and returns how
// many were moved to PAID. A failure on one order is logged and does not
// stop the others.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	filter := model.OrderFilter{
		Status:        model.OrderStatusInitiated,
		PaymentStatus: model.PaymentStatusAwaiting,
		CreatedBefore: s.now().Add(-s.staleAfter),
		Limit:         s.batchSize,
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale orders: %w", err)
	}
	if len(orders) == 0 {
		s.logger.Debug().Msg("no stale orders")
		return 0, nil
	}

	changed := make([]bool, len(orders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for idx := range orders {
		g.Go(func() error {
			order := &orders[idx]
			ok, err := s.orders.ReconcilePayment(gctx, order)
			if err != nil {
				s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to reconcile order")
				return nil
			}
			changed[idx] = ok
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	reconciled := 0
	for _, ok := range changed {
		if ok {
			reconciled++
		}
	}

	s.logger.Info().
		Int("checked", len(orders)).
		Int("reconciled", reconciled).
		Msg("reconciliation sweep finished")

	return reconciled, nil
}
