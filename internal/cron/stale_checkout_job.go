package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

const (
	defaultStaleCheckoutTTL = 24 * time.Hour
	defaultBatchSize        = 200
)

type staleCheckoutStore interface {
	FindStaleCheckouts(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	CancelStaleCheckout(ctx context.Context, id uuid.UUID, cutoff time.Time) (bool, error)
}

type StaleCheckoutJobParams struct {
	Logger    *logger.Logger
	Orders    staleCheckoutStore
	TTL       time.Duration
	BatchSize int
}

// NewStaleCheckoutJob cancels pending orders that never reached the gateway.
// Rows are kept; only their status changes.
func NewStaleCheckoutJob(params StaleCheckoutJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultStaleCheckoutTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &staleCheckoutJob{
		logg:  params.Logger,
		repo:  params.Orders,
		ttl:   ttl,
		batch: batch,
		now:   time.Now,
	}, nil
}

type staleCheckoutJob struct {
	logg  *logger.Logger
	repo  staleCheckoutStore
	ttl   time.Duration
	batch int
	now   func() time.Time
}

func (j *staleCheckoutJob) Name() string { return "stale-checkout" }

func (j *staleCheckoutJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	rows, err := j.repo.FindStaleCheckouts(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query stale checkouts: %w", err)
	}

	var (
		errs      error
		cancelled int
	)
	for _, order := range rows {
		// The cancel re-checks the criteria, so an order paid since the query is skipped.
		ok, err := j.repo.CancelStaleCheckout(ctx, order.ID, cutoff)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cancel order %s: %w", order.ID, err))
			continue
		}
		if ok {
			cancelled++
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"candidates": len(rows),
		"cancelled":  cancelled,
	}), "cron.stale_checkout.complete")
	return errs
}
