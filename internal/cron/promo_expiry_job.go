package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

const maxPromoExpiryBatches = 10

type promoExpirer interface {
	DeactivateExpired(ctx context.Context, now time.Time, limit int) (int64, error)
}

type PromoExpiryJobParams struct {
	Logger    *logger.Logger
	Promos    promoExpirer
	BatchSize int
}

// NewPromoExpiryJob switches off active promo codes whose end date has passed.
func NewPromoExpiryJob(params PromoExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Promos == nil {
		return nil, fmt.Errorf("promo code repository required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &promoExpiryJob{logg: params.Logger, repo: params.Promos, batch: batch, now: time.Now}, nil
}

type promoExpiryJob struct {
	logg  *logger.Logger
	repo  promoExpirer
	batch int
	now   func() time.Time
}

func (j *promoExpiryJob) Name() string { return "promo-expiry" }

func (j *promoExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var total int64
	for i := 0; i < maxPromoExpiryBatches; i++ {
		n, err := j.repo.DeactivateExpired(ctx, now, j.batch)
		if err != nil {
			return fmt.Errorf("deactivate expired promo codes: %w", err)
		}
		total += n
		if n < int64(j.batch) {
			break
		}
	}
	j.logg.Info(j.logg.WithField(ctx, "deactivated", total), "cron.promo_expiry.complete")
	return nil
}
