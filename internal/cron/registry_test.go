package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

type noopCheckouts struct{}

func (noopCheckouts) FindStaleCheckouts(context.Context, time.Time, int) ([]models.Order, error) {
	return nil, nil
}

func (noopCheckouts) CancelStaleCheckout(context.Context, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}

type noopPromos struct{}

func (noopPromos) DeactivateExpired(context.Context, time.Time, int) (int64, error) { return 0, nil }

func workerJobs(t *testing.T) (Job, Job) {
	t.Helper()
	stale, err := NewStaleCheckoutJob(StaleCheckoutJobParams{Logger: logger.Nop(), Orders: noopCheckouts{}})
	if err != nil {
		t.Fatalf("stale checkout job: %v", err)
	}
	expiry, err := NewPromoExpiryJob(PromoExpiryJobParams{Logger: logger.Nop(), Promos: noopPromos{}})
	if err != nil {
		t.Fatalf("promo expiry job: %v", err)
	}
	return stale, expiry
}

func TestRegistryKeepsWorkerJobsInOrder(t *testing.T) {
	stale, expiry := workerJobs(t)
	registry := NewRegistry(stale, nil, expiry)

	names := registry.Names()
	if len(names) != 2 || names[0] != "stale-checkout" || names[1] != "promo-expiry" {
		t.Fatalf("unexpected job names %v", names)
	}

	jobs := registry.Jobs()
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

func TestRegistryDropsDuplicateNames(t *testing.T) {
	stale, expiry := workerJobs(t)
	again, _ := workerJobs(t)

	registry := NewRegistry(stale, expiry)
	if registry.Register(again) {
		t.Fatal("second stale-checkout job must be rejected")
	}
	if got := len(registry.Jobs()); got != 2 {
		t.Fatalf("expected 2 jobs, got %d", got)
	}
	if registry.Jobs()[0] != stale {
		t.Fatal("first registration must win")
	}
}
