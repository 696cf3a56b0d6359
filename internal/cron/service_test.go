package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

type fakeLock struct {
	held       bool
	acquireErr error
	releases   int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	failing := &testJob{name: "fail", err: errors.New("boom")}
	succeeding := &testJob{name: "success"}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(failing, succeeding),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if failing.runs != 1 || succeeding.runs != 1 {
		t.Fatalf("expected each job to run once, got fail=%d success=%d", failing.runs, succeeding.runs)
	}
	if lock.held || lock.releases != 1 {
		t.Fatalf("expected lock released once, held=%v releases=%d", lock.held, lock.releases)
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "job"}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{held: true},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job skipped, ran %d", job.runs)
	}
}

func TestRunOnceReturnsLockErrors(t *testing.T) {
	service, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		Lock:   &fakeLock{acquireErr: errors.New("redis down")},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err == nil {
		t.Fatal("expected lock error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	service, err := NewService(ServiceParams{Logger: logger.Nop(), Lock: &fakeLock{}})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
