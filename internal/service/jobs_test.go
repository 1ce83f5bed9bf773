package service

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mkarpis/channelsync/internal/domain"
	"github.com/mkarpis/channelsync/internal/logger"
	"github.com/mkarpis/channelsync/internal/repository"
)

func newTestJobService(t *testing.T) *JobService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&domain.PublishJob{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewJobService(repository.NewJobRepository(db), logger.GetDefault())
}

func TestJobServiceEnqueue(t *testing.T) {
	svc := newTestJobService(t)
	ctx := context.Background()

	jobID, err := svc.Enqueue(ctx, []string{"p1", "p2"}, []string{"c1"})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if jobID == "" {
		t.Fatal("Enqueue returned empty job ID")
	}

	snap, err := svc.GetProgress(ctx, jobID)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if snap.Status != domain.JobStatusPending {
		t.Errorf("status = %q, want pending", snap.Status)
	}
	if snap.Percent != 0 {
		t.Errorf("percent = %f, want 0", snap.Percent)
	}
}

func TestJobServiceEnqueueValidation(t *testing.T) {
	svc := newTestJobService(t)
	ctx := context.Background()

	if _, err := svc.Enqueue(ctx, nil, []string{"c1"}); !errors.Is(err, ErrEmptyJob) {
		t.Errorf("empty products: err = %v, want ErrEmptyJob", err)
	}
	if _, err := svc.Enqueue(ctx, []string{"p1"}, nil); !errors.Is(err, ErrEmptyJob) {
		t.Errorf("empty channels: err = %v, want ErrEmptyJob", err)
	}
}

func TestJobServiceCancel(t *testing.T) {
	svc := newTestJobService(t)
	ctx := context.Background()

	jobID, err := svc.Enqueue(ctx, []string{"p1"}, []string{"c1"})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if err := svc.Cancel(ctx, jobID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	snap, _ := svc.GetProgress(ctx, jobID)
	if snap.Status != domain.JobStatusCancelled {
		t.Errorf("status = %q, want cancelled", snap.Status)
	}

	// Cancelling again hits a terminal job
	if err := svc.Cancel(ctx, jobID); !errors.Is(err, repository.ErrJobNotCancellable) {
		t.Errorf("second cancel: err = %v, want ErrJobNotCancellable", err)
	}
}

func TestJobServiceGetProgressMissing(t *testing.T) {
	svc := newTestJobService(t)

	_, err := svc.GetProgress(context.Background(), "missing")
	if !errors.Is(err, repository.ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}
