package repository

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mkarpis/channelsync/internal/domain"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.Product{},
		&domain.SalesChannel{},
		&domain.ChannelMapping{},
		&domain.PublishJob{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedJob(t *testing.T, repo *JobRepository, status domain.JobStatus) *domain.PublishJob {
	t.Helper()
	job := &domain.PublishJob{
		ID:         "job-" + string(status),
		ProductIDs: domain.StringArray{"prod-1"},
		ChannelIDs: domain.StringArray{"ch-1"},
		Status:     status,
	}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("failed to seed job: %v", err)
	}
	return job
}

func TestJobRepositoryGetByID(t *testing.T) {
	repo := NewJobRepository(testDB(t))
	ctx := context.Background()

	seeded := seedJob(t, repo, domain.JobStatusPending)

	job, err := repo.GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if job.Status != domain.JobStatusPending {
		t.Errorf("status = %q, want pending", job.Status)
	}
	if len(job.ProductIDs) != 1 || job.ProductIDs[0] != "prod-1" {
		t.Errorf("product IDs = %v", job.ProductIDs)
	}

	_, err = repo.GetByID(ctx, "missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func TestJobRepositoryMarkRunning(t *testing.T) {
	repo := NewJobRepository(testDB(t))
	ctx := context.Background()

	job := seedJob(t, repo, domain.JobStatusPending)

	if err := repo.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("MarkRunning failed: %v", err)
	}
	got, _ := repo.GetByID(ctx, job.ID)
	if got.Status != domain.JobStatusRunning {
		t.Errorf("status = %q, want running", got.Status)
	}
	if got.StartedAt == nil {
		t.Fatal("StartedAt not set")
	}
	firstStart := *got.StartedAt

	// Idempotent on an already-running job; startedAt is preserved
	if err := repo.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("second MarkRunning failed: %v", err)
	}
	got, _ = repo.GetByID(ctx, job.ID)
	if !got.StartedAt.Equal(firstStart) {
		t.Errorf("StartedAt changed on resume: %v != %v", got.StartedAt, firstStart)
	}

	// Terminal jobs are not runnable
	done := seedJob(t, repo, domain.JobStatusCompleted)
	if err := repo.MarkRunning(ctx, done.ID); !errors.Is(err, ErrJobNotRunnable) {
		t.Errorf("err = %v, want ErrJobNotRunnable", err)
	}
}

func TestJobRepositoryCheckpointGuard(t *testing.T) {
	repo := NewJobRepository(testDB(t))
	ctx := context.Background()

	job := seedJob(t, repo, domain.JobStatusPending)
	if err := repo.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("MarkRunning failed: %v", err)
	}

	snap := &domain.ProgressSnapshot{
		ProcessedItems: 2,
		CreatedCount:   1,
		UpdatedCount:   1,
		ChannelProgress: domain.ProgressMap{
			"ch-1": {Name: "Channel 1", Total: 3, Done: 2, Created: 1, Updated: 1},
		},
		CurrentChannelID: "ch-1",
		CurrentItemIndex: 1,
	}
	if err := repo.Checkpoint(ctx, job.ID, snap); err != nil {
		t.Fatalf("Checkpoint failed: %v", err)
	}

	got, _ := repo.GetByID(ctx, job.ID)
	if got.ProcessedItems != 2 || got.CreatedCount != 1 || got.UpdatedCount != 1 {
		t.Errorf("counters = %d/%d/%d, want 2/1/1", got.ProcessedItems, got.CreatedCount, got.UpdatedCount)
	}
	if cp := got.Progress()["ch-1"]; cp == nil || cp.Done != 2 {
		t.Errorf("channel progress = %+v", cp)
	}
	if got.CurrentChannelID != "ch-1" || got.CurrentItemIndex != 1 {
		t.Errorf("cursor = %s/%d", got.CurrentChannelID, got.CurrentItemIndex)
	}

	// Cancel, then attempt a late checkpoint: it must not land
	if err := repo.Cancel(ctx, job.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	late := &domain.ProgressSnapshot{ProcessedItems: 3, CreatedCount: 2, UpdatedCount: 1}
	if err := repo.Checkpoint(ctx, job.ID, late); err != nil {
		t.Fatalf("late Checkpoint errored: %v", err)
	}

	got, _ = repo.GetByID(ctx, job.ID)
	if got.ProcessedItems != 2 {
		t.Errorf("late checkpoint landed: processed = %d, want 2", got.ProcessedItems)
	}
	if got.Status != domain.JobStatusCancelled {
		t.Errorf("status = %q, want cancelled", got.Status)
	}
}

func TestJobRepositoryFinishGuard(t *testing.T) {
	repo := NewJobRepository(testDB(t))
	ctx := context.Background()

	job := seedJob(t, repo, domain.JobStatusPending)
	if err := repo.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("MarkRunning failed: %v", err)
	}
	if err := repo.Cancel(ctx, job.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	// A late Finish after cancellation is a no-op
	if err := repo.Finish(ctx, job.ID, domain.JobStatusCompleted, nil, ""); err != nil {
		t.Fatalf("Finish errored: %v", err)
	}
	got, _ := repo.GetByID(ctx, job.ID)
	if got.Status != domain.JobStatusCancelled {
		t.Errorf("terminal status overwritten: %q", got.Status)
	}
}

func TestJobRepositoryFinish(t *testing.T) {
	repo := NewJobRepository(testDB(t))
	ctx := context.Background()

	job := seedJob(t, repo, domain.JobStatusPending)
	if err := repo.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("MarkRunning failed: %v", err)
	}

	progress := domain.ProgressMap{"ch-1": {Name: "Channel 1", Total: 1, Done: 1, Failed: 1, Errors: []string{"SKU-1: boom"}}}
	if err := repo.Finish(ctx, job.ID, domain.JobStatusCompletedWithErrors, progress, ""); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	got, _ := repo.GetByID(ctx, job.ID)
	if got.Status != domain.JobStatusCompletedWithErrors {
		t.Errorf("status = %q", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
	if cp := got.Progress()["ch-1"]; cp == nil || len(cp.Errors) != 1 {
		t.Errorf("final progress = %+v", cp)
	}
}

func TestJobRepositoryCancelStates(t *testing.T) {
	repo := NewJobRepository(testDB(t))
	ctx := context.Background()

	pending := seedJob(t, repo, domain.JobStatusPending)
	if err := repo.Cancel(ctx, pending.ID); err != nil {
		t.Errorf("cancel pending failed: %v", err)
	}

	done := seedJob(t, repo, domain.JobStatusCompleted)
	if err := repo.Cancel(ctx, done.ID); !errors.Is(err, ErrJobNotCancellable) {
		t.Errorf("cancel completed: err = %v, want ErrJobNotCancellable", err)
	}

	if err := repo.Cancel(ctx, "missing"); !errors.Is(err, ErrJobNotCancellable) {
		t.Errorf("cancel missing: err = %v, want ErrJobNotCancellable", err)
	}
}

func TestJobRepositoryNextPending(t *testing.T) {
	repo := NewJobRepository(testDB(t))
	ctx := context.Background()

	job, err := repo.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending on empty queue failed: %v", err)
	}
	if job != nil {
		t.Errorf("NextPending = %+v, want nil", job)
	}

	seedJob(t, repo, domain.JobStatusRunning)
	pending := seedJob(t, repo, domain.JobStatusPending)

	job, err = repo.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if job == nil || job.ID != pending.ID {
		t.Errorf("NextPending = %+v, want %s", job, pending.ID)
	}
}

func TestJobRepositoryStatusOf(t *testing.T) {
	repo := NewJobRepository(testDB(t))
	ctx := context.Background()

	job := seedJob(t, repo, domain.JobStatusPending)

	status, err := repo.StatusOf(ctx, job.ID)
	if err != nil {
		t.Fatalf("StatusOf failed: %v", err)
	}
	if status != domain.JobStatusPending {
		t.Errorf("status = %q, want pending", status)
	}

	if _, err := repo.StatusOf(ctx, "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}
