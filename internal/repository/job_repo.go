package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mkarpis/channelsync/internal/domain"
)

var (
	// ErrJobNotFound is returned when a publish job does not exist.
	ErrJobNotFound = errors.New("publish job not found")

	// ErrJobNotRunnable is returned when a job cannot transition to running
	// because it already reached a terminal status.
	ErrJobNotRunnable = errors.New("publish job is not in a runnable status")

	// ErrJobNotCancellable is returned when a cancel request hits a job that
	// already reached a terminal status.
	ErrJobNotCancellable = errors.New("publish job is not in a cancellable status")
)

// JobRepository is the persistent job store. Every progress write is a
// guarded partial UPDATE so that a terminal status, once written, is never
// overwritten by a late checkpoint.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *JobRepository: repository instance bound to db.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new publish job record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *JobRepository) Create(ctx context.Context, job *domain.PublishJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID retrieves a publish job by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - *domain.PublishJob: job record if found.
//   - error: ErrJobNotFound if no record exists, another error if the lookup fails.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.PublishJob, error) {
	var job domain.PublishJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// StatusOf reads only the current status of a job. Used by the processor's
// periodic cancellation poll.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - domain.JobStatus: current status.
//   - error: ErrJobNotFound if no record exists.
func (r *JobRepository) StatusOf(ctx context.Context, id string) (domain.JobStatus, error) {
	var status domain.JobStatus
	err := r.db.WithContext(ctx).
		Model(&domain.PublishJob{}).
		Where("id = ?", id).
		Pluck("status", &status).Error
	if err != nil {
		return "", err
	}
	if status == "" {
		return "", ErrJobNotFound
	}
	return status, nil
}

// MarkRunning flips a pending or running job to running, setting startedAt
// only if it is not already set (idempotent on resume).
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - error: ErrJobNotRunnable if the job is terminal or missing.
func (r *JobRepository) MarkRunning(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.PublishJob{}).
		Where("id = ? AND status IN ?", id, []domain.JobStatus{domain.JobStatusPending, domain.JobStatusRunning}).
		Updates(map[string]interface{}{
			"status":     domain.JobStatusRunning,
			"started_at": gorm.Expr("COALESCE(started_at, ?)", time.Now()),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotRunnable
	}
	return nil
}

// InitProgress writes the initial per-channel progress map and the computed
// item total before the publish loop starts.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
//   - totalItems: |products| x |eligible channels|.
//   - progress: initial progress map with per-channel totals.
// Returns:
//   - error: non-nil if the update fails.
func (r *JobRepository) InitProgress(ctx context.Context, id string, totalItems int, progress domain.ProgressMap) error {
	return r.db.WithContext(ctx).
		Model(&domain.PublishJob{}).
		Where("id = ? AND status = ?", id, domain.JobStatusRunning).
		Updates(map[string]interface{}{
			"total_items":      totalItems,
			"channel_progress": datatypes.NewJSONType(progress),
		}).Error
}

// Checkpoint persists the full progress snapshot after one unit of work.
// The write is guarded on the running status: once the controller flips the
// job to cancelled, late checkpoints become no-ops instead of racing it.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
//   - snap: progress snapshot including counters, progress map, and cursor.
// Returns:
//   - error: non-nil if the update fails.
func (r *JobRepository) Checkpoint(ctx context.Context, id string, snap *domain.ProgressSnapshot) error {
	return r.db.WithContext(ctx).
		Model(&domain.PublishJob{}).
		Where("id = ? AND status = ?", id, domain.JobStatusRunning).
		Updates(map[string]interface{}{
			"processed_items":    snap.ProcessedItems,
			"created_count":      snap.CreatedCount,
			"updated_count":      snap.UpdatedCount,
			"failed_count":       snap.FailedCount,
			"channel_progress":   datatypes.NewJSONType(snap.ChannelProgress),
			"current_channel_id": snap.CurrentChannelID,
			"current_item_index": snap.CurrentItemIndex,
		}).Error
}

// Finish writes the terminal status, final progress, and completion time.
// Guarded on the running status so a cancelled job is never resurrected.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
//   - status: terminal status to write.
//   - progress: final progress map.
//   - errorMessage: whole-job fatal error, empty for normal completion.
// Returns:
//   - error: non-nil if the update fails.
func (r *JobRepository) Finish(ctx context.Context, id string, status domain.JobStatus, progress domain.ProgressMap, errorMessage string) error {
	updates := map[string]interface{}{
		"status":       status,
		"completed_at": time.Now(),
	}
	if progress != nil {
		updates["channel_progress"] = datatypes.NewJSONType(progress)
	}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	return r.db.WithContext(ctx).
		Model(&domain.PublishJob{}).
		Where("id = ? AND status = ?", id, domain.JobStatusRunning).
		Updates(updates).Error
}

// Cancel flips a pending or running job to cancelled. The processor observes
// the flip at its next poll boundary and stops without further writes.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - error: ErrJobNotCancellable if the job is already terminal or missing.
func (r *JobRepository) Cancel(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.PublishJob{}).
		Where("id = ? AND status IN ?", id, []domain.JobStatus{domain.JobStatusPending, domain.JobStatusRunning}).
		Updates(map[string]interface{}{
			"status":       domain.JobStatusCancelled,
			"completed_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotCancellable
	}
	return nil
}

// NextPending returns the oldest pending job, or nil when the queue is empty.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *domain.PublishJob: oldest pending job, nil if none.
//   - error: non-nil if the query fails.
func (r *JobRepository) NextPending(ctx context.Context) (*domain.PublishJob, error) {
	var job domain.PublishJob
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.JobStatusPending).
		Order("created_at ASC").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// List retrieves publish jobs ordered by creation time, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.PublishJob: matching job records.
//   - error: non-nil if the query fails.
func (r *JobRepository) List(ctx context.Context, limit, offset int) ([]domain.PublishJob, error) {
	var jobs []domain.PublishJob
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
