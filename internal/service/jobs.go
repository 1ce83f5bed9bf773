package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkarpis/channelsync/internal/domain"
	"github.com/mkarpis/channelsync/internal/logger"
	"github.com/mkarpis/channelsync/internal/repository"
)

// ErrEmptyJob is returned when an enqueue request has no products or no
// channels.
var ErrEmptyJob = errors.New("publish job needs at least one product and one channel")

// JobService is the job controller: it enqueues publish jobs, projects
// their progress for polling clients, and requests cancellation. It never
// executes jobs itself; the worker owns the single-active-run invariant.
type JobService struct {
	jobs   *repository.JobRepository
	logger *logger.Logger
}

// NewJobService creates a new JobService.
// Parameters:
//   - jobs: job repository.
//   - log: logger instance.
// Returns:
//   - *JobService: initialized service.
func NewJobService(jobs *repository.JobRepository, log *logger.Logger) *JobService {
	return &JobService{jobs: jobs, logger: log}
}

// JobSnapshot is the read-only progress projection served to polling
// clients.
type JobSnapshot struct {
	ID              string             `json:"id"`
	Status          domain.JobStatus   `json:"status"`
	TotalItems      int                `json:"total_items"`
	ProcessedItems  int                `json:"processed_items"`
	CreatedCount    int                `json:"created_count"`
	UpdatedCount    int                `json:"updated_count"`
	FailedCount     int                `json:"failed_count"`
	Percent         float64            `json:"percent"`
	ChannelProgress domain.ProgressMap `json:"channel_progress"`
	ErrorMessage    string             `json:"error_message,omitempty"`
	StartedAt       *time.Time         `json:"started_at,omitempty"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

func snapshotOf(job *domain.PublishJob) *JobSnapshot {
	percent := 0.0
	if job.TotalItems > 0 {
		percent = float64(job.ProcessedItems) / float64(job.TotalItems) * 100
	}
	return &JobSnapshot{
		ID:              job.ID,
		Status:          job.Status,
		TotalItems:      job.TotalItems,
		ProcessedItems:  job.ProcessedItems,
		CreatedCount:    job.CreatedCount,
		UpdatedCount:    job.UpdatedCount,
		FailedCount:     job.FailedCount,
		Percent:         percent,
		ChannelProgress: job.Progress(),
		ErrorMessage:    job.ErrorMessage,
		StartedAt:       job.StartedAt,
		CompletedAt:     job.CompletedAt,
		CreatedAt:       job.CreatedAt,
	}
}

// Enqueue creates a pending publish job for the given products and
// channels. The ID sets are fixed at creation and never mutated afterwards.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - productIDs: products to publish, processed in this order.
//   - channelIDs: target channels, processed in this order.
// Returns:
//   - string: new job ID.
//   - error: ErrEmptyJob if either set is empty, another error if the insert fails.
func (s *JobService) Enqueue(ctx context.Context, productIDs, channelIDs []string) (string, error) {
	if len(productIDs) == 0 || len(channelIDs) == 0 {
		return "", ErrEmptyJob
	}

	job := &domain.PublishJob{
		ID:         uuid.New().String(),
		ProductIDs: append(domain.StringArray{}, productIDs...),
		ChannelIDs: append(domain.StringArray{}, channelIDs...),
		Status:     domain.JobStatusPending,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create publish job: %w", err)
	}

	s.logger.WithFields(logger.Fields{
		logger.FieldJobID: job.ID,
		"products":        len(productIDs),
		"channels":        len(channelIDs),
	}).Info("Publish job enqueued")
	return job.ID, nil
}

// GetProgress returns the current progress projection for a job.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: job ID.
// Returns:
//   - *JobSnapshot: progress snapshot.
//   - error: repository.ErrJobNotFound if the job does not exist.
func (s *JobService) GetProgress(ctx context.Context, jobID string) (*JobSnapshot, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return snapshotOf(job), nil
}

// Cancel requests cancellation of a pending or running job. The processor
// observes the flip at its next poll boundary; cancellation is therefore
// not instantaneous.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: job ID.
// Returns:
//   - error: repository.ErrJobNotCancellable if the job is already terminal.
func (s *JobService) Cancel(ctx context.Context, jobID string) error {
	if err := s.jobs.Cancel(ctx, jobID); err != nil {
		return err
	}
	s.logger.WithField(logger.FieldJobID, jobID).Info("Publish job cancellation requested")
	return nil
}

// List returns recent jobs as progress snapshots, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []*JobSnapshot: job snapshots.
//   - error: non-nil if the query fails.
func (s *JobService) List(ctx context.Context, limit, offset int) ([]*JobSnapshot, error) {
	jobs, err := s.jobs.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	snapshots := make([]*JobSnapshot, 0, len(jobs))
	for i := range jobs {
		snapshots = append(snapshots, snapshotOf(&jobs[i]))
	}
	return snapshots, nil
}
