package domain

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// JobStatus represents the lifecycle status of a publish job.
// Values include JobStatusPending, JobStatusRunning, JobStatusCompleted,
// JobStatusCompletedWithErrors, JobStatusFailed, and JobStatusCancelled.
type JobStatus string

const (
	JobStatusPending             JobStatus = "pending"
	JobStatusRunning             JobStatus = "running"
	JobStatusCompleted           JobStatus = "completed"
	JobStatusCompletedWithErrors JobStatus = "completed_with_errors"
	JobStatusFailed              JobStatus = "failed"
	JobStatusCancelled           JobStatus = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusCompletedWithErrors, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// MaxChannelErrors caps the per-channel error list persisted on a job.
// Overflow is counted in ChannelProgress.ErrorsTruncated instead of growing
// the list without bound.
const MaxChannelErrors = 50

// ChannelProgress tracks per-channel progress of a publish job. It is
// persisted as a whole inside PublishJob.ChannelProgress on every checkpoint.
type ChannelProgress struct {
	Name            string   `json:"name"`
	Total           int      `json:"total"`
	Done            int      `json:"done"`
	Created         int      `json:"created"`
	Updated         int      `json:"updated"`
	Failed          int      `json:"failed"`
	Errors          []string `json:"errors,omitempty"`
	ErrorsTruncated int      `json:"errors_truncated,omitempty"`
}

// AddError appends a "<sku>: <message>" entry, keeping the first
// MaxChannelErrors entries and counting the rest.
func (p *ChannelProgress) AddError(sku, message string) {
	if len(p.Errors) >= MaxChannelErrors {
		p.ErrorsTruncated++
		return
	}
	p.Errors = append(p.Errors, fmt.Sprintf("%s: %s", sku, message))
}

// ProgressMap maps channel ID to its progress record.
type ProgressMap map[string]*ChannelProgress

// PublishJob represents one bulk publish batch: a fixed set of products
// pushed to a fixed set of sales channels, with per-item checkpointed
// progress.
type PublishJob struct {
	ID         string      `gorm:"type:text;primaryKey" json:"id"`
	ProductIDs StringArray `gorm:"type:text" json:"product_ids"`
	ChannelIDs StringArray `gorm:"type:text" json:"channel_ids"`
	Status     JobStatus   `gorm:"type:text;index:idx_publish_jobs_status;default:pending" json:"status"`

	TotalItems     int `gorm:"default:0" json:"total_items"`
	ProcessedItems int `gorm:"default:0" json:"processed_items"`
	CreatedCount   int `gorm:"default:0" json:"created_count"`
	UpdatedCount   int `gorm:"default:0" json:"updated_count"`
	FailedCount    int `gorm:"default:0" json:"failed_count"`

	ChannelProgress datatypes.JSONType[ProgressMap] `json:"channel_progress"`

	// Last attempted position, written for observability. Whether a re-run
	// consumes it depends on the configured resume mode.
	CurrentChannelID string `gorm:"type:text" json:"current_channel_id,omitempty"`
	CurrentItemIndex int    `gorm:"default:0" json:"current_item_index"`

	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the database table name for PublishJob.
func (PublishJob) TableName() string {
	return "publish_jobs"
}

// Progress returns the decoded channel progress map, never nil.
func (j *PublishJob) Progress() ProgressMap {
	m := j.ChannelProgress.Data()
	if m == nil {
		m = ProgressMap{}
	}
	return m
}

// ProgressSnapshot is the full progress state persisted on every checkpoint
// write. It is built as a value per iteration rather than shared mutable
// state, so each checkpoint is one atomic update.
type ProgressSnapshot struct {
	ProcessedItems   int
	CreatedCount     int
	UpdatedCount     int
	FailedCount      int
	ChannelProgress  ProgressMap
	CurrentChannelID string
	CurrentItemIndex int
}

// TerminalStatusFor computes the terminal status of a finished run.
// A run that stopped early due to cancellation never reaches this point.
func TerminalStatusFor(failedCount, totalItems int) JobStatus {
	switch {
	case failedCount == 0:
		return JobStatusCompleted
	case failedCount == totalItems:
		return JobStatusFailed
	default:
		return JobStatusCompletedWithErrors
	}
}
