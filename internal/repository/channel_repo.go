package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mkarpis/channelsync/internal/domain"
)

// ChannelRepository handles sales channel configuration records.
type ChannelRepository struct {
	db *gorm.DB
}

// NewChannelRepository creates a new ChannelRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *ChannelRepository: repository instance bound to db.
func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// Create inserts a new sales channel record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - channel: channel record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *ChannelRepository) Create(ctx context.Context, channel *domain.SalesChannel) error {
	return r.db.WithContext(ctx).Create(channel).Error
}

// GetByIDs retrieves sales channels preserving the order of the supplied ID
// list. IDs with no matching row are skipped.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ids: list of channel IDs.
// Returns:
//   - []domain.SalesChannel: matching channels in input order.
//   - error: non-nil if the query fails.
func (r *ChannelRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.SalesChannel, error) {
	if len(ids) == 0 {
		return []domain.SalesChannel{}, nil
	}
	var channels []domain.SalesChannel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&channels).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]domain.SalesChannel, len(channels))
	for _, ch := range channels {
		byID[ch.ID] = ch
	}
	ordered := make([]domain.SalesChannel, 0, len(channels))
	for _, id := range ids {
		if ch, ok := byID[id]; ok {
			ordered = append(ordered, ch)
		}
	}
	return ordered, nil
}

// List retrieves all sales channels.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.SalesChannel: all channel records.
//   - error: non-nil if the query fails.
func (r *ChannelRepository) List(ctx context.Context) ([]domain.SalesChannel, error) {
	var channels []domain.SalesChannel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}
