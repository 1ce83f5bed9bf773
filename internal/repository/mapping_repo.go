package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mkarpis/channelsync/internal/domain"
)

// MappingRepository handles the durable product/channel mapping rows.
type MappingRepository struct {
	db *gorm.DB
}

// NewMappingRepository creates a new MappingRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *MappingRepository: repository instance bound to db.
func NewMappingRepository(db *gorm.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

// Upsert creates or updates a mapping keyed by (product_id, channel_id).
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - mapping: mapping record to create or update.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *MappingRepository) Upsert(ctx context.Context, mapping *domain.ChannelMapping) error {
	if mapping.ID == "" {
		mapping.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}, {Name: "channel_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"external_id", "is_published", "is_active", "last_synced_at", "sync_error", "updated_at",
		}),
	}).Create(mapping).Error
}

// AdoptExternalID records a remote ID discovered by natural-key lookup.
// This write-through happens as soon as the lookup succeeds, independent of
// the publish outcome, so a later re-run never creates a duplicate remote
// product.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - productID: local product ID.
//   - channelID: sales channel ID.
//   - externalID: remote platform ID to adopt.
// Returns:
//   - error: non-nil if the write fails.
func (r *MappingRepository) AdoptExternalID(ctx context.Context, productID, channelID, externalID string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "channel_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"external_id", "updated_at"}),
	}).Create(&domain.ChannelMapping{
		ID:         uuid.New().String(),
		ProductID:  productID,
		ChannelID:  channelID,
		ExternalID: externalID,
	}).Error
}

// GetByPair retrieves the mapping for one (product, channel) pair.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - productID: local product ID.
//   - channelID: sales channel ID.
// Returns:
//   - *domain.ChannelMapping: mapping record if found.
//   - error: non-nil if lookup fails.
func (r *MappingRepository) GetByPair(ctx context.Context, productID, channelID string) (*domain.ChannelMapping, error) {
	var mapping domain.ChannelMapping
	if err := r.db.WithContext(ctx).
		First(&mapping, "product_id = ? AND channel_id = ?", productID, channelID).Error; err != nil {
		return nil, err
	}
	return &mapping, nil
}

// MarkSynced upserts a mapping after a successful publish.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - productID: local product ID.
//   - channelID: sales channel ID.
//   - externalID: resolved remote platform ID.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *MappingRepository) MarkSynced(ctx context.Context, productID, channelID, externalID string) error {
	now := time.Now()
	return r.Upsert(ctx, &domain.ChannelMapping{
		ProductID:    productID,
		ChannelID:    channelID,
		ExternalID:   externalID,
		IsPublished:  true,
		IsActive:     true,
		LastSyncedAt: &now,
		SyncError:    "",
	})
}

// MarkFailed upserts a mapping after a failed publish, recording the error.
// The stored external ID, if any, is preserved.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - productID: local product ID.
//   - channelID: sales channel ID.
//   - externalID: known remote ID, may be empty.
//   - syncError: failure message from the connector.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *MappingRepository) MarkFailed(ctx context.Context, productID, channelID, externalID, syncError string) error {
	assignments := map[string]interface{}{
		"is_published": false,
		"is_active":    false,
		"sync_error":   syncError,
		"updated_at":   time.Now(),
	}
	// An empty external ID must not erase a previously adopted one
	if externalID != "" {
		assignments["external_id"] = externalID
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "channel_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&domain.ChannelMapping{
		ID:          uuid.New().String(),
		ProductID:   productID,
		ChannelID:   channelID,
		ExternalID:  externalID,
		IsPublished: false,
		IsActive:    false,
		SyncError:   syncError,
	}).Error
}
