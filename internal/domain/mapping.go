package domain

import "time"

// ChannelMapping is the durable link between one product and one sales
// channel: the remote ID on the platform and the last sync outcome. Rows are
// created lazily on first successful reconciliation and outlive any job.
type ChannelMapping struct {
	ID           string     `gorm:"type:text;primaryKey" json:"id"`
	ProductID    string     `gorm:"type:text;not null;index:idx_mappings_pair,unique" json:"product_id"`
	ChannelID    string     `gorm:"type:text;not null;index:idx_mappings_pair,unique" json:"channel_id"`
	ExternalID   string     `gorm:"type:text" json:"external_id,omitempty"`
	IsPublished  bool       `gorm:"default:false" json:"is_published"`
	IsActive     bool       `gorm:"default:false" json:"is_active"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	SyncError    string     `gorm:"type:text" json:"sync_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the database table name for ChannelMapping.
func (ChannelMapping) TableName() string {
	return "channel_mappings"
}
