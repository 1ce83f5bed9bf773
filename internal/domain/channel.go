package domain

import "time"

// ChannelType represents the platform type of a sales channel.
// Only types with a registered connector are eligible for publishing.
type ChannelType string

const (
	ChannelTypeShopify     ChannelType = "shopify"
	ChannelTypeWooCommerce ChannelType = "woocommerce"
)

// SalesChannel represents one external sales-channel configuration:
// platform type plus the store endpoint and credentials its connector needs.
type SalesChannel struct {
	ID        string      `gorm:"type:text;primaryKey" json:"id"`
	Type      ChannelType `gorm:"type:text;not null;index:idx_channels_type" json:"type"`
	Name      string      `gorm:"type:text;not null" json:"name"`
	StoreURL  string      `gorm:"type:text" json:"store_url"`
	APIKey    string      `gorm:"type:text" json:"-"`
	APISecret string      `gorm:"type:text" json:"-"`
	IsEnabled bool        `gorm:"default:true" json:"is_enabled"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName returns the database table name for SalesChannel.
func (SalesChannel) TableName() string {
	return "sales_channels"
}
