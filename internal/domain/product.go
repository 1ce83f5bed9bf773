package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ProductStatus represents the catalog status of a product record.
// Values include ProductStatusDraft, ProductStatusActive, and ProductStatusArchived.
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Product represents a catalog item eligible for publishing to sales
// channels. SKU is the natural key used to reconcile against remote state
// when no stored external ID is known.
type Product struct {
	ID          string        `gorm:"type:text;primaryKey" json:"id"`
	SKU         string        `gorm:"type:text;not null;uniqueIndex:idx_products_sku" json:"sku"`
	Title       string        `gorm:"type:text;not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Price       float64       `json:"price"`
	Currency    string        `gorm:"type:text;default:USD" json:"currency"`
	Images      StringArray   `gorm:"type:text" json:"images"`
	Tags        StringArray   `gorm:"type:text" json:"tags"`
	Status      ProductStatus `gorm:"type:text;index:idx_products_status;default:draft" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Mappings are the per-channel publish records for this product.
	Mappings []ChannelMapping `gorm:"foreignKey:ProductID" json:"mappings,omitempty"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string {
	return "products"
}

// MappingFor returns this product's mapping for the given channel, or nil.
func (p *Product) MappingFor(channelID string) *ChannelMapping {
	for i := range p.Mappings {
		if p.Mappings[i].ChannelID == channelID {
			return &p.Mappings[i]
		}
	}
	return nil
}
