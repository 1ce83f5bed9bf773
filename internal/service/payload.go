package service

import (
	"net/url"
	"strings"

	"github.com/mkarpis/channelsync/internal/connector"
	"github.com/mkarpis/channelsync/internal/domain"
)

// URLResolver resolves an object-storage key to a public URL. The
// product-image store implements this.
type URLResolver interface {
	GetURL(key string) string
}

// PayloadBuilder maps catalog products to the channel-agnostic outbound
// payload. Image entries are normalized to URLs the remote platform can
// fetch; entries that cannot be normalized are dropped from the payload,
// never treated as item failures.
type PayloadBuilder struct {
	resolver URLResolver
}

// NewPayloadBuilder creates a PayloadBuilder.
// Parameters:
//   - resolver: object-storage URL resolver, may be nil when no store is configured.
// Returns:
//   - *PayloadBuilder: initialized builder.
func NewPayloadBuilder(resolver URLResolver) *PayloadBuilder {
	return &PayloadBuilder{resolver: resolver}
}

// Build constructs the outbound payload for one product.
func (b *PayloadBuilder) Build(p *domain.Product) *connector.Payload {
	return &connector.Payload{
		SKU:         p.SKU,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Currency:    p.Currency,
		Images:      b.normalizeImages(p.Images),
		Tags:        append([]string(nil), p.Tags...),
	}
}

// normalizeImages keeps absolute http(s) URLs as-is, resolves bare storage
// keys through the object store, and drops everything else.
func (b *PayloadBuilder) normalizeImages(entries []string) []string {
	var images []string
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if u, err := url.Parse(entry); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			images = append(images, entry)
			continue
		}

		// Entries with a scheme other than http(s) are unrecoverable
		if strings.Contains(entry, "://") {
			continue
		}

		if b.resolver != nil {
			images = append(images, b.resolver.GetURL(strings.TrimPrefix(entry, "/")))
		}
	}
	return images
}
