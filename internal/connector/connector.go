package connector

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Find when no remote product exists under the
// given SKU.
var ErrNotFound = errors.New("remote product not found")

// Payload is the channel-agnostic outbound product representation. Each
// connector maps it to its platform's wire format. Image URLs are already
// normalized to a form the remote platform can fetch.
type Payload struct {
	SKU         string
	Title       string
	Description string
	Price       float64
	Currency    string
	Images      []string
	Tags        []string
}

// Connector adapts one sales-channel platform's API. Implementations do not
// retry: any API error surfaces to the caller, which recovers per item.
type Connector interface {
	// Find looks up a remote product by SKU and returns its remote ID, or
	// ErrNotFound.
	Find(ctx context.Context, sku string) (string, error)

	// Create publishes a new remote product and returns its remote ID.
	Create(ctx context.Context, p *Payload) (string, error)

	// Update overwrites the remote product identified by remoteID.
	Update(ctx context.Context, remoteID string, p *Payload) error
}
