package connector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mkarpis/channelsync/internal/domain"
)

// Factory builds a Connector for one configured sales channel. A factory
// error means the channel is misconfigured (missing store URL or
// credentials) and its whole allotment fails without touching the remote
// platform.
type Factory func(ch *domain.SalesChannel) (Connector, error)

// Registry maps channel types to connector factories. Only channels whose
// type is registered here are eligible for publishing.
type Registry struct {
	mu        sync.RWMutex
	factories map[domain.ChannelType]Factory
}

// NewRegistry creates an empty connector registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[domain.ChannelType]Factory)}
}

// Register adds a factory for the given channel type, replacing any
// existing one.
func (r *Registry) Register(t domain.ChannelType, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[t] = f
}

// Has reports whether a factory is registered for the channel type.
func (r *Registry) Has(t domain.ChannelType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[t]
	return ok
}

// New instantiates a connector for the channel.
// Parameters:
//   - ch: channel configuration including credentials.
// Returns:
//   - Connector: connector bound to the channel's store.
//   - error: non-nil if the type is unregistered or the channel is misconfigured.
func (r *Registry) New(ch *domain.SalesChannel) (Connector, error) {
	r.mu.RLock()
	f, ok := r.factories[ch.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no connector registered for channel type %q", ch.Type)
	}
	return f(ch)
}

// Types returns the registered channel types in stable order.
func (r *Registry) Types() []domain.ChannelType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]domain.ChannelType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
