package events

import (
	"context"
	"sync"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
)

// MemoryEventBus delivers events within one process. It is used when Redis is
// not configured.
type MemoryEventBus struct {
	fanout *fanout
	once   sync.Once
	done   chan struct{}
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{fanout: newFanout(), done: make(chan struct{})}
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

// Publish delivers event to the current subscribers of channel
func (b *MemoryEventBus) Publish(_ context.Context, channel string, event *entities.CacheEvent) error {
	b.fanout.broadcast(channel, event)
	return nil
}

// Subscribe subscribes to events on a channel until ctx ends
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CacheEvent, error) {
	ch := b.fanout.add(channel)
	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.fanout.remove(channel, ch)
	}()
	return ch, nil
}

// Unsubscribe drops every subscriber of channel
func (b *MemoryEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.fanout.removeAll(channel)
	return nil
}

// Close closes all subscriptions
func (b *MemoryEventBus) Close() error {
	b.once.Do(func() { close(b.done) })
	b.fanout.closeAll()
	return nil
}
