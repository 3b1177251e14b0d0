package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
)

func receive(t *testing.T, ch <-chan *entities.CacheEvent) *entities.CacheEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := bus.Subscribe(ctx, providers.EventChannelCache)
	require.NoError(t, err)
	second, err := bus.Subscribe(ctx, providers.EventChannelCache)
	require.NoError(t, err)

	event := entities.NewCacheClearEvent("node-a", entities.LocaleEnglish)
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelCache, event))

	assert.Equal(t, event.ID, receive(t, first).ID)
	assert.Equal(t, event.ID, receive(t, second).ID)
}

func TestMemoryEventBus_OtherChannelsAreIsolated(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ch, err := bus.Subscribe(context.Background(), "other")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelCache, entities.NewCacheClearEvent("x")))

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestMemoryEventBus_ContextEndClosesSubscription(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx, providers.EventChannelCache)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription was not closed")
	}
}

func TestMemoryEventBus_CloseEndsSubscribers(t *testing.T) {
	bus := NewMemoryEventBus()
	ch, err := bus.Subscribe(context.Background(), providers.EventChannelCache)
	require.NoError(t, err)

	require.NoError(t, bus.Close())
	_, ok := <-ch
	assert.False(t, ok)
	assert.NoError(t, bus.Close())
}

func TestCacheEvent_Keys(t *testing.T) {
	all := entities.NewCacheClearEvent("x")
	assert.Equal(t, entities.AllCacheKeys(), all.Keys())

	one := entities.NewCacheClearEvent("x", entities.LocaleArabic)
	assert.Equal(t, []entities.CacheKey{entities.BranchesCacheKey(entities.LocaleArabic)}, one.Keys())
}
