package events

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
)

// fanout delivers events to the local subscribers of each channel. Slow
// subscribers miss events instead of blocking the publisher.
type fanout struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.CacheEvent]struct{}
}

func newFanout() *fanout {
	return &fanout{subscribers: make(map[string]map[chan *entities.CacheEvent]struct{})}
}

func (f *fanout) add(channel string) chan *entities.CacheEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribers[channel] == nil {
		f.subscribers[channel] = make(map[chan *entities.CacheEvent]struct{})
	}
	ch := make(chan *entities.CacheEvent, subscriberBuffer)
	f.subscribers[channel][ch] = struct{}{}
	return ch
}

// remove closes ch and returns how many subscribers channel has left
func (f *fanout) remove(channel string, ch chan *entities.CacheEvent) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs, ok := f.subscribers[channel]
	if !ok {
		return 0
	}
	if _, ok := subs[ch]; ok {
		delete(subs, ch)
		close(ch)
	}
	if len(subs) == 0 {
		delete(f.subscribers, channel)
	}
	return len(subs)
}

func (f *fanout) removeAll(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subscribers[channel] {
		close(ch)
	}
	delete(f.subscribers, channel)
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for channel, subs := range f.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(f.subscribers, channel)
	}
}

func (f *fanout) broadcast(channel string, event *entities.CacheEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subscribers[channel] {
		select {
		case ch <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber full, skipping event")
		}
	}
}
