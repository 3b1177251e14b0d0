package geolocation

import (
	"context"
	"sync"
	"time"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
)

// CachingProvider reuses the last reading while it is younger than the
// request's MaxAge
type CachingProvider struct {
	next providers.PositionProvider
	now  func() time.Time

	mu   sync.Mutex
	last *entities.Position
}

// NewCachingProvider wraps next
func NewCachingProvider(next providers.PositionProvider) *CachingProvider {
	return &CachingProvider{next: next, now: time.Now}
}

// CurrentPosition returns the cached reading or asks next
func (p *CachingProvider) CurrentPosition(ctx context.Context, opts providers.PositionOptions) (*entities.Position, error) {
	if opts.MaxAge > 0 {
		p.mu.Lock()
		last := p.last
		p.mu.Unlock()
		if last != nil && p.now().Sub(last.Timestamp) <= opts.MaxAge {
			pos := *last
			return &pos, nil
		}
	}

	pos, err := p.next.CurrentPosition(ctx, opts)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	stored := *pos
	p.last = &stored
	p.mu.Unlock()
	return pos, nil
}

// Forget drops the cached reading
func (p *CachingProvider) Forget() {
	p.mu.Lock()
	p.last = nil
	p.mu.Unlock()
}
