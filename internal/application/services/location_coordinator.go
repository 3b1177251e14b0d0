package services

import (
	"context"
	"sync"
)

// LocationCoordinator tracks the outstanding position request of each
// session. Starting a new request cancels the previous one, and only the
// most recently issued request may update the session.
type LocationCoordinator struct {
	mu      sync.Mutex
	seq     uint64
	pending map[string]pendingRequest
}

type pendingRequest struct {
	ticket uint64
	cancel context.CancelFunc
}

// NewLocationCoordinator creates an empty coordinator
func NewLocationCoordinator() *LocationCoordinator {
	return &LocationCoordinator{pending: make(map[string]pendingRequest)}
}

// Begin registers a request for sessionID, cancelling any older one. The
// returned context must be used for the request.
func (c *LocationCoordinator) Begin(ctx context.Context, sessionID string) (context.Context, uint64) {
	reqCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.pending[sessionID]; ok {
		prev.cancel()
	}
	c.seq++
	c.pending[sessionID] = pendingRequest{ticket: c.seq, cancel: cancel}
	return reqCtx, c.seq
}

// Current reports whether ticket is still the latest request of sessionID
func (c *LocationCoordinator) Current(sessionID string, ticket uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[sessionID]
	return ok && p.ticket == ticket
}

// Finish releases the request. Superseded tickets are ignored.
func (c *LocationCoordinator) Finish(sessionID string, ticket uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pending[sessionID]; ok && p.ticket == ticket {
		p.cancel()
		delete(c.pending, sessionID)
	}
}

// Locating reports whether sessionID has an outstanding request
func (c *LocationCoordinator) Locating(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[sessionID]
	return ok
}

// Pending returns the number of sessions with an outstanding request
func (c *LocationCoordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
