package controller

import (
	"context"
	"sync"
	"time"

	"go-livestock-classifier/internal/logger"
)

// Factory builds the controller for a new session.
type Factory func(sessionID string) *PageController

// Registry maps visitor sessions to their page controllers.
type Registry struct {
	mu          sync.Mutex
	controllers map[string]*PageController
	factory     Factory
	idleTimeout time.Duration
	now         func() time.Time
}

// NewRegistry creates a registry whose controllers are closed after
// idleTimeout without activity and without a live state subscriber.
func NewRegistry(factory Factory, idleTimeout time.Duration) *Registry {
	return &Registry{
		controllers: make(map[string]*PageController),
		factory:     factory,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Get returns the controller for sessionID, creating it when needed.
func (r *Registry) Get(sessionID string) *PageController {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[sessionID]; ok && !c.Closed() {
		return c
	}
	c := r.factory(sessionID)
	r.controllers[sessionID] = c
	return c
}

// Lookup returns an existing controller without creating one.
func (r *Registry) Lookup(sessionID string) (*PageController, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.controllers[sessionID]
	if !ok || c.Closed() {
		return nil, false
	}
	return c, true
}

// Close tears down the controller of sessionID. It reports whether one existed.
func (r *Registry) Close(sessionID string) bool {
	r.mu.Lock()
	c, ok := r.controllers[sessionID]
	delete(r.controllers, sessionID)
	r.mu.Unlock()

	if ok {
		c.Close()
	}
	return ok
}

// Sweep closes idle controllers and returns how many were closed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	var idle []*PageController
	for id, c := range r.controllers {
		if c.Closed() || (!c.Watching() && c.LastActive().Before(cutoff)) {
			idle = append(idle, c)
			delete(r.controllers, id)
		}
	}
	r.mu.Unlock()

	for _, c := range idle {
		c.Close()
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logger.WithField("closed", n).Info("Closed idle page sessions")
			}
		}
	}
}

// CloseAll tears down every controller.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := make([]*PageController, 0, len(r.controllers))
	for id, c := range r.controllers {
		all = append(all, c)
		delete(r.controllers, id)
	}
	r.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
}

// Len reports the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}
