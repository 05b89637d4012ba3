package trash

import (
	"context"
	"sync"
)

// Event names fired by the repository.
const (
	EventRestoring    = "restoring"
	EventRestored     = "restored"
	EventForceDeleted = "forceDeleted"
)

// events holds lifecycle listeners for one entity type.
type events[T any, P Model[T]] struct {
	mu           sync.RWMutex
	restoring    []func(ctx context.Context, m P) bool
	restored     []func(ctx context.Context, m P)
	forceDeleted []func(ctx context.Context, m P)
}

// fireRestoring returns false when a listener vetoes the restore.
func (e *events[T, P]) fireRestoring(ctx context.Context, m P) bool {
	e.mu.RLock()
	fns := append([]func(context.Context, P) bool(nil), e.restoring...)
	e.mu.RUnlock()

	for _, fn := range fns {
		if !fn(ctx, m) {
			return false
		}
	}
	return true
}

func (e *events[T, P]) fire(ctx context.Context, name string, m P) {
	e.mu.RLock()
	var fns []func(context.Context, P)
	switch name {
	case EventRestored:
		fns = append(fns, e.restored...)
	case EventForceDeleted:
		fns = append(fns, e.forceDeleted...)
	}
	e.mu.RUnlock()

	for _, fn := range fns {
		fn(ctx, m)
	}
}

// OnRestoring registers a listener that may veto a restore by returning false.
func (r *Repo[T, P]) OnRestoring(fn func(ctx context.Context, m P) bool) {
	r.events.mu.Lock()
	defer r.events.mu.Unlock()
	r.events.restoring = append(r.events.restoring, fn)
}

// OnRestored registers a listener fired after a restore commits.
func (r *Repo[T, P]) OnRestored(fn func(ctx context.Context, m P)) {
	r.events.mu.Lock()
	defer r.events.mu.Unlock()
	r.events.restored = append(r.events.restored, fn)
}

// OnForceDeleted registers a listener fired after a force delete removed a row.
func (r *Repo[T, P]) OnForceDeleted(fn func(ctx context.Context, m P)) {
	r.events.mu.Lock()
	defer r.events.mu.Unlock()
	r.events.forceDeleted = append(r.events.forceDeleted, fn)
}
