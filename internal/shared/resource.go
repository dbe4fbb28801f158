// Package shared publishes values from control goroutines to realtime
// readers without ever blocking the readers.
//
// A Resource keeps one copy of the value per reader plus one spare. Readers
// try-lock any copy and use it; the publisher marks every copy stale and
// refreshes each as soon as it can lock it. Because there is always one more
// copy than readers, a reader finds a free copy unless the publisher happens
// to be writing the last one.
package shared

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// acquireAttempts bounds the number of passes over the copies in Acquire.
const acquireAttempts = 4

// Option configures a Resource.
type Option[T any] func(*Resource[T])

// WithCopy installs the function used to copy a published value into each
// slot. Values that own slices or maps need a deep copy so slots never share
// backing storage.
func WithCopy[T any](copyFn func(dst, src *T)) Option[T] {
	return func(r *Resource[T]) {
		r.copyFn = copyFn
	}
}

type slot[T any] struct {
	mu    sync.Mutex
	stale atomic.Bool
	value T
	holds int // guarded by mu
	lease Lease[T]
}

// Resource is a multi-copy container for a value of type T.
type Resource[T any] struct {
	slots  []slot[T]
	update sync.Mutex
	latest T // guarded by update
	copyFn func(dst, src *T)
	cursor atomic.Uint32
}

// New creates a resource for the given number of concurrent readers, every
// copy initialised to initial.
func New[T any](readers int, initial T, opts ...Option[T]) *Resource[T] {
	r := &Resource[T]{
		slots: make([]slot[T], max(readers, 1)+1),
		copyFn: func(dst, src *T) {
			*dst = *src
		},
	}
	for _, opt := range opts {
		opt(r)
	}

	r.copyFn(&r.latest, &initial)
	for i := range r.slots {
		s := &r.slots[i]
		r.copyFn(&s.value, &initial)
		s.lease.slot = s
	}
	return r
}

// Copies returns the number of copies held.
func (r *Resource[T]) Copies() int {
	return len(r.slots)
}

// Acquire locks a copy for reading and returns its lease, or nil when every
// copy stayed busy for a bounded number of passes. It never blocks. Fresh
// copies are preferred on the first pass.
func (r *Resource[T]) Acquire() *Lease[T] {
	n := uint32(len(r.slots))
	start := r.cursor.Add(1)

	for pass := range acquireAttempts {
		for i := range n {
			s := &r.slots[(start+i)%n]
			if !s.mu.TryLock() {
				continue
			}
			if pass == 0 && s.stale.Load() {
				s.mu.Unlock()
				continue
			}
			s.holds = 1
			return &s.lease
		}
	}
	return nil
}

// Publish replaces the value in every copy. It blocks until each copy has
// been rewritten, yielding while readers hold them.
func (r *Resource[T]) Publish(v T) {
	r.update.Lock()
	defer r.update.Unlock()

	r.stage(&v)
	for !r.refresh() {
		runtime.Gosched()
	}
}

// TryPublish is the non-blocking form of Publish. It returns false when
// another publisher is active or some copies were held by readers; those
// copies stay stale and are rewritten by the next Publish or TryPublish.
func (r *Resource[T]) TryPublish(v T) bool {
	if !r.update.TryLock() {
		return false
	}
	defer r.update.Unlock()

	r.stage(&v)
	return r.refresh()
}

// Flush retries the copies a failed TryPublish left stale without publishing
// a new value. It reports whether every copy is now current.
func (r *Resource[T]) Flush() bool {
	if !r.update.TryLock() {
		return false
	}
	defer r.update.Unlock()

	return r.refresh()
}

func (r *Resource[T]) stage(v *T) {
	r.copyFn(&r.latest, v)
	for i := range r.slots {
		r.slots[i].stale.Store(true)
	}
}

// refresh makes one pass over the stale copies and reports whether none
// remain. A copy is marked fresh only after its value is fully written.
func (r *Resource[T]) refresh() bool {
	done := true
	for i := range r.slots {
		s := &r.slots[i]
		if !s.stale.Load() {
			continue
		}
		if !s.mu.TryLock() {
			done = false
			continue
		}
		r.copyFn(&s.value, &r.latest)
		s.stale.Store(false)
		s.mu.Unlock()
	}
	return done
}

// Lease is a locked copy of the value. It is owned by the goroutine that
// acquired it.
type Lease[T any] struct {
	slot *slot[T]
}

// Value returns the leased copy. It must not be used after the last Release.
func (l *Lease[T]) Value() *T {
	return &l.slot.value
}

// Retain takes the lease again on behalf of nested code running on the same
// goroutine. Every Retain must be matched by a Release.
func (l *Lease[T]) Retain() *Lease[T] {
	l.slot.holds++
	return l
}

// Release drops one hold and unlocks the copy when none remain.
func (l *Lease[T]) Release() {
	s := l.slot
	s.holds--
	if s.holds == 0 {
		s.mu.Unlock()
	}
}

// Stale reports whether a newer value has been published since this copy
// was written.
func (l *Lease[T]) Stale() bool {
	return l.slot.stale.Load()
}
