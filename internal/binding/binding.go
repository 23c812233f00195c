// Package binding implements the execution-scoped slot shared by the tenant and
// impersonation bindings.
//
// A Scope belongs to exactly one unit of work. It is attached to a
// context.Context by its owner, read any number of times, optionally rebound
// mid-flight and released exactly once when the unit of work ends. After
// Release the scope reads as unbound forever, so a context captured by a
// goroutine that outlives the request can never observe the old value.
package binding

import (
	"errors"
	"sync"
)

// ErrReleased is returned when writing to a scope whose unit of work has ended.
var ErrReleased = errors.New("binding: scope already released")

// Scope holds an optional value of type T for a single unit of work.
type Scope[T comparable] struct {
	mu       sync.RWMutex
	value    T
	bound    bool
	released bool
}

// New returns an empty, unreleased scope.
func New[T comparable]() *Scope[T] {
	return &Scope[T]{}
}

// Set binds v, replacing any previous value.
func (s *Scope[T]) Set(v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return ErrReleased
	}
	s.value = v
	s.bound = true
	return nil
}

// Get returns the bound value and whether one is bound.
func (s *Scope[T]) Get() (T, bool) {
	if s == nil {
		var zero T
		return zero, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.bound {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Clear unbinds the value but keeps the scope usable.
func (s *Scope[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	s.value = zero
	s.bound = false
}

// Release clears the value and closes the scope for writes.
// It is safe to call more than once.
func (s *Scope[T]) Release() {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	s.value = zero
	s.bound = false
	s.released = true
}

// Released reports whether Release has been called.
func (s *Scope[T]) Released() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.released
}

// Fork returns a new scope seeded with the current value.
// Writes to the fork never reach the parent and vice versa.
func (s *Scope[T]) Fork() *Scope[T] {
	child := New[T]()
	if v, ok := s.Get(); ok {
		child.value = v
		child.bound = true
	}
	return child
}
