package middleware

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate bounds how many backend generation calls run at once. Callers past
// capacity block until a slot frees; waiters are unbounded.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate creates a gate with the given slot capacity.
func NewGate(capacity int64) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{sem: semaphore.NewWeighted(capacity)}
}

// Do runs fn while holding one slot. The slot covers only fn itself, so
// chunking and delivery around the call never hold a slot.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return fn()
}
