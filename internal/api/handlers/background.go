package handlers

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Background runs work that outlives the request that started it. Wait
// blocks until every started task has returned; once it is called the group
// accepts no new tasks.
type Background struct {
	mu     sync.Mutex
	closed bool
	g      errgroup.Group
}

// NewBackground creates an empty task group.
func NewBackground() *Background {
	return &Background{}
}

// Go starts fn on its own goroutine with a context that keeps parent's
// values but not its cancellation or deadline. It reports false, without
// running fn, after Wait has been called.
func (b *Background) Go(parent context.Context, name string, fn func(ctx context.Context)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		slog.Warn("background task rejected after shutdown", "task", name)
		return false
	}

	ctx := context.WithoutCancel(parent)
	b.g.Go(func() error {
		slog.Debug("background task started", "task", name)
		fn(ctx)
		slog.Debug("background task finished", "task", name)
		return nil
	})
	return true
}

// Wait stops the group from accepting tasks and blocks until all tasks
// started with Go have finished.
func (b *Background) Wait() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	_ = b.g.Wait()
}
