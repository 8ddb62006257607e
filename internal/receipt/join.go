package receipt

import (
	"context"
	"sync"
)

// Join resolves once. Anything queued behind the pay sheet waits on it.
type Join struct {
	once sync.Once
	done chan struct{}
}

func NewJoin() *Join {
	return &Join{done: make(chan struct{})}
}

func resolvedJoin() *Join {
	j := NewJoin()
	j.Resolve()
	return j
}

func (j *Join) Resolve() {
	j.once.Do(func() {
		close(j.done)
	})
}

func (j *Join) Done() <-chan struct{} {
	return j.done
}

func (j *Join) Resolved() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

func (j *Join) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
