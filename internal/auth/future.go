package auth

import (
	"context"
	"sync"
)

// Future is a single-fulfilment credential result. The first Resolve or
// Cancel wins; later calls report false and change nothing.
type Future struct {
	mu       sync.Mutex
	done     chan struct{}
	settled  bool
	creds    Credentials
	err      error
	handlers []func(Credentials, error)
}

func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolve fulfils the future with c.
func (f *Future) Resolve(c Credentials) bool {
	return f.settle(c, nil)
}

// Cancel settles the future with ErrDismissed.
func (f *Future) Cancel() bool {
	return f.settle(Credentials{}, ErrDismissed)
}

// Done is closed once the future is settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx ends.
func (f *Future) Wait(ctx context.Context) (Credentials, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.creds, f.err
	case <-ctx.Done():
		return Credentials{}, ctx.Err()
	}
}

// Then registers fn to run once with the outcome. fn runs synchronously on
// the goroutine that settles the future, or immediately if it already has.
func (f *Future) Then(fn func(Credentials, error)) {
	f.mu.Lock()
	if !f.settled {
		f.handlers = append(f.handlers, fn)
		f.mu.Unlock()
		return
	}
	c, err := f.creds, f.err
	f.mu.Unlock()
	fn(c, err)
}

func (f *Future) settle(c Credentials, err error) bool {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return false
	}
	f.settled = true
	f.creds, f.err = c, err
	handlers := f.handlers
	f.handlers = nil
	close(f.done)
	f.mu.Unlock()

	for _, fn := range handlers {
		fn(c, err)
	}
	return true
}
