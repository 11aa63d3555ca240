package actor

import (
	"sync/atomic"

	"github.com/google/uuid"
)

var _ Ref = new(Promise)

// Promise is a single use reply address. The first message told to it is
// kept, everything after that is dropped.
type Promise struct {
	path     string
	ch       chan any
	done     atomic.Bool
	canceled atomic.Bool
}

func NewPromise() *Promise {
	return &Promise{
		path: "promise/" + uuid.New().String(),
		ch:   make(chan any, 1),
	}
}

func (p *Promise) Tell(msg any, sender Ref) error {
	if p.canceled.Load() || !p.done.CompareAndSwap(false, true) {
		return ErrStopped
	}
	p.ch <- msg
	return nil
}

func (p *Promise) Path() string {
	return p.path
}

func (p *Promise) String() string {
	return p.path
}

// Result delivers the reply once it has been told.
func (p *Promise) Result() <-chan any {
	return p.ch
}

// Cancel marks the promise as abandoned by its waiter.
func (p *Promise) Cancel() {
	p.canceled.Store(true)
}

func (p *Promise) Canceled() bool {
	return p.canceled.Load()
}
