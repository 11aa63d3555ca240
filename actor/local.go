package actor

import (
	"sync"
	"sync/atomic"

	"github.com/mohitkumar/flower/logger"
	"go.uber.org/zap"
)

var _ Ref = new(LocalRef)

// LocalRef runs a handler on its own goroutine fed by a bounded mailbox.
type LocalRef struct {
	path      string
	handler   Handler
	mailbox   chan Envelope
	stop      chan struct{}
	stopOnce  sync.Once
	stopped   atomic.Bool
	processed atomic.Uint64
	wg        *sync.WaitGroup
}

func NewLocalRef(path string, handler Handler, capacity int, wg *sync.WaitGroup) *LocalRef {
	return &LocalRef{
		path:    path,
		handler: handler,
		mailbox: make(chan Envelope, capacity),
		stop:    make(chan struct{}),
		wg:      wg,
	}
}

func (r *LocalRef) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case env := <-r.mailbox:
				r.receive(env)
			case <-r.stop:
				logger.Debug("stopping actor", zap.String("actor", r.path))
				return
			}
		}
	}()
}

func (r *LocalRef) receive(env Envelope) {
	defer r.processed.Add(1)
	err := r.handler.Receive(env.Message, env.Sender)
	if err == nil {
		return
	}
	logger.Error("error in handling message in actor", zap.String("actor", r.path), zap.Error(err))
	if rs, ok := r.handler.(Restarter); ok {
		rs.Restart()
	}
}

// Tell never blocks; a full mailbox is reported as ErrMailboxFull.
func (r *LocalRef) Tell(msg any, sender Ref) error {
	if r.stopped.Load() {
		return ErrStopped
	}
	select {
	case r.mailbox <- Envelope{Message: msg, Sender: sender}:
		return nil
	default:
		return ErrMailboxFull
	}
}

func (r *LocalRef) Path() string {
	return r.path
}

func (r *LocalRef) String() string {
	return r.path
}

// Processed returns the number of messages handled so far.
func (r *LocalRef) Processed() uint64 {
	return r.processed.Load()
}

func (r *LocalRef) Stop() {
	r.stopOnce.Do(func() {
		r.stopped.Store(true)
		close(r.stop)
	})
}
