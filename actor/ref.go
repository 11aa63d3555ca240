package actor

import "errors"

var (
	ErrMailboxFull = errors.New("mailbox is full")
	ErrStopped     = errors.New("actor is stopped")
)

// Ref is a handle messages can be told to. It may stand for a local
// mailbox or forward to somewhere else.
type Ref interface {
	Tell(msg any, sender Ref) error
	Path() string
}

// Handler processes the messages of one actor, one at a time.
type Handler interface {
	Receive(msg any, sender Ref) error
}

// Restarter is implemented by handlers that drop their state after a failed message.
type Restarter interface {
	Restart()
}

type Envelope struct {
	Message any
	Sender  Ref
}
