package engine

import (
	"errors"
	"fmt"

	"github.com/mohitkumar/flower/model"
)

var (
	ErrCallTimeout = errors.New("call timed out")
	ErrNoWorker    = errors.New("no worker available")
)

// CallError is returned by a synchronous call that never got an answer.
type CallError struct {
	Context *model.ServiceContext
	Err     error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call %s to %s/%s failed: %v", e.Context.ID, e.Context.FlowName, e.Context.CurrentServiceName, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// ServiceError is a failure of a service body, together with the payload it failed on.
type ServiceError struct {
	Service string
	Param   any
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s failed with param %v: %v", e.Service, e.Param, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
