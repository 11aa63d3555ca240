package model

import "fmt"

// Web is the completion hook of an externally streamed call.
type Web interface {
	Flush()
	Complete()
}

// ServiceContext is the per invocation context handed to services.
type ServiceContext struct {
	ID                 string
	FlowName           string
	CurrentServiceName string
	Sync               bool
	FlowMessage        *FlowMessage
	Web                Web
}

func NewServiceContext(id string, flowName string, serviceName string, payload any) *ServiceContext {
	return &ServiceContext{
		ID:                 id,
		FlowName:           flowName,
		CurrentServiceName: serviceName,
		FlowMessage:        &FlowMessage{Message: payload},
	}
}

// NewInstance derives the context of the next hop. The message and the
// current service are left for the caller to set.
func (c *ServiceContext) NewInstance() *ServiceContext {
	return &ServiceContext{
		ID:       c.ID,
		FlowName: c.FlowName,
		Sync:     c.Sync,
		Web:      c.Web,
	}
}

func (c *ServiceContext) String() string {
	var payload any
	if c.FlowMessage != nil {
		payload = c.FlowMessage.Message
	}
	return fmt.Sprintf("ServiceContext[id=%s, flow=%s, service=%s, sync=%t, message=%v]",
		c.ID, c.FlowName, c.CurrentServiceName, c.Sync, payload)
}

// StreamWriter is implemented by web hooks that accept streamed chunks.
type StreamWriter interface {
	Write(chunk any) error
}
