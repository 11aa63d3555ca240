package model

import "time"

// ServiceConfig is one node of a built flow. It is immutable once the flow is built.
type ServiceConfig struct {
	FlowName          string
	ServiceName       string
	Timeout           time.Duration
	Aggregate         bool
	JointSourceNumber int
	Next              []string
}

func (c *ServiceConfig) String() string {
	return c.FlowName + "/" + c.ServiceName
}
