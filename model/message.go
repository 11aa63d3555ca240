package model

import "strings"

// FlowMessage carries a payload between services.
type FlowMessage struct {
	TransactionID string `json:"transactionId,omitempty"`
	Message       any    `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	// Err keeps the original error value for in-process callers.
	Err error `json:"-"`
}

func (m *FlowMessage) Failed() bool {
	return m.Err != nil || m.Error != ""
}

// Conditional is implemented by results that only go to some downstream services.
// Condition returns a comma separated list of target service names; empty means all.
type Conditional interface {
	Condition() string
}

// Cloner lets payloads provide their own deep copy for fan-out.
type Cloner interface {
	Clone() any
}

// Branch is the result type of the builtin switch services.
type Branch struct {
	Targets string         `json:"targets"`
	Data    map[string]any `json:"data"`
}

func (b Branch) Condition() string {
	return b.Targets
}

// ConditionMatches reports whether serviceName is one of the comma separated targets.
func ConditionMatches(condition string, serviceName string) bool {
	for _, s := range strings.Split(condition, ",") {
		if strings.TrimSpace(s) == serviceName {
			return true
		}
	}
	return false
}
