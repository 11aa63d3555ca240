package model

// FlowDefinition is the stored form of a flow graph.
type FlowDefinition struct {
	Name  string           `json:"name" yaml:"name" validate:"required"`
	Nodes []NodeDefinition `json:"nodes" yaml:"nodes" validate:"required,min=1,dive"`
}

// NodeDefinition declares one service of a flow and the services it feeds.
type NodeDefinition struct {
	Service   string   `json:"service" yaml:"service" validate:"required"`
	Next      []string `json:"next,omitempty" yaml:"next,omitempty"`
	TimeoutMs int      `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"omitempty,gt=1"`
	Aggregate bool     `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
}

// ServiceDefinition declares a builtin service instance, e.g. a jsonpath switch.
type ServiceDefinition struct {
	Name    string         `json:"name" yaml:"name" validate:"required"`
	Kind    string         `json:"kind" yaml:"kind" validate:"required"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}
