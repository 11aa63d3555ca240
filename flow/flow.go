package flow

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mohitkumar/flower/model"
)

var validate = validator.New()

// ServiceFlow is the built, immutable graph of a flow definition.
type ServiceFlow struct {
	Name    string
	entry   string
	order   []string
	configs map[string]*model.ServiceConfig
}

func (f *ServiceFlow) Entry() string {
	return f.entry
}

// Services returns the service names in declaration order.
func (f *ServiceFlow) Services() []string {
	return append([]string(nil), f.order...)
}

func (f *ServiceFlow) GetServiceConfig(name string) (*model.ServiceConfig, bool) {
	c, ok := f.configs[name]
	return c, ok
}

// GetNextFlow returns the configs of the services fed by name.
func (f *ServiceFlow) GetNextFlow(name string) []*model.ServiceConfig {
	c, ok := f.configs[name]
	if !ok {
		return nil
	}
	next := make([]*model.ServiceConfig, 0, len(c.Next))
	for _, n := range c.Next {
		next = append(next, f.configs[n])
	}
	return next
}

// Convert validates a definition and builds its graph. Nodes without a
// timeout get defaultTimeout; the joint source number of a node is the
// number of nodes feeding it.
func Convert(def *model.FlowDefinition, defaultTimeout time.Duration) (*ServiceFlow, error) {
	if err := Validate(def); err != nil {
		return nil, err
	}
	flow := &ServiceFlow{
		Name:    def.Name,
		entry:   def.Nodes[0].Service,
		configs: make(map[string]*model.ServiceConfig, len(def.Nodes)),
	}
	upstream := make(map[string]int)
	for _, node := range def.Nodes {
		seen := make(map[string]bool)
		for _, n := range node.Next {
			if !seen[n] {
				seen[n] = true
				upstream[n]++
			}
		}
	}
	for _, node := range def.Nodes {
		timeout := time.Duration(node.TimeoutMs) * time.Millisecond
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		flow.configs[node.Service] = &model.ServiceConfig{
			FlowName:          def.Name,
			ServiceName:       node.Service,
			Timeout:           timeout,
			Aggregate:         node.Aggregate,
			JointSourceNumber: upstream[node.Service],
			Next:              dedup(node.Next),
		}
		flow.order = append(flow.order, node.Service)
	}
	return flow, nil
}

func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func Validate(def *model.FlowDefinition) error {
	if def == nil {
		return fmt.Errorf("flow definition is nil")
	}
	if err := validate.Struct(def); err != nil {
		return fmt.Errorf("flow %s: %w", def.Name, err)
	}
	nodes := make(map[string]model.NodeDefinition, len(def.Nodes))
	for _, node := range def.Nodes {
		if _, ok := nodes[node.Service]; ok {
			return fmt.Errorf("flow %s: service %s is duplicate", def.Name, node.Service)
		}
		nodes[node.Service] = node
	}
	for _, node := range def.Nodes {
		for _, n := range node.Next {
			if _, ok := nodes[n]; !ok {
				return fmt.Errorf("flow %s: service %s points to unknown service %s", def.Name, node.Service, n)
			}
		}
	}
	return checkAcyclic(def.Name, nodes)
}

func checkAcyclic(flowName string, nodes map[string]model.NodeDefinition) error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(nodes))
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("flow %s: cycle through service %s", flowName, name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, n := range nodes[name].Next {
			if err := visit(n); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}
	for name := range nodes {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}
