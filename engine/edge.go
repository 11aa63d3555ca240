package engine

import (
	"reflect"
	"sync"

	"github.com/mohitkumar/flower/flow"
	"github.com/mohitkumar/flower/logger"
	"github.com/mohitkumar/flower/service"
	"go.uber.org/zap"
)

// Edge is one downstream hop of a service within a flow.
type Edge struct {
	ServiceName string
	MessageType reflect.Type
	Aggregate   bool
	Router      *ServiceRouter
}

// Accepts reports whether a result of type t may travel along the edge.
func (e *Edge) Accepts(t reflect.Type) bool {
	return t != nil && t.AssignableTo(e.MessageType)
}

type edgeKey struct {
	flow    string
	service string
}

// RouterResolver returns the router of a service within a flow.
type RouterResolver func(flowName string, serviceName string) (*ServiceRouter, error)

// EdgeCache memoizes the downstream edges of every (flow, service) pair.
type EdgeCache struct {
	flows   flow.Provider
	loader  service.Loader
	routers RouterResolver
	edges   sync.Map // edgeKey -> []*Edge
	mu      sync.Mutex
}

func NewEdgeCache(flows flow.Provider, loader service.Loader, routers RouterResolver) *EdgeCache {
	return &EdgeCache{
		flows:   flows,
		loader:  loader,
		routers: routers,
	}
}

func (c *EdgeCache) Get(flowName string, serviceName string) ([]*Edge, error) {
	key := edgeKey{flow: flowName, service: serviceName}
	if edges, ok := c.edges.Load(key); ok {
		return edges.([]*Edge), nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if edges, ok := c.edges.Load(key); ok {
		return edges.([]*Edge), nil
	}
	edges, err := c.build(flowName, serviceName)
	if err != nil {
		return nil, err
	}
	c.edges.Store(key, edges)
	return edges, nil
}

func (c *EdgeCache) build(flowName string, serviceName string) ([]*Edge, error) {
	f, err := c.flows.GetOrCreateServiceFlow(flowName)
	if err != nil {
		return nil, err
	}
	next := f.GetNextFlow(serviceName)
	edges := make([]*Edge, 0, len(next))
	for _, conf := range next {
		meta, err := c.loader.LoadServiceMeta(conf.ServiceName)
		if err != nil {
			return nil, err
		}
		router, err := c.routers(flowName, conf.ServiceName)
		if err != nil {
			return nil, err
		}
		edges = append(edges, &Edge{
			ServiceName: conf.ServiceName,
			MessageType: meta.ParamType,
			Aggregate:   conf.Aggregate || meta.Aggregate,
			Router:      router,
		})
	}
	logger.Debug("edges resolved", zap.String("flow", flowName), zap.String("service", serviceName), zap.Int("edges", len(edges)))
	return edges, nil
}

// Invalidate drops every cached edge set of a flow.
func (c *EdgeCache) Invalidate(flowName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edges.Range(func(k, _ any) bool {
		if k.(edgeKey).flow == flowName {
			c.edges.Delete(k)
		}
		return true
	})
}
