package engine

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mohitkumar/flower/actor"
	"github.com/mohitkumar/flower/cache"
	"github.com/mohitkumar/flower/flow"
	"github.com/mohitkumar/flower/lb"
	"github.com/mohitkumar/flower/model"
	"github.com/mohitkumar/flower/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	flows map[string]*flow.ServiceFlow
	calls atomic.Int32
}

func (p *countingProvider) GetOrCreateServiceFlow(name string) (*flow.ServiceFlow, error) {
	p.calls.Add(1)
	return p.flows[name], nil
}

func TestEdgeCache(t *testing.T) {
	sf, err := flow.Convert(&model.FlowDefinition{Name: "typed", Nodes: []model.NodeDefinition{
		{Service: "S1", Next: []string{"S2", "S3"}},
		{Service: "S2", Aggregate: true},
		{Service: "S3"},
	}}, time.Second)
	require.NoError(t, err)
	provider := &countingProvider{flows: map[string]*flow.ServiceFlow{"typed": sf}}

	registry := service.NewRegistry()
	noop := func(p int, ctx *model.ServiceContext) (any, error) { return nil, nil }
	require.NoError(t, service.RegisterFunc(registry, "S1", noop))
	require.NoError(t, service.RegisterFunc(registry, "S2", noop))
	require.NoError(t, service.RegisterFunc(registry, "S3", func(p string, ctx *model.ServiceContext) (any, error) { return nil, nil }))

	var resolved atomic.Int32
	wg := &sync.WaitGroup{}
	routers := func(flowName string, serviceName string) (*ServiceRouter, error) {
		resolved.Add(1)
		conf, _ := sf.GetServiceConfig(serviceName)
		return NewServiceRouter(conf, RouterOptions{PoolSize: 1}, lb.NewRoundRobin(), cache.NewCorrelationCache(time.Minute, time.Minute), func(int) actor.Handler { return nil }, wg), nil
	}
	edges := NewEdgeCache(provider, registry, routers)

	first, err := edges.Get("typed", "S1")
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, "S2", first[0].ServiceName)
	require.Equal(t, reflect.TypeOf(0), first[0].MessageType)
	require.True(t, first[0].Aggregate)
	require.Equal(t, reflect.TypeOf(""), first[1].MessageType)
	require.False(t, first[1].Aggregate)
	require.True(t, first[0].Accepts(reflect.TypeOf(42)))
	require.False(t, first[1].Accepts(reflect.TypeOf(42)))

	var wgGet sync.WaitGroup
	for i := 0; i < 16; i++ {
		wgGet.Add(1)
		go func() {
			defer wgGet.Done()
			again, err := edges.Get("typed", "S1")
			assert.NoError(t, err)
			assert.Same(t, first[0], again[0])
		}()
	}
	wgGet.Wait()
	require.Equal(t, int32(1), provider.calls.Load())
	require.Equal(t, int32(2), resolved.Load())

	leaf, err := edges.Get("typed", "S3")
	require.NoError(t, err)
	require.Empty(t, leaf)

	edges.Invalidate("typed")
	rebuilt, err := edges.Get("typed", "S1")
	require.NoError(t, err)
	require.Len(t, rebuilt, 2)
	require.NotSame(t, first[0], rebuilt[0])
	require.Equal(t, int32(3), provider.calls.Load())
}
