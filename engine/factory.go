package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mohitkumar/flower/actor"
	"github.com/mohitkumar/flower/analytics"
	"github.com/mohitkumar/flower/cache"
	"github.com/mohitkumar/flower/codec"
	"github.com/mohitkumar/flower/config"
	"github.com/mohitkumar/flower/flow"
	"github.com/mohitkumar/flower/lb"
	"github.com/mohitkumar/flower/logger"
	"github.com/mohitkumar/flower/model"
	"github.com/mohitkumar/flower/service"
	"go.uber.org/zap"
)

type routerKey struct {
	flow    string
	service string
}

// Factory owns the routers of every flow and the state they share.
type Factory struct {
	conf        config.RouterConfig
	loader      service.Loader
	flows       flow.Provider
	codec       codec.Codec
	balance     lb.LoadBalance
	collector   analytics.DataCollector
	correlation *cache.CorrelationCache
	edges       *EdgeCache

	mu      sync.Mutex
	routers map[routerKey]*ServiceRouter
	retired []*ServiceRouter
	wg      sync.WaitGroup
}

func NewFactory(conf config.RouterConfig, loader service.Loader, flows flow.Provider, c codec.Codec, balance lb.LoadBalance, collector analytics.DataCollector) *Factory {
	if collector == nil {
		collector = analytics.NoopDataCollector{}
	}
	f := &Factory{
		conf:        conf,
		loader:      loader,
		flows:       flows,
		codec:       c,
		balance:     balance,
		collector:   collector,
		correlation: cache.NewCorrelationCache(conf.CorrelationTTL, conf.CleanupInterval),
		routers:     make(map[routerKey]*ServiceRouter),
	}
	f.edges = NewEdgeCache(flows, loader, f.Router)
	return f
}

func (f *Factory) Correlation() *cache.CorrelationCache {
	return f.correlation
}

func (f *Factory) Edges() *EdgeCache {
	return f.edges
}

// Router returns the router of a service within a flow, creating it on first use.
func (f *Factory) Router(flowName string, serviceName string) (*ServiceRouter, error) {
	key := routerKey{flow: flowName, service: serviceName}
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.routers[key]; ok {
		return r, nil
	}
	sf, err := f.flows.GetOrCreateServiceFlow(flowName)
	if err != nil {
		return nil, err
	}
	conf, ok := sf.GetServiceConfig(serviceName)
	if !ok {
		return nil, fmt.Errorf("service %s is not part of flow %s", serviceName, flowName)
	}
	if _, err := f.loader.LoadServiceMeta(serviceName); err != nil {
		return nil, err
	}
	opts := RouterOptions{
		PoolSize:      f.conf.PoolSize,
		MailboxSize:   f.conf.MailboxSize,
		Retries:       f.conf.DeliveryRetries,
		RetryInterval: f.conf.DeliveryRetryInterval,
	}
	r := NewServiceRouter(conf, opts, f.balance, f.correlation, func(int) actor.Handler {
		return NewServiceActor(conf, f.loader, f.codec, f.edges, f.correlation, f.collector)
	}, &f.wg)
	f.routers[key] = r
	return r, nil
}

// Call runs sc synchronously from the service named in it.
func (f *Factory) Call(ctx context.Context, sc *model.ServiceContext) (any, error) {
	r, err := f.Router(sc.FlowName, sc.CurrentServiceName)
	if err != nil {
		return nil, err
	}
	return r.SyncCall(ctx, sc)
}

// SyncCall starts a new call of a flow at serviceName and waits for its outcome.
func (f *Factory) SyncCall(ctx context.Context, flowName string, serviceName string, payload any) (any, error) {
	return f.Call(ctx, model.NewServiceContext(uuid.New().String(), flowName, serviceName, payload))
}

// AsyncCall starts a new call of a flow without waiting and returns its id.
func (f *Factory) AsyncCall(flowName string, serviceName string, payload any) (string, error) {
	sc := model.NewServiceContext(uuid.New().String(), flowName, serviceName, payload)
	if err := f.Tell(sc); err != nil {
		return "", err
	}
	return sc.ID, nil
}

// Tell delivers sc to the service named in it without waiting.
func (f *Factory) Tell(sc *model.ServiceContext) error {
	r, err := f.Router(sc.FlowName, sc.CurrentServiceName)
	if err != nil {
		return err
	}
	return r.AsyncCall(sc, nil)
}

// Invalidate drops the edges and routers of a flow after its definition changed.
// Retired routers keep running until shutdown so calls in flight can finish.
func (f *Factory) Invalidate(flowName string) {
	f.mu.Lock()
	for key, r := range f.routers {
		if key.flow == flowName {
			f.retired = append(f.retired, r)
			delete(f.routers, key)
		}
	}
	f.mu.Unlock()
	f.edges.Invalidate(flowName)
	logger.Info("flow invalidated", zap.String("flow", flowName))
}

func (f *Factory) Shutdown() {
	f.mu.Lock()
	for _, r := range f.routers {
		r.Stop()
	}
	for _, r := range f.retired {
		r.Stop()
	}
	f.mu.Unlock()
	f.wg.Wait()
	logger.Info("all routers stopped")
}
