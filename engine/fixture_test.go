package engine

import (
	"testing"
	"time"

	"github.com/mohitkumar/flower/codec"
	"github.com/mohitkumar/flower/config"
	"github.com/mohitkumar/flower/flow"
	"github.com/mohitkumar/flower/lb"
	"github.com/mohitkumar/flower/model"
	"github.com/mohitkumar/flower/persistence"
	"github.com/mohitkumar/flower/service"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	registry *service.Registry
	repo     *flow.Repository
	factory  *Factory
}

func newFixture(t *testing.T, poolSize int) *fixture {
	conf := config.RouterConfig{
		PoolSize:              poolSize,
		MailboxSize:           16,
		DefaultTimeout:        500 * time.Millisecond,
		CorrelationTTL:        time.Minute,
		CleanupInterval:       time.Minute,
		DeliveryRetries:       3,
		DeliveryRetryInterval: time.Millisecond,
	}
	registry := service.NewRegistry()
	repo := flow.NewRepository(persistence.NewInMemoryMetadataStorage(), conf.DefaultTimeout)
	factory := NewFactory(conf, registry, repo, codec.NewJsonCodec(), lb.NewRoundRobin(), nil)
	repo.OnReload(factory.Invalidate)
	t.Cleanup(factory.Shutdown)
	return &fixture{registry: registry, repo: repo, factory: factory}
}

func (f *fixture) flow(t *testing.T, name string, nodes ...model.NodeDefinition) {
	require.NoError(t, f.repo.Save(model.FlowDefinition{Name: name, Nodes: nodes}))
}

func node(name string, next ...string) model.NodeDefinition {
	return model.NodeDefinition{Service: name, Next: next}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
	}
	var zero T
	return zero
}

func nothing[T any](t *testing.T, ch <-chan T, wait time.Duration) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected message %v", v)
	case <-time.After(wait):
	}
}
