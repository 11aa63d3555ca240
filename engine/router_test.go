package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mohitkumar/flower/actor"
	"github.com/mohitkumar/flower/cache"
	"github.com/mohitkumar/flower/lb"
	"github.com/mohitkumar/flower/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoHandler answers synchronous requests with their payload.
type echoHandler struct {
	handled *atomic.Int32
	block   chan struct{}
}

func (h *echoHandler) Receive(msg any, sender actor.Ref) error {
	req := msg.(*request)
	h.handled.Add(1)
	if h.block != nil {
		<-h.block
	}
	if sender != nil {
		return sender.Tell(&model.FlowMessage{Message: req.Context.FlowMessage.Message}, nil)
	}
	return nil
}

type routerFixture struct {
	router  *ServiceRouter
	handled *atomic.Int32
	built   *atomic.Int32
	block   chan struct{}
	wg      *sync.WaitGroup
}

func newRouterFixture(t *testing.T, opts RouterOptions, blocking bool) *routerFixture {
	f := &routerFixture{handled: &atomic.Int32{}, built: &atomic.Int32{}, wg: &sync.WaitGroup{}}
	if blocking {
		f.block = make(chan struct{})
	}
	conf := &model.ServiceConfig{FlowName: "order", ServiceName: "S1", Timeout: 200 * time.Millisecond}
	f.router = NewServiceRouter(conf, opts, lb.NewRoundRobin(), cache.NewCorrelationCache(time.Minute, time.Minute), func(int) actor.Handler {
		f.built.Add(1)
		return &echoHandler{handled: f.handled, block: f.block}
	}, f.wg)
	t.Cleanup(func() {
		if f.block != nil {
			close(f.block)
		}
		f.router.Stop()
		f.wg.Wait()
	})
	return f
}

func TestServiceRouter(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"pool is built once":          testPoolBuiltOnce,
		"sync call gets the reply":    testRouterSyncCall,
		"async call is delivered":     testRouterAsyncCall,
		"full mailbox fails delivery": testFullMailbox,
		"stopped router fails calls":  testStoppedRouter,
		"canceled context ends call":  testCanceledContext,
	} {
		t.Run(scenario, fn)
	}
}

func testPoolBuiltOnce(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{PoolSize: 8}, false)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, f.router.Pool(), 8)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(8), f.built.Load())
}

func testRouterSyncCall(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{PoolSize: 2}, false)
	sc := model.NewServiceContext("call-1", "order", "S1", "ping")
	res, err := f.router.SyncCall(context.Background(), sc)
	require.NoError(t, err)
	require.Equal(t, "ping", res)
	require.True(t, sc.Sync)
}

func testRouterAsyncCall(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{PoolSize: 2}, false)
	for i := 0; i < 4; i++ {
		require.NoError(t, f.router.AsyncCall(model.NewServiceContext("call", "order", "S1", i), nil))
	}
	require.Eventually(t, func() bool { return f.handled.Load() == 4 }, time.Second, 5*time.Millisecond)
}

func testFullMailbox(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{PoolSize: 1, MailboxSize: 1, Retries: 2, RetryInterval: time.Millisecond}, true)
	sc := func() *model.ServiceContext { return model.NewServiceContext("call", "order", "S1", nil) }
	require.NoError(t, f.router.AsyncCall(sc(), nil))
	require.Eventually(t, func() bool { return f.handled.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, f.router.AsyncCall(sc(), nil))

	err := f.router.AsyncCall(sc(), nil)
	require.ErrorIs(t, err, actor.ErrMailboxFull)

	_, err = f.router.SyncCall(context.Background(), sc())
	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	require.ErrorIs(t, err, actor.ErrMailboxFull)
}

func testStoppedRouter(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{PoolSize: 1}, false)
	f.router.Pool()
	f.router.Stop()
	_, err := f.router.SyncCall(context.Background(), model.NewServiceContext("call", "order", "S1", nil))
	require.ErrorIs(t, err, actor.ErrStopped)

	idle := newRouterFixture(t, RouterOptions{PoolSize: 1}, false)
	idle.router.Stop()
	err = idle.router.AsyncCall(model.NewServiceContext("call", "order", "S1", nil), nil)
	require.ErrorIs(t, err, ErrNoWorker)
}

func testCanceledContext(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{PoolSize: 1}, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.router.SyncCall(ctx, model.NewServiceContext("call", "order", "S1", nil))
	require.True(t, errors.Is(err, context.Canceled))
}
