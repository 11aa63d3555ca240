package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mohitkumar/flower/actor"
	"github.com/mohitkumar/flower/cache"
	"github.com/mohitkumar/flower/lb"
	"github.com/mohitkumar/flower/logger"
	"github.com/mohitkumar/flower/model"
	"go.uber.org/zap"
)

// askMargin keeps the internal deadline of a synchronous call ahead of the caller's.
const askMargin = time.Millisecond

// request is what a worker mailbox receives. Entry is only set on the
// first hop of a synchronous call.
type request struct {
	Context *model.ServiceContext
	Entry   bool
}

type RouterOptions struct {
	PoolSize      int
	MailboxSize   int
	Retries       uint64
	RetryInterval time.Duration
}

// WorkerFactory creates the handler of the index-th worker of a pool.
type WorkerFactory func(index int) actor.Handler

type selfBinder interface {
	bind(self actor.Ref)
}

// ServiceRouter fronts the worker pool of one service within one flow.
type ServiceRouter struct {
	config      *model.ServiceConfig
	opts        RouterOptions
	balance     lb.LoadBalance
	correlation *cache.CorrelationCache
	newWorker   WorkerFactory
	wg          *sync.WaitGroup

	once    sync.Once
	pool    []actor.Ref
	workers []*actor.LocalRef
}

func NewServiceRouter(config *model.ServiceConfig, opts RouterOptions, balance lb.LoadBalance, correlation *cache.CorrelationCache, newWorker WorkerFactory, wg *sync.WaitGroup) *ServiceRouter {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 128
	}
	if opts.MailboxSize <= 0 {
		opts.MailboxSize = 1024
	}
	return &ServiceRouter{
		config:      config,
		opts:        opts,
		balance:     balance,
		correlation: correlation,
		newWorker:   newWorker,
		wg:          wg,
	}
}

func (r *ServiceRouter) Config() *model.ServiceConfig {
	return r.config
}

func (r *ServiceRouter) ensurePool() []actor.Ref {
	r.once.Do(func() {
		pool := make([]actor.Ref, 0, r.opts.PoolSize)
		workers := make([]*actor.LocalRef, 0, r.opts.PoolSize)
		for i := 0; i < r.opts.PoolSize; i++ {
			handler := r.newWorker(i)
			ref := actor.NewLocalRef(fmt.Sprintf("%s/%s/%d", r.config.FlowName, r.config.ServiceName, i), handler, r.opts.MailboxSize, r.wg)
			if b, ok := handler.(selfBinder); ok {
				b.bind(ref)
			}
			ref.Start()
			pool = append(pool, ref)
			workers = append(workers, ref)
		}
		r.workers = workers
		r.pool = pool
		logger.Info("worker pool created", zap.String("flow", r.config.FlowName), zap.String("service", r.config.ServiceName), zap.Int("size", len(pool)))
	})
	return r.pool
}

// Pool returns the workers of the router, building them on first use.
func (r *ServiceRouter) Pool() []actor.Ref {
	return r.ensurePool()
}

func (r *ServiceRouter) chooseOne(sc *model.ServiceContext) actor.Ref {
	pool := r.ensurePool()
	if len(pool) == 0 {
		return nil
	}
	return r.balance.Choose(pool, sc)
}

// SyncCall sends sc to one worker and waits for the outcome of the whole
// call, which may be produced several hops downstream.
func (r *ServiceRouter) SyncCall(ctx context.Context, sc *model.ServiceContext) (any, error) {
	sc.Sync = true
	sc.CurrentServiceName = r.config.ServiceName
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	worker := r.chooseOne(sc)
	if worker == nil {
		return nil, &CallError{Context: sc, Err: ErrNoWorker}
	}
	promise := actor.NewPromise()
	if err := r.deliver(worker, &request{Context: sc, Entry: true}, promise); err != nil {
		return nil, &CallError{Context: sc, Err: err}
	}

	wait := r.config.Timeout - askMargin
	if wait <= 0 {
		wait = r.config.Timeout
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	var err error
	select {
	case res := <-promise.Result():
		return unwrapResult(res)
	case <-timer.C:
		err = ErrCallTimeout
	case <-ctx.Done():
		err = ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrCallTimeout
		}
	}
	promise.Cancel()
	r.correlation.Invalidate(sc.FlowName, sc.ID)
	return nil, &CallError{Context: sc, Err: err}
}

func unwrapResult(res any) (any, error) {
	msg, ok := res.(*model.FlowMessage)
	if !ok {
		return res, nil
	}
	if msg.Err != nil {
		return nil, msg.Err
	}
	if msg.Error != "" {
		return nil, errors.New(msg.Error)
	}
	return msg.Message, nil
}

// AsyncCall delivers sc to one worker without waiting. sender is who a
// later hop may answer to.
func (r *ServiceRouter) AsyncCall(sc *model.ServiceContext, sender actor.Ref) error {
	sc.CurrentServiceName = r.config.ServiceName
	worker := r.chooseOne(sc)
	if worker == nil {
		return ErrNoWorker
	}
	return r.deliver(worker, &request{Context: sc}, sender)
}

// deliver retries while the worker mailbox is full.
func (r *ServiceRouter) deliver(worker actor.Ref, req *request, sender actor.Ref) error {
	operation := func() error {
		err := worker.Tell(req, sender)
		if err != nil && !errors.Is(err, actor.ErrMailboxFull) {
			return backoff.Permanent(err)
		}
		return err
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(r.opts.RetryInterval), r.opts.Retries)
	if err := backoff.Retry(operation, b); err != nil {
		return fmt.Errorf("delivery to %s failed: %w", worker.Path(), err)
	}
	return nil
}

func (r *ServiceRouter) Stop() {
	r.once.Do(func() {})
	for _, w := range r.workers {
		w.Stop()
	}
}
