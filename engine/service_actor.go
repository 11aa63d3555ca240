package engine

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/flower/actor"
	"github.com/mohitkumar/flower/analytics"
	"github.com/mohitkumar/flower/cache"
	"github.com/mohitkumar/flower/codec"
	"github.com/mohitkumar/flower/logger"
	"github.com/mohitkumar/flower/model"
	"github.com/mohitkumar/flower/service"
	"go.uber.org/zap"
)

type canceler interface {
	Canceled() bool
}

var _ actor.Handler = new(ServiceActor)
var _ actor.Restarter = new(ServiceActor)

// ServiceActor invokes one service for every context it receives and
// forwards the result along the matching edges of the flow.
type ServiceActor struct {
	self        actor.Ref
	config      *model.ServiceConfig
	loader      service.Loader
	codec       codec.Codec
	edges       *EdgeCache
	correlation *cache.CorrelationCache
	collector   analytics.DataCollector

	svc  service.Service
	meta *service.Meta
}

func NewServiceActor(config *model.ServiceConfig, loader service.Loader, c codec.Codec, edges *EdgeCache, correlation *cache.CorrelationCache, collector analytics.DataCollector) *ServiceActor {
	if collector == nil {
		collector = analytics.NoopDataCollector{}
	}
	return &ServiceActor{
		config:      config,
		loader:      loader,
		codec:       c,
		edges:       edges,
		correlation: correlation,
		collector:   collector,
	}
}

func (a *ServiceActor) bind(self actor.Ref) {
	a.self = self
}

// Restart forgets the service instance so the next message loads a fresh one.
func (a *ServiceActor) Restart() {
	a.svc = nil
	a.meta = nil
}

func (a *ServiceActor) Receive(msg any, sender actor.Ref) error {
	req, ok := msg.(*request)
	if !ok {
		return fmt.Errorf("unexpected message %T", msg)
	}
	return a.handle(req, sender)
}

func (a *ServiceActor) handle(req *request, sender actor.Ref) error {
	sc := req.Context
	sc.CurrentServiceName = a.config.ServiceName
	if sc.FlowMessage == nil {
		sc.FlowMessage = &model.FlowMessage{}
	}
	if req.Entry && sc.Sync {
		a.register(sc, sender)
	}

	start := time.Now()
	result, err := a.process(sc)
	if err != nil {
		a.collector.RecordServiceFailure(sc.FlowName, sc.ID, a.config.ServiceName, time.Since(start), err.Error())
		a.fail(sc, err)
		return err
	}
	a.collector.RecordServiceSuccess(sc.FlowName, sc.ID, a.config.ServiceName, time.Since(start), result)
	out := &model.FlowMessage{TransactionID: sc.FlowMessage.TransactionID, Message: result}

	edges, err := a.edges.Get(sc.FlowName, a.config.ServiceName)
	if err != nil {
		a.fail(sc, err)
		return err
	}
	if sc.Sync && len(edges) == 0 {
		a.resolve(sc, out)
		return nil
	}
	if sc.Web != nil {
		if a.meta.Streaming {
			sc.Web.Flush()
		}
		if a.meta.Complete {
			sc.Web.Complete()
		}
	}
	if len(edges) == 0 {
		return nil
	}
	if result == nil {
		// a join still waiting for contributions produces nothing
		if sc.Sync && !a.meta.Aggregate {
			a.resolve(sc, out)
		}
		return nil
	}

	fired, err := a.fanOut(sc, out, edges)
	if sc.Sync && fired == 0 {
		if err != nil {
			a.resolve(sc, &model.FlowMessage{TransactionID: out.TransactionID, Error: err.Error(), Err: err})
		} else {
			a.resolve(sc, out)
		}
	}
	return err
}

// register records the caller of a synchronous call before the service runs.
func (a *ServiceActor) register(sc *model.ServiceContext, caller actor.Ref) {
	if caller == nil {
		return
	}
	if !a.correlation.Register(sc.FlowName, sc.ID, caller) {
		logger.Warn("call already has a caller", zap.String("flow", sc.FlowName), zap.String("id", sc.ID))
		return
	}
	// the caller may have given up before the entry was written
	if c, ok := caller.(canceler); ok && c.Canceled() {
		a.correlation.Invalidate(sc.FlowName, sc.ID)
	}
}

func (a *ServiceActor) init() error {
	if a.svc != nil {
		return nil
	}
	meta, err := a.loader.LoadServiceMeta(a.config.ServiceName)
	if err != nil {
		return err
	}
	svc, err := a.loader.LoadService(a.config.ServiceName)
	if err != nil {
		return err
	}
	if ag, ok := svc.(service.Aggregate); ok {
		ag.SetSourceNumber(a.config.JointSourceNumber)
	}
	a.meta = meta
	a.svc = svc
	return nil
}

func (a *ServiceActor) process(sc *model.ServiceContext) (any, error) {
	payload := sc.FlowMessage.Message
	if err := a.init(); err != nil {
		return nil, &ServiceError{Service: a.config.ServiceName, Param: payload, Err: err}
	}
	param, err := codec.Convert(a.codec, payload, a.meta.ParamType)
	if err != nil {
		return nil, &ServiceError{Service: a.config.ServiceName, Param: payload, Err: err}
	}
	result, err := a.invoke(param, sc)
	if err != nil {
		return nil, &ServiceError{Service: a.config.ServiceName, Param: payload, Err: err}
	}
	return result, nil
}

func (a *ServiceActor) invoke(param any, sc *model.ServiceContext) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("service panicked: %v", r)
		}
	}()
	return a.svc.Process(param, sc)
}

func (a *ServiceActor) fail(sc *model.ServiceContext, err error) {
	if sc.Web != nil {
		sc.Web.Complete()
	}
	if sc.Sync {
		a.resolve(sc, &model.FlowMessage{TransactionID: sc.FlowMessage.TransactionID, Error: err.Error(), Err: err})
	}
}

// resolve answers the caller of a synchronous call, at most once.
func (a *ServiceActor) resolve(sc *model.ServiceContext, msg *model.FlowMessage) {
	caller, ok := a.correlation.Take(sc.FlowName, sc.ID)
	if !ok {
		logger.Warn("no caller for call, maybe it's timeout", zap.String("flow", sc.FlowName), zap.String("id", sc.ID), zap.String("service", a.config.ServiceName))
		return
	}
	if err := caller.Tell(msg, a.self); err != nil {
		logger.Warn("caller is gone", zap.String("flow", sc.FlowName), zap.String("id", sc.ID), zap.Error(err))
	}
}

// fanOut sends a copy of the result along every edge accepting it and
// returns how many edges fired. Copies sent along aggregation edges share
// one transaction id per fork so the join can correlate them; other copies
// only keep the transaction id the result already had.
func (a *ServiceActor) fanOut(sc *model.ServiceContext, out *model.FlowMessage, edges []*Edge) (int, error) {
	condition := ""
	if c, ok := out.Message.(model.Conditional); ok {
		condition = c.Condition()
	}
	resultType := reflect.TypeOf(out.Message)
	forkID := out.TransactionID
	fired := 0
	var errs error
	for _, edge := range edges {
		if !edge.Accepts(resultType) {
			continue
		}
		if condition != "" && !model.ConditionMatches(condition, edge.ServiceName) {
			continue
		}
		txID := out.TransactionID
		if edge.Aggregate {
			if forkID == "" {
				forkID = uuid.New().String()
			}
			txID = forkID
		}
		next := sc.NewInstance()
		next.CurrentServiceName = edge.ServiceName
		next.FlowMessage = &model.FlowMessage{TransactionID: txID, Message: clonePayload(out.Message)}
		if err := edge.Router.AsyncCall(next, a.self); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		fired++
	}
	return fired, errs
}

func clonePayload(value any) any {
	if cl, ok := value.(model.Cloner); ok {
		return cl.Clone()
	}
	return codec.DeepCopy(value)
}
