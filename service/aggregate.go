package service

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mohitkumar/flower/model"
	c "github.com/patrickmn/go-cache"
)

var _ Aggregate = new(AggregateService)

// AggregateService joins the contributions that share a transaction id.
// It returns nil until the expected number of sources has contributed and
// then returns all contributions in arrival order.
type AggregateService struct {
	sourceNumber atomic.Int64
	buckets      *c.Cache
	mu           sync.Mutex
}

func NewAggregateService(ttl time.Duration) *AggregateService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &AggregateService{
		buckets: c.New(ttl, ttl),
	}
}

func (a *AggregateService) SetSourceNumber(n int) {
	a.sourceNumber.Store(int64(n))
}

func (a *AggregateService) Process(param any, ctx *model.ServiceContext) (any, error) {
	if ctx.FlowMessage == nil || ctx.FlowMessage.TransactionID == "" {
		return nil, fmt.Errorf("aggregate %s needs a transaction id", ctx.CurrentServiceName)
	}
	txID := ctx.FlowMessage.TransactionID
	expected := int(a.sourceNumber.Load())
	if expected < 1 {
		expected = 1
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	var parts []any
	if v, ok := a.buckets.Get(txID); ok {
		parts = v.([]any)
	}
	parts = append(parts, param)
	if len(parts) < expected {
		a.buckets.SetDefault(txID, parts)
		return nil, nil
	}
	a.buckets.Delete(txID)
	return parts, nil
}

// Pending returns the number of aggregations still waiting for contributions.
func (a *AggregateService) Pending() int {
	return a.buckets.ItemCount()
}
