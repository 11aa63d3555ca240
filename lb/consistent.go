package lb

import (
	"strconv"
	"sync"

	"github.com/buraksezer/consistent"
	"github.com/mohitkumar/flower/actor"
	"github.com/mohitkumar/flower/model"
	"github.com/spaolacci/murmur3"
)

var _ LoadBalance = new(ConsistentHash)

type hasher struct{}

func (h hasher) Sum64(data []byte) uint64 {
	return murmur3.Sum64(data)
}

type member struct {
	ref actor.Ref
}

func (m member) String() string {
	return m.ref.Path()
}

// ConsistentHash sends every message of one transaction (or, without a
// transaction, of one call) to the same worker of a pool. This keeps all
// contributions of an aggregation on one join worker.
type ConsistentHash struct {
	rings sync.Map // pool key -> *consistent.Consistent
	mu    sync.Mutex
}

func NewConsistentHash() *ConsistentHash {
	return &ConsistentHash{}
}

func (c *ConsistentHash) Choose(pool []actor.Ref, ctx *model.ServiceContext) actor.Ref {
	if len(pool) == 0 {
		return nil
	}
	if len(pool) == 1 || ctx == nil {
		return pool[0]
	}
	key := ctx.ID
	if ctx.FlowMessage != nil && ctx.FlowMessage.TransactionID != "" {
		key = ctx.FlowMessage.TransactionID
	}
	ring := c.ring(pool)
	m := ring.LocateKey([]byte(key))
	return m.(member).ref
}

func (c *ConsistentHash) ring(pool []actor.Ref) *consistent.Consistent {
	poolKey := pool[0].Path() + "#" + strconv.Itoa(len(pool))
	if r, ok := c.rings.Load(poolKey); ok {
		return r.(*consistent.Consistent)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.rings.Load(poolKey); ok {
		return r.(*consistent.Consistent)
	}
	members := make([]consistent.Member, 0, len(pool))
	for _, ref := range pool {
		members = append(members, member{ref: ref})
	}
	cfg := consistent.Config{
		PartitionCount:    len(pool)*7 + 1,
		ReplicationFactor: 20,
		Load:              1.25,
		Hasher:            hasher{},
	}
	r := consistent.New(members, cfg)
	c.rings.Store(poolKey, r)
	return r
}
