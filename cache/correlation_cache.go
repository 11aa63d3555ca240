package cache

import (
	"sync"
	"time"

	"github.com/mohitkumar/flower/actor"
	c "github.com/patrickmn/go-cache"
)

const DefaultTimeToLive = 60 * time.Second

// CorrelationCache remembers who is waiting for the outcome of a synchronous
// call. Keys are scoped by flow name so call ids of different flows never collide.
type CorrelationCache struct {
	cache *c.Cache
	ttl   time.Duration
	mu    sync.Mutex
}

func NewCorrelationCache(ttl time.Duration, cleanupInterval time.Duration) *CorrelationCache {
	if ttl <= 0 {
		ttl = DefaultTimeToLive
	}
	return &CorrelationCache{
		cache: c.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// names never hold a NUL, so no (flow, id) pair shares a key with another
func key(flowName string, id string) string {
	return flowName + "\x00" + id
}

// Register stores the caller of a call. It returns false when the call
// already has a caller registered.
func (ch *CorrelationCache) Register(flowName string, id string, caller actor.Ref) bool {
	return ch.cache.Add(key(flowName, id), caller, ch.ttl) == nil
}

// Take returns the caller of a call and removes it, so a call is resolved at most once.
func (ch *CorrelationCache) Take(flowName string, id string) (actor.Ref, bool) {
	k := key(flowName, id)
	ch.mu.Lock()
	defer ch.mu.Unlock()
	v, found := ch.cache.Get(k)
	if !found {
		return nil, false
	}
	ch.cache.Delete(k)
	return v.(actor.Ref), true
}

func (ch *CorrelationCache) Contains(flowName string, id string) bool {
	_, found := ch.cache.Get(key(flowName, id))
	return found
}

func (ch *CorrelationCache) Invalidate(flowName string, id string) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.cache.Delete(key(flowName, id))
}

func (ch *CorrelationCache) Len() int {
	return ch.cache.ItemCount()
}
