package lb

import (
	"math/rand"
	"sync/atomic"

	"github.com/mohitkumar/flower/actor"
	"github.com/mohitkumar/flower/model"
)

var _ LoadBalance = new(RoundRobin)

type RoundRobin struct {
	current uint64
}

func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

func (p *RoundRobin) Choose(pool []actor.Ref, ctx *model.ServiceContext) actor.Ref {
	len := uint64(len(pool))
	if len == 0 {
		return nil
	}
	cur := atomic.AddUint64(&p.current, uint64(1)) - 1
	return pool[int(cur%len)]
}

var _ LoadBalance = new(Random)

type Random struct{}

func NewRandom() *Random {
	return &Random{}
}

func (p *Random) Choose(pool []actor.Ref, ctx *model.ServiceContext) actor.Ref {
	if len(pool) == 0 {
		return nil
	}
	return pool[rand.Intn(len(pool))]
}
