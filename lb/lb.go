package lb

import (
	"fmt"

	"github.com/mohitkumar/flower/actor"
	"github.com/mohitkumar/flower/model"
)

// LoadBalance picks the worker of a pool that should handle a call. It must
// always return a member of the pool it was given, or nil for an empty pool.
type LoadBalance interface {
	Choose(pool []actor.Ref, ctx *model.ServiceContext) actor.Ref
}

type Type string

const ROUND_ROBIN Type = "round_robin"
const RANDOM Type = "random"
const CONSISTENT_HASH Type = "consistent_hash"

func New(t Type) (LoadBalance, error) {
	switch t {
	case ROUND_ROBIN, "":
		return NewRoundRobin(), nil
	case RANDOM:
		return NewRandom(), nil
	case CONSISTENT_HASH:
		return NewConsistentHash(), nil
	}
	return nil, fmt.Errorf("unknown load balance type %s", t)
}
