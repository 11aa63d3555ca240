package service

import (
	"reflect"

	"github.com/mohitkumar/flower/model"
)

// Service is the business logic bound to one node of a flow.
type Service interface {
	Process(param any, ctx *model.ServiceContext) (any, error)
}

type ServiceFunc func(param any, ctx *model.ServiceContext) (any, error)

func (f ServiceFunc) Process(param any, ctx *model.ServiceContext) (any, error) {
	return f(param, ctx)
}

// Aggregate is a join capable service. It is told how many upstream
// services contribute to one aggregation before it is first invoked.
type Aggregate interface {
	Service
	SetSourceNumber(n int)
}

// Meta describes a registered service.
type Meta struct {
	Name      string
	ParamType reflect.Type
	// Streaming services flush the web hook after every invocation.
	Streaming bool
	// Complete services end the web hook after their invocation.
	Complete  bool
	Aggregate bool
}

// Loader resolves services and their metadata by name.
type Loader interface {
	LoadService(name string) (Service, error)
	LoadServiceMeta(name string) (*Meta, error)
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()
