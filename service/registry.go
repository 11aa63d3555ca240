package service

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/mohitkumar/flower/model"
)

type NotFoundError struct {
	Name string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("service %s not registered", e.Name)
}

type Factory func() Service

type Option func(*registration)

type registration struct {
	factory Factory
	shared  Service
	meta    Meta
}

// Streaming marks the service as flushing the web hook.
func Streaming() Option {
	return func(r *registration) { r.meta.Streaming = true }
}

// Completing marks the service as ending the web hook.
func Completing() Option {
	return func(r *registration) { r.meta.Complete = true }
}

// Shared makes every worker use the same service instance instead of one
// instance per worker. The service must then be safe for concurrent use.
func Shared() Option {
	return func(r *registration) {
		if r.shared == nil {
			r.shared = r.factory()
		}
	}
}

// ParamType overrides the declared parameter type.
func ParamType(t reflect.Type) Option {
	return func(r *registration) { r.meta.ParamType = t }
}

var _ Loader = new(Registry)

// Registry is an in-memory Loader. Services are registered with the type
// of their parameter, which later decides what results they accept.
type Registry struct {
	mu       sync.RWMutex
	services map[string]*registration
}

func NewRegistry() *Registry {
	return &Registry{services: make(map[string]*registration)}
}

func (r *Registry) Register(name string, factory Factory, opts ...Option) error {
	if name == "" || factory == nil {
		return fmt.Errorf("service name and factory are required")
	}
	reg := &registration{
		factory: factory,
		meta:    Meta{Name: name, ParamType: anyType},
	}
	for _, opt := range opts {
		opt(reg)
	}
	sample := reg.shared
	if sample == nil {
		sample = factory()
	}
	_, reg.meta.Aggregate = sample.(Aggregate)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[name]; ok {
		return fmt.Errorf("service %s already registered", name)
	}
	r.services[name] = reg
	return nil
}

// RegisterFunc registers a typed function. Its parameter type P becomes the
// declared parameter type of the service.
func RegisterFunc[P any, R any](r *Registry, name string, fn func(P, *model.ServiceContext) (R, error), opts ...Option) error {
	paramType := reflect.TypeOf((*P)(nil)).Elem()
	svc := ServiceFunc(func(param any, ctx *model.ServiceContext) (any, error) {
		var p P
		if param != nil {
			v, ok := param.(P)
			if !ok {
				return nil, fmt.Errorf("service %s expects %s, got %T", name, paramType, param)
			}
			p = v
		}
		return fn(p, ctx)
	})
	opts = append([]Option{ParamType(paramType)}, opts...)
	return r.Register(name, func() Service { return svc }, opts...)
}

func (r *Registry) LoadService(name string) (Service, error) {
	r.mu.RLock()
	reg, ok := r.services[name]
	r.mu.RUnlock()
	if !ok {
		return nil, NotFoundError{Name: name}
	}
	if reg.shared != nil {
		return reg.shared, nil
	}
	return reg.factory(), nil
}

func (r *Registry) LoadServiceMeta(name string) (*Meta, error) {
	r.mu.RLock()
	reg, ok := r.services[name]
	r.mu.RUnlock()
	if !ok {
		return nil, NotFoundError{Name: name}
	}
	meta := reg.meta
	return &meta, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
