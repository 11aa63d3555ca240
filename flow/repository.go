package flow

import (
	"sync"
	"time"

	"github.com/mohitkumar/flower/logger"
	"github.com/mohitkumar/flower/model"
	"github.com/mohitkumar/flower/persistence"
	"go.uber.org/zap"
)

// Provider resolves the built graph of a flow.
type Provider interface {
	GetOrCreateServiceFlow(name string) (*ServiceFlow, error)
}

var _ Provider = new(Repository)

// Repository builds flows from stored definitions and keeps them until reloaded.
type Repository struct {
	storage        persistence.MetadataStorage
	defaultTimeout time.Duration
	flows          sync.Map // name -> *ServiceFlow
	mu             sync.Mutex
	listeners      []func(name string)
}

func NewRepository(storage persistence.MetadataStorage, defaultTimeout time.Duration) *Repository {
	return &Repository{
		storage:        storage,
		defaultTimeout: defaultTimeout,
	}
}

func (r *Repository) GetOrCreateServiceFlow(name string) (*ServiceFlow, error) {
	if f, ok := r.flows.Load(name); ok {
		return f.(*ServiceFlow), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.flows.Load(name); ok {
		return f.(*ServiceFlow), nil
	}
	def, err := r.storage.GetFlowDefinition(name)
	if err != nil {
		return nil, err
	}
	f, err := Convert(def, r.defaultTimeout)
	if err != nil {
		return nil, err
	}
	r.flows.Store(name, f)
	logger.Info("flow built", zap.String("flow", name), zap.Strings("services", f.Services()))
	return f, nil
}

// Save validates and stores a definition, then drops the cached graph.
func (r *Repository) Save(def model.FlowDefinition) error {
	if err := Validate(&def); err != nil {
		return err
	}
	if err := r.storage.SaveFlowDefinition(def); err != nil {
		return err
	}
	r.Reload(def.Name)
	return nil
}

func (r *Repository) Get(name string) (*model.FlowDefinition, error) {
	return r.storage.GetFlowDefinition(name)
}

// Reload drops the cached graph of a flow and tells the listeners about it.
func (r *Repository) Reload(name string) {
	r.mu.Lock()
	r.flows.Delete(name)
	listeners := append([]func(string){}, r.listeners...)
	r.mu.Unlock()
	for _, l := range listeners {
		l(name)
	}
}

// OnReload registers fn to be called whenever a flow is reloaded.
func (r *Repository) OnReload(fn func(name string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}
