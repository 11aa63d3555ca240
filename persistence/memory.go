package persistence

import (
	"sort"
	"sync"

	"github.com/mohitkumar/flower/model"
)

var _ MetadataStorage = new(inMemoryMetadataStorage)

type inMemoryMetadataStorage struct {
	mu    sync.RWMutex
	flows map[string]model.FlowDefinition
}

func NewInMemoryMetadataStorage() *inMemoryMetadataStorage {
	return &inMemoryMetadataStorage{flows: make(map[string]model.FlowDefinition)}
}

func (s *inMemoryMetadataStorage) SaveFlowDefinition(def model.FlowDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[def.Name] = def
	return nil
}

func (s *inMemoryMetadataStorage) DeleteFlowDefinition(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, name)
	return nil
}

func (s *inMemoryMetadataStorage) GetFlowDefinition(name string) (*model.FlowDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.flows[name]
	if !ok {
		return nil, NotFoundError{Name: name}
	}
	return &def, nil
}

func (s *inMemoryMetadataStorage) ListFlowDefinitions() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.flows))
	for name := range s.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
