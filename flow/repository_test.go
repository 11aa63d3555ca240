package flow

import (
	"testing"
	"time"

	"github.com/mohitkumar/flower/model"
	"github.com/mohitkumar/flower/persistence"
	"github.com/stretchr/testify/require"
)

type countingStorage struct {
	persistence.MetadataStorage
	gets int
}

func (s *countingStorage) GetFlowDefinition(name string) (*model.FlowDefinition, error) {
	s.gets++
	return s.MetadataStorage.GetFlowDefinition(name)
}

func TestRepository(t *testing.T) {
	storage := &countingStorage{MetadataStorage: persistence.NewInMemoryMetadataStorage()}
	repo := NewRepository(storage, time.Second)
	var reloaded []string
	repo.OnReload(func(name string) { reloaded = append(reloaded, name) })

	require.NoError(t, repo.Save(*diamond()))
	require.Equal(t, []string{"diamond"}, reloaded)

	f1, err := repo.GetOrCreateServiceFlow("diamond")
	require.NoError(t, err)
	f2, err := repo.GetOrCreateServiceFlow("diamond")
	require.NoError(t, err)
	require.Same(t, f1, f2)
	require.Equal(t, 1, storage.gets)

	require.NoError(t, repo.Save(model.FlowDefinition{Name: "diamond", Nodes: []model.NodeDefinition{{Service: "S1"}}}))
	f3, err := repo.GetOrCreateServiceFlow("diamond")
	require.NoError(t, err)
	require.NotSame(t, f1, f3)
	require.Equal(t, []string{"S1"}, f3.Services())
	require.Equal(t, []string{"diamond", "diamond"}, reloaded)

	_, err = repo.GetOrCreateServiceFlow("missing")
	require.ErrorAs(t, err, &persistence.NotFoundError{})

	err = repo.Save(model.FlowDefinition{Name: "bad", Nodes: []model.NodeDefinition{{Service: "S1", Next: []string{"S2"}}}})
	require.Error(t, err)
	_, err = repo.Get("bad")
	require.Error(t, err)
}
