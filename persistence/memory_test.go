package persistence

import (
	"testing"

	"github.com/mohitkumar/flower/model"
	"github.com/stretchr/testify/require"
)

func TestInMemoryMetadataStorage(t *testing.T) {
	s := NewInMemoryMetadataStorage()
	def := model.FlowDefinition{Name: "order", Nodes: []model.NodeDefinition{{Service: "S1"}}}
	require.NoError(t, s.SaveFlowDefinition(def))
	require.NoError(t, s.SaveFlowDefinition(model.FlowDefinition{Name: "audit"}))

	got, err := s.GetFlowDefinition("order")
	require.NoError(t, err)
	require.Equal(t, def, *got)

	names, err := s.ListFlowDefinitions()
	require.NoError(t, err)
	require.Equal(t, []string{"audit", "order"}, names)

	require.NoError(t, s.DeleteFlowDefinition("order"))
	_, err = s.GetFlowDefinition("order")
	require.ErrorAs(t, err, &NotFoundError{})
}
