package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mohitkumar/flower/config"
	"github.com/mohitkumar/flower/model"
	"github.com/mohitkumar/flower/service"
	"github.com/stretchr/testify/require"
)

const flowFile = `
services:
  - name: route
    kind: expr-switch
    options:
      expression: amount > 100
      cases:
        "true": review
        default: approve
flows:
  - name: payment
    nodes:
      - service: route
        next: [review, approve]
      - service: review
      - service: approve
`

func TestAgentRunsFlowFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "flows.yaml")
	require.NoError(t, os.WriteFile(file, []byte(flowFile), 0644))

	registry := service.NewRegistry()
	for _, name := range []string{"review", "approve"} {
		name := name
		require.NoError(t, service.RegisterFunc(registry, name, func(p model.Branch, ctx *model.ServiceContext) (string, error) {
			return name, nil
		}))
	}

	a, err := New(config.Config{FlowFile: file, HttpPort: 18080}, registry)
	require.NoError(t, err)
	defer a.Shutdown()

	res, err := a.Factory().SyncCall(context.Background(), "payment", "route", map[string]any{"amount": 500})
	require.NoError(t, err)
	require.Equal(t, "review", res)

	res, err = a.Factory().SyncCall(context.Background(), "payment", "route", map[string]any{"amount": 5})
	require.NoError(t, err)
	require.Equal(t, "approve", res)

	def, err := a.Flows().Get("payment")
	require.NoError(t, err)
	require.Len(t, def.Nodes, 3)
}

func TestAgentRejectsInvalidConfig(t *testing.T) {
	_, err := New(config.Config{StorageType: "dynamo"}, nil)
	require.Error(t, err)

	_, err = New(config.Config{FlowFile: filepath.Join(t.TempDir(), "missing.yaml")}, nil)
	require.Error(t, err)
}
