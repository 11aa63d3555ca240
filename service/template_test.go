package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTemplateService(t *testing.T) {
	svc, err := NewTemplateService(map[string]any{
		"id":       "{$.order.id}",
		"greeting": "hello {$.customer.name}, order {$.order.id}",
		"fixed":    7,
		"nested":   map[string]any{"total": "{$.order.total}"},
		"list":     []any{"{$.customer.name}", "literal"},
	})
	require.NoError(t, err)

	res, err := svc.Process(map[string]any{
		"order":    map[string]any{"id": "o-1", "total": 12.5},
		"customer": map[string]any{"name": "ada"},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"id":       "o-1",
		"greeting": "hello ada, order o-1",
		"fixed":    7,
		"nested":   map[string]any{"total": 12.5},
		"list":     []any{"ada", "literal"},
	}, res)

	_, err = NewTemplateService(nil)
	require.Error(t, err)
}
