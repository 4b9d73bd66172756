package registry

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/log"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/protocol"
)

type stubHandler struct{}

func (stubHandler) Execute(context.Context, *models.Execution, *slog.Logger) (*protocol.Result, error) {
	return &protocol.Result{Data: map[string]any{}}, nil
}

type stubFactory struct {
	id     string
	schema map[string]any
}

func (f *stubFactory) ID() string   { return f.id }
func (f *stubFactory) Name() string { return f.id }

func (f *stubFactory) Create(config map[string]any) (protocol.NodeHandler, error) {
	if config == nil {
		return nil, errors.New("nil config reached factory")
	}

	return stubHandler{}, nil
}

func (f *stubFactory) Schema() map[string]any { return f.schema }

func newTestRegistry() *Registry {
	return NewRegistry(log.WithModule("test"))
}

func TestRegistry_CreateRegisteredType(t *testing.T) {
	registry := newTestRegistry()
	registry.Register(&stubFactory{id: "echo"})

	handler, err := registry.Create("echo", map[string]any{"anything": true})
	require.NoError(t, err)
	assert.NotNil(t, handler)
}

func TestRegistry_CreateUnknownType(t *testing.T) {
	registry := newTestRegistry()

	_, err := registry.Create("hologram", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNodeType)
	assert.Contains(t, err.Error(), "hologram")
}

func TestRegistry_CreateNilConfigBecomesEmptyMap(t *testing.T) {
	registry := newTestRegistry()
	registry.Register(&stubFactory{id: "echo"})

	_, err := registry.Create("echo", nil)
	require.NoError(t, err)
}

func TestRegistry_NodeTypes(t *testing.T) {
	registry := newTestRegistry()
	registry.Register(&stubFactory{id: "message"})
	registry.Register(&stubFactory{id: "delay"})

	assert.ElementsMatch(t, []string{"message", "delay"}, registry.NodeTypes())
}

func TestRegistry_ValidateConfig(t *testing.T) {
	registry := newTestRegistry()
	registry.Register(&stubFactory{
		id: "message",
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{"type": "string"},
			},
			"required": []string{"message"},
		},
	})
	registry.Register(&stubFactory{id: "freeform"})

	tests := []struct {
		name     string
		nodeType string
		config   map[string]any
		wantErr  bool
	}{
		{
			name:     "valid config passes",
			nodeType: "message",
			config:   map[string]any{"message": "Olá {name}"},
		},
		{
			name:     "missing required property fails",
			nodeType: "message",
			config:   map[string]any{},
			wantErr:  true,
		},
		{
			name:     "wrong property type fails",
			nodeType: "message",
			config:   map[string]any{"message": 42},
			wantErr:  true,
		},
		{
			name:     "nil schema accepts anything",
			nodeType: "freeform",
			config:   map[string]any{"whatever": []any{1, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.ValidateConfig(tt.nodeType, tt.config)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestRegistry_ValidateConfigUnknownType(t *testing.T) {
	registry := newTestRegistry()

	err := registry.ValidateConfig("hologram", map[string]any{})
	assert.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestRegistry_HealthCheck(t *testing.T) {
	registry := newTestRegistry()

	details, healthy := registry.HealthCheck()
	assert.False(t, healthy)
	assert.Equal(t, 0, details["registered_node_types"])

	registry.Register(&stubFactory{id: "message"})

	details, healthy = registry.HealthCheck()
	assert.True(t, healthy)
	assert.Equal(t, 1, details["registered_node_types"])
}
