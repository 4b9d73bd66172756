// Package registry holds the table of node handler factories keyed by node
// type and validates node configuration against each factory's schema.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/protocol"
)

// ErrUnknownNodeType is returned by Create for unregistered node types. The
// coordinator treats it as "do nothing, don't break the chain".
var ErrUnknownNodeType = errors.New("node type not registered")

type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.HandlerFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]protocol.HandlerFactory),
	}
}

func (r *Registry) Register(factory protocol.HandlerFactory) {
	r.factories[factory.ID()] = factory
}

// Create builds a handler for one node. Unknown types return
// ErrUnknownNodeType, wrapped with the offending tag.
func (r *Registry) Create(nodeType string, config map[string]any) (protocol.NodeHandler, error) {
	factory, ok := r.factories[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, nodeType)
	}

	if config == nil {
		config = map[string]any{}
	}

	return factory.Create(config)
}

// NodeTypes returns the registered node type tags.
func (r *Registry) NodeTypes() []string {
	types := make([]string, 0, len(r.factories))
	for nodeType := range r.factories {
		types = append(types, nodeType)
	}

	return types
}

// ValidateConfig checks a node's data bag against the factory's JSON schema.
// The flow service calls this on save so broken configuration surfaces to the
// author instead of at execution time.
func (r *Registry) ValidateConfig(nodeType string, config map[string]any) error {
	factory, ok := r.factories[nodeType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNodeType, nodeType)
	}

	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(config))
	if err != nil {
		return fmt.Errorf("failed to validate %s config: %w", nodeType, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("invalid %s config: %s", nodeType, strings.Join(details, "; "))
	}

	return nil
}

// HealthCheck reports whether any handlers are registered.
func (r *Registry) HealthCheck() (map[string]any, bool) {
	return map[string]any{"registered_node_types": len(r.factories)}, len(r.factories) > 0
}
