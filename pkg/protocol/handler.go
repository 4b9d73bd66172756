// Package protocol defines the contracts between the execution coordinator
// and the pluggable node handlers.
package protocol

import (
	"context"
	"log/slog"
	"time"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
)

// Result is the outcome of one node step. Data is the partial state update
// the coordinator merges into the execution state. Selector optionally labels
// which outgoing edge to follow (condition nodes emit "true"/"false").
// ResumeAt, when set, tells the coordinator to schedule the next activation
// instead of dispatching it immediately.
type Result struct {
	Data     map[string]any
	Selector string
	ResumeAt *time.Time
}

// NodeHandler executes one node type. Handlers are pure with respect to the
// execution record: they read state and return a partial update; their only
// writes are the explicit collaborator side effects of their type. A non-nil
// error marks the step failed in the execution log; whether the chain halts
// is the node's failure policy, not the handler's call.
type NodeHandler interface {
	Execute(ctx context.Context, execution *models.Execution, logger *slog.Logger) (*Result, error)
}

// HandlerFactory creates handler instances and describes the node type.
type HandlerFactory interface {
	// ID returns the node type tag this factory serves.
	ID() string

	// Name returns the human-readable name for this node type.
	Name() string

	// Schema returns the JSON schema for the node's data bag.
	Schema() map[string]any

	// Create builds a handler bound to one node's configuration.
	Create(config map[string]any) (NodeHandler, error)
}
