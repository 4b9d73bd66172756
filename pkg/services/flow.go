package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/registry"
)

// ErrFlowNotFound is returned when a flow does not exist.
var ErrFlowNotFound = persistence.ErrFlowNotFound

type Flow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	validator   *validator.Validate
}

// NewFlow creates the flow management service.
func NewFlow(p persistence.Persistence, reg *registry.Registry, v *validator.Validate) *Flow {
	return &Flow{
		persistence: p,
		registry:    reg,
		validator:   v,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Flow) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create validates and persists a new flow. New flows start inactive; the
// author activates them explicitly once the graph is complete.
func (s *Flow) Create(ctx context.Context, flow *models.Flow) (*models.Flow, error) {
	if flow == nil {
		return nil, ErrFlowNil
	}

	if flow.ID == "" {
		flow.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	flow.CreatedAt = now
	flow.UpdatedAt = now
	flow.IsActive = false

	if err := s.Validate(flow); err != nil {
		return nil, err
	}

	if err := s.persistence.FlowRepository().Save(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to save flow: %w", err)
	}

	return flow, nil
}

// Get returns one flow by id.
func (s *Flow) Get(ctx context.Context, id string) (*models.Flow, error) {
	return s.persistence.FlowRepository().GetByID(ctx, id)
}

// List returns every flow owned by the tenant.
func (s *Flow) List(ctx context.Context, ownerID string) ([]*models.Flow, error) {
	if ownerID == "" {
		return nil, ErrEmptyOwnerID
	}

	return s.persistence.FlowRepository().ListByOwner(ctx, ownerID)
}

// SetActive toggles whether the trigger matcher considers the flow.
// Activation re-validates: the graph may predate a handler schema change.
func (s *Flow) SetActive(ctx context.Context, id string, active bool) (*models.Flow, error) {
	flow, err := s.persistence.FlowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if active {
		if err := s.Validate(flow); err != nil {
			return nil, err
		}
	}

	flow.IsActive = active
	flow.UpdatedAt = time.Now().UTC()

	if err := s.persistence.FlowRepository().Save(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to save flow: %w", err)
	}

	return flow, nil
}

// Validate checks the flow's fields, graph shape and per-node configuration.
func (s *Flow) Validate(flow *models.Flow) error {
	if flow == nil {
		return ErrFlowNil
	}

	if err := s.validator.Struct(flow); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			field := invalid[0]
			if field.Field() == "Name" {
				return ErrFlowNameRequired
			}

			if field.Field() == "Nodes" {
				return ErrNodesRequired
			}
		}

		return &ValidationError{Subject: "flow", Err: fmt.Errorf("%w: %v", ErrInvalidNodeConfig, err)}
	}

	return s.validateGraph(flow)
}

func (s *Flow) validateGraph(flow *models.Flow) error {
	triggers := 0
	nodeIDs := make(map[string]bool, len(flow.Nodes))

	for _, node := range flow.Nodes {
		if nodeIDs[node.ID] {
			return &ValidationError{Subject: node.ID, Err: fmt.Errorf("%w: duplicate node id", ErrInvalidNodeConfig)}
		}

		nodeIDs[node.ID] = true

		if node.Type == models.NodeTypeTrigger {
			triggers++

			continue
		}

		// Unknown node types are allowed through: the executor treats them
		// as an explicit no-op. Registered types must pass their schema.
		err := s.registry.ValidateConfig(node.Type, node.Data)
		if err != nil && !errors.Is(err, registry.ErrUnknownNodeType) {
			return &ValidationError{Subject: node.ID, Err: fmt.Errorf("%w: %v", ErrInvalidNodeConfig, err)}
		}
	}

	if triggers != 1 {
		return ErrTriggerNodeRequired
	}

	for _, edge := range flow.Edges {
		if !nodeIDs[edge.SourceNodeID] || !nodeIDs[edge.TargetNodeID] {
			return &ValidationError{Subject: edge.ID, Err: ErrEdgeDangling}
		}
	}

	return nil
}
