package file

import (
	"context"
	"time"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
)

const flowsDir = "flows"

// FlowRepository stores one JSON document per flow under flows/.
type FlowRepository struct {
	p *Persistence
}

func (r *FlowRepository) Save(_ context.Context, flow *models.Flow) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = time.Now().UTC()
	}

	flow.UpdatedAt = time.Now().UTC()

	return r.p.writeDoc(flowsDir, flow.ID, flow)
}

func (r *FlowRepository) GetByID(_ context.Context, id string) (*models.Flow, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var flow models.Flow

	found, err := r.p.readDoc(flowsDir, id, &flow)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrFlowNotFound
	}

	return &flow, nil
}

func (r *FlowRepository) ListByOwner(_ context.Context, ownerID string) ([]*models.Flow, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	all, err := readAll[models.Flow](r.p, flowsDir)
	if err != nil {
		return nil, err
	}

	var flows []*models.Flow

	for _, flow := range all {
		if flow.OwnerID == ownerID {
			flows = append(flows, flow)
		}
	}

	return flows, nil
}

func (r *FlowRepository) ListActiveByTrigger(ctx context.Context, ownerID string, triggerType models.TriggerType) ([]*models.Flow, error) {
	owned, err := r.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var flows []*models.Flow

	for _, flow := range owned {
		if flow.IsActive && flow.TriggerType == triggerType {
			flows = append(flows, flow)
		}
	}

	return flows, nil
}
