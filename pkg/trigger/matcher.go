// Package trigger selects the active flows whose trigger configuration
// matches an inbound event.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
)

type Matcher struct {
	flows  persistence.FlowRepository
	logger *slog.Logger
}

func NewMatcher(flows persistence.FlowRepository, logger *slog.Logger) *Matcher {
	return &Matcher{
		flows:  flows,
		logger: logger.With("module", "trigger_matcher"),
	}
}

// Match returns the owner's active flows of the given trigger type whose
// per-type predicate accepts the payload, preserving store order. A flow
// with a malformed trigger configuration is skipped with a warning; it never
// aborts matching for the other flows.
func (m *Matcher) Match(ctx context.Context, ownerID string, triggerType models.TriggerType, payload map[string]any) ([]*models.Flow, error) {
	candidates, err := m.flows.ListActiveByTrigger(ctx, ownerID, triggerType)
	if err != nil {
		return nil, fmt.Errorf("listing flows for owner %s: %w", ownerID, err)
	}

	matched := make([]*models.Flow, 0, len(candidates))

	for _, flow := range candidates {
		ok, err := matches(flow, payload)
		if err != nil {
			m.logger.Warn("Skipping flow with malformed trigger config",
				"flow_id", flow.ID, "trigger_type", triggerType, "error", err)

			continue
		}

		if ok {
			matched = append(matched, flow)
		}
	}

	return matched, nil
}

func matches(flow *models.Flow, payload map[string]any) (bool, error) {
	switch flow.TriggerType {
	case models.TriggerTypeKeyword:
		return matchesKeyword(flow, payload)
	case models.TriggerTypeEvent:
		return matchesEvent(flow, payload)
	case models.TriggerTypeWebhook:
		// The webhook URL itself is the selector, enforced upstream.
		return true, nil
	default:
		return false, fmt.Errorf("unknown trigger type %q", flow.TriggerType)
	}
}

// matchesKeyword accepts the payload when the incoming message contains any
// configured keyword as a case-insensitive substring. An empty keyword list
// never matches.
func matchesKeyword(flow *models.Flow, payload map[string]any) (bool, error) {
	raw, ok := flow.TriggerConfig["keywords"]
	if !ok {
		return false, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return false, fmt.Errorf("'keywords' must be a list, got %T", raw)
	}

	message, _ := payload["message"].(string)
	message = strings.ToLower(message)

	for _, entry := range list {
		keyword, ok := entry.(string)
		if !ok {
			return false, fmt.Errorf("keyword entries must be strings, got %T", entry)
		}

		if keyword != "" && strings.Contains(message, strings.ToLower(keyword)) {
			return true, nil
		}
	}

	return false, nil
}

func matchesEvent(flow *models.Flow, payload map[string]any) (bool, error) {
	configured, ok := flow.TriggerConfig["event"].(string)
	if !ok || configured == "" {
		return false, fmt.Errorf("'event' must be a non-empty string")
	}

	event, _ := payload["event"].(string)

	return event == configured, nil
}
