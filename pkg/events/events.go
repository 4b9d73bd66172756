// Package events defines the event types that carry flow executions across
// asynchronous, stateless invocations.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
)

type EventType string

// Topic is the event bus topic all engine events travel on.
const Topic = "flows.executions"

const EventKeyMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	NodeActivationEvent     EventType = "execution.node.activation"
	NodeCompletionEvent     EventType = "execution.node.completion"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	FlowID    string         `json:"flow_id"`
	OwnerID   string         `json:"owner_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, flowID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		FlowID:    flowID,
		Metadata:  make(map[string]any),
	}
}

// ExecutionStarted is published once per matched flow when a trigger fires.
type ExecutionStarted struct {
	BaseEvent

	ExecutionID string             `json:"execution_id"`
	TriggerType models.TriggerType `json:"trigger_type"`
	TriggerData map[string]any     `json:"trigger_data,omitempty"`
}

func (e ExecutionStarted) GetType() EventType { return ExecutionStartedEvent }

// NodeActivation is the continuation: it addresses one node step of one
// execution. Step is the execution's step counter at publish time; the
// coordinator applies the activation only when it still matches, which makes
// duplicate re-dispatch harmless.
type NodeActivation struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	Step        int    `json:"step"`
}

func (e NodeActivation) GetType() EventType { return NodeActivationEvent }

// NodeCompletion reports the audited outcome of one node step.
type NodeCompletion struct {
	BaseEvent

	ExecutionID  string           `json:"execution_id"`
	NodeID       string           `json:"node_id"`
	NodeType     string           `json:"node_type"`
	Status       models.LogStatus `json:"status"`
	OutputData   map[string]any   `json:"output_data,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	DurationMs   int64            `json:"duration_ms"`
}

func (e NodeCompletion) GetType() EventType { return NodeCompletionEvent }

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID   string `json:"execution_id"`
	NodesExecuted int    `json:"nodes_executed"`
	DurationMs    int64  `json:"duration_ms"`
}

func (e ExecutionCompleted) GetType() EventType { return ExecutionCompletedEvent }

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id,omitempty"`
	Error       string `json:"error"`
}

func (e ExecutionFailed) GetType() EventType { return ExecutionFailedEvent }
