package models

import "time"

// ExecutionStatus represents the lifecycle state of an execution.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// StateTriggerDataKey is the key under which the trigger payload snapshot
// lives inside the execution state.
const StateTriggerDataKey = "triggerData"

// Execution is one run of one flow against one trigger occurrence. The row is
// the sole carrier of state between continuation dispatches: every advance
// loads it, applies exactly one node step and stores it back.
type Execution struct {
	ID            string          `json:"id"`
	FlowID        string          `json:"flow_id"`
	OwnerID       string          `json:"owner_id"`
	Status        ExecutionStatus `json:"status"`
	TriggerData   map[string]any  `json:"trigger_data,omitempty"`
	State         map[string]any  `json:"state,omitempty"`
	CurrentNodeID *string         `json:"current_node_id,omitempty"`
	StepCount     int             `json:"step_count"`
	// ResumeAt is set while the execution is suspended waiting on a delay.
	// The watchdog leaves such rows alone until the resume time has passed.
	ResumeAt    *time.Time `json:"resume_at,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MergeState shallow-merges a node's output into the execution state, later
// keys overriding earlier ones.
func (e *Execution) MergeState(output map[string]any) {
	if e.State == nil {
		e.State = make(map[string]any)
	}

	for k, v := range output {
		e.State[k] = v
	}
}

// StateValue resolves a key against the execution state first and the trigger
// data snapshot second. Variable interpolation uses the same precedence.
func (e *Execution) StateValue(key string) (any, bool) {
	if v, ok := e.State[key]; ok {
		return v, true
	}

	if trigger, ok := e.State[StateTriggerDataKey].(map[string]any); ok {
		if v, ok := trigger[key]; ok {
			return v, true
		}
	}

	return nil, false
}

// StateString resolves a key like StateValue and formats it as a string,
// returning false for missing keys.
func (e *Execution) StateString(key string) (string, bool) {
	v, ok := e.StateValue(key)
	if !ok || v == nil {
		return "", false
	}

	if s, ok := v.(string); ok {
		return s, s != ""
	}

	return Stringify(v), true
}
