// Package models defines the core domain models for automation flow execution.
package models

import "time"

// TriggerType identifies the event class that starts a flow.
type TriggerType string

const (
	TriggerTypeKeyword TriggerType = "keyword" // Inbound message containing a configured keyword
	TriggerTypeEvent   TriggerType = "event"   // Named business event (appointment_created, payment_approved, ...)
	TriggerTypeWebhook TriggerType = "webhook" // Generic inbound webhook, the URL is the selector
)

// Built-in node types. The trigger node is structural and never executed.
const (
	NodeTypeTrigger   = "trigger"
	NodeTypeMessage   = "message"
	NodeTypeDelay     = "delay"
	NodeTypeCondition = "condition"
	NodeTypeCRM       = "crm"
	NodeTypeCalendar  = "calendar"
	NodeTypeCheckout  = "checkout"
	NodeTypeAPI       = "api"
	NodeTypeWebhook   = "webhook"
	NodeTypeAIAgent   = "ai_agent"
)

// FailurePolicy controls what the coordinator does when a node fails.
type FailurePolicy string

const (
	FailurePolicyContinue FailurePolicy = "continue" // Log the failure and follow the next edge (default)
	FailurePolicyHalt     FailurePolicy = "halt"     // Mark the execution failed and stop
)

// Flow is a tenant-owned automation definition: a trigger plus a node graph.
type Flow struct {
	ID            string         `json:"id"`
	OwnerID       string         `json:"owner_id"       validate:"required"`
	Name          string         `json:"name"           validate:"required,min=3"`
	IsActive      bool           `json:"is_active"`
	TriggerType   TriggerType    `json:"trigger_type"   validate:"required,oneof=keyword event webhook"`
	TriggerConfig map[string]any `json:"trigger_config"`
	Nodes         []*Node        `json:"nodes"          validate:"required,min=1,dive"`
	Edges         []*Edge        `json:"edges"          validate:"dive"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Node is one step in a flow with a type tag and type-specific configuration.
type Node struct {
	ID        string         `json:"id"                   validate:"required"`
	Type      string         `json:"type"                 validate:"required"`
	Name      string         `json:"name,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	OnFailure FailurePolicy  `json:"on_failure,omitempty"`
}

// Edge is a directed link between two nodes. Selector optionally labels the
// edge; the coordinator prefers an edge whose selector matches the result of
// the just-executed node and falls back to the unlabeled edge.
type Edge struct {
	ID           string `json:"id"`
	SourceNodeID string `json:"source_node_id" validate:"required"`
	TargetNodeID string `json:"target_node_id" validate:"required"`
	Selector     string `json:"selector,omitempty"`
}

// FailurePolicyOrDefault returns the node's failure policy, defaulting to continue.
func (n *Node) FailurePolicyOrDefault() FailurePolicy {
	if n.OnFailure == FailurePolicyHalt {
		return FailurePolicyHalt
	}

	return FailurePolicyContinue
}

// TriggerNode returns the flow's structural trigger node, or nil.
func (f *Flow) TriggerNode() *Node {
	for _, node := range f.Nodes {
		if node.Type == NodeTypeTrigger {
			return node
		}
	}

	return nil
}

// NodeByID returns the node with the given id, or nil.
func (f *Flow) NodeByID(id string) *Node {
	for _, node := range f.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// EdgesFrom returns every edge whose source is the given node, preserving
// definition order.
func (f *Flow) EdgesFrom(nodeID string) []*Edge {
	var edges []*Edge

	for _, edge := range f.Edges {
		if edge.SourceNodeID == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// NextEdge resolves the edge to follow out of a node. When selector is not
// empty the labeled edge wins; the unlabeled edge is the fallback either way.
func (f *Flow) NextEdge(nodeID, selector string) *Edge {
	var fallback *Edge

	for _, edge := range f.EdgesFrom(nodeID) {
		if selector != "" && edge.Selector == selector {
			return edge
		}

		if edge.Selector == "" && fallback == nil {
			fallback = edge
		}
	}

	return fallback
}
