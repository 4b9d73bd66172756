package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func branchingFlow() *Flow {
	return &Flow{
		ID:   "flow-1",
		Name: "Qualificação",
		Nodes: []*Node{
			{ID: "trigger-1", Type: NodeTypeTrigger},
			{ID: "n-check", Type: NodeTypeCondition},
			{ID: "n-high", Type: NodeTypeMessage},
			{ID: "n-low", Type: NodeTypeMessage},
		},
		Edges: []*Edge{
			{ID: "e-1", SourceNodeID: "trigger-1", TargetNodeID: "n-check"},
			{ID: "e-2", SourceNodeID: "n-check", TargetNodeID: "n-high", Selector: "true"},
			{ID: "e-3", SourceNodeID: "n-check", TargetNodeID: "n-low", Selector: "false"},
		},
	}
}

func TestFlow_NextEdge(t *testing.T) {
	flow := branchingFlow()

	tests := []struct {
		name       string
		nodeID     string
		selector   string
		wantTarget string
		wantNil    bool
	}{
		{name: "labeled edge wins", nodeID: "n-check", selector: "true", wantTarget: "n-high"},
		{name: "other label", nodeID: "n-check", selector: "false", wantTarget: "n-low"},
		{name: "unlabeled fallback", nodeID: "trigger-1", selector: "", wantTarget: "n-check"},
		{name: "selector without label falls back to unlabeled", nodeID: "trigger-1", selector: "true", wantTarget: "n-check"},
		{name: "no outgoing edge", nodeID: "n-high", wantNil: true},
		{name: "unmatched selector and no unlabeled edge", nodeID: "n-check", selector: "maybe", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edge := flow.NextEdge(tt.nodeID, tt.selector)
			if tt.wantNil {
				assert.Nil(t, edge)

				return
			}

			require.NotNil(t, edge)
			assert.Equal(t, tt.wantTarget, edge.TargetNodeID)
		})
	}
}

func TestFlow_NextEdgePrefersLabelOverDefinitionOrder(t *testing.T) {
	flow := &Flow{
		Edges: []*Edge{
			{ID: "e-1", SourceNodeID: "n-check", TargetNodeID: "n-default"},
			{ID: "e-2", SourceNodeID: "n-check", TargetNodeID: "n-labeled", Selector: "true"},
		},
	}

	edge := flow.NextEdge("n-check", "true")
	require.NotNil(t, edge)
	assert.Equal(t, "n-labeled", edge.TargetNodeID)
}

func TestFlow_TriggerNode(t *testing.T) {
	flow := branchingFlow()

	node := flow.TriggerNode()
	require.NotNil(t, node)
	assert.Equal(t, "trigger-1", node.ID)

	flow.Nodes = flow.Nodes[1:]
	assert.Nil(t, flow.TriggerNode())
}

func TestNode_FailurePolicyOrDefault(t *testing.T) {
	assert.Equal(t, FailurePolicyContinue, (&Node{}).FailurePolicyOrDefault())
	assert.Equal(t, FailurePolicyContinue, (&Node{OnFailure: "bogus"}).FailurePolicyOrDefault())
	assert.Equal(t, FailurePolicyHalt, (&Node{OnFailure: FailurePolicyHalt}).FailurePolicyOrDefault())
}
