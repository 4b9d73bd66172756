package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/log"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
)

func testExecution(trigger map[string]any) *models.Execution {
	return &models.Execution{
		ID:      "exec-1",
		OwnerID: "owner-1",
		State:   map[string]any{models.StateTriggerDataKey: trigger},
	}
}

func TestHandler_Compare(t *testing.T) {
	tests := []struct {
		name     string
		config   map[string]any
		trigger  map[string]any
		expected bool
	}{
		{
			name:     "equals matches string",
			config:   map[string]any{"field": "stage", "operator": "equals", "value": "novo"},
			trigger:  map[string]any{"stage": "novo"},
			expected: true,
		},
		{
			name:     "equals coerces numbers",
			config:   map[string]any{"field": "amount", "operator": "equals", "value": 5000},
			trigger:  map[string]any{"amount": float64(5000)},
			expected: true,
		},
		{
			name:     "not_equals",
			config:   map[string]any{"field": "stage", "operator": "not_equals", "value": "novo"},
			trigger:  map[string]any{"stage": "cliente"},
			expected: true,
		},
		{
			name:     "contains",
			config:   map[string]any{"field": "message", "operator": "contains", "value": "agendar"},
			trigger:  map[string]any{"message": "quero agendar hoje"},
			expected: true,
		},
		{
			name:     "greater_than false",
			config:   map[string]any{"field": "amount_cents", "operator": "greater_than", "value": 10000},
			trigger:  map[string]any{"amount_cents": float64(5000)},
			expected: false,
		},
		{
			name:     "greater_than true with string number",
			config:   map[string]any{"field": "amount_cents", "operator": "greater_than", "value": "10000"},
			trigger:  map[string]any{"amount_cents": float64(15000)},
			expected: true,
		},
		{
			name:     "less_than",
			config:   map[string]any{"field": "amount_cents", "operator": "less_than", "value": 10000},
			trigger:  map[string]any{"amount_cents": float64(5000)},
			expected: true,
		},
		{
			name:     "ordering with non-numeric operand is false",
			config:   map[string]any{"field": "amount_cents", "operator": "greater_than", "value": "abc"},
			trigger:  map[string]any{"amount_cents": float64(5000)},
			expected: false,
		},
		{
			name:     "missing field compares as empty",
			config:   map[string]any{"field": "missing", "operator": "equals", "value": ""},
			trigger:  map[string]any{},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewHandler(tt.config)
			require.NoError(t, err)

			result, err := handler.Execute(t.Context(), testExecution(tt.trigger), log.WithModule("test"))
			require.NoError(t, err)

			assert.Equal(t, tt.expected, result.Data["conditionResult"])
		})
	}
}

func TestHandler_SelectorLabelsResult(t *testing.T) {
	handler, err := NewHandler(map[string]any{
		"field": "amount_cents", "operator": "greater_than", "value": 10000,
	})
	require.NoError(t, err)

	result, err := handler.Execute(t.Context(), testExecution(map[string]any{
		"amount_cents": float64(15000),
	}), log.WithModule("test"))
	require.NoError(t, err)

	assert.Equal(t, "true", result.Selector)
	assert.Equal(t, true, result.Data["conditionResult"])
}

func TestHandler_Expression(t *testing.T) {
	handler, err := NewHandler(map[string]any{
		"expression": `trigger.amount_cents > 10000 and trigger.stage == "novo"`,
	})
	require.NoError(t, err)

	result, err := handler.Execute(t.Context(), testExecution(map[string]any{
		"amount_cents": float64(20000),
		"stage":        "novo",
	}), log.WithModule("test"))
	require.NoError(t, err)

	assert.Equal(t, true, result.Data["conditionResult"])
	assert.Equal(t, "true", result.Selector)
}

func TestHandler_ExpressionStateAccess(t *testing.T) {
	handler, err := NewHandler(map[string]any{
		"expression": `state.conditionResult == true`,
	})
	require.NoError(t, err)

	execution := testExecution(map[string]any{})
	execution.State["conditionResult"] = true

	result, err := handler.Execute(t.Context(), execution, log.WithModule("test"))
	require.NoError(t, err)
	assert.Equal(t, true, result.Data["conditionResult"])
}

func TestNewHandler_RequiresFieldOrExpression(t *testing.T) {
	_, err := NewHandler(map[string]any{})
	require.Error(t, err)
}

func TestHandler_UnsupportedOperator(t *testing.T) {
	handler, err := NewHandler(map[string]any{"field": "x", "operator": "regex", "value": "y"})
	require.NoError(t, err)

	_, err = handler.Execute(t.Context(), testExecution(map[string]any{"x": "y"}), log.WithModule("test"))
	require.Error(t, err)
}
