package template

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
)

func execution(state, trigger map[string]any) *models.Execution {
	if state == nil {
		state = map[string]any{}
	}

	state[models.StateTriggerDataKey] = trigger

	return &models.Execution{
		ID:    "exec-1",
		State: state,
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		state    map[string]any
		trigger  map[string]any
		expected string
	}{
		{
			name:     "no placeholders is returned unchanged",
			input:    "Olá, tudo bem?",
			expected: "Olá, tudo bem?",
		},
		{
			name:     "resolves from trigger data",
			input:    "Olá {name}",
			trigger:  map[string]any{"name": "Maria"},
			expected: "Olá Maria",
		},
		{
			name:     "state wins over trigger data",
			input:    "Olá {name}",
			state:    map[string]any{"name": "Ana"},
			trigger:  map[string]any{"name": "Maria"},
			expected: "Olá Ana",
		},
		{
			name:     "unresolved placeholder is left verbatim",
			input:    "Olá {name}, código {code}",
			trigger:  map[string]any{"name": "Maria"},
			expected: "Olá Maria, código {code}",
		},
		{
			name:     "numeric values render without decimals when integral",
			input:    "Valor: {amount_cents}",
			trigger:  map[string]any{"amount_cents": float64(5000)},
			expected: "Valor: 5000",
		},
		{
			name:     "substituted values are not scanned again",
			input:    "{outer}",
			state:    map[string]any{"outer": "{inner}", "inner": "x"},
			expected: "{inner}",
		},
		{
			name:     "case sensitive",
			input:    "{Name}",
			trigger:  map[string]any{"name": "Maria"},
			expected: "{Name}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.input, execution(tt.state, tt.trigger))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRenderIsIdempotentWithoutPlaceholders(t *testing.T) {
	exec := execution(nil, map[string]any{"name": "Maria"})

	once := Render("Olá Maria", exec)
	twice := Render(once, exec)

	assert.Equal(t, once, twice)
}

func TestRenderMap(t *testing.T) {
	exec := execution(nil, map[string]any{"name": "Maria", "phone": "5511999998888"})

	rendered := RenderMap(map[string]any{
		"note":  "contato de {name}",
		"count": 3,
	}, exec)

	assert.Equal(t, "contato de Maria", rendered["note"])
	assert.Equal(t, 3, rendered["count"])
}
