package delay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/log"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
)

func TestHandler_ReturnsResumeAt(t *testing.T) {
	factory := NewHandlerFactory()

	handler, err := factory.Create(map[string]any{"delayMinutes": 30})
	require.NoError(t, err)

	execution := &models.Execution{ID: "exec-1", State: map[string]any{}}

	result, err := handler.Execute(t.Context(), execution, log.WithModule("test"))
	require.NoError(t, err)

	require.NotNil(t, result.ResumeAt)
	assert.WithinDuration(t, time.Now().UTC().Add(30*time.Minute), *result.ResumeAt, time.Minute)
	assert.InEpsilon(t, 30.0, result.Data["delayMinutes"], 0.001)
}

func TestFactory_Create(t *testing.T) {
	factory := NewHandlerFactory()

	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{name: "integer minutes", config: map[string]any{"delayMinutes": 5}},
		{name: "float minutes", config: map[string]any{"delayMinutes": 0.5}},
		{name: "string minutes", config: map[string]any{"delayMinutes": "10"}},
		{name: "zero is allowed", config: map[string]any{"delayMinutes": 0}},
		{name: "negative rejected", config: map[string]any{"delayMinutes": -1}, wantErr: true},
		{name: "missing rejected", config: map[string]any{}, wantErr: true},
		{name: "non-numeric rejected", config: map[string]any{"delayMinutes": "soon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.Create(tt.config)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
