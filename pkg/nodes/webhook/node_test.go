package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/log"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
)

func testExecution() *models.Execution {
	nodeID := "n-webhook"

	return &models.Execution{
		ID:            "exec-1",
		FlowID:        "flow-1",
		OwnerID:       "owner-1",
		CurrentNodeID: &nodeID,
		State: map[string]any{
			models.StateTriggerDataKey: map[string]any{"name": "Maria"},
			"messageSent":              true,
		},
	}
}

func TestHandler_PostsExecutionSnapshot(t *testing.T) {
	var got map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	factory := NewHandlerFactory()

	handler, err := factory.Create(map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := handler.Execute(t.Context(), testExecution(), log.WithModule("test"))
	require.NoError(t, err)

	assert.Equal(t, true, result.Data["webhookSent"])
	assert.Equal(t, "exec-1", got["executionId"])
	assert.Equal(t, "flow-1", got["flowId"])
	assert.Equal(t, "n-webhook", got["nodeId"])
	assert.NotEmpty(t, got["timestamp"])

	state, ok := got["state"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, state["messageSent"])
}

func TestHandler_DeliveryFailureIsSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	factory := NewHandlerFactory()

	handler, err := factory.Create(map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := handler.Execute(t.Context(), testExecution(), log.WithModule("test"))
	require.NoError(t, err)

	assert.Equal(t, false, result.Data["webhookSent"])
}

func TestHandler_UnreachableURLIsSwallowed(t *testing.T) {
	factory := NewHandlerFactory()

	handler, err := factory.Create(map[string]any{"url": "://broken"})
	require.NoError(t, err)

	result, err := handler.Execute(t.Context(), testExecution(), log.WithModule("test"))
	require.NoError(t, err)

	assert.Equal(t, false, result.Data["webhookSent"])
}

func TestFactory_RequiresURL(t *testing.T) {
	factory := NewHandlerFactory()

	_, err := factory.Create(map[string]any{})
	require.Error(t, err)
}
