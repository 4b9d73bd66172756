package apicall

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

func testExecution(trigger map[string]any) *models.Execution {
	return &models.Execution{
		ID:      "exec-1",
		OwnerID: "owner-1",
		State:   map[string]any{models.StateTriggerDataKey: trigger},
	}
}

func TestHandler_GetParsesJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	factory := NewHandlerFactory()

	handler, err := factory.Create(map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := handler.Execute(t.Context(), testExecution(map[string]any{}), log.WithModule("test"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.Data["statusCode"])

	response, ok := result.Data["response"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, response["ok"])
}

func TestHandler_PostRendersBodyAndHeaders(t *testing.T) {
	var (
		gotBody   []byte
		gotHeader string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHeader = r.Header.Get("X-Contact")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"42"}`))
	}))
	defer server.Close()

	factory := NewHandlerFactory()

	handler, err := factory.Create(map[string]any{
		"method":  "POST",
		"url":     server.URL + "/contacts",
		"headers": map[string]any{"X-Contact": "{phone}"},
		"body":    `{"name":"{name}"}`,
	})
	require.NoError(t, err)

	result, err := handler.Execute(t.Context(), testExecution(map[string]any{
		"name":  "Maria",
		"phone": "5511999998888",
	}), log.WithModule("test"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, result.Data["statusCode"])
	assert.JSONEq(t, `{"name":"Maria"}`, string(gotBody))
	assert.Equal(t, "5511999998888", gotHeader)
}

func TestHandler_NonJSONResponseKeptAsString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	defer server.Close()

	factory := NewHandlerFactory()

	handler, err := factory.Create(map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := handler.Execute(t.Context(), testExecution(map[string]any{}), log.WithModule("test"))
	require.NoError(t, err)

	assert.Equal(t, "pong", result.Data["response"])
}

func TestHandler_NetworkErrorFailsNode(t *testing.T) {
	factory := NewHandlerFactory()

	handler, err := factory.Create(map[string]any{"url": "://broken"})
	require.NoError(t, err)

	_, err = handler.Execute(t.Context(), testExecution(map[string]any{}), log.WithModule("test"))
	require.Error(t, err)
}

func TestFactory_RequiresURL(t *testing.T) {
	factory := NewHandlerFactory()

	_, err := factory.Create(map[string]any{"method": "GET"})
	require.Error(t, err)
}
