package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionHandler(t *testing.T, gotRequest *map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(gotRequest))

		response := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Claro, posso ajudar!"}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}
}

func TestOpenAIProvider_Complete(t *testing.T) {
	var gotRequest map[string]any

	server := httptest.NewServer(completionHandler(t, &gotRequest))
	defer server.Close()

	provider := NewOpenAIProviderWithURL(server.URL)

	response, err := provider.Complete(t.Context(), "sk-test", "gpt-4o", "Você é uma assistente.", "Quais horários?")
	require.NoError(t, err)
	assert.Equal(t, "Claro, posso ajudar!", response)

	assert.Equal(t, "gpt-4o", gotRequest["model"])

	messages, ok := gotRequest["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "Você é uma assistente."}, messages[0])
	assert.Equal(t, map[string]any{"role": "user", "content": "Quais horários?"}, messages[1])
}

func TestOpenAIProvider_DefaultModel(t *testing.T) {
	var gotRequest map[string]any

	server := httptest.NewServer(completionHandler(t, &gotRequest))
	defer server.Close()

	provider := NewOpenAIProviderWithURL(server.URL)

	_, err := provider.Complete(t.Context(), "sk-test", "", "prompt", "oi")
	require.NoError(t, err)
	assert.Equal(t, defaultModel, gotRequest["model"])
}

func TestOpenAIProvider_MissingAPIKey(t *testing.T) {
	provider := NewOpenAIProvider()

	_, err := provider.Complete(t.Context(), "", "gpt-4o", "prompt", "oi")
	require.Error(t, err)
}

func TestOpenAIProvider_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewOpenAIProviderWithURL(server.URL)

	_, err := provider.Complete(t.Context(), "sk-test", "gpt-4o", "prompt", "oi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProviderWithURL(server.URL)

	_, err := provider.Complete(t.Context(), "sk-test", "gpt-4o", "prompt", "oi")
	require.Error(t, err)
}
