package messaging

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
)

func testSettings() *models.OwnerSettings {
	return &models.OwnerSettings{
		OwnerID:          "owner-1",
		WhatsAppNumberID: "1234567890",
		WhatsAppToken:    "token-abc",
	}
}

func TestWhatsAppChannel_Send(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody map[string]any
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel := NewWhatsAppChannelWithBaseURL(server.URL)

	err := channel.Send(t.Context(), testSettings(), "+5511999990000", "Olá Maria")
	require.NoError(t, err)

	assert.Equal(t, "/1234567890/messages", gotPath)
	assert.Equal(t, "Bearer token-abc", gotAuth)
	assert.Equal(t, "whatsapp", gotBody["messaging_product"])
	assert.Equal(t, "+5511999990000", gotBody["to"])
	assert.Equal(t, map[string]any{"body": "Olá Maria"}, gotBody["text"])
}

func TestWhatsAppChannel_SendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	channel := NewWhatsAppChannelWithBaseURL(server.URL)

	err := channel.Send(t.Context(), testSettings(), "+5511999990000", "Olá")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestWhatsAppChannel_SendMissingCredentials(t *testing.T) {
	channel := NewWhatsAppChannel()

	err := channel.Send(t.Context(), &models.OwnerSettings{OwnerID: "owner-1"}, "+5511999990000", "Olá")
	require.Error(t, err)

	err = channel.Send(t.Context(), nil, "+5511999990000", "Olá")
	require.Error(t, err)
}
