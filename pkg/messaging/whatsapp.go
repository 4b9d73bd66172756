package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v19.0"

// WhatsAppChannel sends text messages through the WhatsApp Cloud API using
// the tenant's own number id and token.
type WhatsAppChannel struct {
	baseURL string
	client  *http.Client
}

func NewWhatsAppChannel() *WhatsAppChannel {
	return &WhatsAppChannel{
		baseURL: defaultGraphBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWhatsAppChannelWithBaseURL is used by tests to point at a local server.
func NewWhatsAppChannelWithBaseURL(baseURL string) *WhatsAppChannel {
	channel := NewWhatsAppChannel()
	channel.baseURL = baseURL

	return channel
}

func (c *WhatsAppChannel) Send(ctx context.Context, settings *models.OwnerSettings, to, text string) error {
	if settings == nil || settings.WhatsAppNumberID == "" || settings.WhatsAppToken == "" {
		return errors.New("owner has no messaging channel configured")
	}

	payload, err := json.Marshal(map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": text},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, settings.WhatsAppNumberID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create send request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+settings.WhatsAppToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("message send failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("message send failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
