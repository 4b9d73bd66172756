package models

// OwnerSettings carries the per-tenant credentials the node handlers need:
// the messaging channel identity, the AI completion provider key and the base
// URL checkout links are built on.
type OwnerSettings struct {
	OwnerID          string `json:"owner_id"`
	WhatsAppNumberID string `json:"whatsapp_number_id,omitempty"`
	WhatsAppToken    string `json:"whatsapp_token,omitempty"`
	AIAPIKey         string `json:"ai_api_key,omitempty"`
	AIModel          string `json:"ai_model,omitempty"`
	CheckoutBaseURL  string `json:"checkout_base_url,omitempty"`
}
