package models

import "time"

// Lead is a CRM contact record owned by a tenant.
type Lead struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LeadPatch is a partial update applied to a lead by the crm node. Nil fields
// are left untouched; AddTags appends, AppendNote concatenates.
type LeadPatch struct {
	Stage      *string  `json:"stage,omitempty"`
	AddTags    []string `json:"add_tags,omitempty"`
	AppendNote *string  `json:"append_note,omitempty"`
}
