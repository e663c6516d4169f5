package domain

import (
	"time"

	"github.com/google/uuid"
)

// Agent is one evaluated message author. Rows are created lazily on first
// evaluation; ExternalID is the caller's identifier and the key used across
// the scoring API.
type Agent struct {
	ID              uuid.UUID  `json:"id"`
	TenantID        uuid.UUID  `json:"tenant_id,omitempty"`
	ExternalID      string     `json:"agent_id"`
	Name            string     `json:"name,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	LastEvaluatedAt *time.Time `json:"last_evaluated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
