package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is one API consumer. Keys are stored hashed; the raw key is only
// seen at issue time.
type Tenant struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	APIKeyHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
