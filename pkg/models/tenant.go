package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the isolation boundary: API keys, jobs, and reports all
// hang off one. A fresh install seeds a single "default" tenant.
type Tenant struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
