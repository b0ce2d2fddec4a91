package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKey authenticates evaluation runners against the API. The raw
// key ("eh_" + 48 hex characters) is shown exactly once at creation;
// the row keeps a bcrypt hash plus the 8-character prefix used for
// lookup. Scopes gate operations: "cluster" submits runs, "read"
// fetches reports, "admin" manages keys.
type APIKey struct {
	ID         uuid.UUID  `db:"id"           json:"id"`
	TenantID   uuid.UUID  `db:"tenant_id"    json:"tenant_id"`
	Name       string     `db:"name"         json:"name"`
	KeyHash    string     `db:"key_hash"     json:"-"`
	KeyPrefix  string     `db:"key_prefix"   json:"key_prefix"`
	Scopes     []string   `db:"scopes"       json:"scopes"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	DeletedAt  *time.Time `db:"deleted_at"   json:"-"`
	CreatedAt  time.Time  `db:"created_at"   json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"   json:"updated_at"`
}
