// File: backend/services/integrity-service/internal/domain/models/audit_log.go
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditActionScope constrains which actor roles may produce an entry.
type AuditActionScope string

const (
	ScopeGlobal AuditActionScope = "GLOBAL"
	ScopeTenant AuditActionScope = "TENANT"
	ScopeUser   AuditActionScope = "USER"
)

// Allows reports whether role may append an entry with this scope. GLOBAL is
// superadmin-only; TENANT additionally admits tenant admins; USER admits any
// known role.
func (s AuditActionScope) Allows(role RoleID) bool {
	switch s {
	case ScopeGlobal:
		return role == RoleSuperadmin
	case ScopeTenant:
		return role == RoleSuperadmin || role == RoleTenantAdmin
	case ScopeUser:
		_, ok := RolePermissions[role]
		return ok
	default:
		return false
	}
}

// Snapshot is a versioned serialized blob of an entity's state before or
// after a change. The schema version tag lets forensic tooling interpret
// old entries after the entity shape evolves.
type Snapshot struct {
	SchemaVersion int             `json:"schema_version"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// AuditLogEntry is one row of the append-only, tamper-evident ledger.
// Aligned with the 'audit_logs' table. Once created it is never updated or
// deleted; the checksum is computed at write time and never recomputed.
type AuditLogEntry struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	TenantID      uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	ActorID       uuid.UUID        `json:"actor_id" db:"actor_id"`
	ActorRole     RoleID           `json:"actor_role" db:"actor_role"`
	Action        string           `json:"action" db:"action"` // e.g. "attendance.transition", "role.assign"
	Scope         AuditActionScope `json:"scope" db:"scope"`
	ResourceType  string           `json:"resource_type" db:"resource_type"`
	ResourceID    string           `json:"resource_id" db:"resource_id"`
	BeforeState   *Snapshot        `json:"before_state,omitempty" db:"before_state"`
	AfterState    *Snapshot        `json:"after_state,omitempty" db:"after_state"`
	Justification *string          `json:"justification,omitempty" db:"justification"`
	RequestID     *string          `json:"request_id,omitempty" db:"request_id"`
	ClientIP      *string          `json:"client_ip,omitempty" db:"client_ip"`
	UserAgent     *string          `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	Checksum      string           `json:"checksum" db:"checksum"`
}

// checksumPayload is exactly what gets hashed. Fully deterministic: no maps,
// only primitives in declaration order.
type checksumPayload struct {
	ID            string           `json:"id"`
	TenantID      string           `json:"tenant_id"`
	ActorID       string           `json:"actor_id"`
	ActorRole     RoleID           `json:"actor_role"`
	Action        string           `json:"action"`
	Scope         AuditActionScope `json:"scope"`
	ResourceType  string           `json:"resource_type"`
	ResourceID    string           `json:"resource_id"`
	BeforeState   *Snapshot        `json:"before_state,omitempty"`
	AfterState    *Snapshot        `json:"after_state,omitempty"`
	Justification string           `json:"justification,omitempty"`
	RequestID     string           `json:"request_id,omitempty"`
	CreatedAtUnix int64            `json:"created_at_unix_nano"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ComputeChecksum hashes the entry's canonical fields with SHA-256 and
// returns the hex digest. Client metadata (ip, user agent) is excluded: it
// is evidentiary context, not part of the attested state change.
func (e *AuditLogEntry) ComputeChecksum() (string, error) {
	p := checksumPayload{
		ID:            e.ID.String(),
		TenantID:      e.TenantID.String(),
		ActorID:       e.ActorID.String(),
		ActorRole:     e.ActorRole,
		Action:        e.Action,
		Scope:         e.Scope,
		ResourceType:  e.ResourceType,
		ResourceID:    e.ResourceID,
		BeforeState:   e.BeforeState,
		AfterState:    e.AfterState,
		Justification: deref(e.Justification),
		RequestID:     deref(e.RequestID),
		CreatedAtUnix: e.CreatedAt.UnixNano(),
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyChecksum recomputes the canonical hash and compares it to the stored
// one. A mismatch means the row was tampered with after the fact.
func (e *AuditLogEntry) VerifyChecksum() (bool, error) {
	want, err := e.ComputeChecksum()
	if err != nil {
		return false, err
	}
	return want == e.Checksum, nil
}

// AppendAuditEntryRequest carries the caller-supplied part of a ledger entry;
// identity, timestamps and checksum are filled in by the ledger service.
type AppendAuditEntryRequest struct {
	Action        string           `validate:"required"`
	Scope         AuditActionScope `validate:"required,oneof=GLOBAL TENANT USER"`
	ResourceType  string           `validate:"required"`
	ResourceID    string           `validate:"required"`
	BeforeState   *Snapshot
	AfterState    *Snapshot
	Justification *string
}
