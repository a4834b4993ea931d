// File: backend/services/integrity-service/internal/domain/models/audit_log_test.go
package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() *AuditLogEntry {
	just := "manual override approved by supervisor"
	reqID := "req-777"
	return &AuditLogEntry{
		ID:            uuid.MustParse("3f1a8a52-9a31-4f0e-9d9c-65b85f41a111"),
		TenantID:      uuid.MustParse("9d3c1f9e-1111-4a6b-8a60-3f6f2f9e2222"),
		ActorID:       uuid.MustParse("5b7e8d10-2222-4c3d-9e4f-1a2b3c4d3333"),
		ActorRole:     RoleManager,
		Action:        "attendance.transition",
		Scope:         ScopeUser,
		ResourceType:  "attendance_record",
		ResourceID:    "a47bf5da-4444-4e5f-8899-aabbccdd5555",
		BeforeState:   &Snapshot{SchemaVersion: 1, Data: json.RawMessage(`{"state":"VERIFIED"}`)},
		AfterState:    &Snapshot{SchemaVersion: 1, Data: json.RawMessage(`{"state":"MANUAL_OVERRIDE"}`)},
		Justification: &just,
		RequestID:     &reqID,
		CreatedAt:     time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC),
	}
}

func TestComputeChecksum_Deterministic(t *testing.T) {
	e := sampleEntry()
	first, err := e.ComputeChecksum()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := e.ComputeChecksum()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Len(t, first, 64) // sha-256 hex
}

func TestVerifyChecksum_DetectsFieldTampering(t *testing.T) {
	mutations := map[string]func(*AuditLogEntry){
		"action":      func(e *AuditLogEntry) { e.Action = "attendance.submit" },
		"actor":       func(e *AuditLogEntry) { e.ActorID = uuid.New() },
		"tenant":      func(e *AuditLogEntry) { e.TenantID = uuid.New() },
		"scope":       func(e *AuditLogEntry) { e.Scope = ScopeGlobal },
		"after state": func(e *AuditLogEntry) { e.AfterState.Data = json.RawMessage(`{"state":"REVOKED"}`) },
		"timestamp":   func(e *AuditLogEntry) { e.CreatedAt = e.CreatedAt.Add(time.Second) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			e := sampleEntry()
			sum, err := e.ComputeChecksum()
			require.NoError(t, err)
			e.Checksum = sum

			mutate(e)
			ok, err := e.VerifyChecksum()
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerifyChecksum_IgnoresClientMetadata(t *testing.T) {
	e := sampleEntry()
	sum, err := e.ComputeChecksum()
	require.NoError(t, err)
	e.Checksum = sum

	// Evidentiary context, not attested state: changing it must not break
	// verification.
	ip := "10.0.0.9"
	ua := "different-agent/2.0"
	e.ClientIP = &ip
	e.UserAgent = &ua

	ok, err := e.VerifyChecksum()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestScopeAllows(t *testing.T) {
	assert.True(t, ScopeGlobal.Allows(RoleSuperadmin))
	assert.False(t, ScopeGlobal.Allows(RoleTenantAdmin))
	assert.True(t, ScopeTenant.Allows(RoleTenantAdmin))
	assert.False(t, ScopeTenant.Allows(RoleManager))
	assert.True(t, ScopeUser.Allows(RoleGuest))
	assert.False(t, ScopeUser.Allows("intruder"))
}
