// File: backend/services/integrity-service/internal/domain/models/incident_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidIncidentTransition(t *testing.T) {
	assert.True(t, IsValidIncidentTransition(IncidentOpen, IncidentAcknowledged))
	assert.True(t, IsValidIncidentTransition(IncidentOpen, IncidentResolved))
	assert.True(t, IsValidIncidentTransition(IncidentResolved, IncidentClosed))

	// CLOSED is only reachable from RESOLVED.
	assert.False(t, IsValidIncidentTransition(IncidentOpen, IncidentClosed))
	assert.False(t, IsValidIncidentTransition(IncidentAcknowledged, IncidentClosed))
	assert.False(t, IsValidIncidentTransition(IncidentInvestigating, IncidentClosed))

	// No going backwards, no leaving CLOSED.
	assert.False(t, IsValidIncidentTransition(IncidentResolved, IncidentInvestigating))
	assert.False(t, IsValidIncidentTransition(IncidentClosed, IncidentOpen))
}

func TestIsOpenIncidentStatus(t *testing.T) {
	assert.True(t, IsOpenIncidentStatus(IncidentOpen))
	assert.True(t, IsOpenIncidentStatus(IncidentInvestigating))
	assert.False(t, IsOpenIncidentStatus(IncidentResolved))
	assert.False(t, IsOpenIncidentStatus(IncidentClosed))
}

func TestMaxSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, MaxSeverity(SeverityLow, SeverityCritical))
	assert.Equal(t, SeverityHigh, MaxSeverity(SeverityHigh, SeverityMedium))
	assert.Equal(t, SeverityLow, MaxSeverity(SeverityLow, SeverityLow))
}
