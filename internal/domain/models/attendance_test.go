// File: backend/services/integrity-service/internal/domain/models/attendance_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTransition_FullTable(t *testing.T) {
	states := []AttendanceState{StateVerified, StateFlagged, StateRevoked, StateManualOverride}
	allowed := map[[2]AttendanceState]bool{
		{StateVerified, StateFlagged}:        true,
		{StateVerified, StateRevoked}:        true,
		{StateVerified, StateManualOverride}: true,
		{StateFlagged, StateVerified}:        true,
		{StateFlagged, StateRevoked}:         true,
		{StateRevoked, StateVerified}:        true, // appeal path
		{StateManualOverride, StateVerified}: true,
	}
	for _, from := range states {
		for _, to := range states {
			got := IsValidTransition(from, to)
			assert.Equal(t, allowed[[2]AttendanceState{from, to}], got,
				"transition %s -> %s", from, to)
		}
	}
}

func TestIsValidTransition_SelfAndUnknown(t *testing.T) {
	assert.False(t, IsValidTransition(StateVerified, StateVerified))
	assert.False(t, IsValidTransition("DELETED", StateVerified))
	assert.False(t, IsValidTransition(StateVerified, "DELETED"))
}

func TestKnownState(t *testing.T) {
	assert.True(t, KnownState(StateManualOverride))
	assert.False(t, KnownState("PENDING"))
}
