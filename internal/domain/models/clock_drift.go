// File: backend/services/integrity-service/internal/domain/models/clock_drift.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// DeviceClass groups clients by how trustworthy their clocks tend to be.
// Severity bands are configured per class.
type DeviceClass string

const (
	DeviceManaged DeviceClass = "managed" // tenant-administered kiosks/terminals
	DeviceMobile  DeviceClass = "mobile"
	DeviceBrowser DeviceClass = "browser"
)

// DriftSeverity classifies client/server clock divergence.
type DriftSeverity string

const (
	DriftAcceptable DriftSeverity = "ACCEPTABLE"
	DriftWarning    DriftSeverity = "WARNING"
	DriftCritical   DriftSeverity = "CRITICAL"
	DriftBlocked    DriftSeverity = "BLOCKED"
)

// DriftBands holds the severity thresholds in seconds of absolute drift.
// Warning and Critical are inclusive lower bounds of their bands; Block is
// the hard ceiling, and anything beyond it is BLOCKED. A drift exactly at
// WarningSeconds therefore classifies WARNING, one second below ACCEPTABLE,
// and one second beyond BlockSeconds is BLOCKED.
type DriftBands struct {
	WarningSeconds  int64 `yaml:"warning_seconds" env-default:"30"`
	CriticalSeconds int64 `yaml:"critical_seconds" env-default:"180"`
	BlockSeconds    int64 `yaml:"block_seconds" env-default:"600"`
}

// Classify maps an absolute drift to its severity band.
func (b DriftBands) Classify(absDriftSeconds int64) DriftSeverity {
	switch {
	case absDriftSeconds > b.BlockSeconds:
		return DriftBlocked
	case absDriftSeconds >= b.CriticalSeconds:
		return DriftCritical
	case absDriftSeconds >= b.WarningSeconds:
		return DriftWarning
	default:
		return DriftAcceptable
	}
}

// ClockDriftEvent is one row of the append-only drift log. Every
// classification is recorded regardless of outcome; this log is the
// evidentiary basis for dispute resolution.
type ClockDriftEvent struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	TenantID     uuid.UUID     `json:"tenant_id" db:"tenant_id"`
	UserID       uuid.UUID     `json:"user_id" db:"user_id"`
	DeviceClass  DeviceClass   `json:"device_class" db:"device_class"`
	ClientTime   time.Time     `json:"client_time" db:"client_time"`
	ServerTime   time.Time     `json:"server_time" db:"server_time"`
	DriftSeconds int64         `json:"drift_seconds" db:"drift_seconds"` // signed: positive = client ahead
	Severity     DriftSeverity `json:"severity" db:"severity"`
	Blocked      bool          `json:"blocked" db:"blocked"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

// DriftClassification is the outcome of a single classification call.
type DriftClassification struct {
	DriftSeconds int64
	Severity     DriftSeverity
	Blocked      bool
}
