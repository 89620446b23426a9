// Package models holds the plain domain entities shared across the
// coordinator, policy, storage, and telemetry packages.
package models

import (
	"time"

	"github.com/example/fleetctl/internal/geo"
)

// VehicleKind tags which concrete vehicle variant a Vehicle carries.
type VehicleKind string

const (
	KindBicycle VehicleKind = "bicycle"
	KindScooter VehicleKind = "scooter"
	KindMoped   VehicleKind = "moped"
)

// VehicleState is the vehicle's position in the state machine (see
// internal/statemachine for the transition table).
type VehicleState string

const (
	StateAvailable      VehicleState = "AVAILABLE"
	StateReserved       VehicleState = "RESERVED"
	StateInUse          VehicleState = "IN_USE"
	StateMaintenance    VehicleState = "MAINTENANCE"
	StateEmergencyLock  VehicleState = "EMERGENCY_LOCK"
	StateRelocating     VehicleState = "RELOCATING"
)

// Vehicle is the authoritative record for one fleet vehicle. HelmetDetected
// is only meaningful when Kind == KindMoped; it is carried on every
// vehicle (rather than in a separate variant struct) because the
// coordinator and storage layers need a single flat, serializable shape,
// but policies only ever consult it for mopeds.
type Vehicle struct {
	ID             string       `json:"id"`
	Kind           VehicleKind  `json:"kind"`
	City           string       `json:"city"`
	Location       geo.Coord    `json:"location"`
	BatteryPercent int          `json:"battery_percent"`
	TemperatureC   float64      `json:"temperature_c"`
	State          VehicleState `json:"state"`
	HelmetDetected bool         `json:"helmet_detected"`
}

// Rental tracks one reservation-to-return lifecycle for a vehicle.
type Rental struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	VehicleID string     `json:"vehicle_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Active    bool       `json:"active"`
}

// Payment is created exactly once, when a rental ends.
type Payment struct {
	ID          string  `json:"id"`
	RentalID    string  `json:"rental_id"`
	BaseAmount  float64 `json:"base_amount"`
	Surcharges  float64 `json:"surcharges"`
	Total       float64 `json:"total"`
	Description string  `json:"description"`
}

// User is an immutable lookup record.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TelemetrySample is the tuple the telemetry pipeline classifies.
type TelemetrySample struct {
	Timestamp      time.Time `json:"timestamp"`
	GPS            geo.Coord `json:"gps"`
	BatteryPercent int       `json:"battery_percent"`
	TemperatureC   float64   `json:"temperature_c"`
	HelmetPresent  bool      `json:"helmet_present"`
}

// AuditEntry is one link in the checksum chain (see internal/audit).
type AuditEntry struct {
	SeqID        uint64    `json:"seq_id"`
	Timestamp    time.Time `json:"timestamp"`
	EventType    string    `json:"event_type"`
	Payload      string    `json:"payload"`
	PrevChecksum string    `json:"prev_checksum"`
	Checksum     string    `json:"checksum"`
}
