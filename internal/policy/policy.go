// Package policy implements the per-city regulatory gates the
// coordinator consults at unlock, transition, trip-end, and gps-check
// time. Every city policy implements the full Policy interface; cities
// without a concrete policy fall back to Default.
package policy

import (
	"fmt"

	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/models"
)

// Violation is returned by a gate that refuses an operation.
type Violation struct {
	Reason string
}

func (v *Violation) Error() string { return v.Reason }

func violation(format string, args ...interface{}) *Violation {
	return &Violation{Reason: fmt.Sprintf(format, args...)}
}

// Policy is the capability set every city policy exposes.
type Policy interface {
	// BeforeUnlock gates a start() call. telemetry is a synthetic sample
	// built from the vehicle's current fields.
	BeforeUnlock(v *models.Vehicle, telemetry models.TelemetrySample, rental *models.Rental) error
	// AfterTrip computes the non-negative surcharge added to baseAmount.
	AfterTrip(rental *models.Rental, baseAmount float64) (float64, error)
	// ValidateTransition gates a state-machine transition, in addition to
	// the table in internal/statemachine.
	ValidateTransition(v *models.Vehicle, target models.VehicleState) error
	// IsAllowed gates a gps position against city geofences.
	IsAllowed(v *models.Vehicle, gps geo.Coord) error
}

const minBatteryForUnlock = 15

// Default is the no-op policy used for any city without a concrete
// implementation.
type Default struct{}

func (Default) BeforeUnlock(*models.Vehicle, models.TelemetrySample, *models.Rental) error { return nil }
func (Default) AfterTrip(*models.Rental, float64) (float64, error)                          { return 0, nil }
func (Default) ValidateTransition(*models.Vehicle, models.VehicleState) error               { return nil }
func (Default) IsAllowed(*models.Vehicle, geo.Coord) error                                   { return nil }

// ForCity resolves the policy to use for a given city name. Matching is
// case-sensitive on the canonical city names seeded into the fleet.
func ForCity(city string) Policy {
	switch city {
	case "London":
		return London{}
	case "Milan":
		return Milan{}
	case "Rome":
		return Rome{}
	default:
		return Default{}
	}
}
