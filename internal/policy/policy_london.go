package policy

import (
	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/models"
)

// CongestionCharge is the fixed surcharge London applies to every trip.
const CongestionCharge = 3.50

// London enforces a battery floor at unlock/transition and applies a
// flat congestion charge at trip end regardless of whether the trip
// actually crossed the congestion zone.
type London struct{}

func (London) BeforeUnlock(v *models.Vehicle, _ models.TelemetrySample, _ *models.Rental) error {
	if v.BatteryPercent < minBatteryForUnlock {
		return violation("battery at %d%% is below the %d%% minimum required to unlock", v.BatteryPercent, minBatteryForUnlock)
	}
	return nil
}

func (London) AfterTrip(_ *models.Rental, baseAmount float64) (float64, error) {
	return CongestionCharge, nil
}

func (London) ValidateTransition(v *models.Vehicle, target models.VehicleState) error {
	if target == models.StateInUse && v.BatteryPercent < minBatteryForUnlock {
		return violation("battery at %d%% is below the %d%% minimum required to start a trip", v.BatteryPercent, minBatteryForUnlock)
	}
	return nil
}

// IsAllowed never hard-blocks in London; presence in the congestion zone
// is observed but only drives the AfterTrip charge, not a gps refusal.
func (London) IsAllowed(_ *models.Vehicle, _ geo.Coord) error {
	return nil
}
