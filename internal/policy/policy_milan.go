package policy

import (
	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/models"
)

// CityCenterSurcharge is not currently applied by AfterTrip; Milan's
// trips settle at the flat base fare only. Kept as a named constant
// rather than a magic number so enabling it later only touches
// AfterTrip's return.
const CityCenterSurcharge = 1.50

// Milan requires a detected helmet for mopeds at both unlock and the
// IN_USE transition, enforces the same battery floor as London, and
// treats presence in a restricted zone as an emergency-lock trigger
// rather than a simple gps refusal (handled by the coordinator).
type Milan struct{}

func (Milan) BeforeUnlock(v *models.Vehicle, telemetry models.TelemetrySample, _ *models.Rental) error {
	if v.Kind == models.KindMoped && !telemetry.HelmetPresent {
		return violation("helmet not detected for moped %s", v.ID)
	}
	if v.BatteryPercent < minBatteryForUnlock {
		return violation("battery at %d%% is below the %d%% minimum required to unlock", v.BatteryPercent, minBatteryForUnlock)
	}
	return nil
}

func (Milan) AfterTrip(_ *models.Rental, _ float64) (float64, error) {
	return 0, nil
}

func (Milan) ValidateTransition(v *models.Vehicle, target models.VehicleState) error {
	if target == models.StateInUse && v.Kind == models.KindMoped && !v.HelmetDetected {
		return violation("helmet not detected for moped %s", v.ID)
	}
	return nil
}

// IsAllowed fails inside any Milan restricted zone. The coordinator
// treats this failure as an emergency-lock trigger.
func (Milan) IsAllowed(_ *models.Vehicle, gps geo.Coord) error {
	if anyZoneContains(milanRestrictedZones, gps) {
		return violation("position is inside a Milan restricted zone")
	}
	return nil
}
