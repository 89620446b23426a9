package policy

import (
	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/models"
)

// Rome enforces the battery floor at unlock and additionally refuses to
// unlock a vehicle whose own telemetry already places it in a restricted
// zone. IsAllowed fails for the general ZTL for every vehicle kind, and
// additionally for scooters inside the archaeological/pedestrian zone.
type Rome struct{}

func (r Rome) BeforeUnlock(v *models.Vehicle, telemetry models.TelemetrySample, _ *models.Rental) error {
	if v.BatteryPercent < minBatteryForUnlock {
		return violation("battery at %d%% is below the %d%% minimum required to unlock", v.BatteryPercent, minBatteryForUnlock)
	}
	if err := r.IsAllowed(v, telemetry.GPS); err != nil {
		return violation("vehicle %s is already inside a Rome restricted zone", v.ID)
	}
	return nil
}

func (Rome) AfterTrip(_ *models.Rental, _ float64) (float64, error) {
	return 0, nil
}

func (Rome) ValidateTransition(*models.Vehicle, models.VehicleState) error {
	return nil
}

func (Rome) IsAllowed(v *models.Vehicle, gps geo.Coord) error {
	if romeGeneralZTL.Contains(gps) {
		return violation("position is inside the Rome general ZTL")
	}
	if v.Kind == models.KindScooter && romeArchaeologicalZone.Contains(gps) {
		return violation("scooters are not permitted in the Rome archaeological zone")
	}
	return nil
}
