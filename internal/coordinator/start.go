package coordinator

import (
	"fmt"

	"github.com/example/fleetctl/internal/models"
	"github.com/example/fleetctl/internal/observability"
	"github.com/example/fleetctl/internal/statemachine"
)

// Start resolves the rental and vehicle, builds a synthetic telemetry
// sample from the vehicle's current fields, runs the active city
// policy's BeforeUnlock and ValidateTransition gates, then transitions
// RESERVED -> IN_USE.
func (c *Coordinator) Start(rentalID, vehicleID string) error {
	rental, ok := c.getRental(rentalID)
	if !ok {
		return &NotFoundError{Kind: "rental", ID: rentalID}
	}
	v, ok := c.getVehicle(vehicleID)
	if !ok {
		return &NotFoundError{Kind: "vehicle", ID: vehicleID}
	}

	lock := c.lockFor(vehicleID)
	lock.Lock()
	defer lock.Unlock()

	if v.State != models.StateReserved {
		return &NotAvailableError{VehicleID: vehicleID, State: v.State}
	}

	sample := models.TelemetrySample{
		GPS:            v.Location,
		BatteryPercent: v.BatteryPercent,
		TemperatureC:   v.TemperatureC,
		HelmetPresent:  v.HelmetDetected,
	}

	p := policyFor(v)
	if err := p.BeforeUnlock(v, sample, rental); err != nil {
		observability.PolicyViolationsTotal.WithLabelValues(v.City, "before_unlock").Inc()
		return err
	}
	if err := p.ValidateTransition(v, models.StateInUse); err != nil {
		observability.PolicyViolationsTotal.WithLabelValues(v.City, "validate_transition").Inc()
		return err
	}

	c.snapshot(v)
	if !statemachine.TransitionTo(v, models.StateInUse) {
		c.rollbackOne(v)
		return &RolledBackError{Cause: &invalidTransitionError{From: v.State, To: models.StateInUse}}
	}

	if err := c.vehicleStore.SaveOne(*v); err != nil {
		c.rollbackOne(v)
		return &RolledBackError{Cause: err}
	}

	payload := fmt.Sprintf("vehicle=%s rental=%s", vehicleID, rentalID)
	if _, err := c.record("RENTAL_STARTED", payload); err != nil {
		c.rollbackOne(v)
		return &RolledBackError{Cause: err}
	}

	c.clearSnapshot(vehicleID)
	observability.CoordinatorOpsTotal.WithLabelValues("start", "ok").Inc()
	c.logger.Info("rental_started", "vehicle_id", vehicleID, "rental_id", rentalID)
	return nil
}
