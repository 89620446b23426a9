package coordinator

import (
	"fmt"

	"github.com/example/fleetctl/internal/models"
	"github.com/example/fleetctl/internal/observability"
	"github.com/example/fleetctl/internal/statemachine"
	"github.com/example/fleetctl/internal/telemetry"
)

// SubmitTelemetry looks up the vehicle's internal ref and enqueues the
// sample on the telemetry worker. It also forwards the position to the
// fleet locator, when one is configured, for ops-dashboard queries.
func (c *Coordinator) SubmitTelemetry(vehicleID string, sample models.TelemetrySample) error {
	c.tableMu.RLock()
	ref, ok := c.refs[vehicleID]
	v := c.vehicles[vehicleID]
	c.tableMu.RUnlock()
	if !ok {
		return &NotFoundError{Kind: "vehicle", ID: vehicleID}
	}

	if c.locator != nil {
		c.locator.Upsert(vehicleID, sample, v.State)
	}
	c.worker.Submit(ref, sample)
	observability.TelemetryQueueDepth.Set(float64(c.worker.QueueDepth()))
	return nil
}

// HandleTelemetryEvent implements telemetry.Handler. It is invoked from
// the worker goroutine, outside any coordinator lock, so it takes the
// affected vehicle's mutex itself before mutating state.
func (c *Coordinator) HandleTelemetryEvent(ev telemetry.Event) {
	lock := c.lockFor(ev.VehicleID)
	lock.Lock()
	defer lock.Unlock()

	v, ok := c.getVehicle(ev.VehicleID)
	if !ok {
		return
	}

	observability.TelemetryEventsTotal.WithLabelValues(string(ev.Type)).Inc()

	switch ev.Type {
	case telemetry.EventCriticalTemperature:
		c.emergencyLock(v, fmt.Sprintf("critical temperature %.1fC", ev.Sample.TemperatureC))

	case telemetry.EventHighTempWarning:
		payload := fmt.Sprintf("vehicle=%s temperature=%.1f", v.ID, ev.Sample.TemperatureC)
		if _, err := c.record("VEHICLE_THROTTLED", payload); err != nil {
			c.logger.Error("failed to audit high temperature warning", "vehicle_id", v.ID, "error", err)
		}

	case telemetry.EventCriticalBattery:
		if v.State == models.StateInUse {
			c.autoEndOnCriticalBattery(v)
			return
		}
		c.transitionToMaintenance(v)

	case telemetry.EventLowBatteryWarning:
		payload := fmt.Sprintf("vehicle=%s battery=%d", v.ID, ev.Sample.BatteryPercent)
		if _, err := c.record("LOW_BATTERY_WARNING", payload); err != nil {
			c.logger.Error("failed to audit low battery warning", "vehicle_id", v.ID, "error", err)
		}

	case telemetry.EventTheftAlarm:
		c.emergencyLock(v, "movement detected while not rented")
	}
}

// autoEndOnCriticalBattery ends the vehicle's active rental through the
// same endRentalCommit path End() uses — so a Payment and its
// RENTAL_ENDED/PAYMENT_PROCESSED entries are created exactly once,
// regardless of whether the rider or the telemetry pipeline triggered
// the end — then appends an extra EMERGENCY_RENTAL_END marker, since the
// rider cannot be relied on to end the rental themselves once the
// battery is critical. Falls back to an emergency lock if no active
// rental can be found, if the commit itself fails, or if the extra
// marker fails to write after a successful commit.
func (c *Coordinator) autoEndOnCriticalBattery(v *models.Vehicle) {
	rental := c.findActiveRentalForVehicle(v.ID)
	if rental == nil {
		c.emergencyLock(v, "critical battery with no active rental on record")
		return
	}

	payment, err := c.endRentalCommit(rental, v)
	if err != nil {
		c.logger.Error("failed to auto-end rental on critical battery", "vehicle_id", v.ID, "rental_id", rental.ID, "error", err)
		c.emergencyLock(v, "critical battery, could not auto-end rental")
		return
	}

	payload := fmt.Sprintf("vehicle=%s rental=%s payment=%s reason=critical_battery", v.ID, rental.ID, payment.ID)
	if _, err := c.record("EMERGENCY_RENTAL_END", payload); err != nil {
		c.logger.Error("failed to audit emergency rental end", "vehicle_id", v.ID, "error", err)
		c.emergencyLock(v, "critical battery, audit append failed on auto-end")
		return
	}

	observability.CoordinatorOpsTotal.WithLabelValues("auto_end", "ok").Inc()
	c.logger.Warn("vehicle_auto_ended_critical_battery", "vehicle_id", v.ID, "rental_id", rental.ID, "payment_id", payment.ID)
	c.notify("EMERGENCY_RENTAL_END", v.ID, "critical battery")
	c.settlePayment(payment)
}

func (c *Coordinator) transitionToMaintenance(v *models.Vehicle) {
	if !statemachine.TransitionTo(v, models.StateMaintenance) {
		return
	}
	if err := c.vehicleStore.SaveOne(*v); err != nil {
		c.logger.Error("failed to persist vehicle after maintenance transition", "vehicle_id", v.ID, "error", err)
	}
	payload := fmt.Sprintf("vehicle=%s reason=critical_battery", v.ID)
	if _, err := c.record("VEHICLE_MAINTENANCE", payload); err != nil {
		c.logger.Error("failed to audit maintenance transition", "vehicle_id", v.ID, "error", err)
	}
}

func (c *Coordinator) findActiveRentalForVehicle(vehicleID string) *models.Rental {
	c.tableMu.RLock()
	defer c.tableMu.RUnlock()
	for _, r := range c.rentals {
		if r.VehicleID == vehicleID && r.Active {
			return r
		}
	}
	return nil
}
