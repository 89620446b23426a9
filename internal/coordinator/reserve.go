package coordinator

import (
	"fmt"
	"time"

	"github.com/example/fleetctl/internal/models"
	"github.com/example/fleetctl/internal/observability"
	"github.com/example/fleetctl/internal/statemachine"
)

// Reserve resolves the user and vehicle, transitions the vehicle
// AVAILABLE -> RESERVED under its mutex, and persists the new rental.
func (c *Coordinator) Reserve(userID, vehicleID string) (models.Rental, error) {
	if _, ok := c.getUser(userID); !ok {
		return models.Rental{}, &NotFoundError{Kind: "user", ID: userID}
	}
	v, ok := c.getVehicle(vehicleID)
	if !ok {
		return models.Rental{}, &NotFoundError{Kind: "vehicle", ID: vehicleID}
	}

	lock := c.lockFor(vehicleID)
	lock.Lock()
	defer lock.Unlock()

	if v.State != models.StateAvailable {
		return models.Rental{}, &NotAvailableError{VehicleID: vehicleID, State: v.State}
	}

	c.snapshot(v)
	if !statemachine.TransitionTo(v, models.StateReserved) {
		c.rollbackOne(v)
		return models.Rental{}, &RolledBackError{Cause: &invalidTransitionError{From: v.State, To: models.StateReserved}}
	}

	rental := models.Rental{
		ID:        newID("RNT"),
		UserID:    userID,
		VehicleID: vehicleID,
		StartTime: time.Now(),
		Active:    true,
	}

	if err := c.rentalStore.SaveOne(rental); err != nil {
		c.rollbackOne(v)
		return models.Rental{}, &RolledBackError{Cause: err}
	}
	if err := c.vehicleStore.SaveOne(*v); err != nil {
		c.rollbackOne(v)
		return models.Rental{}, &RolledBackError{Cause: err}
	}

	payload := fmt.Sprintf("vehicle=%s user=%s rental=%s", vehicleID, userID, rental.ID)
	if _, err := c.record("VEHICLE_RESERVED", payload); err != nil {
		c.rollbackOne(v)
		return models.Rental{}, &RolledBackError{Cause: err}
	}

	c.putRental(&rental)
	c.clearSnapshot(vehicleID)
	observability.CoordinatorOpsTotal.WithLabelValues("reserve", "ok").Inc()
	c.logger.Info("vehicle_reserved", "vehicle_id", vehicleID, "user_id", userID, "rental_id", rental.ID)
	return rental, nil
}
