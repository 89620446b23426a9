package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/example/fleetctl/internal/models"
	"github.com/example/fleetctl/internal/observability"
	"github.com/example/fleetctl/internal/statemachine"
)

// End resolves the rental and vehicle, then commits the rental end via
// endRentalCommit and settles payment out of band.
func (c *Coordinator) End(rentalID, vehicleID string) (models.Payment, error) {
	rental, ok := c.getRental(rentalID)
	if !ok {
		return models.Payment{}, &NotFoundError{Kind: "rental", ID: rentalID}
	}
	v, ok := c.getVehicle(vehicleID)
	if !ok {
		return models.Payment{}, &NotFoundError{Kind: "vehicle", ID: vehicleID}
	}

	lock := c.lockFor(vehicleID)
	lock.Lock()
	defer lock.Unlock()

	if !rental.Active {
		return models.Payment{}, &AlreadyEndedError{RentalID: rentalID}
	}
	if v.State != models.StateInUse {
		return models.Payment{}, &NotAvailableError{VehicleID: vehicleID, State: v.State}
	}

	payment, err := c.endRentalCommit(rental, v)
	if err != nil {
		return models.Payment{}, err
	}

	observability.CoordinatorOpsTotal.WithLabelValues("end", "ok").Inc()
	c.logger.Info("rental_ended", "vehicle_id", vehicleID, "rental_id", rentalID, "payment_id", payment.ID, "total", payment.Total)

	c.settlePayment(payment)
	return payment, nil
}

// endRentalCommit is the shared rental-end transaction: it computes the
// fixed base fare plus the active city policy's surcharge, transitions
// IN_USE -> AVAILABLE, and commits a payment record alongside two audit
// entries (RENTAL_ENDED then PAYMENT_PROCESSED). A policy failure in
// AfterTrip is logged and the surcharge defaults to 0 — the only place a
// policy failure is swallowed, because the rental must end to free the
// vehicle. Every path that ends a rental — the rider-initiated End() and
// the telemetry pipeline's auto-end on critical battery — commits
// through here, so a Payment is created exactly once per ended rental
// regardless of who triggered the end. Callers must already hold v's
// mutex and must have already verified rental.Active and
// v.State == IN_USE.
func (c *Coordinator) endRentalCommit(rental *models.Rental, v *models.Vehicle) (models.Payment, error) {
	c.snapshot(v)

	endTime := time.Now()
	rental.EndTime = &endTime
	rental.Active = false

	surcharge, err := policyFor(v).AfterTrip(rental, baseFareAmount)
	if err != nil {
		c.logger.Warn("after_trip policy failed, defaulting surcharge to 0", "vehicle_id", v.ID, "rental_id", rental.ID, "error", err)
		surcharge = 0
	}

	description := fmt.Sprintf("%s trip", v.City)
	if surcharge > 0 {
		description = fmt.Sprintf("%s trip, surcharge applied", v.City)
	}
	payment := models.Payment{
		ID:          newID("PAY"),
		RentalID:    rental.ID,
		BaseAmount:  baseFareAmount,
		Surcharges:  surcharge,
		Total:       baseFareAmount + surcharge,
		Description: description,
	}

	if !statemachine.TransitionTo(v, models.StateAvailable) {
		c.rollbackOne(v)
		return models.Payment{}, &RolledBackError{Cause: &invalidTransitionError{From: v.State, To: models.StateAvailable}}
	}

	if err := c.rentalStore.SaveOne(*rental); err != nil {
		c.rollbackOne(v)
		return models.Payment{}, &RolledBackError{Cause: err}
	}
	if err := c.paymentStore.SaveOne(payment); err != nil {
		c.rollbackOne(v)
		return models.Payment{}, &RolledBackError{Cause: err}
	}
	if err := c.vehicleStore.SaveOne(*v); err != nil {
		c.rollbackOne(v)
		return models.Payment{}, &RolledBackError{Cause: err}
	}

	if _, err := c.record("RENTAL_ENDED", fmt.Sprintf("vehicle=%s rental=%s", v.ID, rental.ID)); err != nil {
		c.rollbackOne(v)
		return models.Payment{}, &RolledBackError{Cause: err}
	}
	if _, err := c.record("PAYMENT_PROCESSED", fmt.Sprintf("rental=%s payment=%s total=%.2f", rental.ID, payment.ID, payment.Total)); err != nil {
		c.rollbackOne(v)
		return models.Payment{}, &RolledBackError{Cause: err}
	}

	c.putPayment(&payment)
	c.clearSnapshot(v.ID)
	return payment, nil
}

// settlePayment is a best-effort call into the configured Settler
// (typically Stripe). Failure is logged; the rental has already ended
// and is not rolled back.
func (c *Coordinator) settlePayment(payment models.Payment) {
	if c.settler == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.settler.Settle(ctx, payment); err != nil {
		c.logger.Warn("payment settlement failed", "payment_id", payment.ID, "error", err)
	}
}
