package coordinator

import (
	"fmt"

	"github.com/example/fleetctl/internal/models"
)

// NotFoundError reports an unknown user, vehicle, or rental id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %q not found", e.Kind, e.ID) }

// NotAvailableError reports that a vehicle's current state precludes the
// requested operation.
type NotAvailableError struct {
	VehicleID string
	State     models.VehicleState
}

func (e *NotAvailableError) Error() string {
	return fmt.Sprintf("vehicle %s is not available (state=%s)", e.VehicleID, e.State)
}

// AlreadyEndedError reports that end() was requested on an inactive rental.
type AlreadyEndedError struct {
	RentalID string
}

func (e *AlreadyEndedError) Error() string {
	return fmt.Sprintf("rental %s has already ended", e.RentalID)
}

// RolledBackError reports that an operation failed mid-commit and the
// coordinator restored the affected vehicle to its pre-operation
// snapshot. Cause is the error that triggered the rollback — typically
// an *audit.WriteError or an invalid-transition condition.
type RolledBackError struct {
	Cause error
}

func (e *RolledBackError) Error() string { return fmt.Sprintf("operation rolled back: %v", e.Cause) }
func (e *RolledBackError) Unwrap() error { return e.Cause }

// invalidTransitionError is internal-only; it never escapes the
// coordinator, always surfacing to callers wrapped as RolledBackError.
type invalidTransitionError struct {
	From, To models.VehicleState
}

func (e *invalidTransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}
