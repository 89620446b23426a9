package coordinator

import (
	"fmt"

	"github.com/example/fleetctl/internal/models"
	"github.com/example/fleetctl/internal/statemachine"
)

// emergencyLock forces v into EMERGENCY_LOCK via the regular transition
// table and records an EMERGENCY_LOCK audit entry. It is a no-op if the
// transition is illegal from the current state (already EMERGENCY_LOCK,
// or RELOCATING, which has no edge to EMERGENCY_LOCK).
// The caller must already hold v's mutex.
func (c *Coordinator) emergencyLock(v *models.Vehicle, reason string) {
	if !statemachine.TransitionTo(v, models.StateEmergencyLock) {
		return
	}
	if err := c.vehicleStore.SaveOne(*v); err != nil {
		c.logger.Error("failed to persist vehicle after emergency lock", "vehicle_id", v.ID, "error", err)
	}
	payload := fmt.Sprintf("vehicle=%s reason=%s", v.ID, reason)
	if _, err := c.record("EMERGENCY_LOCK", payload); err != nil {
		c.logger.Error("failed to audit emergency lock", "vehicle_id", v.ID, "error", err)
	}
	c.notify("EMERGENCY_LOCK", v.ID, reason)
	c.logger.Warn("vehicle_emergency_locked", "vehicle_id", v.ID, "reason", reason)
}
