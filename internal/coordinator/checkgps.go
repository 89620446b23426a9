package coordinator

import (
	"fmt"

	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/observability"
)

// CheckGPS runs the supplied position against the vehicle's city policy's
// geofence gate. A violation triggers an emergency lock and reports the
// position as disallowed; the caller never sees the policy error itself.
func (c *Coordinator) CheckGPS(vehicleID string, gps geo.Coord) bool {
	v, ok := c.getVehicle(vehicleID)
	if !ok {
		return false
	}

	lock := c.lockFor(vehicleID)
	lock.Lock()
	defer lock.Unlock()

	if err := policyFor(v).IsAllowed(v, gps); err != nil {
		observability.PolicyViolationsTotal.WithLabelValues(v.City, "is_allowed").Inc()
		c.emergencyLock(v, fmt.Sprintf("gps check failed: %s", err.Error()))
		return false
	}
	return true
}
