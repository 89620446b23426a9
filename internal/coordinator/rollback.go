package coordinator

import (
	"github.com/example/fleetctl/internal/models"
	"github.com/example/fleetctl/internal/statemachine"
)

// snapshot records v's current state as the last known stable state,
// to be restored if the in-flight operation fails before its audit
// commit. Must be called with the vehicle's mutex already held.
func (c *Coordinator) snapshot(v *models.Vehicle) {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()
	c.snapshots[v.ID] = v.State
}

// clearSnapshot drops the pending snapshot after a successful commit.
// Must be called with the vehicle's mutex already held.
func (c *Coordinator) clearSnapshot(vehicleID string) {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()
	delete(c.snapshots, vehicleID)
}

// rollbackOne forces v back to its recorded pre-operation snapshot and
// clears the entry. It never emits an audit entry, to avoid cascading
// failure on an already-failing audit subsystem. Must be
// called with the vehicle's mutex already held.
func (c *Coordinator) rollbackOne(v *models.Vehicle) {
	c.snapMu.Lock()
	snap, ok := c.snapshots[v.ID]
	delete(c.snapshots, v.ID)
	c.snapMu.Unlock()
	if !ok {
		return
	}
	statemachine.ForceState(v, snap)
}

// rollbackAllDangling sweeps every vehicle left in the snapshot table
// and forces it back to its recorded state. It exists for operators
// recovering a coordinator instance after the audit subsystem rejected
// an append,
// not for the common single-vehicle operation failure (rollbackOne
// handles that, under the operation's own vehicle lock). Only safe to
// call when no operation is concurrently in flight.
func (c *Coordinator) rollbackAllDangling() {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()
	for id, snap := range c.snapshots {
		if v, ok := c.getVehicle(id); ok && v.State != snap {
			statemachine.ForceState(v, snap)
		}
	}
	c.snapshots = make(map[string]models.VehicleState)
}
