// Package statemachine implements the legal transition table on
// models.VehicleState and the guarded/force mutation primitives the
// coordinator uses to move a vehicle between states.
package statemachine

import "github.com/example/fleetctl/internal/models"

// legalTransitions is the allowed-edges table. A target not present in
// the source's slice is illegal via TransitionTo.
var legalTransitions = map[models.VehicleState][]models.VehicleState{
	models.StateAvailable: {
		models.StateReserved, models.StateMaintenance, models.StateEmergencyLock, models.StateRelocating,
	},
	models.StateReserved: {
		models.StateInUse, models.StateAvailable, models.StateEmergencyLock,
	},
	models.StateInUse: {
		models.StateAvailable, models.StateMaintenance, models.StateEmergencyLock,
	},
	models.StateMaintenance: {
		models.StateAvailable, models.StateEmergencyLock,
	},
	models.StateEmergencyLock: {
		models.StateMaintenance, models.StateAvailable,
	},
	models.StateRelocating: {
		models.StateAvailable, models.StateMaintenance,
	},
}

// IsLegal reports whether from -> to is a direct edge in the table.
func IsLegal(from, to models.VehicleState) bool {
	for _, t := range legalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// TransitionTo mutates v.State to target iff the pair is legal. It
// reports whether the transition was applied.
func TransitionTo(v *models.Vehicle, target models.VehicleState) bool {
	if !IsLegal(v.State, target) {
		return false
	}
	v.State = target
	return true
}

// ForceState bypasses the transition table. It is reserved for rollback
// paths. If target is not directly reachable from v.State, the force is
// implemented as an intermediate hop through AVAILABLE.
func ForceState(v *models.Vehicle, target models.VehicleState) {
	if v.State == target {
		return
	}
	if IsLegal(v.State, target) {
		v.State = target
		return
	}
	v.State = models.StateAvailable
	if target != models.StateAvailable {
		v.State = target
	}
}
