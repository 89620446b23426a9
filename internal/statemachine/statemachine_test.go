package statemachine

import (
	"testing"

	"github.com/example/fleetctl/internal/models"
)

func TestIsLegal(t *testing.T) {
	cases := []struct {
		from, to models.VehicleState
		want     bool
	}{
		{models.StateAvailable, models.StateReserved, true},
		{models.StateAvailable, models.StateInUse, false},
		{models.StateReserved, models.StateInUse, true},
		{models.StateInUse, models.StateReserved, false},
		{models.StateEmergencyLock, models.StateEmergencyLock, false},
	}
	for _, c := range cases {
		if got := IsLegal(c.from, c.to); got != c.want {
			t.Errorf("IsLegal(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTransitionToRejectsIllegal(t *testing.T) {
	v := &models.Vehicle{State: models.StateAvailable}
	if TransitionTo(v, models.StateInUse) {
		t.Fatal("expected illegal transition to be rejected")
	}
	if v.State != models.StateAvailable {
		t.Fatal("state must not change on rejected transition")
	}
}

func TestForceStateRoutesThroughAvailable(t *testing.T) {
	v := &models.Vehicle{State: models.StateMaintenance}
	ForceState(v, models.StateRelocating)
	if v.State != models.StateRelocating {
		t.Fatalf("expected forced state RELOCATING, got %s", v.State)
	}
}
