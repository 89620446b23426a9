package policy

import (
	"testing"

	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/models"
)

func TestLondonBeforeUnlockBatteryFloor(t *testing.T) {
	v := &models.Vehicle{ID: "LON-ES001", Kind: models.KindScooter, BatteryPercent: 10}
	if err := (London{}).BeforeUnlock(v, models.TelemetrySample{}, nil); err == nil {
		t.Fatal("expected battery violation")
	}
	v.BatteryPercent = 90
	if err := (London{}).BeforeUnlock(v, models.TelemetrySample{}, nil); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
}

func TestLondonAfterTripFlatCharge(t *testing.T) {
	surcharge, err := London{}.AfterTrip(&models.Rental{}, 6.00)
	if err != nil {
		t.Fatal(err)
	}
	if surcharge != CongestionCharge {
		t.Fatalf("expected %.2f, got %.2f", CongestionCharge, surcharge)
	}
}

func TestMilanHelmetGate(t *testing.T) {
	v := &models.Vehicle{ID: "MIL-M001", Kind: models.KindMoped, BatteryPercent: 80, HelmetDetected: false}
	err := Milan{}.BeforeUnlock(v, models.TelemetrySample{HelmetPresent: false}, nil)
	if err == nil {
		t.Fatal("expected helmet violation")
	}
	viol, ok := err.(*Violation)
	if !ok || viol.Reason == "" {
		t.Fatalf("expected *Violation with reason, got %v", err)
	}

	v.HelmetDetected = true
	err = Milan{}.ValidateTransition(v, models.StateInUse)
	if err != nil {
		t.Fatalf("expected helmet-present transition to pass, got %v", err)
	}
}

func TestRomeArchaeologicalZoneBlocksScooters(t *testing.T) {
	v := &models.Vehicle{ID: "ROM-ES001", Kind: models.KindScooter}
	gps := geo.Coord{Lat: 41.8902, Lon: 12.4922}
	if err := (Rome{}).IsAllowed(v, gps); err == nil {
		t.Fatal("expected archaeological zone violation for scooter")
	}
}

func TestForCityFallsBackToDefault(t *testing.T) {
	p := ForCity("Berlin")
	if _, ok := p.(Default); !ok {
		t.Fatalf("expected Default policy for unmapped city, got %T", p)
	}
}
