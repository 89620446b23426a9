package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/models"
)

func TestVehicleCSVStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewVehicleCSVStore(filepath.Join(dir, "vehicles.csv"))

	vehicles := []models.Vehicle{
		{ID: "LON-ES001", Kind: models.KindScooter, City: "London", Location: geo.Coord{Lat: 51.5, Lon: -0.1}, BatteryPercent: 90, TemperatureC: 21.5, State: models.StateAvailable},
		{ID: "MIL-M001", Kind: models.KindMoped, City: "Milan", Location: geo.Coord{Lat: 45.46, Lon: 9.19}, BatteryPercent: 80, TemperatureC: 25.0, State: models.StateAvailable},
	}
	if err := store.SaveAll(vehicles); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 vehicles, got %d", len(loaded))
	}
	if loaded[1].Kind != models.KindMoped {
		t.Fatalf("expected moped kind to round-trip, got %s", loaded[1].Kind)
	}

	v, ok, err := store.Find("LON-ES001")
	if err != nil || !ok {
		t.Fatalf("expected to find LON-ES001, ok=%v err=%v", ok, err)
	}
	if v.City != "London" {
		t.Fatalf("expected city London, got %s", v.City)
	}
}

func TestVehicleCSVStoreMissingFileIsEmpty(t *testing.T) {
	store := NewVehicleCSVStore(filepath.Join(t.TempDir(), "nonexistent.csv"))
	vehicles, err := store.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(vehicles) != 0 {
		t.Fatalf("expected empty slice, got %d", len(vehicles))
	}
}

func TestAuditCSVStoreAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit_log.csv")
	store := NewAuditCSVStore(path)

	e1 := models.AuditEntry{SeqID: 1, EventType: "VEHICLE_RESERVED", Payload: "vehicle=V1", PrevChecksum: "0000000000000000", Checksum: "abc"}
	if err := store.Append(e1); err != nil {
		t.Fatal(err)
	}
	e2 := models.AuditEntry{SeqID: 2, EventType: "RENTAL_STARTED", Payload: "vehicle=V1", PrevChecksum: "abc", Checksum: "def"}
	if err := store.Append(e2); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(loaded))
	}
	if loaded[0].SeqID != 1 || loaded[1].SeqID != 2 {
		t.Fatalf("expected seq order preserved, got %v", loaded)
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty audit file, err=%v", err)
	}
}

func TestPaymentCSVStoreTwoDecimalFormatting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payments.csv")
	store := NewPaymentCSVStore(path)
	p := models.Payment{ID: "P1", RentalID: "R1", BaseAmount: 6, Surcharges: 3.5, Total: 9.5, Description: "London trip, surcharge applied"}
	if err := store.SaveAll([]models.Payment{p}); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if loaded[0].Total != 9.5 {
		t.Fatalf("expected total 9.50, got %v", loaded[0].Total)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "P1,R1,6.00,3.50,9.50,") {
		t.Fatalf("expected amounts written with two decimals, got %q", raw)
	}
}
