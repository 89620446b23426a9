package coordinator

import (
	"log/slog"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/example/fleetctl/internal/audit"
	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/models"
)

// memVehicleStore, memUserStore, memRentalStore, memPaymentStore, and
// memAuditStore are narrow in-memory test doubles satisfying the
// storage interfaces, small hand-rolled fakes rather than a mocking
// framework.

type memVehicleStore struct {
	mu sync.Mutex
	m  map[string]models.Vehicle
}

func newMemVehicleStore(seed ...models.Vehicle) *memVehicleStore {
	s := &memVehicleStore{m: make(map[string]models.Vehicle)}
	for _, v := range seed {
		s.m[v.ID] = v
	}
	return s
}
func (s *memVehicleStore) LoadAll() ([]models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Vehicle, 0, len(s.m))
	for _, v := range s.m {
		out = append(out, v)
	}
	return out, nil
}
func (s *memVehicleStore) SaveOne(v models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[v.ID] = v
	return nil
}
func (s *memVehicleStore) SaveAll(vs []models.Vehicle) error {
	for _, v := range vs {
		_ = s.SaveOne(v)
	}
	return nil
}
func (s *memVehicleStore) Find(id string) (models.Vehicle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[id]
	return v, ok, nil
}

type memUserStore struct{ m map[string]models.User }

func newMemUserStore(seed ...models.User) *memUserStore {
	s := &memUserStore{m: make(map[string]models.User)}
	for _, u := range seed {
		s.m[u.ID] = u
	}
	return s
}
func (s *memUserStore) LoadAll() ([]models.User, error) {
	out := make([]models.User, 0, len(s.m))
	for _, u := range s.m {
		out = append(out, u)
	}
	return out, nil
}
func (s *memUserStore) SaveOne(u models.User) error { s.m[u.ID] = u; return nil }
func (s *memUserStore) SaveAll(us []models.User) error {
	for _, u := range us {
		s.m[u.ID] = u
	}
	return nil
}
func (s *memUserStore) Find(id string) (models.User, bool, error) {
	u, ok := s.m[id]
	return u, ok, nil
}

type memRentalStore struct {
	mu sync.Mutex
	m  map[string]models.Rental
}

func newMemRentalStore() *memRentalStore { return &memRentalStore{m: make(map[string]models.Rental)} }
func (s *memRentalStore) LoadAll() ([]models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Rental, 0, len(s.m))
	for _, r := range s.m {
		out = append(out, r)
	}
	return out, nil
}
func (s *memRentalStore) SaveOne(r models.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[r.ID] = r
	return nil
}
func (s *memRentalStore) SaveAll(rs []models.Rental) error {
	for _, r := range rs {
		_ = s.SaveOne(r)
	}
	return nil
}
func (s *memRentalStore) Find(id string) (models.Rental, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.m[id]
	return r, ok, nil
}

type memPaymentStore struct {
	mu sync.Mutex
	m  map[string]models.Payment
}

func newMemPaymentStore() *memPaymentStore {
	return &memPaymentStore{m: make(map[string]models.Payment)}
}
func (s *memPaymentStore) LoadAll() ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Payment, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p)
	}
	return out, nil
}
func (s *memPaymentStore) SaveOne(p models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[p.ID] = p
	return nil
}
func (s *memPaymentStore) SaveAll(ps []models.Payment) error {
	for _, p := range ps {
		_ = s.SaveOne(p)
	}
	return nil
}
func (s *memPaymentStore) Find(id string) (models.Payment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.m[id]
	return p, ok, nil
}

type memAuditStore struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (s *memAuditStore) LoadAll() ([]models.AuditEntry, error) { return s.entries, nil }
func (s *memAuditStore) Append(e models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func newTestCoordinator(t *testing.T, vehicles ...models.Vehicle) *Coordinator {
	t.Helper()
	auditLog, err := audit.Open(&memAuditStore{})
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(Config{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		VehicleStore: newMemVehicleStore(vehicles...),
		UserStore:    newMemUserStore(models.User{ID: "USR-1", Name: "rider"}),
		RentalStore:  newMemRentalStore(),
		PaymentStore: newMemPaymentStore(),
		AuditLog:     auditLog,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.StopTelemetryMonitor)
	return c
}

func TestReserveStartEndHappyPath(t *testing.T) {
	c := newTestCoordinator(t, models.Vehicle{
		ID: "VEH-1", Kind: models.KindBicycle, City: "Berlin",
		State: models.StateAvailable, BatteryPercent: 90,
	})

	rental, err := c.Reserve("USR-1", "VEH-1")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	v, _ := c.getVehicle("VEH-1")
	if v.State != models.StateReserved {
		t.Fatalf("expected RESERVED, got %s", v.State)
	}

	if err := c.Start(rental.ID, "VEH-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	v, _ = c.getVehicle("VEH-1")
	if v.State != models.StateInUse {
		t.Fatalf("expected IN_USE, got %s", v.State)
	}

	payment, err := c.End(rental.ID, "VEH-1")
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	v, _ = c.getVehicle("VEH-1")
	if v.State != models.StateAvailable {
		t.Fatalf("expected AVAILABLE after end, got %s", v.State)
	}
	if payment.BaseAmount != baseFareAmount {
		t.Fatalf("expected base amount %.2f, got %.2f", baseFareAmount, payment.BaseAmount)
	}
	if payment.Total != payment.BaseAmount+payment.Surcharges {
		t.Fatal("total must equal base + surcharges")
	}

	ok, err := c.VerifyAuditChain()
	if !ok || err != nil {
		t.Fatalf("expected intact chain, ok=%v err=%v", ok, err)
	}
}

func TestReserveRejectsUnavailableVehicle(t *testing.T) {
	c := newTestCoordinator(t, models.Vehicle{ID: "VEH-2", State: models.StateMaintenance})
	if _, err := c.Reserve("USR-1", "VEH-2"); err == nil {
		t.Fatal("expected NotAvailableError")
	}
}

func TestLondonCongestionChargeAppliedAtEnd(t *testing.T) {
	c := newTestCoordinator(t, models.Vehicle{
		ID: "VEH-LON", City: "London", Kind: models.KindScooter,
		State: models.StateAvailable, BatteryPercent: 90,
	})
	rental, err := c.Reserve("USR-1", "VEH-LON")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(rental.ID, "VEH-LON"); err != nil {
		t.Fatal(err)
	}
	payment, err := c.End(rental.ID, "VEH-LON")
	if err != nil {
		t.Fatal(err)
	}
	if payment.Surcharges != 3.50 {
		t.Fatalf("expected London congestion charge 3.50, got %.2f", payment.Surcharges)
	}
}

func TestMilanHelmetGateBlocksStart(t *testing.T) {
	c := newTestCoordinator(t, models.Vehicle{
		ID: "VEH-MIL", City: "Milan", Kind: models.KindMoped,
		State: models.StateAvailable, BatteryPercent: 90, HelmetDetected: false,
	})
	rental, err := c.Reserve("USR-1", "VEH-MIL")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(rental.ID, "VEH-MIL"); err == nil {
		t.Fatal("expected helmet policy violation")
	}
	v, _ := c.getVehicle("VEH-MIL")
	if v.State != models.StateReserved {
		t.Fatalf("vehicle should remain RESERVED after blocked start, got %s", v.State)
	}
}

func TestCriticalTemperatureEmergencyLocksVehicle(t *testing.T) {
	c := newTestCoordinator(t, models.Vehicle{
		ID: "VEH-HOT", City: "Berlin", State: models.StateInUse, BatteryPercent: 50,
	})
	if err := c.SubmitTelemetry("VEH-HOT", models.TelemetrySample{TemperatureC: 75.0, BatteryPercent: 50}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, _ := c.getVehicle("VEH-HOT"); v.State == models.StateEmergencyLock {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected vehicle to reach EMERGENCY_LOCK")
}

func TestTheftAlarmEmergencyLocksAvailableVehicle(t *testing.T) {
	c := newTestCoordinator(t, models.Vehicle{
		ID: "VEH-PARKED", City: "Berlin", State: models.StateAvailable, BatteryPercent: 80,
		Location: geo.Coord{Lat: 52.5200, Lon: 13.4050},
	})
	if err := c.SubmitTelemetry("VEH-PARKED", models.TelemetrySample{
		TemperatureC: 20, BatteryPercent: 80, GPS: geo.Coord{Lat: 52.5300, Lon: 13.4150},
	}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, _ := c.getVehicle("VEH-PARKED"); v.State == models.StateEmergencyLock {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected vehicle to reach EMERGENCY_LOCK from theft alarm")
}

func TestCheckGPSEmergencyLocksInRestrictedZone(t *testing.T) {
	c := newTestCoordinator(t, models.Vehicle{
		ID: "VEH-ROM", City: "Rome", Kind: models.KindScooter,
		State: models.StateInUse, BatteryPercent: 70,
	})

	restrictedZone := geo.Coord{Lat: 41.8902, Lon: 12.4922}
	if allowed := c.CheckGPS("VEH-ROM", restrictedZone); allowed {
		t.Fatal("expected archaeological zone position to be disallowed")
	}

	v, _ := c.getVehicle("VEH-ROM")
	if v.State != models.StateEmergencyLock {
		t.Fatalf("expected EMERGENCY_LOCK after restricted zone GPS check, got %s", v.State)
	}

	entries := c.auditLog.Entries()
	found := false
	for _, e := range entries {
		if e.EventType == "EMERGENCY_LOCK" {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("expected an EMERGENCY_LOCK audit entry")
	}
}

func TestCriticalBatteryAutoEndsActiveRental(t *testing.T) {
	c := newTestCoordinator(t, models.Vehicle{
		ID: "VEH-LOWBAT", City: "Berlin", State: models.StateAvailable, BatteryPercent: 90,
	})
	rental, err := c.Reserve("USR-1", "VEH-LOWBAT")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(rental.ID, "VEH-LOWBAT"); err != nil {
		t.Fatal(err)
	}

	if err := c.SubmitTelemetry("VEH-LOWBAT", models.TelemetrySample{TemperatureC: 20, BatteryPercent: 2}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, _ := c.getVehicle("VEH-LOWBAT"); v.State == models.StateAvailable {
			r, _ := c.getRental(rental.ID)
			if !r.Active {
				payment := findPaymentForRental(c, rental.ID)
				if payment == nil {
					t.Fatal("expected a payment to be created for the auto-ended rental")
				}
				if payment.BaseAmount != baseFareAmount {
					t.Fatalf("expected base amount %.2f, got %.2f", baseFareAmount, payment.BaseAmount)
				}
				if payment.Total != payment.BaseAmount+payment.Surcharges {
					t.Fatal("total must equal base + surcharges")
				}
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected rental to be auto-ended on critical battery")
}

func findPaymentForRental(c *Coordinator, rentalID string) *models.Payment {
	c.tableMu.RLock()
	defer c.tableMu.RUnlock()
	for _, p := range c.payments {
		if p.RentalID == rentalID {
			return p
		}
	}
	return nil
}

func TestConcurrentReserveOnlyOneWins(t *testing.T) {
	c := newTestCoordinator(t, models.Vehicle{
		ID: "VEH-RACE", City: "Berlin", State: models.StateAvailable, BatteryPercent: 90,
	})
	const attempts = 20
	var wg sync.WaitGroup
	successes := make(chan string, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r, err := c.Reserve("USR-1", "VEH-RACE"); err == nil {
				successes <- r.ID
			}
		}()
	}
	wg.Wait()
	close(successes)
	count := 0
	for range successes {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one reservation to win the race, got %d", count)
	}
}
