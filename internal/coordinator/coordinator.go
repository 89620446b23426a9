// Package coordinator is the transactional core of the fleet control
// plane: it orchestrates reserve/start/end/gps-check/telemetry-event
// against the per-vehicle state machine, the active city's policy gate,
// and the checksum-chained audit log, holding per-vehicle mutual
// exclusion and rolling back in-memory state if a commit's audit append
// fails.
package coordinator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/fleetctl/internal/audit"
	"github.com/example/fleetctl/internal/models"
	"github.com/example/fleetctl/internal/observability"
	"github.com/example/fleetctl/internal/policy"
	"github.com/example/fleetctl/internal/storage"
	"github.com/example/fleetctl/internal/telemetry"
)

const baseFareAmount = 6.00

// Notifier receives best-effort, fire-and-forget notice of events the
// coordinator has already committed. A nil Notifier is a legal no-op —
// the ops dashboard fan-out in internal/dispatch is not on the critical
// path.
type Notifier interface {
	Notify(eventType, vehicleID, detail string)
}

// Settler processes payment for an ended rental out of band. A nil
// Settler is a legal no-op; settlement failure is logged, never rolled
// back.
type Settler interface {
	Settle(ctx context.Context, payment models.Payment) error
}

// Locator receives vehicle location updates as telemetry is submitted
// (before the worker applies the sample), for fleet-ops "nearby" queries. A nil Locator is a legal no-op.
type Locator interface {
	Upsert(vehicleID string, loc models.TelemetrySample, state models.VehicleState)
}

// Coordinator owns the authoritative in-memory tables for vehicles,
// rentals, payments, and users, and mediates every mutation through the
// per-vehicle mutex + policy gate + state machine + audit append path.
type Coordinator struct {
	logger *slog.Logger

	tableMu  sync.RWMutex
	vehicles map[string]*models.Vehicle
	refs     map[string]*telemetry.VehicleRef
	users    map[string]*models.User
	rentals  map[string]*models.Rental
	payments map[string]*models.Payment

	vehicleStore storage.VehicleStore
	userStore    storage.UserStore
	rentalStore  storage.RentalStore
	paymentStore storage.PaymentStore

	auditLog *audit.Log

	locksMu      sync.Mutex
	vehicleLocks map[string]*sync.Mutex

	snapMu    sync.Mutex
	snapshots map[string]models.VehicleState

	worker *telemetry.Worker

	notifier Notifier
	settler  Settler
	locator  Locator
}

// Config wires a Coordinator's collaborators. Notifier, Settler, and
// Locator are optional; the persistence stores and audit log are not.
type Config struct {
	Logger       *slog.Logger
	VehicleStore storage.VehicleStore
	UserStore    storage.UserStore
	RentalStore  storage.RentalStore
	PaymentStore storage.PaymentStore
	AuditLog     *audit.Log
	Notifier     Notifier
	Settler      Settler
	Locator      Locator
}

// New constructs a Coordinator and loads its authoritative tables from
// the configured persistence adapters. The telemetry worker is started
// immediately; callers must call StopTelemetryMonitor on shutdown.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	c := &Coordinator{
		logger:       cfg.Logger,
		vehicles:     make(map[string]*models.Vehicle),
		refs:         make(map[string]*telemetry.VehicleRef),
		users:        make(map[string]*models.User),
		rentals:      make(map[string]*models.Rental),
		payments:     make(map[string]*models.Payment),
		vehicleStore: cfg.VehicleStore,
		userStore:    cfg.UserStore,
		rentalStore:  cfg.RentalStore,
		paymentStore: cfg.PaymentStore,
		auditLog:     cfg.AuditLog,
		vehicleLocks: make(map[string]*sync.Mutex),
		snapshots:    make(map[string]models.VehicleState),
		notifier:     cfg.Notifier,
		settler:      cfg.Settler,
		locator:      cfg.Locator,
	}

	vehicles, err := cfg.VehicleStore.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load vehicles: %w", err)
	}
	for i := range vehicles {
		v := vehicles[i]
		c.vehicles[v.ID] = &v
		c.refs[v.ID] = telemetry.NewVehicleRef(&v)
	}

	users, err := cfg.UserStore.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for i := range users {
		u := users[i]
		c.users[u.ID] = &u
	}

	rentals, err := cfg.RentalStore.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load rentals: %w", err)
	}
	for i := range rentals {
		r := rentals[i]
		c.rentals[r.ID] = &r
	}

	payments, err := cfg.PaymentStore.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	for i := range payments {
		p := payments[i]
		c.payments[p.ID] = &p
	}

	c.worker = telemetry.NewWorker(c)
	go c.worker.Run()

	return c, nil
}

// StopTelemetryMonitor cooperatively shuts the telemetry worker down,
// draining any queued samples before returning.
func (c *Coordinator) StopTelemetryMonitor() {
	c.worker.Stop()
}

// VerifyAuditChain re-walks the committed audit chain. Not called
// automatically at startup; operators invoke it explicitly.
func (c *Coordinator) VerifyAuditChain() (bool, error) {
	return c.auditLog.VerifyChain()
}

func (c *Coordinator) lockFor(vehicleID string) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	m, ok := c.vehicleLocks[vehicleID]
	if !ok {
		m = &sync.Mutex{}
		c.vehicleLocks[vehicleID] = m
	}
	return m
}

func (c *Coordinator) getVehicle(id string) (*models.Vehicle, bool) {
	c.tableMu.RLock()
	defer c.tableMu.RUnlock()
	v, ok := c.vehicles[id]
	return v, ok
}

func (c *Coordinator) getUser(id string) (*models.User, bool) {
	c.tableMu.RLock()
	defer c.tableMu.RUnlock()
	u, ok := c.users[id]
	return u, ok
}

func (c *Coordinator) getRental(id string) (*models.Rental, bool) {
	c.tableMu.RLock()
	defer c.tableMu.RUnlock()
	r, ok := c.rentals[id]
	return r, ok
}

func (c *Coordinator) putRental(r *models.Rental) {
	c.tableMu.Lock()
	defer c.tableMu.Unlock()
	c.rentals[r.ID] = r
}

func (c *Coordinator) putPayment(p *models.Payment) {
	c.tableMu.Lock()
	defer c.tableMu.Unlock()
	c.payments[p.ID] = p
}

func newID(prefix string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}

func (c *Coordinator) notify(eventType, vehicleID, detail string) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(eventType, vehicleID, detail)
}

func (c *Coordinator) record(eventType, payload string) (models.AuditEntry, error) {
	entry, err := c.auditLog.Record(eventType, payload)
	if err != nil {
		observability.AuditWriteFailuresTotal.Inc()
		return models.AuditEntry{}, err
	}
	observability.AuditEntriesTotal.Inc()
	return entry, nil
}

func policyFor(v *models.Vehicle) policy.Policy {
	return policy.ForCity(v.City)
}
