// Command fleetctl runs the fleet coordinator behind its HTTP façade:
// reserve/start/end/gps-check/telemetry routes, an ops-dashboard
// websocket feed, and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	httpapi "github.com/example/fleetctl/internal/http"

	"github.com/example/fleetctl/internal/audit"
	"github.com/example/fleetctl/internal/config"
	"github.com/example/fleetctl/internal/coordinator"
	"github.com/example/fleetctl/internal/dispatch"
	"github.com/example/fleetctl/internal/fleetlocator"
	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/logging"
	"github.com/example/fleetctl/internal/models"
	"github.com/example/fleetctl/internal/payments"
	"github.com/example/fleetctl/internal/storage"
	pgstorage "github.com/example/fleetctl/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	var (
		vehicleStore storage.VehicleStore
		userStore    storage.UserStore
		rentalStore  storage.RentalStore
		paymentStore storage.PaymentStore
		auditStore   audit.Store
	)

	if cfg.PGDSN != "" {
		pg, err := pgstorage.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		defer pg.Close()
		vehicleStore = pg.Vehicles()
		userStore = pg.Users()
		rentalStore = pg.Rentals()
		paymentStore = pg.Payments()
		auditStore = pg.AuditLog()
		logger.Info("using postgres persistence", "dsn_set", true)
	} else {
		csvVehicleStore := storage.NewVehicleCSVStore(filepath.Join(cfg.DataDir, "vehicles.csv"))
		csvUserStore := storage.NewUserCSVStore(filepath.Join(cfg.DataDir, "users.csv"))
		vehicleStore = csvVehicleStore
		userStore = csvUserStore
		rentalStore = storage.NewRentalCSVStore(filepath.Join(cfg.DataDir, "rentals.csv"))
		paymentStore = storage.NewPaymentCSVStore(filepath.Join(cfg.DataDir, "payments.csv"))
		auditStore = storage.NewAuditCSVStore(cfg.AuditLogPath)
		seedFleetIfEmpty(csvVehicleStore, csvUserStore, logger)
	}

	auditLog, err := audit.Open(auditStore)
	if err != nil {
		log.Fatalf("open audit log: %v", err)
	}

	wsreg := dispatch.NewWSRegistry(logger)

	var locator fleetlocator.Locator
	if cfg.RedisAddr != "" {
		locator = fleetlocator.NewRedisLocator(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
	} else {
		locator = fleetlocator.NewIndex()
	}

	var settler coordinator.Settler
	if cfg.StripeAPIKey != "" {
		settler = payments.NewStripeSettler("gbp")
	}

	c, err := coordinator.New(coordinator.Config{
		Logger:       logger,
		VehicleStore: vehicleStore,
		UserStore:    userStore,
		RentalStore:  rentalStore,
		PaymentStore: paymentStore,
		AuditLog:     auditLog,
		Notifier:     wsreg,
		Settler:      settler,
		Locator:      fleetlocator.CoordinatorAdapter{Locator: locator},
	})
	if err != nil {
		log.Fatalf("start coordinator: %v", err)
	}
	defer c.StopTelemetryMonitor()

	srv := httpapi.NewServer(c, locator, wsreg, logger)

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("fleetctl listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	if ok, err := c.VerifyAuditChain(); !ok {
		logger.Error("audit chain failed verification on shutdown", "error", err)
	}
}

// seedFleetIfEmpty populates a small multi-city starter fleet the first
// time fleetctl runs against an empty data directory.
func seedFleetIfEmpty(vs *storage.VehicleCSVStore, us *storage.UserCSVStore, logger *slog.Logger) {
	existing, err := vs.LoadAll()
	if err != nil {
		log.Fatalf("load vehicles: %v", err)
	}
	if len(existing) > 0 {
		return
	}

	seed := []models.Vehicle{
		{ID: "VEH-LON-001", Kind: models.KindScooter, City: "London", Location: geo.Coord{Lat: 51.5074, Lon: -0.1278}, BatteryPercent: 90, TemperatureC: 22, State: models.StateAvailable},
		{ID: "VEH-LON-002", Kind: models.KindBicycle, City: "London", Location: geo.Coord{Lat: 51.5033, Lon: -0.1195}, BatteryPercent: 100, TemperatureC: 21, State: models.StateAvailable},
		{ID: "VEH-MIL-001", Kind: models.KindMoped, City: "Milan", Location: geo.Coord{Lat: 45.4642, Lon: 9.1900}, BatteryPercent: 85, TemperatureC: 24, State: models.StateAvailable},
		{ID: "VEH-ROM-001", Kind: models.KindScooter, City: "Rome", Location: geo.Coord{Lat: 41.9028, Lon: 12.4964}, BatteryPercent: 77, TemperatureC: 26, State: models.StateAvailable},
	}
	if err := vs.SaveAll(seed); err != nil {
		log.Fatalf("seed vehicles: %v", err)
	}

	users := []models.User{{ID: "USR-0001", Name: "demo rider"}}
	if err := us.SaveAll(users); err != nil {
		log.Fatalf("seed users: %v", err)
	}

	logger.Info("seeded starter fleet", "vehicle_count", len(seed))
}
