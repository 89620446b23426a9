// Package httpapi exposes the coordinator's operations over HTTP, plus
// a websocket feed for the ops dashboard and a fleet-locator query
// route. It never implements domain logic itself — every handler is a
// thin decode/call/encode wrapper around the coordinator.
package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/fleetctl/internal/coordinator"
	"github.com/example/fleetctl/internal/dispatch"
	"github.com/example/fleetctl/internal/fleetlocator"
	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/models"
)

// Server is the HTTP façade over one Coordinator.
type Server struct {
	Coordinator *coordinator.Coordinator
	Locator     fleetlocator.Locator
	WSReg       *dispatch.WSRegistry
	logger      *slog.Logger
	mux         *mux.Router
}

func NewServer(c *coordinator.Coordinator, locator fleetlocator.Locator, wsreg *dispatch.WSRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{Coordinator: c, Locator: locator, WSReg: wsreg, logger: logger, mux: mux.NewRouter()}
	s.routes()
	s.registerMiddleware()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/vehicles/{vehicle_id}/reserve", s.handleReserve).Methods("POST")
	s.mux.HandleFunc("/api/v1/rentals/{rental_id}/start", s.handleStart).Methods("POST")
	s.mux.HandleFunc("/api/v1/rentals/{rental_id}/end", s.handleEnd).Methods("POST")
	s.mux.HandleFunc("/api/v1/vehicles/{vehicle_id}/gps-check", s.handleCheckGPS).Methods("POST")
	s.mux.HandleFunc("/api/v1/vehicles/{vehicle_id}/telemetry", s.handleTelemetry).Methods("POST")
	s.mux.HandleFunc("/api/v1/fleet/nearby", s.handleNearby).Methods("GET")
	s.mux.HandleFunc("/api/v1/audit/verify", s.handleVerifyAudit).Methods("GET")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/ops", s.handleOpsWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type reserveRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rental, err := s.Coordinator.Reserve(req.UserID, vehicleID)
	if err != nil {
		writeCoordinatorError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rental)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	rentalID := mux.Vars(r)["rental_id"]
	var req struct {
		VehicleID string `json:"vehicle_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Coordinator.Start(rentalID, req.VehicleID); err != nil {
		writeCoordinatorError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	rentalID := mux.Vars(r)["rental_id"]
	var req struct {
		VehicleID string `json:"vehicle_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payment, err := s.Coordinator.End(rentalID, req.VehicleID)
	if err != nil {
		writeCoordinatorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (s *Server) handleCheckGPS(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]
	var gps geo.Coord
	if err := json.NewDecoder(r.Body).Decode(&gps); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	allowed := s.Coordinator.CheckGPS(vehicleID, gps)
	writeJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]
	var sample models.TelemetrySample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	if err := s.Coordinator.SubmitTelemetry(vehicleID, sample); err != nil {
		writeCoordinatorError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	if s.Locator == nil {
		http.Error(w, "fleet locator not configured", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(q.Get("lon"), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "lat and lon query params are required", http.StatusBadRequest)
		return
	}
	radiusM, _ := strconv.ParseFloat(q.Get("radius_m"), 64)
	limit, _ := strconv.Atoi(q.Get("limit"))
	entries := s.Locator.Nearby(lat, lon, radiusM, limit)
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleVerifyAudit(w http.ResponseWriter, r *http.Request) {
	ok, err := s.Coordinator.VerifyAuditChain()
	resp := map[string]any{"chain_intact": ok}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleOpsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.WSReg.Add(newID(), conn)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeCoordinatorError(w http.ResponseWriter, err error) {
	var notFound *coordinator.NotFoundError
	var notAvailable *coordinator.NotAvailableError
	var alreadyEnded *coordinator.AlreadyEndedError
	var rolledBack *coordinator.RolledBackError

	switch {
	case errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &notAvailable), errors.As(err, &alreadyEnded):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &rolledBack):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		// policy violations and anything else surface as-is
		http.Error(w, err.Error(), http.StatusForbidden)
	}
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
