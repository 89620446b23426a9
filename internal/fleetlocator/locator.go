// Package fleetlocator maintains a live index of vehicle locations for
// fleet-operations queries ("vehicles within N meters of X"). It is not
// part of the coordinator's transactional path — the coordinator commits
// state through the audit log regardless of whether a locator is wired.
package fleetlocator

import (
	"sync"
	"time"

	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/models"
)

// Entry is a point-in-time vehicle location record.
type Entry struct {
	VehicleID string
	Loc       geo.Coord
	State     string
	Updated   time.Time
}

// Locator is the minimal interface the HTTP façade and the coordinator's
// telemetry path use to keep/query vehicle locations.
type Locator interface {
	Upsert(e Entry)
	Nearby(lat, lon, radiusM float64, limit int) []Entry
}

// CoordinatorAdapter satisfies coordinator.Locator, translating the
// coordinator's telemetry-sample shape into an Entry so the coordinator
// package does not need to depend on this one's types.
type CoordinatorAdapter struct {
	Locator
}

func (a CoordinatorAdapter) Upsert(vehicleID string, loc models.TelemetrySample, state models.VehicleState) {
	a.Locator.Upsert(Entry{VehicleID: vehicleID, Loc: loc.GPS, State: string(state)})
}

// Index is an in-memory Locator; the default when REDIS_ADDR is unset.
type Index struct {
	mu       sync.RWMutex
	vehicles map[string]Entry
}

func NewIndex() *Index {
	return &Index{vehicles: make(map[string]Entry)}
}

func (ix *Index) Upsert(e Entry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e.Updated = time.Now()
	ix.vehicles[e.VehicleID] = e
}

// Nearby does a naive linear scan and partial selection sort for the
// top-N closest vehicles within radiusM; radiusM <= 0 means unbounded.
func (ix *Index) Nearby(lat, lon, radiusM float64, limit int) []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	type pair struct {
		e    Entry
		dist float64
	}
	arr := make([]pair, 0, len(ix.vehicles))
	for _, e := range ix.vehicles {
		d := geo.Haversine(lat, lon, e.Loc.Lat, e.Loc.Lon)
		if radiusM > 0 && d > radiusM {
			continue
		}
		arr = append(arr, pair{e, d})
	}
	n := limit
	if n <= 0 || n > len(arr) {
		n = len(arr)
	}
	for i := 0; i < n; i++ {
		minIdx := i
		for j := i + 1; j < len(arr); j++ {
			if arr[j].dist < arr[minIdx].dist {
				minIdx = j
			}
		}
		arr[i], arr[minIdx] = arr[minIdx], arr[i]
	}
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, arr[i].e)
	}
	return out
}
