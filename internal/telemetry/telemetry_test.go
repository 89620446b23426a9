package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/models"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []Event
}

func (h *recordingHandler) HandleTelemetryEvent(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func (h *recordingHandler) types() []EventType {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]EventType, len(h.events))
	for i, e := range h.events {
		out[i] = e.Type
	}
	return out
}

func waitForEvents(h *recordingHandler, n int) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(h.types()) >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestWorkerCriticalTemperatureIsTerminal(t *testing.T) {
	h := &recordingHandler{}
	w := NewWorker(h)
	go w.Run()
	defer w.Stop()

	v := &models.Vehicle{ID: "V1", State: models.StateInUse, BatteryPercent: 50}
	ref := NewVehicleRef(v)
	w.Submit(ref, models.TelemetrySample{TemperatureC: 75.0, BatteryPercent: 50, GPS: geo.Coord{}})

	if !waitForEvents(h, 1) {
		t.Fatal("expected an event to be dispatched")
	}
	types := h.types()
	if len(types) != 1 || types[0] != EventCriticalTemperature {
		t.Fatalf("expected [CRITICAL_TEMPERATURE], got %v", types)
	}
}

func TestWorkerTheftAlarmWhileAvailable(t *testing.T) {
	h := &recordingHandler{}
	w := NewWorker(h)
	go w.Run()
	defer w.Stop()

	v := &models.Vehicle{ID: "V2", State: models.StateAvailable, BatteryPercent: 80, Location: geo.Coord{Lat: 45.4642, Lon: 9.1900}}
	ref := NewVehicleRef(v)
	w.Submit(ref, models.TelemetrySample{TemperatureC: 20, BatteryPercent: 80, GPS: geo.Coord{Lat: 45.4700, Lon: 9.1950}})

	if !waitForEvents(h, 1) {
		t.Fatal("expected theft alarm event")
	}
	types := h.types()
	if len(types) != 1 || types[0] != EventTheftAlarm {
		t.Fatalf("expected [THEFT_ALARM], got %v", types)
	}
}

func TestWorkerHighTempAndLowBatteryBothWarn(t *testing.T) {
	h := &recordingHandler{}
	w := NewWorker(h)
	go w.Run()
	defer w.Stop()

	v := &models.Vehicle{ID: "V3", State: models.StateInUse, BatteryPercent: 50}
	ref := NewVehicleRef(v)
	w.Submit(ref, models.TelemetrySample{TemperatureC: 55, BatteryPercent: 10, GPS: geo.Coord{}})

	if !waitForEvents(h, 2) {
		t.Fatalf("expected two warning events, got %v", h.types())
	}
	types := h.types()
	if types[0] != EventHighTempWarning || types[1] != EventLowBatteryWarning {
		t.Fatalf("expected [HIGH_TEMPERATURE_WARNING, LOW_BATTERY_WARNING], got %v", types)
	}
}

func TestWorkerStopDrainsQueue(t *testing.T) {
	h := &recordingHandler{}
	w := NewWorker(h)
	go w.Run()

	v := &models.Vehicle{ID: "V4", State: models.StateInUse, BatteryPercent: 50}
	ref := NewVehicleRef(v)
	for i := 0; i < 5; i++ {
		w.Submit(ref, models.TelemetrySample{TemperatureC: 75.0, BatteryPercent: 50})
	}
	w.Stop()
	if len(h.types()) == 0 {
		t.Fatal("expected queued items to be drained before Stop returns")
	}
}
