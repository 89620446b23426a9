// Package telemetry implements a bounded-queue, single-consumer
// pipeline: producers enqueue samples, a worker drains them, applies
// them to the vehicle, classifies them against fixed thresholds, and
// dispatches at most one terminal event per sample to the coordinator.
package telemetry

import (
	"sync"
	"time"

	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/models"
)

// QueueCapacity is the bounded capacity producers block against.
const QueueCapacity = 50000

// PollInterval bounds how long the worker waits on an empty queue before
// checking the running flag again.
const PollInterval = 100 * time.Millisecond

const (
	criticalTemperatureC = 60.0
	highTemperatureC     = 50.0
	criticalBatteryPct   = 5
	lowBatteryPct        = 15
	theftAlarmMeters     = 10.0
)

// EventType is the stable vocabulary the worker emits.
type EventType string

const (
	EventCriticalTemperature EventType = "CRITICAL_TEMPERATURE"
	EventHighTempWarning     EventType = "HIGH_TEMPERATURE_WARNING"
	EventCriticalBattery     EventType = "CRITICAL_BATTERY"
	EventLowBatteryWarning   EventType = "LOW_BATTERY_WARNING"
	EventTheftAlarm          EventType = "THEFT_ALARM"
)

// Event is what the worker hands to the coordinator's handler.
type Event struct {
	Type      EventType
	VehicleID string
	Vehicle   models.Vehicle
	Sample    models.TelemetrySample
}

// item is what producers enqueue: the vehicle, the sample, and the
// vehicle's location immediately before this sample, captured at
// enqueue time so classification is deterministic regardless of
// subsequent updates landing in the queue.
type item struct {
	vehicle      *VehicleRef
	sample       models.TelemetrySample
	prevLocation geo.Coord
}

// VehicleRef is the narrow, lockable view of a vehicle the worker needs
// to apply a sample. The coordinator supplies an implementation backed
// by its authoritative vehicle table and the vehicle's internal state
// lock.
type VehicleRef struct {
	mu sync.Mutex
	v  *models.Vehicle
}

func NewVehicleRef(v *models.Vehicle) *VehicleRef { return &VehicleRef{v: v} }

// Apply updates location/battery/temperature under the internal lock and
// returns a snapshot copy of the vehicle as it stood before the update.
func (r *VehicleRef) Apply(sample models.TelemetrySample) (before models.Vehicle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before = *r.v
	r.v.Location = sample.GPS
	r.v.BatteryPercent = sample.BatteryPercent
	r.v.TemperatureC = sample.TemperatureC
	if r.v.Kind == models.KindMoped {
		r.v.HelmetDetected = sample.HelmetPresent
	}
	return before
}

// Snapshot returns a copy of the current vehicle state under the lock.
func (r *VehicleRef) Snapshot() models.Vehicle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.v
}

// Handler reacts to a classified event. The coordinator implements this
// under the affected vehicle's mutex.
type Handler interface {
	HandleTelemetryEvent(ev Event)
}

// Worker is the single background consumer draining the bounded queue.
type Worker struct {
	queue   chan item
	handler Handler
	running chan struct{}
	done    chan struct{}
}

func NewWorker(handler Handler) *Worker {
	return &Worker{
		queue:   make(chan item, QueueCapacity),
		handler: handler,
		running: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Submit enqueues a sample, blocking if the queue is full.
func (w *Worker) Submit(ref *VehicleRef, sample models.TelemetrySample) {
	prevLoc := ref.Snapshot().Location
	w.queue <- item{vehicle: ref, sample: sample, prevLocation: prevLoc}
}

// Run drains the queue until Stop is called, then drains whatever
// remains before returning. Intended to run in its own goroutine.
func (w *Worker) Run() {
	for {
		select {
		case it := <-w.queue:
			w.process(it)
		case <-w.running:
			w.drain()
			close(w.done)
			return
		case <-time.After(PollInterval):
			// periodic wakeup to re-check the running flag even when idle
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case it := <-w.queue:
			w.process(it)
		default:
			return
		}
	}
}

// QueueDepth reports the number of samples currently buffered, for
// gauge reporting.
func (w *Worker) QueueDepth() int {
	return len(w.queue)
}

// Stop cooperatively shuts the worker down: it stops accepting the
// running-flag wait, finishes draining the queue, then returns once the
// worker goroutine has exited.
func (w *Worker) Stop() {
	close(w.running)
	<-w.done
}

func (w *Worker) process(it item) {
	before := it.vehicle.Apply(it.sample)
	after := it.vehicle.Snapshot()
	for _, ev := range classify(after, before, it.sample, it.prevLocation) {
		w.handler.HandleTelemetryEvent(ev)
	}
}

// classify applies the fixed thresholds in order. Temperature and
// battery are each a category where the first match wins (CRITICAL
// pre-empts the WARNING in the same category); CRITICAL_TEMPERATURE,
// CRITICAL_BATTERY, and THEFT_ALARM are terminal and stop classification
// immediately. The two WARNING events are non-terminal: classification
// continues to the next category, so a single sample can surface both a
// HIGH_TEMPERATURE_WARNING and a LOW_BATTERY_WARNING.
func classify(after, before models.Vehicle, sample models.TelemetrySample, prevLoc geo.Coord) []Event {
	base := func(t EventType) Event {
		return Event{Type: t, VehicleID: after.ID, Vehicle: after, Sample: sample}
	}
	var events []Event

	if sample.TemperatureC > criticalTemperatureC {
		return []Event{base(EventCriticalTemperature)}
	}
	if sample.TemperatureC > highTemperatureC {
		events = append(events, base(EventHighTempWarning))
	}

	if sample.BatteryPercent <= criticalBatteryPct {
		return append(events, base(EventCriticalBattery))
	}
	if sample.BatteryPercent <= lowBatteryPct {
		events = append(events, base(EventLowBatteryWarning))
	}

	if after.State == models.StateAvailable || after.State == models.StateReserved {
		if geo.Haversine(prevLoc.Lat, prevLoc.Lon, sample.GPS.Lat, sample.GPS.Lon) > theftAlarmMeters {
			return append(events, base(EventTheftAlarm))
		}
	}
	return events
}
