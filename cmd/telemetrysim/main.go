// Command telemetrysim fabricates vehicle telemetry samples and publishes
// them through ingest.KafkaProducer, standing in for onboard units in
// deployments where telemetrygw consumes from Kafka rather than vehicles
// calling fleetctl directly.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/ingest"
	"github.com/example/fleetctl/internal/models"
)

func main() {
	var interval time.Duration
	flag.DurationVar(&interval, "interval", 2*time.Second, "time between samples per vehicle")
	flag.Parse()

	brokers := splitAndTrim(getenv("KAFKA_BROKERS", "localhost:9092"))
	topic := getenv("KAFKA_TOPIC", "vehicle-telemetry")
	vehicleIDs := splitAndTrim(getenv("SIM_VEHICLE_IDS", "VEH-LON-001,VEH-MIL-001,VEH-ROM-001"))

	producer := ingest.NewKafkaProducer(brokers, topic)
	defer producer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("telemetrysim publishing topic=%s brokers=%v vehicles=%v every %s", topic, brokers, vehicleIDs, interval)

	fleet := make([]simVehicle, len(vehicleIDs))
	for i, id := range vehicleIDs {
		fleet[i] = newSimVehicle(id)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("shutting down telemetrysim")
			return
		case <-ticker.C:
			for i := range fleet {
				sample := fleet[i].next()
				if err := producer.PublishTelemetry(ctx, fleet[i].id, sample); err != nil {
					log.Printf("publish failed for vehicle=%s: %v", fleet[i].id, err)
					continue
				}
			}
		}
	}
}

// simVehicle drains a vehicle's battery slowly (one point on roughly one
// tick in five) and lets its temperature and position drift as random
// walks, so long runs eventually cross the thresholds the telemetry
// pipeline watches for, instead of only emitting steady-state readings.
type simVehicle struct {
	id             string
	location       geo.Coord
	batteryPercent int
	temperatureC   float64
}

func newSimVehicle(id string) simVehicle {
	return simVehicle{
		id:             id,
		location:       geo.Coord{Lat: 51.5 + rand.Float64()*0.1, Lon: -0.1 + rand.Float64()*0.1},
		batteryPercent: 70 + rand.Intn(30),
		temperatureC:   20 + rand.Float64()*5,
	}
}

func (v *simVehicle) next() models.TelemetrySample {
	if v.batteryPercent > 0 && rand.Intn(5) == 0 {
		v.batteryPercent--
	}
	v.temperatureC += rand.Float64()*2 - 1
	v.location.Lat += (rand.Float64() - 0.5) * 0.001
	v.location.Lon += (rand.Float64() - 0.5) * 0.001

	return models.TelemetrySample{
		Timestamp:      time.Now(),
		GPS:            v.location,
		BatteryPercent: v.batteryPercent,
		TemperatureC:   v.temperatureC,
		HelmetPresent:  true,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
