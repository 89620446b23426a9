// Command telemetrygw is a standalone Kafka consumer that forwards
// vehicle telemetry samples into a running fleetctl coordinator's HTTP
// API, for deployments where onboard units publish to Kafka rather than
// calling fleetctl directly.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"github.com/example/fleetctl/internal/ingest"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "telemetrygw_messages_consumed_total",
		Help: "Total telemetry messages consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "telemetrygw_messages_invalid_total",
		Help: "Total invalid telemetry messages received",
	})
	forwardsOK = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "telemetrygw_forwards_total",
		Help: "Total successful forwards to the coordinator",
	})
	forwardsErr = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "telemetrygw_forward_errors_total",
		Help: "Total forward failures to the coordinator",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, forwardsOK, forwardsErr)
}

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2113", "address to serve prometheus metrics on")
	flag.Parse()

	brokers := splitAndTrim(getenv("KAFKA_BROKERS", "localhost:9092"))
	topic := getenv("KAFKA_TOPIC", "vehicle-telemetry")
	group := getenv("KAFKA_GROUP", "fleetctl-telemetry-gw")
	coordinatorAddr := getenv("FLEETCTL_ADDR", "http://localhost:8080")

	httpClient := &http.Client{Timeout: 3 * time.Second}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
		log.Printf("metrics/health listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer r.Close()

	log.Printf("telemetrygw listening topic=%s brokers=%v group=%s forwarding to %s", topic, brokers, group, coordinatorAddr)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("shutting down telemetrygw")
				return
			}
			log.Printf("kafka read error: %v; backing off %s", err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
		msgsConsumed.Inc()

		var msg ingest.TelemetryMessage
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			msgsInvalid.Inc()
			log.Printf("invalid telemetry message: %v", err)
			continue
		}

		if err := forwardWithRetry(ctx, httpClient, coordinatorAddr, msg, 3, 200*time.Millisecond); err != nil {
			forwardsErr.Inc()
			log.Printf("forward failed for vehicle=%s: %v", msg.VehicleID, err)
			continue
		}
		forwardsOK.Inc()
	}
}

func forwardWithRetry(ctx context.Context, client *http.Client, coordinatorAddr string, msg ingest.TelemetryMessage, attempts int, delay time.Duration) error {
	url := coordinatorAddr + "/api/v1/vehicles/" + msg.VehicleID + "/telemetry"
	body, err := json.Marshal(msg.Sample)
	if err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode < 300 {
				return nil
			}
			lastErr = errHTTPStatus(resp.StatusCode)
		} else {
			lastErr = err
		}
		if i < attempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return lastErr
}

type errHTTPStatus int

func (e errHTTPStatus) Error() string { return http.StatusText(int(e)) }

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
