// Package ingest carries vehicle telemetry between a producer (an
// onboard unit or simulator) and the coordinator, over Kafka when
// fleetctl is deployed as separate processes rather than a single
// in-process queue.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/fleetctl/internal/models"
)

// TelemetryMessage is the wire shape published to the telemetry topic.
type TelemetryMessage struct {
	VehicleID string                 `json:"vehicle_id"`
	Sample    models.TelemetrySample `json:"sample"`
}

// KafkaProducer publishes telemetry samples keyed by vehicle id so a
// partitioned topic preserves per-vehicle ordering.
type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	return &KafkaProducer{writer: w}
}

func (k *KafkaProducer) PublishTelemetry(ctx context.Context, vehicleID string, sample models.TelemetrySample) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := json.Marshal(TelemetryMessage{VehicleID: vehicleID, Sample: sample})
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(vehicleID), Value: b})
}

func (k *KafkaProducer) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
