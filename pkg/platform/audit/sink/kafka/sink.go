// Package kafka adapts the audit worker's Sink interface onto the shared
// Kafka producer.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"oilcert/internal/platform/kafka"
	"oilcert/pkg/platform/audit"
)

// Sink streams committed audit events to the audit topic. Records are keyed
// by certificate ID so consumers see each certificate's history in order.
type Sink struct {
	producer *kafka.Producer
}

func New(producer *kafka.Producer) *Sink {
	return &Sink{producer: producer}
}

func (s *Sink) Publish(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	key := []byte(event.CertificateID.String())
	return s.producer.Produce(ctx, key, payload)
}
