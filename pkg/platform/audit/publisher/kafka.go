// Package publisher streams recorded audit entries to Kafka for the
// notification subsystem and other downstream consumers. Delivery is
// best-effort by design: the hash-chained store is the source of truth, and a
// broker outage must never block a mutation.
package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "practiceops/pkg/platform/audit"
)

type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafka(brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}
	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

// wireEntry is the JSON shape published to Kafka.
type wireEntry struct {
	ID         string         `json:"id"`
	Seq        uint64         `json:"seq"`
	Actor      string         `json:"actor,omitempty"`
	Action     string         `json:"action"`
	Category   string         `json:"category"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id"`
	Details    map[string]any `json:"details,omitempty"`
	Origin     string         `json:"origin"`
	Timestamp  string         `json:"timestamp"`
}

// Publish produces one entry, keyed by target ID so per-entity ordering is
// preserved across partitions.
func (k *Kafka) Publish(ctx context.Context, entry audit.Entry) error {
	w := wireEntry{
		ID:         entry.ID.String(),
		Seq:        entry.Seq,
		Action:     string(entry.Action),
		Category:   string(entry.Action.Category()),
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Details:    entry.Details,
		Origin:     entry.Origin,
		Timestamp:  entry.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if entry.Actor != nil {
		w.Actor = entry.Actor.String()
	}
	value, err := json.Marshal(w)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(entry.TargetID),
		Value: value,
	}
	return k.client.ProduceSync(ctx, record).FirstErr()
}

func (k *Kafka) Close() {
	k.client.Close()
}
