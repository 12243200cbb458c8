package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/public-data-proxy/internal/config"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
)

// Publisher produces tornado trend snapshots to a Kafka topic.
// It implements pipeline.SnapshotPublisher.
type Publisher struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewPublisher creates a Kafka producer for the configured snapshot topic.
func NewPublisher(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSnapshotTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// Publish writes one snapshot. Snapshots are keyed by year so a compacted
// topic keeps only the latest per year.
func (p *Publisher) Publish(ctx context.Context, snap domain.Snapshot) error {
	msg, err := serializeToMessage(snap)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish snapshot %d: %w", snap.Year, err)
	}
	p.metrics.SnapshotsPublished.Inc()
	p.logger.Debug("snapshot published", "year", snap.Year, "total_reports", snap.TotalReports)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a Snapshot into a Kafka message.
func serializeToMessage(snap domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(snap.Year)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "snapshot_type", Value: []byte("tornado_trend")},
			{Key: "generated_at", Value: []byte(snap.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
