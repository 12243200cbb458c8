package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/public-data-proxy/internal/config"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
)

type recordingWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Year:           2025,
		TotalReports:   412,
		LastReportDate: "2025-04-26",
		Days:           116,
		GeneratedAt:    time.Date(2025, 4, 27, 6, 0, 0, 0, time.UTC),
	}
}

func TestSerializeToMessage(t *testing.T) {
	snap := testSnapshot()

	msg, err := serializeToMessage(snap)
	require.NoError(t, err)

	assert.Equal(t, []byte("2025"), msg.Key)
	assert.JSONEq(t, `{"year":2025,"total_reports":412,"last_report_date":"2025-04-26","days":116,"generated_at":"2025-04-27T06:00:00Z"}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "snapshot_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("tornado_trend"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2025-04-27T06:00:00Z"), msg.Headers[1].Value)
}

func TestPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	metrics := observability.NewMetricsForTesting()
	p := &Publisher{writer: w, metrics: metrics, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, p.Publish(context.Background(), testSnapshot()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("2025"), w.msgs[0].Key)

	w.err = errors.New("leader not available")
	err := p.Publish(context.Background(), testSnapshot())
	require.ErrorContains(t, err, "publish snapshot 2025: leader not available")
	assert.Len(t, w.msgs, 1)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewPublisher_UsesConfig(t *testing.T) {
	cfg := &config.Config{
		KafkaBrokers:       []string{"b1:9092"},
		KafkaSnapshotTopic: "snapshots",
		BatchSize:          7,
		BatchFlushInterval: time.Second,
	}
	p := NewPublisher(cfg, observability.NewMetricsForTesting(), slog.Default())

	w, ok := p.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, "snapshots", w.Topic)
	assert.Equal(t, 7, w.BatchSize)
	assert.Equal(t, time.Second, w.BatchTimeout)
	assert.Equal(t, "b1:9092", w.Addr.String())
}
