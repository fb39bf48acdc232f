//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/peakline/corridor-vibes/internal/adapter/kafka"
	"github.com/peakline/corridor-vibes/internal/config"
	"github.com/peakline/corridor-vibes/internal/domain"
)

const testLiveTopic = "test-corridor-live"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestKafkaLivePublish verifies that kafka.Writer publishes a run's live
// statuses to a real broker with segment-id keys and trend headers intact.
func TestKafkaLivePublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testLiveTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaLiveTopic: testLiveTopic,
	}

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	updatedAt := time.Date(2026, 2, 10, 8, 5, 0, 0, time.UTC)
	speed := 25.0
	scoreFloyd := 5.0
	scoreTunnel := 9.1
	statuses := []domain.LiveStatus{
		{
			SegmentID: "floyd-west",
			Name:      "Floyd Hill Westbound",
			SpeedMPH:  &speed,
			Score:     &scoreFloyd,
			Summary:   "Moderate delays around incident activity.",
			Trend:     domain.TrendWorsening,
			UpdatedAt: updatedAt,
		},
		{
			SegmentID: "tunnel-east",
			Name:      "Eisenhower Tunnel Eastbound",
			Score:     &scoreTunnel,
			Summary:   "Smooth sailing, the corridor is wide open.",
			Trend:     domain.TrendStable,
			UpdatedAt: updatedAt,
		},
	}

	require.NoError(t, writer.PublishLive(ctx, statuses))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testLiveTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(map[string]domain.LiveStatus, len(statuses))
	headers := make(map[string]map[string]string, len(statuses))
	for len(received) < len(statuses) {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from live topic")

		var status domain.LiveStatus
		require.NoError(t, json.Unmarshal(msg.Value, &status))
		require.Equal(t, status.SegmentID, string(msg.Key), "message keyed by segment id")

		hs := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			hs[h.Key] = string(h.Value)
		}
		received[status.SegmentID] = status
		headers[status.SegmentID] = hs
	}

	floyd := received["floyd-west"]
	require.NotNil(t, floyd.Score)
	assert.Equal(t, 5.0, *floyd.Score)
	require.NotNil(t, floyd.SpeedMPH)
	assert.Equal(t, 25.0, *floyd.SpeedMPH)
	assert.Equal(t, domain.TrendWorsening, floyd.Trend)
	assert.Equal(t, "WORSENING", headers["floyd-west"]["trend"])
	assert.Equal(t, updatedAt.Format(time.RFC3339), headers["floyd-west"]["updated_at"])

	tunnel := received["tunnel-east"]
	assert.Nil(t, tunnel.SpeedMPH)
	require.NotNil(t, tunnel.Score)
	assert.Equal(t, 9.1, *tunnel.Score)
	assert.Equal(t, "STABLE", headers["tunnel-east"]["trend"])
}

// TestKafkaLivePublish_EmptyRun verifies that publishing an empty status set
// is a no-op rather than an error.
func TestKafkaLivePublish_EmptyRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testLiveTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaLiveTopic: testLiveTopic,
	}

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	assert.NoError(t, writer.PublishLive(ctx, nil))
}
