package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/eluia/eluia-api/internal/model"
)

const (
	// StreamName is the name of the chat log stream.
	StreamName = "CHATLOG"

	// SubjectPrefix is the prefix for all chat record subjects.
	SubjectPrefix = "chat"
)

// StreamManager handles JetStream stream operations for the chat log. The
// stream is the durable source of truth for analytics: the in-memory
// aggregator is rebuilt from it on startup.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the chat log stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024, // 10GB
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "All served chat questions and answers",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// RecordSubject returns the subject for one tenant's chat records.
func RecordSubject(tenantID string) string {
	return fmt.Sprintf("%s.%s.msg", SubjectPrefix, tenantID)
}

// PublishRecord publishes a served conversation to JetStream.
func (m *StreamManager) PublishRecord(ctx context.Context, rec *model.ChatRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal chat record: %w", err)
	}

	if _, err := m.client.JetStream().Publish(ctx, RecordSubject(rec.TenantID), data); err != nil {
		return fmt.Errorf("failed to publish chat record: %w", err)
	}

	return nil
}

// Replay delivers every stored chat record to fn, oldest first. Records that
// no longer unmarshal are skipped.
func (m *StreamManager) Replay(ctx context.Context, fn func(*model.ChatRecord)) error {
	js := m.client.JetStream()

	stream, err := js.Stream(ctx, StreamName)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stream info: %w", err)
	}
	remaining := info.State.Msgs
	if remaining == 0 {
		return nil
	}

	consumer, err := js.CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject: fmt.Sprintf("%s.>", SubjectPrefix),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		batchSize := 500
		if remaining < uint64(batchSize) {
			batchSize = int(remaining)
		}

		batch, err := consumer.Fetch(batchSize, jetstream.FetchMaxWait(2*time.Second))
		if err != nil {
			return fmt.Errorf("failed to fetch records: %w", err)
		}

		received := 0
		for msg := range batch.Messages() {
			received++
			var rec model.ChatRecord
			if err := json.Unmarshal(msg.Data(), &rec); err != nil {
				continue
			}
			fn(&rec)
		}
		if batch.Error() != nil && !errors.Is(batch.Error(), context.DeadlineExceeded) {
			return fmt.Errorf("batch error: %w", batch.Error())
		}
		if received == 0 {
			break
		}
		remaining -= uint64(received)
	}

	return nil
}
