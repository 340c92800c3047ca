package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/redis/go-redis/v9"
)

// StreamPublisher publishes action envelopes to per-target redis streams
type StreamPublisher struct {
	client *redis.Client
	prefix string
	maxLen int64
}

// NewStreamPublisher creates a publisher. Streams are named prefix + target
// and trimmed to maxLen entries.
func NewStreamPublisher(client *redis.Client, prefix string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, prefix: prefix, maxLen: maxLen}
}

// Publish appends the envelope to the stream for its target service
func (p *StreamPublisher) Publish(ctx context.Context, target string, envelope *domain.ActionEnvelope) (string, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("failed to marshal action envelope: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.prefix + target,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"envelope":      payload,
			"correlationId": envelope.CorrelationID,
			"tenantId":      envelope.TenantID,
			"type":          envelope.Action.Type,
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish action to stream: %w", err)
	}

	return id, nil
}

// StreamConsumer reads action envelopes from a redis stream using a
// consumer group, used by the worker process
type StreamConsumer struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
}

// NewStreamConsumer creates a consumer and ensures the group exists
func NewStreamConsumer(ctx context.Context, client *redis.Client, stream, group, consumer string) (*StreamConsumer, error) {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &StreamConsumer{client: client, stream: stream, group: group, consumer: consumer}, nil
}

// StreamMessage is a consumed envelope plus the stream entry ID needed to ack it
type StreamMessage struct {
	ID       string
	Envelope domain.ActionEnvelope
}

// Read blocks for up to the client's read timeout waiting for new entries
func (c *StreamConsumer) Read(ctx context.Context, count int64) ([]StreamMessage, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    count,
		Block:    5 * time.Second,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	var messages []StreamMessage
	for _, s := range streams {
		for _, m := range s.Messages {
			raw, ok := m.Values["envelope"].(string)
			if !ok {
				continue
			}
			var env domain.ActionEnvelope
			if err := json.Unmarshal([]byte(raw), &env); err != nil {
				continue
			}
			messages = append(messages, StreamMessage{ID: m.ID, Envelope: env})
		}
	}

	return messages, nil
}

// Ack acknowledges a processed entry
func (c *StreamConsumer) Ack(ctx context.Context, id string) error {
	if err := c.client.XAck(ctx, c.stream, c.group, id).Err(); err != nil {
		return fmt.Errorf("failed to ack stream entry: %w", err)
	}
	return nil
}
