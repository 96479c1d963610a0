package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Producer publishes auth events to a Redis stream. Publishing is
// fire-and-forget from the request path; the audit worker consumes the
// stream asynchronously.
type Producer struct {
	client     *redis.Client
	streamName string
}

func NewProducer(client *redis.Client, streamName string) *Producer {
	return &Producer{
		client:     client,
		streamName: streamName,
	}
}

func (p *Producer) Publish(ctx context.Context, event *AuthEvent) error {
	fields := map[string]interface{}{
		"type":      event.Type,
		"timestamp": event.Timestamp,
	}

	if event.UserID != "" {
		fields["user_id"] = event.UserID
	}
	if event.Email != "" {
		fields["email"] = event.Email
	}
	if event.IP != "" {
		fields["ip"] = event.IP
	}
	if event.UserAgent != "" {
		fields["user_agent"] = event.UserAgent
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.streamName,
		Values: fields,
	})

	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to publish auth event: %w", err)
	}

	return nil
}
