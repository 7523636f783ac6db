// Package queue is the Redis Streams hand-off between the Interaction
// Front-End and the plan-pipeline consumer pool: the HTTP handler pushes
// one PlanDispatch entry via XAdd and returns its deferred ACK immediately,
// decoupling the HTTP response from goroutine scheduling jitter and giving
// a durable resume point if the process restarts before a worker claims it.
package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"travelagency.app/bot/common/id"
	"travelagency.app/bot/common/logger"
)

// Producer enqueues a plan for background execution.
type Producer interface {
	Enqueue(ctx context.Context, dispatch PlanDispatch) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
}

func NewRedisProducer(client *redis.Client, stream string) Producer {
	return &redisProducer{
		client: client,
		stream: stream,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, dispatch PlanDispatch) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "travelagency.queue.producer",
	})

	attempt := dispatch.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	correlationID := dispatch.CorrelationID
	if correlationID == 0 {
		correlationID = id.New()
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{CorrelationID: &correlationID})

	fields := map[string]any{
		"interaction_token":   dispatch.InteractionToken,
		"channel_id":          dispatch.ChannelID,
		"original_message_id": dispatch.OriginalMessageID,
		"prompt":              dispatch.Prompt,
		"attempt":             attempt,
		"correlation_id":      correlationID,
	}

	// TODO - cap stream growth with MAXLEN once production volume is known;
	// XAdd with no cap grows the stream unbounded.
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue plan dispatch (stream=%s): %w", p.stream, err)
	}

	slog.InfoContext(ctx, "enqueued plan dispatch", "attempt", attempt, "stream", p.stream)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
