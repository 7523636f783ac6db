package queue

import (
	"context"
	"log/slog"
	"sync"

	"travelagency.app/bot/common/logger"
)

// RunConsumerPool starts `concurrency` goroutines each reading from the
// stream in a loop and invoking process per message. A message is ACKed
// only once process returns nil (the plan pipeline completed); a non-nil
// return either requeues the message for another attempt or, once
// MaxAttempts is exhausted, moves it to the DLQ stream, per §7's durability
// guarantee.
func RunConsumerPool(ctx context.Context, consumer *RedisConsumer, concurrency int, process MessageProcessor) {
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			runWorkerLoop(ctx, consumer, process)
		}(i)
	}

	wg.Wait()
}

func runWorkerLoop(ctx context.Context, consumer *RedisConsumer, process MessageProcessor) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messages, err := consumer.Read(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to read from plan dispatch stream", "error", err)
			continue
		}

		for _, msg := range messages {
			msgCtx := logger.WithLogFields(ctx, logger.LogFields{
				MessageID:     logger.Ptr(msg.ID),
				CorrelationID: logger.Ptr(msg.Dispatch.CorrelationID),
			})

			if procErr := process(msgCtx, msg); procErr != nil {
				slog.ErrorContext(msgCtx, "plan dispatch processing failed", "message_id", msg.ID, "error", procErr)
				handleFailedMessage(msgCtx, consumer, msg, procErr)
				continue
			}

			if err := consumer.Ack(msgCtx, msg); err != nil {
				slog.ErrorContext(msgCtx, "failed to ack plan dispatch message", "message_id", msg.ID, "error", err)
			}
		}
	}
}

// handleFailedMessage requeues a message that still has attempts left, or
// moves it to the dead-letter stream once MaxAttempts is exhausted.
func handleFailedMessage(ctx context.Context, consumer *RedisConsumer, msg Message, procErr error) {
	if msg.Attempt >= consumer.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to dlq",
			"message_id", msg.ID, "attempts", msg.Attempt)
		if err := consumer.SendDLQ(ctx, msg, procErr.Error()); err != nil {
			slog.ErrorContext(ctx, "failed to send plan dispatch message to dlq", "message_id", msg.ID, "error", err)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed plan dispatch message", "message_id", msg.ID, "attempt", msg.Attempt)
	if err := consumer.Requeue(ctx, msg, procErr.Error()); err != nil {
		slog.ErrorContext(ctx, "failed to requeue plan dispatch message", "message_id", msg.ID, "error", err)
	}
}
