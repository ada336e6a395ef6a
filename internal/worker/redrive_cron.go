package worker

// redrive_cron.go
// Background goroutine that periodically drains the dead letter queues and
// re-enqueues their jobs. Receipts and emails are retryable by nature (PDF
// storage or the SMTP relay coming back), so a bounded replay every few
// minutes recovers them without manual intervention.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	redriveTickInterval = 5 * time.Minute
	redriveBatchSize    = 10
)

// StartRedriveCron launches a background goroutine that ticks every 5 minutes
// and replays DLQ entries back onto their original queue.
// It respects the context for graceful shutdown.
func StartRedriveCron(ctx context.Context, rdb *redis.Client) {
	go func() {
		ticker := time.NewTicker(redriveTickInterval)
		defer ticker.Stop()

		log.Info().Msg("redrive_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("redrive_cron: shutting down")
				return
			case <-ticker.C:
				for _, queue := range []string{QueueReceipts, QueueEmail} {
					redriveQueue(ctx, rdb, queue)
				}
			}
		}
	}()
}

func redriveQueue(ctx context.Context, rdb *redis.Client, queue string) {
	dlqKey := DLQPrefix + queue

	for i := 0; i < redriveBatchSize; i++ {
		raw, err := rdb.RPop(ctx, dlqKey).Result()
		if err != nil {
			return // empty or redis error — stop this queue
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Str("dlq_key", dlqKey).Msg("redrive_cron: corrupt DLQ entry dropped")
			continue
		}

		job := Job{Type: entry.JobType, Payload: entry.Payload}
		encoded, err := json.Marshal(job)
		if err != nil {
			continue
		}
		if err := rdb.LPush(ctx, queue, encoded).Err(); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("redrive_cron: failed to re-enqueue job")
			return
		}

		log.Info().
			Str("queue", queue).
			Str("job_type", entry.JobType).
			Int("attempts", entry.Attempts).
			Msg("redrive_cron: job re-enqueued from DLQ")
	}
}
