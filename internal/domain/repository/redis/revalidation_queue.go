// File: backend/services/integrity-service/internal/domain/repository/redis/revalidation_queue.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/repository"
)

const revalidationQueueKey = "integrity:revalidation_queue"

// severityWeight spreads severities far enough apart that the time component
// never reorders across severities. Lower score pops first.
const severityWeight = 1e12

// RevalidationQueueRedis implements repository.RevalidationQueue on a redis
// sorted set. Priority mirrors severity; FIFO within one severity via the
// enqueue timestamp in the score.
type RevalidationQueueRedis struct {
	client *redis.Client
}

// NewRevalidationQueueRedis creates a new instance.
func NewRevalidationQueueRedis(client *redis.Client) *RevalidationQueueRedis {
	return &RevalidationQueueRedis{client: client}
}

// Enqueue adds the user to the revalidation queue. Re-enqueueing the same
// user keeps the highest-priority (lowest) score.
func (q *RevalidationQueueRedis) Enqueue(ctx context.Context, item repository.RevalidationItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal revalidation item: %w", err)
	}
	score := float64(4-item.Severity.Rank())*severityWeight + float64(item.EnqueuedAt.UnixNano())
	if err := q.client.ZAddLT(ctx, revalidationQueueKey, redis.Z{Score: score, Member: payload}).Err(); err != nil {
		return fmt.Errorf("failed to enqueue revalidation item: %w", err)
	}
	return nil
}

// Dequeue pops the highest-priority item, or nil when the queue is empty.
func (q *RevalidationQueueRedis) Dequeue(ctx context.Context) (*repository.RevalidationItem, error) {
	zs, err := q.client.ZPopMin(ctx, revalidationQueueKey, 1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue revalidation item: %w", err)
	}
	if len(zs) == 0 {
		return nil, nil
	}
	member, ok := zs[0].Member.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected member type %T in revalidation queue", zs[0].Member)
	}
	var item repository.RevalidationItem
	if err := json.Unmarshal([]byte(member), &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal revalidation item: %w", err)
	}
	return &item, nil
}

// Len returns the number of queued items.
func (q *RevalidationQueueRedis) Len(ctx context.Context) (int64, error) {
	n, err := q.client.ZCard(ctx, revalidationQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read revalidation queue length: %w", err)
	}
	return n, nil
}
