package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"proxify/internal/domain"
	"proxify/pkg/e"

	"github.com/redis/go-redis/v9"
)

const NotificationQueueKey = "notifications:queue"

type NotificationQueue struct {
	client *redis.Client
	key    string
}

func NewNotificationQueue(client *redis.Client, key string) *NotificationQueue {
	return &NotificationQueue{client: client, key: key}
}

func (q *NotificationQueue) Enqueue(ctx context.Context, n domain.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, b).Err()
}

// BRPop blocks up to timeout and returns e.ErrQueueEmpty if nothing arrived.
func (q *NotificationQueue) BRPop(ctx context.Context, timeout time.Duration) (domain.Notification, error) {
	var n domain.Notification

	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return n, e.ErrQueueEmpty
		}
		return n, err
	}
	if len(res) < 2 {
		return n, e.ErrQueueEmpty
	}
	if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
		return n, err
	}
	return n, nil
}

func (q *NotificationQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
