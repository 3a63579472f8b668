// Package notify hands push notifications to an external delivery worker.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"taskboard/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Token string `json:"token"`
}

// RedisQueue appends messages to a Redis list consumed by the push worker.
type RedisQueue struct {
	rdb redis.Cmdable
	key string
}

func NewRedisQueue(rdb redis.Cmdable, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key}
}

func (q *RedisQueue) Notify(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := q.rdb.RPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// LogSink only records the notification. Used when no queue is configured.
type LogSink struct{}

func (LogSink) Notify(_ context.Context, msg Message) error {
	logger.SystemLogger.Info("Notification dropped, no queue configured",
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
	)
	return nil
}
