package worker

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const analyticsStreamKey = "analytics:order:events"

// RedisAnalytics records order events into a Redis stream for downstream
// consumers. Best effort: every failure is logged and dropped, the request
// path never sees it.
type RedisAnalytics struct {
	rdb *redis.Client
	log *logrus.Entry
}

func NewRedisAnalytics(rdb *redis.Client, log *logrus.Logger) *RedisAnalytics {
	return &RedisAnalytics{
		rdb: rdb,
		log: log.WithField("worker", "Analytics"),
	}
}

func (a *RedisAnalytics) RecordOrderCreated(orderID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		err := a.rdb.XAdd(ctx, &redis.XAddArgs{
			Stream: analyticsStreamKey,
			Values: map[string]interface{}{
				"event":    "order_created",
				"order_id": orderID,
				"ts":       time.Now().UnixMilli(),
			},
		}).Err()
		if err != nil {
			a.log.Warnf("Failed to record order_created for %s: %v", orderID, err)
			return
		}
		a.log.Infof("Updated analytics for order %s", orderID)
	}()
}

// LogAnalytics is the degraded sink used when Redis is not configured.
type LogAnalytics struct {
	log *logrus.Entry
}

func NewLogAnalytics(log *logrus.Logger) *LogAnalytics {
	return &LogAnalytics{log: log.WithField("worker", "Analytics")}
}

func (a *LogAnalytics) RecordOrderCreated(orderID string) {
	a.log.Infof("Updated analytics for order %s (log-only sink)", orderID)
}
