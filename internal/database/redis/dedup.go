package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const dedupPrefix = "eventbot:seen:"

// MessageDeduper remembers handled message ids so redelivered messages are
// answered only once.
type MessageDeduper struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewMessageDeduper(client redis.Cmdable, ttl time.Duration) *MessageDeduper {
	return &MessageDeduper{client: client, ttl: ttl}
}

// FirstSeen claims messageID for platform and reports whether this is the
// first claim. Redis failures count as first seen.
func (d *MessageDeduper) FirstSeen(ctx context.Context, platform, messageID string) bool {
	if messageID == "" {
		return true
	}

	ok, err := d.client.SetNX(ctx, dedupKey(platform, messageID), 1, d.ttl).Result()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"platform":   platform,
			"message_id": messageID,
			"error":      err.Error(),
		}).Warn("dedup check failed, handling message anyway")
		return true
	}
	return ok
}

// Ping reports whether the store is reachable.
func (d *MessageDeduper) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

func dedupKey(platform, messageID string) string {
	return dedupPrefix + platform + ":" + messageID
}
