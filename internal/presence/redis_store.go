package presence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisTypingStore keeps typing flags as expiring keys
// typing:{conversationID}:{userID}. Redis owns the TTL, so expiry needs
// no sweeper on our side.
type RedisTypingStore struct {
	client *redis.Client
}

func NewRedisTypingStore(client *redis.Client) *RedisTypingStore {
	return &RedisTypingStore{client: client}
}

var _ TypingStore = (*RedisTypingStore)(nil)

// NewRedisClient parses url, connects and verifies with a ping.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return c, nil
}

func typingKey(conversationID string, userID int64) string {
	return "typing:" + conversationID + ":" + strconv.FormatInt(userID, 10)
}

func (s *RedisTypingStore) Set(ctx context.Context, conversationID string, userID int64, ttl time.Duration) error {
	return s.client.Set(ctx, typingKey(conversationID, userID), "1", ttl).Err()
}

func (s *RedisTypingStore) Delete(ctx context.Context, conversationID string, userID int64) error {
	return s.client.Del(ctx, typingKey(conversationID, userID)).Err()
}

func (s *RedisTypingStore) Peers(ctx context.Context, conversationID string) ([]int64, error) {
	prefix := "typing:" + conversationID + ":"

	var out []int64
	iter := s.client.Scan(ctx, 0, prefix+"*", 64).Iterator()
	for iter.Next(ctx) {
		raw := strings.TrimPrefix(iter.Val(), prefix)
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
