package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumastream/chat-gateway/internal/config"
)

// redisStore implements ChatStore using Redis.
type redisStore struct {
	client    *redis.Client
	keyPrefix string
	opTimeout time.Duration
}

// NewRedisStore creates a new Redis-backed chat store.
func NewRedisStore(cfg config.RedisConfig) (ChatStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "chat"
	}
	opTimeout := cfg.OpTimeout
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}

	return &redisStore{
		client:    client,
		keyPrefix: prefix,
		opTimeout: opTimeout,
	}, nil
}

// Redis key patterns:
// {prefix}:presence:{channel_id}   HASH<identity_id -> live connection count>
// {prefix}:history:{channel_id}    LIST<serialized chat message>

func (s *redisStore) presenceKey(channelID string) string {
	return fmt.Sprintf("%s:presence:%s", s.keyPrefix, channelID)
}

func (s *redisStore) historyKey(channelID string) string {
	return fmt.Sprintf("%s:history:%s", s.keyPrefix, channelID)
}

// decrementScript subtracts 1 from the identity's field and removes the field
// when the result is zero or less, all inside one Redis call. This closes the
// window a separate decrement-read-delete sequence would leave open.
var decrementScript = redis.NewScript(`
local v = redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
if v <= 0 then
    redis.call('HDEL', KEYS[1], ARGV[1])
end
return v
`)

func (s *redisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *redisStore) IncrementPresence(ctx context.Context, channelID, identityID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.HIncrBy(ctx, s.presenceKey(channelID), identityID, 1).Err()
}

func (s *redisStore) DecrementPresence(ctx context.Context, channelID, identityID string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return decrementScript.Run(ctx, s.client, []string{s.presenceKey(channelID)}, identityID).Int64()
}

func (s *redisStore) PresenceCount(ctx context.Context, channelID, identityID string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	val, err := s.client.HGet(ctx, s.presenceKey(channelID), identityID).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

func (s *redisStore) AppendMessage(ctx context.Context, channelID, payload string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.RPush(ctx, s.historyKey(channelID), payload).Err()
}

func (s *redisStore) RecentMessages(ctx context.Context, channelID string, count int64) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.LRange(ctx, s.historyKey(channelID), -count, -1).Result()
}

func (s *redisStore) HistoryLength(ctx context.Context, channelID string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.LLen(ctx, s.historyKey(channelID)).Result()
}

func (s *redisStore) TrimToRecent(ctx context.Context, channelID string, keep int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.LTrim(ctx, s.historyKey(channelID), -keep, -1).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
