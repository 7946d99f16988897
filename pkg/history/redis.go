package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"concierge/pkg/api"
	"concierge/pkg/llm"

	"github.com/redis/go-redis/v9"
)

const (
	chatKeyPrefix = "chat:history:"
	toolKeyPrefix = "chat:tools:"

	redisMaxAttempts  = 3
	redisRetryBackoff = 100 * time.Millisecond
)

// RedisStore keeps each conversation as a pair of Redis lists: one for the
// message log, one for the tool audit log. Every append refreshes the TTL
// so active conversations stay alive and idle ones age out.
type RedisStore struct {
	client *redis.Client
	url    string
	ttl    time.Duration
}

func NewRedisStore(url string, ttl time.Duration) *RedisStore {
	return &RedisStore{url: url, ttl: ttl}
}

func (s *RedisStore) Type() string { return "redis" }

func (s *RedisStore) Connect(ctx context.Context) error {
	opts, err := redis.ParseURL(s.url)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	s.client = redis.NewClient(opts)
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	slog.Info("Redis store connected", "addr", opts.Addr)
	return nil
}

func (s *RedisStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return ErrStorageUnavailable
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// withRetry runs op up to redisMaxAttempts times with exponential backoff.
func (s *RedisStore) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < redisMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(redisRetryBackoff << attempt):
			}
			slog.Warn("Retrying redis operation", "attempt", attempt+1, "error", err)
		}
		if err = op(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

func (s *RedisStore) appendTo(ctx context.Context, key string, payload []byte) error {
	return s.withRetry(ctx, func() error {
		pipe := s.client.TxPipeline()
		pipe.RPush(ctx, key, payload)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		_, err := pipe.Exec(ctx)
		return err
	})
}

func (s *RedisStore) AppendMessage(ctx context.Context, conversationID string, msg llm.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return s.appendTo(ctx, chatKeyPrefix+conversationID, payload)
}

func (s *RedisStore) AppendToolRecord(ctx context.Context, conversationID string, rec api.ToolRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode tool record: %w", err)
	}
	return s.appendTo(ctx, toolKeyPrefix+conversationID, payload)
}

func (s *RedisStore) Messages(ctx context.Context, conversationID string) ([]llm.Message, error) {
	var raw []string
	err := s.withRetry(ctx, func() error {
		var err error
		raw, err = s.client.LRange(ctx, chatKeyPrefix+conversationID, 0, -1).Result()
		return err
	})
	if err != nil {
		return nil, err
	}

	msgs := make([]llm.Message, 0, len(raw))
	for _, item := range raw {
		var m llm.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			slog.Warn("Skipping undecodable message", "conversation", conversationID, "error", err)
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *RedisStore) GetContext(ctx context.Context, conversationID string, maxTurns int) ([]llm.Message, error) {
	msgs, err := s.Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return boundedContext(msgs, maxTurns), nil
}

func (s *RedisStore) ToolHistory(ctx context.Context, conversationID string, limit int) ([]api.ToolRecord, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	var raw []string
	err := s.withRetry(ctx, func() error {
		var err error
		raw, err = s.client.LRange(ctx, toolKeyPrefix+conversationID, start, -1).Result()
		return err
	})
	if err != nil {
		return nil, err
	}

	recs := make([]api.ToolRecord, 0, len(raw))
	for _, item := range raw {
		var r api.ToolRecord
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			slog.Warn("Skipping undecodable tool record", "conversation", conversationID, "error", err)
			continue
		}
		recs = append(recs, r)
	}
	return recs, nil
}

func (s *RedisStore) Trim(ctx context.Context, conversationID string, maxMessages int) error {
	if maxMessages < 0 {
		return nil
	}
	if maxMessages == 0 {
		return s.withRetry(ctx, func() error {
			return s.client.Del(ctx, chatKeyPrefix+conversationID).Err()
		})
	}
	return s.withRetry(ctx, func() error {
		return s.client.LTrim(ctx, chatKeyPrefix+conversationID, int64(-maxMessages), -1).Err()
	})
}
