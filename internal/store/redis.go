package store

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley/internal/metrics"
	"github.com/parley-chat/parley/internal/models"
)

const historyKey = "parley:history"

// RedisStore mirrors the history into a Redis list, rewritten wholesale on
// every append so a failed mirror heals on the next successful write.
type RedisStore struct {
	memoryLog
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore connects to Redis and loads any prior history. Connection
// failure is fatal; an unreadable history list is logged and yields an
// empty history.
func NewRedisStore(ctx context.Context, redisURL string, logger zerolog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	s := &RedisStore{client: client, logger: logger}

	entries, err := client.LRange(ctx, historyKey, 0, -1).Result()
	if err != nil {
		logger.Error().Err(err).Msg("redis history unreadable, starting empty")
		return s, nil
	}

	msgs := make([]models.Message, 0, len(entries))
	for _, entry := range entries {
		var m models.Message
		if err := json.Unmarshal([]byte(entry), &m); err != nil {
			logger.Error().Err(err).Msg("redis history entry corrupt, starting empty")
			return s, nil
		}
		msgs = append(msgs, m)
	}
	s.replace(msgs)
	logger.Info().Int("messages", len(msgs)).Msg("history loaded")
	return s, nil
}

// Append adds the message to the history and rewrites the Redis list.
// Mirror failure is logged and does not abort the in-memory append.
func (s *RedisStore) Append(msg models.Message) {
	snapshot := s.append(msg)
	if err := s.mirror(context.Background(), snapshot); err != nil {
		metrics.PersistFailures.Inc()
		s.logger.Error().Err(err).Msg("history persist failed")
	}
}

func (s *RedisStore) mirror(ctx context.Context, msgs []models.Message) error {
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		values = append(values, string(data))
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, historyKey)
	if len(values) > 0 {
		pipe.RPush(ctx, historyKey, values...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// All returns the current ordered history snapshot.
func (s *RedisStore) All() []models.Message {
	return s.all()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
