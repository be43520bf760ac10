package watchlist

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/trogers1052/watchlist-alert-relay/internal/models"
)

// RedisStore reads watchlist entries stored as one hash per ticker. Hash
// fields use the same names as the Notion properties.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed watchlist store
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(ticker string) string {
	return s.prefix + ticker
}

// FindByTicker returns the entry stored under the ticker's key
func (s *RedisStore) FindByTicker(ctx context.Context, ticker string) (*models.WatchlistRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.key(ticker)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist hash: %w", err)
	}
	if len(fields) == 0 {
		return nil, models.ErrTickerNotFound
	}

	record := RecordFromFields(ticker, fields)
	return &record, nil
}

// Save replaces the entry for rec.Ticker. The relay only reads hashes; Save
// seeds the store from an export or a test.
func (s *RedisStore) Save(ctx context.Context, rec models.WatchlistRecord) error {
	key := s.key(rec.Ticker)
	fields := make(map[string]interface{})
	for k, v := range FieldsFromRecord(rec) {
		fields[k] = v
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(fields) > 0 {
		pipe.HSet(ctx, key, fields)
	} else {
		// keep an empty entry visible to lookups
		pipe.HSet(ctx, key, FieldTicker, rec.Ticker)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save watchlist entry: %w", err)
	}
	return nil
}
