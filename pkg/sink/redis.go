package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/crunchbase-client/pkg/table"
)

// DefaultRedisKey is used when no key is configured.
const DefaultRedisKey = "cbapi:results"

// RedisWriter replaces the list at key with one JSON document per record
// and records metadata in the hash key:meta. Both happen in one MULTI/EXEC,
// so readers never see a half-written result.
type RedisWriter struct {
	client redis.UniversalClient
	key    string
	now    func() time.Time
}

// NewRedisWriter creates a Redis writer.
func NewRedisWriter(client redis.UniversalClient, key string) *RedisWriter {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisWriter{client: client, key: key, now: time.Now}
}

// Key returns the list key.
func (w *RedisWriter) Key() string { return w.key }

// MetaKey returns the metadata hash key.
func (w *RedisWriter) MetaKey() string { return w.key + ":meta" }

// Write implements Writer.
func (w *RedisWriter) Write(ctx context.Context, t *table.Table) error {
	rows := make([]interface{}, 0, t.Len())
	for i, rec := range t.Rows() {
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
		rows = append(rows, string(b))
	}

	_, err := w.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, w.key, w.MetaKey())
		// RPUSH with no values is a syntax error
		if len(rows) > 0 {
			pipe.RPush(ctx, w.key, rows...)
		}
		pipe.HSet(ctx, w.MetaKey(),
			"columns", strings.Join(t.Columns(), ","),
			"rows", len(rows),
			"written_at", w.now().UTC().Format(time.RFC3339),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write redis %s: %w", w.key, err)
	}

	log.Debug().
		Str("key", w.key).
		Int("rows", len(rows)).
		Msg("Results written to Redis")
	return nil
}
