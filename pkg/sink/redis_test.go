package sink

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/crunchbase-client/pkg/table"
)

// setupTestRedis connects to a local Redis on DB 15 and skips when none is
// running. tests/integration covers the same path with testcontainers.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewRedisWriter_DefaultKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	w := NewRedisWriter(client, "")
	if w.Key() != DefaultRedisKey {
		t.Errorf("Key() = %q, want %q", w.Key(), DefaultRedisKey)
	}
	if w.MetaKey() != DefaultRedisKey+":meta" {
		t.Errorf("MetaKey() = %q", w.MetaKey())
	}
}

func TestRedisWriter_Write(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	w := NewRedisWriter(client, "test:orgs")
	w.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	// stale content must be replaced, not appended to
	client.RPush(ctx, "test:orgs", "stale")

	if err := w.Write(ctx, sampleTable(t)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	items, err := client.LRange(ctx, "test:orgs", 0, -1).Result()
	if err != nil {
		t.Fatalf("LRange failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("list length = %d, want 2", len(items))
	}

	var first table.Record
	if err := json.Unmarshal([]byte(items[0]), &first); err != nil {
		t.Fatalf("decode row: %v", err)
	}
	if v, _ := first.Get("name"); v != "Acme" {
		t.Errorf("first row name = %v, want Acme", v)
	}

	meta, err := client.HGetAll(ctx, "test:orgs:meta").Result()
	if err != nil {
		t.Fatalf("HGetAll failed: %v", err)
	}
	if meta["rows"] != "2" {
		t.Errorf("meta rows = %q, want 2", meta["rows"])
	}
	if meta["columns"] != "name,rank,tags,founded" {
		t.Errorf("meta columns = %q", meta["columns"])
	}
	if meta["written_at"] != "2024-05-01T12:00:00Z" {
		t.Errorf("meta written_at = %q", meta["written_at"])
	}
}

func TestRedisWriter_Empty(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	w := NewRedisWriter(client, "test:empty")
	client.RPush(ctx, "test:empty", "stale")

	if err := w.Write(ctx, table.New()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	n, err := client.Exists(ctx, "test:empty").Result()
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if n != 0 {
		t.Error("Expected list to be removed for an empty result")
	}
	if rows := client.HGet(ctx, "test:empty:meta", "rows").Val(); rows != "0" {
		t.Errorf("meta rows = %q, want 0", rows)
	}
}
