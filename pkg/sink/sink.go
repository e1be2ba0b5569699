// Package sink writes fetched result tables to their final destination:
// CSV, JSON or XLSX streams, or a Redis list.
package sink

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/crunchbase-client/pkg/table"
)

// Supported output formats.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatXLSX  = "xlsx"
	FormatRedis = "redis"
)

// Writer persists a result table.
type Writer interface {
	Write(ctx context.Context, t *table.Table) error
}

// Options configure the writer returned by New. Out is used by the
// stream formats, Redis and RedisKey by the redis format.
type Options struct {
	Out      io.Writer
	Sheet    string
	Redis    redis.UniversalClient
	RedisKey string
}

// Formats lists the names accepted by New.
func Formats() []string {
	return []string{FormatCSV, FormatJSON, FormatXLSX, FormatRedis}
}

// New selects a writer by format name.
func New(format string, opts Options) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		if opts.Out == nil {
			return nil, fmt.Errorf("csv sink requires an output")
		}
		return NewCSVWriter(opts.Out), nil
	case FormatJSON:
		if opts.Out == nil {
			return nil, fmt.Errorf("json sink requires an output")
		}
		return NewJSONWriter(opts.Out), nil
	case FormatXLSX:
		if opts.Out == nil {
			return nil, fmt.Errorf("xlsx sink requires an output")
		}
		return NewXLSXWriter(opts.Out, opts.Sheet), nil
	case FormatRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("redis sink requires a client")
		}
		return NewRedisWriter(opts.Redis, opts.RedisKey), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
}
