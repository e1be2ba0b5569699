package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/crunchbase-client/pkg/client"
	"github.com/Sternrassler/crunchbase-client/pkg/sink"
	"github.com/Sternrassler/crunchbase-client/pkg/table"
)

// outputFlags are shared by the collection commands.
type outputFlags struct {
	workers  int
	strategy string
	format   string
	out      string
	redisKey string
	quiet    bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVarP(&o.workers, "workers", "w", 0, "concurrent page requests (default from config)")
	f.StringVar(&o.strategy, "strategy", "", "page partition strategy: chunked or balanced")
	f.StringVarP(&o.format, "format", "f", sink.FormatCSV, "output format: csv, json, xlsx, redis")
	f.StringVarP(&o.out, "out", "o", "-", "output file, - for stdout")
	f.StringVar(&o.redisKey, "redis-key", "", "Redis list key for --format redis")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "suppress progress output")
}

// collectFunc performs the actual query once the client exists.
type collectFunc func(ctx context.Context, c *client.Client, opts ...client.FetchOption) (*table.Table, error)

func (a *app) runCollection(cmd *cobra.Command, o *outputFlags, collect collectFunc) error {
	if cmd.Flags().Changed("workers") {
		a.cfg.Workers = o.workers
	}
	if o.strategy != "" {
		a.cfg.Strategy = o.strategy
	}
	if !slices.Contains(sink.Formats(), o.format) {
		return fmt.Errorf("unknown format %q (want one of %s)", o.format, strings.Join(sink.Formats(), ", "))
	}
	if a.cfg.APIKey == "" {
		return fmt.Errorf("no API key configured: run 'cbapi config set-key <key>' or set CBAPI_API_KEY")
	}

	cc, err := a.cfg.ClientConfig()
	if err != nil {
		return err
	}
	if cc.MaxWorkers < 1 {
		return fmt.Errorf("--workers must be >= 1 (got %d)", cc.MaxWorkers)
	}
	if !o.quiet {
		cc.OnPage = a.progressPrinter()
	}

	c, err := client.New(cc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rows, err := collect(ctx, c)
	if err != nil {
		if status, ok := client.IsRequestFailed(err); ok && status != 0 {
			log.Error().Int("status_code", status).Msg("Crunchbase request failed")
		}
		return err
	}

	if err := a.write(ctx, o, rows); err != nil {
		return err
	}
	if !o.quiet {
		fmt.Fprintf(a.stderr, "Fetched %d records\n", rows.Len())
	}
	return nil
}

// progressPrinter returns an OnPage callback. Pages complete concurrently,
// so writes are serialized.
func (a *app) progressPrinter() func(current, total int) {
	var mu sync.Mutex
	return func(current, total int) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(a.stderr, "Retrieved page %d/%d\n", current, total)
	}
}

func (a *app) write(ctx context.Context, o *outputFlags, rows *table.Table) error {
	opts := sink.Options{RedisKey: o.redisKey}
	if opts.RedisKey == "" {
		opts.RedisKey = a.cfg.Redis.Key
	}

	if o.format == sink.FormatRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		defer rdb.Close()
		opts.Redis = rdb
	} else {
		out, closeFn, err := a.openOutput(o.out)
		if err != nil {
			return err
		}
		defer closeFn()
		opts.Out = out
	}

	w, err := sink.New(o.format, opts)
	if err != nil {
		return err
	}
	return w.Write(ctx, rows)
}

func (a *app) openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return a.stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to close output file")
		}
	}, nil
}
