package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/crunchbase-client/pkg/table"
	"github.com/rs/zerolog/log"
)

var (
	// ErrPageCountChanged is returned when a page reports a different
	// number_of_pages than the probe did.
	ErrPageCountChanged = errors.New("page count changed during fetch")

	// ErrPageMismatch is returned when a response carries a different
	// current_page than the one requested.
	ErrPageMismatch = errors.New("page number mismatch")
)

// progressEvery controls how often progress is logged at info level.
const progressEvery = 50

// Config holds batch fetcher configuration
type Config struct {
	// MaxWorkers is the worker budget. One means fully sequential.
	MaxWorkers int
	// Strategy selects the page partition policy (default: StrategyChunked).
	Strategy Strategy
	// PageTimeout bounds each page request. Zero leaves it to the transport.
	PageTimeout time.Duration
	// OnPage is called after each page is stored, from worker goroutines.
	// It must be safe for concurrent use.
	OnPage func(current, total int)
}

// DefaultConfig returns a sequential configuration.
func DefaultConfig() Config {
	return Config{
		MaxWorkers: 1,
		Strategy:   StrategyChunked,
	}
}

// Page is one decoded result page.
type Page struct {
	// Number is the current_page reported by the provider.
	Number int
	// TotalPages is number_of_pages as reported by the provider.
	TotalPages int
	// TotalItems is total_items as reported by the provider.
	TotalItems int
	// Rows holds one row per returned item.
	Rows *table.Table
}

// PageFetcher fetches a single page of a collection.
type PageFetcher interface {
	FetchPage(ctx context.Context, endpoint string, params map[string]string, page int) (*Page, error)
}

// BatchFetcher fetches every page of a collection across a set of workers.
type BatchFetcher struct {
	fetcher PageFetcher
	config  Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher(fetcher PageFetcher, config Config) *BatchFetcher {
	if config.Strategy == "" {
		config.Strategy = StrategyChunked
	}
	return &BatchFetcher{
		fetcher: fetcher,
		config:  config,
	}
}

// failure keeps the first error of a fetch and cancels the remaining work.
type failure struct {
	once   sync.Once
	err    error
	cancel context.CancelFunc
}

func (f *failure) record(err error) {
	f.once.Do(func() {
		f.err = err
		f.cancel()
	})
}

// FetchAll probes page 1 for the page count, partitions the page range,
// fetches the remaining pages concurrently and concatenates them in page
// order.
//
// Either every page is fetched and the combined table is returned, or the
// first error is returned after all workers have stopped. Pages that have
// not been started when a worker fails are skipped.
func (bf *BatchFetcher) FetchAll(ctx context.Context, endpoint string, params map[string]string) (*table.Table, error) {
	if bf.config.MaxWorkers < 1 {
		return nil, fmt.Errorf("%w: max workers must be >= 1 (got %d)", ErrInvalidArgument, bf.config.MaxWorkers)
	}

	start := time.Now()

	probe, err := bf.fetchPage(ctx, endpoint, params, 1)
	if err != nil {
		FetchFailures.WithLabelValues(endpoint).Inc()
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}
	totalPages := probe.TotalPages
	PagesFetched.WithLabelValues(endpoint).Inc()
	bf.progress(probe.Number, totalPages)

	log.Info().
		Str("endpoint", endpoint).
		Int("total_pages", totalPages).
		Int("total_items", probe.TotalItems).
		Int("max_workers", bf.config.MaxWorkers).
		Msg("Starting paginated fetch")

	// No results at all, or everything fit on the probe page.
	if totalPages <= 1 {
		FetchDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		log.Info().
			Str("endpoint", endpoint).
			Int("rows", probe.Rows.Len()).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return table.Concat(probe.Rows), nil
	}

	chunks, err := bf.config.Strategy.Split(totalPages, bf.config.MaxWorkers)
	if err != nil {
		FetchFailures.WithLabelValues(endpoint).Inc()
		return nil, err
	}

	// slots[i] holds page i+1. Every index is written by exactly one worker.
	slots := make([]*table.Table, totalPages)
	slots[0] = probe.Rows

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	fail := &failure{cancel: cancel}

	var fetched atomic.Int32
	fetched.Store(1)

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go bf.worker(workCtx, endpoint, params, chunk, slots, fail, &fetched, &wg, i)
	}
	wg.Wait()

	if fail.err != nil {
		FetchFailures.WithLabelValues(endpoint).Inc()
		log.Warn().
			Err(fail.err).
			Str("endpoint", endpoint).
			Int32("fetched_pages", fetched.Load()).
			Int("total_pages", totalPages).
			Msg("Paginated fetch failed")
		return nil, fail.err
	}

	combined := table.Concat(slots...)

	FetchDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	log.Info().
		Str("endpoint", endpoint).
		Int("pages", totalPages).
		Int("workers", len(chunks)).
		Int("rows", combined.Len()).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return combined, nil
}

// worker fetches its chunk in ascending order and writes each page's slot.
func (bf *BatchFetcher) worker(ctx context.Context, endpoint string, params map[string]string, chunk []int, slots []*table.Table, fail *failure, fetched *atomic.Int32, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	ActiveWorkers.Inc()
	defer ActiveWorkers.Dec()

	totalPages := len(slots)
	pagesProcessed := 0

	for _, pageNum := range chunk {
		// page 1 was stored by the probe
		if pageNum == 1 {
			continue
		}

		select {
		case <-ctx.Done():
			fail.record(ctx.Err())
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		page, err := bf.fetchPage(ctx, endpoint, params, pageNum)
		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("page", pageNum).
				Msg("Page fetch failed")
			fail.record(fmt.Errorf("page %d: %w", pageNum, err))
			return
		}

		if page.TotalPages != totalPages {
			fail.record(fmt.Errorf("%w: page %d reports %d pages, probe reported %d",
				ErrPageCountChanged, pageNum, page.TotalPages, totalPages))
			return
		}

		slots[pageNum-1] = page.Rows
		PagesFetched.WithLabelValues(endpoint).Inc()
		pagesProcessed++

		n := int(fetched.Add(1))
		if n%progressEvery == 0 {
			log.Info().
				Int("fetched", n).
				Int("total", totalPages).
				Float64("progress_pct", float64(n)/float64(totalPages)*100).
				Msg("Fetch progress")
		}
		bf.progress(page.Number, totalPages)
	}

	log.Debug().
		Int("worker_id", workerID).
		Int("pages_processed", pagesProcessed).
		Msg("Worker completed")
}

// fetchPage applies the per-page timeout and checks the returned page number.
func (bf *BatchFetcher) fetchPage(ctx context.Context, endpoint string, params map[string]string, pageNum int) (*Page, error) {
	if bf.config.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, bf.config.PageTimeout)
		defer cancel()
	}

	page, err := bf.fetcher.FetchPage(ctx, endpoint, params, pageNum)
	if err != nil {
		return nil, err
	}
	if page.Number != pageNum {
		return nil, fmt.Errorf("%w: requested page %d, got %d", ErrPageMismatch, pageNum, page.Number)
	}
	if page.Rows == nil {
		page.Rows = table.New()
	}
	return page, nil
}

func (bf *BatchFetcher) progress(current, total int) {
	if bf.config.OnPage != nil {
		bf.config.OnPage(current, total)
	}
	log.Debug().
		Int("page", current).
		Int("total_pages", total).
		Msgf("Retrieved page %d/%d", current, total)
}
