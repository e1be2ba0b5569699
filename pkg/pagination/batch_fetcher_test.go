package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/crunchbase-client/pkg/table"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeFetcher serves totalPages pages of rowsPerPage rows each.
type fakeFetcher struct {
	mu          sync.Mutex
	totalPages  int
	rowsPerPage int
	calls       map[int]int
	failPage    int
	failErr     error
	delay       time.Duration
	// pagesAfter, when set, is reported as number_of_pages for every page but 1.
	pagesAfter int
	// wrongNumber makes the given page report another current_page.
	wrongNumber int
}

func newFakeFetcher(totalPages, rowsPerPage int) *fakeFetcher {
	return &fakeFetcher{
		totalPages:  totalPages,
		rowsPerPage: rowsPerPage,
		calls:       make(map[int]int),
	}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, endpoint string, params map[string]string, page int) (*Page, error) {
	f.mu.Lock()
	f.calls[page]++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if page == f.failPage {
		return nil, f.failErr
	}

	records := make([]table.Record, 0, f.rowsPerPage)
	for i := 0; i < f.rowsPerPage; i++ {
		r := table.NewRecord()
		r.Set("page", page)
		r.Set("position", i)
		records = append(records, r)
	}

	total := f.totalPages
	if f.pagesAfter > 0 && page != 1 {
		total = f.pagesAfter
	}
	number := page
	if page == f.wrongNumber {
		number = page + 1
	}

	return &Page{
		Number:     number,
		TotalPages: total,
		TotalItems: f.totalPages * f.rowsPerPage,
		Rows:       table.FromRecords(records),
	}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func TestNewBatchFetcher_Defaults(t *testing.T) {
	bf := NewBatchFetcher(newFakeFetcher(1, 1), Config{MaxWorkers: 2})
	if bf.config.Strategy != StrategyChunked {
		t.Errorf("Strategy = %q, want %q", bf.config.Strategy, StrategyChunked)
	}

	cfg := DefaultConfig()
	if cfg.MaxWorkers != 1 {
		t.Errorf("DefaultConfig().MaxWorkers = %d, want 1", cfg.MaxWorkers)
	}
}

func TestFetchAll_MergesInPageOrder(t *testing.T) {
	tests := []struct {
		name       string
		totalPages int
		workers    int
		strategy   Strategy
	}{
		{"sequential", 7, 1, StrategyChunked},
		{"chunked", 10, 3, StrategyChunked},
		{"more workers than pages", 4, 10, StrategyChunked},
		{"balanced", 11, 4, StrategyBalanced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := newFakeFetcher(tt.totalPages, 3)
			bf := NewBatchFetcher(fetcher, Config{MaxWorkers: tt.workers, Strategy: tt.strategy})

			result, err := bf.FetchAll(context.Background(), "/odm-organizations", nil)
			if err != nil {
				t.Fatalf("FetchAll failed: %v", err)
			}

			if result.Len() != tt.totalPages*3 {
				t.Fatalf("Len() = %d, want %d", result.Len(), tt.totalPages*3)
			}

			for i := 0; i < result.Len(); i++ {
				page, _ := result.Value(i, "page")
				pos, _ := result.Value(i, "position")
				if page != i/3+1 || pos != i%3 {
					t.Errorf("row %d = page %v position %v, want page %d position %d", i, page, pos, i/3+1, i%3)
				}
			}

			// every page fetched exactly once, the probe included
			for p := 1; p <= tt.totalPages; p++ {
				if fetcher.calls[p] != 1 {
					t.Errorf("page %d fetched %d times, want 1", p, fetcher.calls[p])
				}
			}
		})
	}
}

func TestFetchAll_SinglePage(t *testing.T) {
	fetcher := newFakeFetcher(1, 5)
	bf := NewBatchFetcher(fetcher, Config{MaxWorkers: 4})

	result, err := bf.FetchAll(context.Background(), "/odm-people", nil)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if result.Len() != 5 {
		t.Errorf("Len() = %d, want 5", result.Len())
	}
	if fetcher.callCount() != 1 {
		t.Errorf("requests = %d, want 1", fetcher.callCount())
	}
}

func TestFetchAll_NoResults(t *testing.T) {
	fetcher := newFakeFetcher(0, 0)
	bf := NewBatchFetcher(fetcher, Config{MaxWorkers: 2})

	result, err := bf.FetchAll(context.Background(), "/odm-people", nil)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if result.Len() != 0 {
		t.Errorf("Len() = %d, want 0", result.Len())
	}
}

func TestFetchAll_PageErrorFailsWholeFetch(t *testing.T) {
	boom := errors.New("status 500")
	fetcher := newFakeFetcher(12, 2)
	fetcher.failPage = 6
	fetcher.failErr = boom

	bf := NewBatchFetcher(fetcher, Config{MaxWorkers: 3})
	result, err := bf.FetchAll(context.Background(), "/odm-organizations", nil)

	if err == nil {
		t.Fatal("Expected error but got nil")
	}
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
	if result != nil {
		t.Errorf("result = %v, want nil on failure", result)
	}
	if v := promtest.ToFloat64(ActiveWorkers); v != 0 {
		t.Errorf("ActiveWorkers = %v after FetchAll returned, want 0", v)
	}
}

func TestFetchAll_ProbeError(t *testing.T) {
	boom := errors.New("unauthorized")
	fetcher := newFakeFetcher(5, 1)
	fetcher.failPage = 1
	fetcher.failErr = boom

	bf := NewBatchFetcher(fetcher, Config{MaxWorkers: 5})
	if _, err := bf.FetchAll(context.Background(), "/odm-people", nil); !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("requests = %d, want only the probe", fetcher.callCount())
	}
}

func TestFetchAll_FailureSkipsUnstartedPages(t *testing.T) {
	fetcher := newFakeFetcher(20, 1)
	fetcher.failPage = 2
	fetcher.failErr = errors.New("status 403")
	fetcher.delay = 5 * time.Millisecond

	// one worker holds pages 1..20; it fails on page 2 and must not go on
	bf := NewBatchFetcher(fetcher, Config{MaxWorkers: 1})
	if _, err := bf.FetchAll(context.Background(), "/odm-people", nil); err == nil {
		t.Fatal("Expected error but got nil")
	}
	if got := fetcher.callCount(); got != 2 {
		t.Errorf("requests = %d, want 2 (probe + failing page)", got)
	}
}

func TestFetchAll_PageCountChanged(t *testing.T) {
	fetcher := newFakeFetcher(4, 1)
	fetcher.pagesAfter = 5

	bf := NewBatchFetcher(fetcher, Config{MaxWorkers: 2})
	_, err := bf.FetchAll(context.Background(), "/odm-organizations", nil)
	if !errors.Is(err, ErrPageCountChanged) {
		t.Errorf("error = %v, want ErrPageCountChanged", err)
	}
}

func TestFetchAll_PageMismatch(t *testing.T) {
	fetcher := newFakeFetcher(4, 1)
	fetcher.wrongNumber = 3

	bf := NewBatchFetcher(fetcher, Config{MaxWorkers: 4})
	_, err := bf.FetchAll(context.Background(), "/odm-organizations", nil)
	if !errors.Is(err, ErrPageMismatch) {
		t.Errorf("error = %v, want ErrPageMismatch", err)
	}
}

func TestFetchAll_InvalidWorkers(t *testing.T) {
	fetcher := newFakeFetcher(3, 1)
	bf := NewBatchFetcher(fetcher, Config{MaxWorkers: 0})

	_, err := bf.FetchAll(context.Background(), "/odm-people", nil)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("requests = %d, want 0", fetcher.callCount())
	}
}

func TestFetchAll_ContextCancelled(t *testing.T) {
	fetcher := newFakeFetcher(10, 1)
	fetcher.delay = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 75*time.Millisecond)
	defer cancel()

	bf := NewBatchFetcher(fetcher, Config{MaxWorkers: 1})
	_, err := bf.FetchAll(ctx, "/odm-people", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestFetchAll_PageTimeout(t *testing.T) {
	fetcher := newFakeFetcher(3, 1)
	fetcher.delay = 100 * time.Millisecond

	bf := NewBatchFetcher(fetcher, Config{MaxWorkers: 3, PageTimeout: 10 * time.Millisecond})
	_, err := bf.FetchAll(context.Background(), "/odm-people", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestFetchAll_OnPage(t *testing.T) {
	fetcher := newFakeFetcher(6, 1)

	var mu sync.Mutex
	seen := make(map[int]int)
	bf := NewBatchFetcher(fetcher, Config{
		MaxWorkers: 3,
		OnPage: func(current, total int) {
			mu.Lock()
			defer mu.Unlock()
			if total != 6 {
				panic(fmt.Sprintf("total = %d", total))
			}
			seen[current]++
		},
	})

	if _, err := bf.FetchAll(context.Background(), "/odm-organizations", nil); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	for p := 1; p <= 6; p++ {
		if seen[p] != 1 {
			t.Errorf("OnPage(%d) called %d times, want 1", p, seen[p])
		}
	}
}

func TestFetchAll_Idempotent(t *testing.T) {
	bf := NewBatchFetcher(newFakeFetcher(9, 2), Config{MaxWorkers: 4})

	first, err := bf.FetchAll(context.Background(), "/odm-organizations", nil)
	if err != nil {
		t.Fatalf("first FetchAll failed: %v", err)
	}
	second, err := bf.FetchAll(context.Background(), "/odm-organizations", nil)
	if err != nil {
		t.Fatalf("second FetchAll failed: %v", err)
	}

	if first.Len() != second.Len() {
		t.Fatalf("Len() differs: %d vs %d", first.Len(), second.Len())
	}
	a, b := first.Strings(), second.Strings()
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("row %d differs: %v vs %v", i, a[i], b[i])
			}
		}
	}
}
