package pagination

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument is returned for page counts or worker budgets below one.
var ErrInvalidArgument = errors.New("invalid argument")

// Strategy selects how the page range is split across workers.
type Strategy string

const (
	// StrategyChunked runs of floor(total/workers)+1 pages, singletons when
	// there are at least as many workers as pages.
	StrategyChunked Strategy = "chunked"

	// StrategyBalanced uses exactly min(total, workers) runs whose lengths
	// differ by at most one page.
	StrategyBalanced Strategy = "balanced"
)

// Split dispatches to the partition function of the strategy.
// An empty strategy means StrategyChunked.
func (s Strategy) Split(totalPages, maxWorkers int) ([][]int, error) {
	switch s {
	case "", StrategyChunked:
		return Partition(totalPages, maxWorkers)
	case StrategyBalanced:
		return PartitionBalanced(totalPages, maxWorkers)
	default:
		return nil, fmt.Errorf("%w: unknown partition strategy %q", ErrInvalidArgument, s)
	}
}

// ParseStrategy resolves a strategy name from config or flags.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(name))); s {
	case "":
		return StrategyChunked, nil
	case StrategyChunked, StrategyBalanced:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unknown partition strategy %q", ErrInvalidArgument, name)
	}
}

// Partition splits pages 1..totalPages into contiguous ascending chunks,
// one per worker.
//
// With totalPages <= maxWorkers every page gets its own chunk. Otherwise the
// chunk size is totalPages/maxWorkers + 1 and the last chunk may be shorter,
// which can leave workers unused when the division is exact:
//
//	Partition(10, 3) = [[1 2 3 4] [5 6 7 8] [9 10]]
func Partition(totalPages, maxWorkers int) ([][]int, error) {
	if err := checkArgs(totalPages, maxWorkers); err != nil {
		return nil, err
	}

	if totalPages <= maxWorkers {
		chunks := make([][]int, totalPages)
		for i := range chunks {
			chunks[i] = []int{i + 1}
		}
		return chunks, nil
	}

	size := totalPages/maxWorkers + 1
	chunks := make([][]int, 0, (totalPages+size-1)/size)
	for start := 1; start <= totalPages; start += size {
		end := start + size - 1
		if end > totalPages {
			end = totalPages
		}
		chunks = append(chunks, pageRange(start, end))
	}
	return chunks, nil
}

// PartitionBalanced splits pages 1..totalPages into min(totalPages, maxWorkers)
// contiguous chunks. The first totalPages%workers chunks carry one extra page.
//
//	PartitionBalanced(10, 3) = [[1 2 3 4] [5 6 7] [8 9 10]]
func PartitionBalanced(totalPages, maxWorkers int) ([][]int, error) {
	if err := checkArgs(totalPages, maxWorkers); err != nil {
		return nil, err
	}

	workers := maxWorkers
	if totalPages < workers {
		workers = totalPages
	}

	base := totalPages / workers
	extra := totalPages % workers

	chunks := make([][]int, 0, workers)
	start := 1
	for i := 0; i < workers; i++ {
		n := base
		if i < extra {
			n++
		}
		chunks = append(chunks, pageRange(start, start+n-1))
		start += n
	}
	return chunks, nil
}

func checkArgs(totalPages, maxWorkers int) error {
	if totalPages < 1 {
		return fmt.Errorf("%w: total pages must be >= 1 (got %d)", ErrInvalidArgument, totalPages)
	}
	if maxWorkers < 1 {
		return fmt.Errorf("%w: max workers must be >= 1 (got %d)", ErrInvalidArgument, maxWorkers)
	}
	return nil
}

func pageRange(first, last int) []int {
	pages := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		pages = append(pages, p)
	}
	return pages
}
