// Package pagination provides partitioned, concurrent fetching of paginated
// Crunchbase collections.
//
// The provider reports number_of_pages in every response envelope, so a
// collection is fetched by probing page 1 first and then splitting the full
// page range across workers:
//
//	cfg := pagination.DefaultConfig()
//	cfg.MaxWorkers = 5
//	fetcher := pagination.NewBatchFetcher(client, cfg)
//	rows, err := fetcher.FetchAll(ctx, "/odm-organizations", params)
//
// The batch fetcher:
//   - Fetches page 1 to learn the page count (its rows are reused)
//   - Partitions 1..N into contiguous chunks, one goroutine per chunk
//   - Writes each page into its own slot of a pre-sized result array
//   - Joins all workers, then concatenates slots in page order
//   - Fails the whole fetch on the first page error (no partial data)
//
// Partition policy is selected with Config.Strategy. StrategyChunked keeps
// runs of floor(N/workers)+1 pages; StrategyBalanced spreads pages evenly.
package pagination
