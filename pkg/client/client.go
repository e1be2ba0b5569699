// Package client provides the Crunchbase ODM client: single-page fetches
// over RapidAPI and the two collection operations, Organizations and People.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/crunchbase-client/pkg/pagination"
	"github.com/Sternrassler/crunchbase-client/pkg/query"
	"github.com/Sternrassler/crunchbase-client/pkg/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Provider defaults.
const (
	DefaultHost    = "crunchbase-crunchbase-v1.p.rapidapi.com"
	DefaultBaseURL = "https://" + DefaultHost

	// EndpointOrganizations is the organizations collection.
	EndpointOrganizations = "/odm-organizations"

	// EndpointPeople is the people collection.
	EndpointPeople = "/odm-people"

	headerHost = "x-rapidapi-host"
	headerKey  = "x-rapidapi-key"
)

// Prometheus metrics for Crunchbase requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crunchbase_requests_total",
		Help: "Total Crunchbase page requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crunchbase_request_duration_seconds",
		Help:    "Crunchbase page request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crunchbase_errors_total",
		Help: "Total Crunchbase page errors by kind",
	}, []string{"kind"})
)

// Client is the Crunchbase ODM client.
// It is safe for concurrent use; its headers never change after New.
type Client struct {
	transport Transport
	baseURL   string
	headers   map[string]string
	config    Config
	logger    zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// APIKey is the RapidAPI key sent with every request (REQUIRED).
	APIKey string

	// BaseURL of the provider (default: DefaultBaseURL).
	BaseURL string

	// Host is the x-rapidapi-host header value (default: DefaultHost).
	Host string

	// Timeout per HTTP request for the default transport. Zero means none.
	Timeout time.Duration

	// Concurrency
	MaxWorkers  int                 // Worker budget per collection fetch (default 1)
	Strategy    pagination.Strategy // Page partition policy
	PageTimeout time.Duration       // Deadline per page, zero for none

	// OnPage receives progress as pages arrive. Called concurrently.
	OnPage func(current, total int)

	// Transport overrides the resty-based HTTP transport.
	Transport Transport
}

// DefaultConfig returns the default configuration for an API key.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		Host:       DefaultHost,
		Timeout:    30 * time.Second,
		MaxWorkers: 1,
		Strategy:   pagination.StrategyChunked,
	}
}

// New creates a new Crunchbase client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.MaxWorkers < 0 {
		return nil, fmt.Errorf("max_workers must be >= 1 (got %d)", cfg.MaxWorkers)
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 1
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}

	transport := cfg.Transport
	if transport == nil {
		transport = NewRestyTransport(cfg.Timeout)
	}

	return &Client{
		transport: transport,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		headers: map[string]string{
			headerHost: cfg.Host,
			headerKey:  cfg.APIKey,
		},
		config: cfg,
		logger: log.With().Str("component", "crunchbase-client").Logger(),
	}, nil
}

// FetchOption adjusts a single collection fetch.
type FetchOption func(*pagination.Config)

// WithWorkers overrides the worker budget for one call.
func WithWorkers(n int) FetchOption {
	return func(c *pagination.Config) {
		c.MaxWorkers = n
	}
}

// WithStrategy overrides the partition policy for one call.
func WithStrategy(s pagination.Strategy) FetchOption {
	return func(c *pagination.Config) {
		c.Strategy = s
	}
}

// WithProgress sets the progress callback for one call.
func WithProgress(fn func(current, total int)) FetchOption {
	return func(c *pagination.Config) {
		c.OnPage = fn
	}
}

// Organizations fetches organization records matching f.
// Without an explicit page every page is fetched and merged in order.
func (c *Client) Organizations(ctx context.Context, f query.OrganizationFilter, opts ...FetchOption) (*table.Table, error) {
	return c.collect(ctx, EndpointOrganizations, f, opts)
}

// People fetches people records matching f.
// Without an explicit page every page is fetched and merged in order.
func (c *Client) People(ctx context.Context, f query.PeopleFilter, opts ...FetchOption) (*table.Table, error) {
	return c.collect(ctx, EndpointPeople, f, opts)
}

func (c *Client) collect(ctx context.Context, endpoint string, f query.Filter, opts []FetchOption) (*table.Table, error) {
	params := f.Params()

	if page, ok := f.PinnedPage(); ok {
		p, err := c.FetchPage(ctx, endpoint, params, page)
		if err != nil {
			return nil, err
		}
		return table.Concat(p.Rows), nil
	}

	cfg := pagination.Config{
		MaxWorkers:  c.config.MaxWorkers,
		Strategy:    c.config.Strategy,
		PageTimeout: c.config.PageTimeout,
		OnPage:      c.config.OnPage,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return pagination.NewBatchFetcher(c, cfg).FetchAll(ctx, endpoint, params)
}

// envelope is the provider's response wrapper.
type envelope struct {
	Data *struct {
		Paging *paging `json:"paging"`
		Items  *[]item `json:"items"`
	} `json:"data"`
}

type paging struct {
	TotalItems    int    `json:"total_items"`
	NumberOfPages int    `json:"number_of_pages"`
	CurrentPage   int    `json:"current_page"`
	ItemsPerPage  int    `json:"items_per_page"`
	SortOrder     string `json:"sort_order"`
}

type item struct {
	Type       string       `json:"type"`
	UUID       string       `json:"uuid"`
	Properties table.Record `json:"properties"`
}

// FetchPage requests one page of a collection. It implements
// pagination.PageFetcher. params is not modified.
func (c *Client) FetchPage(ctx context.Context, endpoint string, params map[string]string, page int) (*pagination.Page, error) {
	q := make(map[string]string, len(params)+1)
	for k, v := range params {
		q[k] = v
	}
	q[query.ParamPage] = strconv.Itoa(page)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("page", page).
		Msg("Executing Crunchbase request")

	status, body, err := c.transport.Get(ctx, c.baseURL+endpoint, c.headers, q)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorKindTransport)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Int("page", page).Msg("HTTP request failed")
		return nil, &RequestFailedError{Endpoint: endpoint, Query: q, Err: err}
	}

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()

	if status < 200 || status > 299 {
		errorsTotal.WithLabelValues(string(ErrorKindStatus)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("page", page).
			Int("status_code", status).
			Msg("Crunchbase request error")
		return nil, &RequestFailedError{Endpoint: endpoint, StatusCode: status, Query: q}
	}

	result, err := decodePage(endpoint, page, body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorKindDecode)).Inc()
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Int("page", page).Msg("Malformed response")
		return nil, err
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("page", result.Number).
		Int("total_pages", result.TotalPages).
		Int("rows", result.Rows.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Page decoded")

	return result, nil
}

// decodePage turns a response body into a page of rows.
func decodePage(endpoint string, page int, body []byte) (*pagination.Page, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Endpoint: endpoint, Page: page, Reason: "invalid JSON", Err: err}
	}

	switch {
	case env.Data == nil:
		return nil, &DecodeError{Endpoint: endpoint, Page: page, Reason: "missing data"}
	case env.Data.Items == nil:
		return nil, &DecodeError{Endpoint: endpoint, Page: page, Reason: "missing data.items"}
	case env.Data.Paging == nil:
		return nil, &DecodeError{Endpoint: endpoint, Page: page, Reason: "missing data.paging"}
	}

	p := env.Data.Paging
	if p.CurrentPage != page {
		return nil, &DecodeError{
			Endpoint: endpoint,
			Page:     page,
			Reason:   fmt.Sprintf("got current_page %d", p.CurrentPage),
			Err:      ErrPagingMismatch,
		}
	}

	records := make([]table.Record, 0, len(*env.Data.Items))
	for _, it := range *env.Data.Items {
		records = append(records, it.Properties)
	}

	return &pagination.Page{
		Number:     p.CurrentPage,
		TotalPages: p.NumberOfPages,
		TotalItems: p.TotalItems,
		Rows:       table.FromRecords(records),
	}, nil
}

// IsRequestFailed reports whether err carries a RequestFailedError and
// returns its status code.
func IsRequestFailed(err error) (int, bool) {
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return rf.StatusCode, true
	}
	return 0, false
}
