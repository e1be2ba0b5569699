package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/crunchbase-client/pkg/client"
	"github.com/Sternrassler/crunchbase-client/pkg/config"
	"github.com/Sternrassler/crunchbase-client/pkg/logging"
	"github.com/Sternrassler/crunchbase-client/pkg/metrics"
	"github.com/Sternrassler/crunchbase-client/pkg/query"
	"github.com/Sternrassler/crunchbase-client/pkg/table"
)

// requestTimeout bounds one proxied collection fetch.
const requestTimeout = 5 * time.Minute

func main() {
	cfg, err := config.Load(os.Getenv("CBAPI_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logging.Configure(cfg.LogLevel, cfg.LogPretty, os.Stderr)

	cc, err := cfg.ClientConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid client configuration")
	}
	cbClient, err := client.New(cc)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Crunchbase client")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newServer(cbClient, requestTimeout).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", cfg.ListenAddr).
			Int("workers", cfg.Workers).
			Msg("Starting Crunchbase proxy server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
}

type server struct {
	client  *client.Client
	timeout time.Duration
}

func newServer(c *client.Client, timeout time.Duration) *server {
	return &server{client: c, timeout: timeout}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("GET /v1/organizations", s.organizationsHandler)
	mux.HandleFunc("GET /v1/people", s.peopleHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// paramError marks a malformed query-string value.
type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid value %q for %s", e.value, e.name)
}

// queryReader pulls optional typed values out of a query string, keeping
// the first parse failure.
type queryReader struct {
	values map[string][]string
	err    error
}

func (q *queryReader) getString(name string, set func(string)) {
	if v, ok := q.values[name]; ok && len(v) > 0 {
		set(v[0])
	}
}

func (q *queryReader) getInt(name string, set func(int)) {
	q.getString(name, func(raw string) {
		n, err := strconv.Atoi(raw)
		if err != nil {
			q.fail(name, raw)
			return
		}
		set(n)
	})
}

func (q *queryReader) getInt64(name string, set func(int64)) {
	q.getString(name, func(raw string) {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			q.fail(name, raw)
			return
		}
		set(n)
	})
}

func (q *queryReader) fail(name, value string) {
	if q.err == nil {
		q.err = &paramError{name: name, value: value}
	}
}

// fetchOptions reads the proxy's own parameters.
func (q *queryReader) fetchOptions() []client.FetchOption {
	var opts []client.FetchOption
	q.getInt("workers", func(n int) {
		if n < 1 {
			q.fail("workers", strconv.Itoa(n))
			return
		}
		opts = append(opts, client.WithWorkers(n))
	})
	return opts
}

func (s *server) organizationsHandler(w http.ResponseWriter, r *http.Request) {
	q := &queryReader{values: r.URL.Query()}

	var f query.OrganizationFilter
	q.getInt64(query.ParamUpdatedSince, func(v int64) { f.SetUpdatedSince(v) })
	q.getString(query.ParamQuery, func(v string) { f.SetQuery(v) })
	q.getString(query.ParamName, func(v string) { f.SetName(v) })
	q.getString(query.ParamDomainName, func(v string) { f.SetDomainName(v) })
	q.getString(query.ParamLocations, func(v string) { f.SetLocations(v) })
	q.getString(query.ParamOrganizationTypes, func(v string) { f.SetOrganizationTypes(v) })
	q.getString(query.ParamSortOrder, func(v string) { f.SetSortOrder(v) })
	q.getInt(query.ParamPage, func(v int) { f.SetPage(v) })
	opts := q.fetchOptions()

	s.serve(w, r, q.err, func(ctx context.Context) (*table.Table, error) {
		return s.client.Organizations(ctx, f, opts...)
	})
}

func (s *server) peopleHandler(w http.ResponseWriter, r *http.Request) {
	q := &queryReader{values: r.URL.Query()}

	var f query.PeopleFilter
	q.getString(query.ParamName, func(v string) { f.SetName(v) })
	q.getString(query.ParamQuery, func(v string) { f.SetQuery(v) })
	q.getInt64(query.ParamUpdatedSince, func(v int64) { f.SetUpdatedSince(v) })
	q.getString(query.ParamSortOrder, func(v string) { f.SetSortOrder(v) })
	q.getInt(query.ParamPage, func(v int) { f.SetPage(v) })
	q.getString(query.ParamLocations, func(v string) { f.SetLocations(v) })
	q.getString(query.ParamSocials, func(v string) { f.SetSocials(v) })
	q.getString(query.ParamTypes, func(v string) { f.SetTypes(v) })
	opts := q.fetchOptions()

	s.serve(w, r, q.err, func(ctx context.Context) (*table.Table, error) {
		return s.client.People(ctx, f, opts...)
	})
}

func (s *server) serve(w http.ResponseWriter, r *http.Request, paramErr error, fetch func(context.Context) (*table.Table, error)) {
	if paramErr != nil {
		writeError(w, http.StatusBadRequest, paramErr.Error(), 0)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	start := time.Now()
	rows, err := fetch(ctx)
	if err != nil {
		status, _ := client.IsRequestFailed(err)
		log.Error().
			Err(err).
			Str("path", r.URL.Path).
			Int("upstream_status", status).
			Msg("Proxied fetch failed")
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Crunchbase request failed: %v", err), status)
		return
	}

	log.Info().
		Str("path", r.URL.Path).
		Int("records", rows.Len()).
		Dur("duration", time.Since(start)).
		Msg("Proxied fetch completed")

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Total-Records", strconv.Itoa(rows.Len()))
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string, upstream int) {
	body := map[string]any{"error": msg}
	if upstream != 0 {
		body["upstream_status"] = upstream
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debug().Err(err).Int("status", code).Msg("Failed to write error response")
	}
}
