// Package testutil provides testing utilities for the Crunchbase client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/crunchbase-client/pkg/table"
)

// MockResponse defines a fixed response for one page.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockCrunchbase is a configurable mock of the Crunchbase ODM API.
// Collections are served page by page from in-memory records.
type MockCrunchbase struct {
	server *httptest.Server
	mu     sync.RWMutex

	pageSize    int
	collections map[string][]table.Record
	overrides   map[string]map[int]MockResponse

	// Tracking
	RequestCount      int
	PageRequests      map[string]map[int]int
	LastRequestHeader http.Header
	LastQuery         map[string]string
}

// NewMockCrunchbase creates a mock server that serves pageSize items per page.
func NewMockCrunchbase(pageSize int) *MockCrunchbase {
	if pageSize <= 0 {
		pageSize = 100
	}
	mock := &MockCrunchbase{
		pageSize:     pageSize,
		collections:  make(map[string][]table.Record),
		overrides:    make(map[string]map[int]MockResponse),
		PageRequests: make(map[string]map[int]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server URL.
func (m *MockCrunchbase) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCrunchbase) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCrunchbase) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PageRequests = make(map[string]map[int]int)
	m.LastRequestHeader = nil
	m.LastQuery = nil
}

// SetCollection sets the records served for an endpoint path.
func (m *MockCrunchbase) SetCollection(path string, records []table.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[path] = records
}

// SetPageResponse overrides the response of a single page.
func (m *MockCrunchbase) SetPageResponse(path string, page int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overrides[path] == nil {
		m.overrides[path] = make(map[int]MockResponse)
	}
	m.overrides[path][page] = resp
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCrunchbase) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPageRequests returns how often a page of a path was requested.
func (m *MockCrunchbase) GetPageRequests(path string, page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PageRequests[path][page]
}

// GetLastQuery returns a copy of the last request's query parameters.
func (m *MockCrunchbase) GetLastQuery() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.LastQuery))
	for k, v := range m.LastQuery {
		out[k] = v
	}
	return out
}

// GetLastHeader returns a copy of the last request's headers.
func (m *MockCrunchbase) GetLastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader.Clone()
}

func (m *MockCrunchbase) handle(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			http.Error(w, `{"error":"invalid page"}`, http.StatusBadRequest)
			return
		}
		page = n
	}

	m.mu.Lock()
	m.RequestCount++
	m.LastRequestHeader = r.Header.Clone()
	m.LastQuery = make(map[string]string)
	for k := range r.URL.Query() {
		m.LastQuery[k] = r.URL.Query().Get(k)
	}
	if m.PageRequests[r.URL.Path] == nil {
		m.PageRequests[r.URL.Path] = make(map[int]int)
	}
	m.PageRequests[r.URL.Path][page]++
	override, hasOverride := m.overrides[r.URL.Path][page]
	records, hasCollection := m.collections[r.URL.Path]
	pageSize := m.pageSize
	m.mu.Unlock()

	if r.Header.Get("x-rapidapi-key") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"You are not subscribed to this API."}`))
		return
	}

	if hasOverride {
		if override.Delay > 0 {
			time.Sleep(override.Delay)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(override.StatusCode)
		if override.Body != "" {
			w.Write([]byte(override.Body))
		}
		return
	}

	if !hasCollection {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Endpoint does not exist"}`))
		return
	}

	body, err := BuildEnvelope(records, page, pageSize)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// NumberOfPages returns the page count the mock reports for n records.
func NumberOfPages(n, pageSize int) int {
	return (n + pageSize - 1) / pageSize
}

// BuildEnvelope renders page of records in the provider's response format.
func BuildEnvelope(records []table.Record, page, pageSize int) ([]byte, error) {
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(records) || start < 0 {
		start = len(records)
	}
	if end > len(records) {
		end = len(records)
	}

	type item struct {
		Type       string       `json:"type"`
		UUID       string       `json:"uuid"`
		Properties table.Record `json:"properties"`
	}
	items := make([]item, 0, end-start)
	for i := start; i < end; i++ {
		items = append(items, item{
			Type:       "Summary",
			UUID:       fmt.Sprintf("uuid-%d", i),
			Properties: records[i],
		})
	}

	env := map[string]any{
		"metadata": map[string]any{
			"version":           31,
			"www_path_prefix":   "https://www.crunchbase.com/",
			"api_path_prefix":   "https://api.crunchbase.com/",
			"image_path_prefix": "https://res.cloudinary.com/",
		},
		"data": map[string]any{
			"paging": map[string]any{
				"total_items":     len(records),
				"number_of_pages": NumberOfPages(len(records), pageSize),
				"current_page":    page,
				"items_per_page":  pageSize,
				"sort_order":      "created_at DESC",
			},
			"items": items,
		},
	}
	return json.Marshal(env)
}

// NewRecords builds n records with a running index and a name column.
func NewRecords(prefix string, n int) []table.Record {
	records := make([]table.Record, 0, n)
	for i := 0; i < n; i++ {
		r := table.NewRecord()
		r.Set("name", fmt.Sprintf("%s %d", prefix, i))
		r.Set("index", i)
		r.Set("permalink", fmt.Sprintf("%s-%d", prefix, i))
		records = append(records, r)
	}
	return records
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message":"Internal server error"}`,
	}
}

// NewForbiddenResponse creates a 403 response as sent for an invalid key.
func NewForbiddenResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       `{"message":"You are not subscribed to this API."}`,
	}
}

// NewMalformedResponse creates a 200 response whose body is not JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `<html>gateway</html>`,
	}
}
