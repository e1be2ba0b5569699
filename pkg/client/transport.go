package client

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Transport performs a single GET request.
// Implementations must not modify headers or query.
type Transport interface {
	Get(ctx context.Context, url string, headers, query map[string]string) (status int, body []byte, err error)
}

// restyTransport is the default Transport.
type restyTransport struct {
	rc *resty.Client
}

// NewRestyTransport returns a Transport backed by go-resty.
// A zero timeout keeps resty's default (none).
func NewRestyTransport(timeout time.Duration) Transport {
	rc := resty.New()
	if timeout > 0 {
		rc.SetTimeout(timeout)
	}
	return &restyTransport{rc: rc}
}

// Get implements Transport.
func (t *restyTransport) Get(ctx context.Context, url string, headers, query map[string]string) (int, []byte, error) {
	resp, err := t.rc.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParams(query).
		Get(url)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode(), resp.Body(), nil
}
