package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/torosent/querybench/internal/clientmetrics"
)

// NewClient returns an HTTP client with keep-alive pooling. A zero timeout
// disables the client-level deadline.
func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(),
	}
}

// NewInstrumentedClient is NewClient with request/response counters.
func NewInstrumentedClient(timeout time.Duration, metrics *clientmetrics.ClientMetrics) *http.Client {
	client := NewClient(timeout)
	client.Transport = &Transport{Base: client.Transport, Metrics: metrics}
	return client
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Transport counts requests and responses passing through Base.
type Transport struct {
	Base    http.RoundTripper
	Metrics *clientmetrics.ClientMetrics
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Metrics == nil {
		return base.RoundTrip(req)
	}

	t.Metrics.IncrementSent(max(req.ContentLength, 0))
	resp, err := base.RoundTrip(req)
	if err != nil {
		t.Metrics.IncrementErrors()
		return nil, err
	}
	t.Metrics.IncrementReceived(max(resp.ContentLength, 0))
	return resp, nil
}

// NewJSONRequest builds a POST request whose body is payload encoded as JSON.
func NewJSONRequest(ctx context.Context, endpoint string, headers http.Header, payload any) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	target := strings.TrimSpace(endpoint)
	if target == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	for key, values := range headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" || strings.ContainsAny(trimmedKey, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)
		for _, value := range values {
			if strings.ContainsAny(value, "\r\n") {
				return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
			}
			req.Header.Add(canonicalKey, value)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	return req, nil
}
