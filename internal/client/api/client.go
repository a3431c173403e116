// Package api is the thin HTTP wrapper around the sync server. It attaches
// the bearer credential to every request and folds network and parse
// failures into a uniform result shape, so callers never deal with raw
// transport errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gtdkeeper/internal/common"
	"github.com/dmitrijs2005/gtdkeeper/internal/wire"
)

// Result is the uniform outcome of an API call. Success is false for any
// network error, non-JSON body, or server-reported failure; Message then
// carries a human-readable reason.
type Result struct {
	Success bool
	Data    json.RawMessage
	Message string
}

// PinFunc supplies the currently configured PIN, or "" when none is set.
type PinFunc func(ctx context.Context) string

// HTTPClient talks JSON over HTTP to the sync server.
type HTTPClient struct {
	baseURL string
	pin     PinFunc
	http    *http.Client
}

// NewHTTPClient builds a client for the server at baseURL. The timeout
// bounds every request end to end, so a hung server can never leave a
// caller waiting indefinitely.
func NewHTTPClient(baseURL string, timeout time.Duration, pin PinFunc) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		pin:     pin,
		http:    &http.Client{Timeout: timeout},
	}
}

// Post sends a JSON body to path and decodes the response envelope.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) Result {
	return c.do(ctx, http.MethodPost, path, body)
}

// Get requests path and decodes the response envelope.
func (c *HTTPClient) Get(ctx context.Context, path string) Result {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any) Result {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Result{Message: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Result{Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if pin := c.pin(ctx); pin != "" {
		req.Header.Set(common.PinHeaderName, pin)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{Message: fmt.Sprintf("network error: %v", err)}
	}
	defer resp.Body.Close()

	var env wire.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Result{Message: fmt.Sprintf("decode response: %v", err)}
	}
	return Result{Success: env.Success, Data: env.Data, Message: env.Message}
}

// Sync performs one POST /sync round-trip. It is guarded client-side: when
// no PIN is configured the request is never sent.
func (c *HTTPClient) Sync(ctx context.Context, req wire.SyncRequest) (*wire.SyncData, error) {
	if c.pin(ctx) == "" {
		return nil, common.ErrUnauthorized
	}
	res := c.Post(ctx, "/sync", req)
	if !res.Success {
		return nil, fmt.Errorf("%w: %s", common.ErrSyncFailed, res.Message)
	}
	var data wire.SyncData
	if err := json.Unmarshal(res.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: malformed sync payload: %v", common.ErrSyncFailed, err)
	}
	return &data, nil
}

// RegisterPin creates a new account keyed by pin.
func (c *HTTPClient) RegisterPin(ctx context.Context, pin string) (*wire.RegisterData, error) {
	res := c.Post(ctx, "/auth/register", wire.PinRequest{Pin: pin})
	if !res.Success {
		return nil, fmt.Errorf("register failed: %s", res.Message)
	}
	var data wire.RegisterData
	if err := json.Unmarshal(res.Data, &data); err != nil {
		return nil, fmt.Errorf("register failed: malformed payload: %v", err)
	}
	return &data, nil
}

// VerifyPin checks whether pin belongs to an existing account.
func (c *HTTPClient) VerifyPin(ctx context.Context, pin string) (*wire.VerifyData, error) {
	res := c.Post(ctx, "/auth/verify", wire.PinRequest{Pin: pin})
	if !res.Success {
		return nil, fmt.Errorf("verify failed: %s", res.Message)
	}
	var data wire.VerifyData
	if err := json.Unmarshal(res.Data, &data); err != nil {
		return nil, fmt.Errorf("verify failed: malformed payload: %v", err)
	}
	return &data, nil
}

// Health probes server reachability. Used by the online watcher.
func (c *HTTPClient) Health(ctx context.Context) error {
	res := c.Get(ctx, "/health")
	if !res.Success {
		return fmt.Errorf("health check failed: %s", res.Message)
	}
	return nil
}
