package transport

import (
	"context"
	"net/http"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-insights/core"
)

// statusLoginTimeout is the non-standard code some deployments emit when a
// session token has expired.
const statusLoginTimeout = 440

type ClientConfig struct {
	Rest     *Rest
	Sessions *SessionStore
	Logger   glog.Logger
}

// Client wraps the raw transport with transparent session handling: it
// attaches the bearer token, intercepts unauthenticated responses,
// re-authenticates through the session store, and replays the original
// request exactly once.
type Client struct {
	rest     *Rest
	sessions *SessionStore
	logger   glog.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Rest == nil {
		return nil, core.Internal("transport: client requires a rest transport", nil)
	}
	if cfg.Sessions == nil {
		return nil, core.Internal("transport: client requires a session store", nil)
	}
	return &Client{
		rest:     cfg.Rest,
		sessions: cfg.Sessions,
		logger:   glog.Ensure(cfg.Logger),
	}, nil
}

func (c *Client) Endpoint() core.Endpoint {
	return c.rest.Endpoint()
}

// Sessions exposes the shared session store.
func (c *Client) Sessions() *SessionStore {
	return c.sessions
}

// Close tears down the underlying transport's connection pool.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.rest.Close()
}

// Do sends the request with auth handling but without status classification:
// the result carries whatever status the server returned. Callers that need
// typed failures use Call.
func (c *Client) Do(ctx context.Context, req core.TransportRequest) (core.TransportResult, error) {
	if c == nil || c.rest == nil {
		return core.TransportResult{}, core.Internal("transport: client is not configured", nil)
	}

	token := ""
	if req.SendAuth {
		token = c.sessions.Token()
	}
	result, err := c.rest.Do(ctx, withBearer(req, token))
	if err != nil {
		return core.TransportResult{}, err
	}
	if !req.SendAuth || !unauthenticated(result.StatusCode) {
		return result, nil
	}

	// One re-auth, one replay. Concurrent observers of the same stale token
	// serialize inside the store and share the fresh token.
	fresh, err := c.sessions.Refresh(ctx, c.rest, token)
	if err != nil {
		return core.TransportResult{}, err
	}
	c.logger.Debug("transport: replaying request after re-authentication", "method", req.Method, "path", req.Path)

	result, err = c.rest.Do(ctx, withBearer(req, fresh))
	if err != nil {
		return core.TransportResult{}, err
	}
	if unauthenticated(result.StatusCode) {
		c.sessions.Invalidate(fresh)
		return core.TransportResult{}, core.AuthFailed("transport: request remained unauthenticated after re-authentication", map[string]any{
			"status_code": result.StatusCode,
			"method":      req.Method,
			"path":        req.Path,
		})
	}
	return result, nil
}

// Call is Do followed by status classification: non-2xx statuses become the
// typed failures of the core package, and surviving warnings are logged.
func (c *Client) Call(ctx context.Context, req core.TransportRequest) (core.TransportResult, error) {
	result, err := c.Do(ctx, req)
	if err != nil {
		return core.TransportResult{}, err
	}
	if warning := result.Warning(); warning != "" {
		c.logger.Warn("transport: server warning", "path", req.Path, "warning", warning)
	}
	if err := ClassifyStatus(result, req.Method, req.Path); err != nil {
		return core.TransportResult{}, err
	}
	return result, nil
}

func (c *Client) Get(ctx context.Context, path string, query map[string]string) (core.TransportResult, error) {
	return c.Call(ctx, core.TransportRequest{Method: http.MethodGet, Path: path, Query: query, SendAuth: true})
}

func (c *Client) Post(ctx context.Context, path string, body any) (core.TransportResult, error) {
	return c.Call(ctx, core.TransportRequest{Method: http.MethodPost, Path: path, Body: body, SendAuth: true})
}

func (c *Client) Put(ctx context.Context, path string, body any) (core.TransportResult, error) {
	return c.Call(ctx, core.TransportRequest{Method: http.MethodPut, Path: path, Body: body, SendAuth: true})
}

func (c *Client) Patch(ctx context.Context, path string, body any) (core.TransportResult, error) {
	return c.Call(ctx, core.TransportRequest{Method: http.MethodPatch, Path: path, Body: body, SendAuth: true})
}

func (c *Client) Delete(ctx context.Context, path string) (core.TransportResult, error) {
	return c.Call(ctx, core.TransportRequest{Method: http.MethodDelete, Path: path, SendAuth: true})
}

func withBearer(req core.TransportRequest, token string) core.TransportRequest {
	if !req.SendAuth || strings.TrimSpace(token) == "" {
		return req
	}
	headers := make(map[string]string, len(req.Headers)+1)
	for key, value := range req.Headers {
		headers[key] = value
	}
	headers["Authorization"] = "Bearer " + token
	req.Headers = headers
	return req
}

func unauthenticated(statusCode int) bool {
	return statusCode == http.StatusUnauthorized || statusCode == statusLoginTimeout
}

var _ core.Doer = (*Client)(nil)
