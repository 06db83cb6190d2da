package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-insights/core"
)

const defaultMaxResponseBodyBytes int64 = 10 << 20 // 10 MiB

const headerRequestID = "X-Request-Id"

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type RestConfig struct {
	Endpoint             core.Endpoint
	UserAgent            string
	Timeout              time.Duration
	HTTPClient           HTTPDoer
	MaxResponseBodyBytes int64
	Logger               glog.Logger
}

// Rest issues raw HTTP calls against one endpoint. It owns TLS verification,
// the user-agent header, and connection pooling; it never interprets status
// codes.
type Rest struct {
	endpoint     core.Endpoint
	userAgent    string
	timeout      time.Duration
	client       HTTPDoer
	maxBodyBytes int64
	logger       glog.Logger
}

func NewRest(cfg RestConfig) *Rest {
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = core.DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = core.DefaultRequestTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		httpTransport := http.DefaultTransport
		if !cfg.Endpoint.VerifyTLS {
			httpTransport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
		client = &http.Client{Transport: httpTransport}
	}
	maxBodyBytes := cfg.MaxResponseBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxResponseBodyBytes
	}
	return &Rest{
		endpoint:     cfg.Endpoint,
		userAgent:    userAgent,
		timeout:      timeout,
		client:       client,
		maxBodyBytes: maxBodyBytes,
		logger:       glog.Ensure(cfg.Logger),
	}
}

func (r *Rest) Endpoint() core.Endpoint {
	return r.endpoint
}

// Do performs one round trip. The request body is materialized to bytes
// before sending so the intercepting client can replay the identical request.
func (r *Rest) Do(ctx context.Context, req core.TransportRequest) (core.TransportResult, error) {
	if r == nil || r.client == nil {
		return core.TransportResult{}, core.Internal("transport: rest transport requires an http client", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.TrimSpace(strings.ToUpper(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := strings.TrimSpace(req.Path)
	if !strings.HasPrefix(path, "/") {
		return core.TransportResult{}, core.BadInput("transport: request path must begin with /", map[string]any{"path": req.Path})
	}

	parsedURL, err := url.Parse(r.endpoint.URL(path))
	if err != nil {
		return core.TransportResult{}, core.WrapBadInput(err, "transport: invalid request url", map[string]any{"path": path})
	}
	query := parsedURL.Query()
	for key, value := range req.Query {
		if strings.TrimSpace(key) == "" {
			continue
		}
		query.Set(strings.TrimSpace(key), value)
	}
	parsedURL.RawQuery = query.Encode()

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return core.TransportResult{}, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	requestCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, method, parsedURL.String(), bytes.NewReader(body))
	if err != nil {
		return core.TransportResult{}, core.WrapBadInput(err, "transport: create http request", map[string]any{"method": method, "url": parsedURL.String()})
	}
	httpReq.Header.Set("User-Agent", r.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" && len(body) > 0 {
		httpReq.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(headerRequestID, requestID)
	for key, value := range req.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), value)
	}

	startedAt := time.Now().UTC()
	httpRes, err := r.client.Do(httpReq)
	if err != nil {
		return core.TransportResult{}, core.WrapTransportFailure(err, "transport: execute http request", map[string]any{
			"method":     method,
			"url":        parsedURL.String(),
			"request_id": requestID,
		})
	}
	defer httpRes.Body.Close()

	resBody, err := io.ReadAll(io.LimitReader(httpRes.Body, r.maxBodyBytes+1))
	if err != nil {
		return core.TransportResult{}, core.WrapTransportFailure(err, "transport: read response body", map[string]any{
			"status_code": httpRes.StatusCode,
			"request_id":  requestID,
		})
	}
	if int64(len(resBody)) > r.maxBodyBytes {
		return core.TransportResult{}, core.TransportFailure("transport: response body exceeds limit", map[string]any{
			"status_code":      httpRes.StatusCode,
			"response_limit_b": r.maxBodyBytes,
			"request_id":       requestID,
		})
	}

	result := core.TransportResult{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       resBody,
		Warnings:   collectWarnings(httpRes.Header),
		Metadata: map[string]any{
			"duration_ms": time.Since(startedAt).Milliseconds(),
			"request_id":  requestID,
		},
	}
	r.logger.Debug("transport: round trip",
		"method", method,
		"path", path,
		"status_code", httpRes.StatusCode,
		"request_id", requestID,
	)
	return result, nil
}

// Close releases pooled connections when the underlying client supports it.
func (r *Rest) Close() {
	if r == nil {
		return
	}
	type idleCloser interface {
		CloseIdleConnections()
	}
	if closer, ok := r.client.(idleCloser); ok {
		closer.CloseIdleConnections()
	}
}

func encodeBody(body any) ([]byte, string, error) {
	switch value := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return value, "application/octet-stream", nil
	case json.RawMessage:
		return value, "application/json", nil
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, "", core.WrapBadInput(err, "transport: encode request body", nil)
		}
		return encoded, "application/json", nil
	}
}

func flattenHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) == 0 {
			flat[key] = ""
			continue
		}
		flat[key] = strings.Join(values, ",")
	}
	return flat
}

func collectWarnings(headers http.Header) []string {
	var warnings []string
	for _, value := range headers.Values(core.HeaderAPIStatus) {
		warnings = append(warnings, core.HeaderAPIStatus+": "+value)
	}
	for _, value := range headers.Values(core.HeaderWarning) {
		warnings = append(warnings, core.HeaderWarning+": "+value)
	}
	return warnings
}

var _ core.Doer = (*Rest)(nil)
