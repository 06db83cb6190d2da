package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/goliatone/go-insights/core"
)

func testEndpoint(t *testing.T, server *httptest.Server) core.Endpoint {
	t.Helper()
	parsed, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}
	port, err := strconv.Atoi(parsed.Port())
	if err != nil {
		t.Fatalf("parse test server port: %v", err)
	}
	endpoint, err := core.NewEndpoint(parsed.Scheme, parsed.Hostname(), port, core.DefaultBasePath, true)
	if err != nil {
		t.Fatalf("build endpoint: %v", err)
	}
	return endpoint
}

func TestRest_DoSendsUserAgentAndRequestID(t *testing.T) {
	var seen http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		if r.URL.Path != "/api/v1/version" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"version":"1.2.3-4567890"}`))
	}))
	defer server.Close()

	rest := NewRest(RestConfig{Endpoint: testEndpoint(t, server), UserAgent: "go-insights-test"})
	result, err := rest.Do(context.Background(), core.TransportRequest{Method: http.MethodGet, Path: "/version"})
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	if result.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", result.StatusCode)
	}
	if seen.Get("User-Agent") != "go-insights-test" {
		t.Fatalf("expected user agent, got %q", seen.Get("User-Agent"))
	}
	if seen.Get(headerRequestID) == "" {
		t.Fatalf("expected request id header")
	}
	if result.Metadata["request_id"] == "" {
		t.Fatalf("expected request id metadata")
	}
}

func TestRest_DoEncodesJSONBody(t *testing.T) {
	var body map[string]any
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		payload, _ := io.ReadAll(r.Body)
		json.Unmarshal(payload, &body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	rest := NewRest(RestConfig{Endpoint: testEndpoint(t, server)})
	_, err := rest.Do(context.Background(), core.TransportRequest{
		Method: http.MethodPost,
		Path:   "/datasets",
		Body:   map[string]any{"name": "ds1"},
	})
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	if contentType != "application/json" {
		t.Fatalf("expected json content type, got %q", contentType)
	}
	if body["name"] != "ds1" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRest_DoSendsRawBytesAsOctetStream(t *testing.T) {
	var contentType string
	var payload []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		payload, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	rest := NewRest(RestConfig{Endpoint: testEndpoint(t, server)})
	_, err := rest.Do(context.Background(), core.TransportRequest{
		Method: http.MethodPost,
		Path:   "/clusterconfig",
		Body:   []byte{0x1f, 0x8b, 0x08},
	})
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	if contentType != "application/octet-stream" {
		t.Fatalf("expected octet-stream content type, got %q", contentType)
	}
	if len(payload) != 3 {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestRest_DoMergesQueryParams(t *testing.T) {
	var rawQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.Query()
	}))
	defer server.Close()

	rest := NewRest(RestConfig{Endpoint: testEndpoint(t, server)})
	_, err := rest.Do(context.Background(), core.TransportRequest{
		Method: http.MethodGet,
		Path:   "/datasets",
		Query:  map[string]string{"limit": "10", "filter": "name=ds1"},
	})
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	if rawQuery.Get("limit") != "10" || rawQuery.Get("filter") != "name=ds1" {
		t.Fatalf("unexpected query %v", rawQuery)
	}
}

func TestRest_DoCollectsWarningHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(core.HeaderWarning, "299 - endpoint is deprecated")
		w.Header().Set(core.HeaderAPIStatus, "preview")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	rest := NewRest(RestConfig{Endpoint: testEndpoint(t, server)})
	result, err := rest.Do(context.Background(), core.TransportRequest{Method: http.MethodGet, Path: "/experimental"})
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("expected both warnings, got %v", result.Warnings)
	}
	if result.Warning() != "preview" {
		t.Fatalf("expected structured warning preferred, got %q", result.Warning())
	}
}

func TestRest_DoDoesNotTranslateStatusCodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))
	defer server.Close()

	rest := NewRest(RestConfig{Endpoint: testEndpoint(t, server)})
	result, err := rest.Do(context.Background(), core.TransportRequest{Method: http.MethodGet, Path: "/datasets/nope"})
	if err != nil {
		t.Fatalf("expected no error for http-level failure, got %v", err)
	}
	if result.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status %d", result.StatusCode)
	}
	if string(result.Body) != "missing" {
		t.Fatalf("unexpected body %q", result.Body)
	}
}

func TestRest_DoRejectsRelativePath(t *testing.T) {
	rest := NewRest(RestConfig{Endpoint: core.Endpoint{Scheme: "http", Host: "localhost", Port: 8080, BasePath: "/api/v1"}})
	if _, err := rest.Do(context.Background(), core.TransportRequest{Method: http.MethodGet, Path: "version"}); err == nil {
		t.Fatalf("expected path error")
	}
}

func TestRest_DoWrapsSocketErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := testEndpoint(t, server)
	server.Close()

	rest := NewRest(RestConfig{Endpoint: endpoint})
	_, err := rest.Do(context.Background(), core.TransportRequest{Method: http.MethodGet, Path: "/version"})
	if err == nil {
		t.Fatalf("expected transport failure")
	}
	if !core.IsTransportFailure(err) {
		t.Fatalf("expected transport failure kind, got %v", err)
	}
}

func TestRest_DoHonorsContextCancellation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	}))
	defer server.Close()
	defer close(release)

	rest := NewRest(RestConfig{Endpoint: testEndpoint(t, server)})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	if _, err := rest.Do(ctx, core.TransportRequest{Method: http.MethodGet, Path: "/version"}); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
