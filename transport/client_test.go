package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-insights/core"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
	auths []string
}

func (l *callLog) record(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, r.Method+" "+r.URL.Path)
	l.auths = append(l.auths, r.Header.Get("Authorization"))
}

func (l *callLog) snapshot() ([]string, []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...), append([]string(nil), l.auths...)
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	rest := NewRest(RestConfig{Endpoint: testEndpoint(t, server)})
	client, err := NewClient(ClientConfig{Rest: rest, Sessions: NewSessionStore(testCredentials(), nil)})
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	return client
}

// Lazy-auth scenario: no token yet, first GET is rejected, the client
// acquires a session and replays. Exactly three HTTP calls.
func TestClient_ReauthenticatesAndReplaysOnce(t *testing.T) {
	log := &callLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		switch r.URL.Path {
		case "/api/v1/sessions":
			json.NewEncoder(w).Encode(map[string]any{"userId": "u1", "sessionId": "tok-1", "ttl": 900})
		case "/api/v1/licenses":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"licenses": []any{}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)
	result, err := client.Get(context.Background(), "/licenses", nil)
	if err != nil {
		t.Fatalf("authenticated get: %v", err)
	}
	if result.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", result.StatusCode)
	}

	calls, auths := log.snapshot()
	expected := []string{"GET /api/v1/licenses", "POST /api/v1/sessions", "GET /api/v1/licenses"}
	if len(calls) != len(expected) {
		t.Fatalf("expected %d http calls, got %v", len(expected), calls)
	}
	for i := range expected {
		if calls[i] != expected[i] {
			t.Fatalf("call %d: expected %q, got %q", i, expected[i], calls[i])
		}
	}
	if auths[0] != "" {
		t.Fatalf("initial request must not carry Authorization, got %q", auths[0])
	}
	if auths[1] != "" {
		t.Fatalf("sessions request must not carry Authorization, got %q", auths[1])
	}
	if auths[2] != "Bearer tok-1" {
		t.Fatalf("replay must carry the fresh bearer token, got %q", auths[2])
	}
}

func TestClient_LoginTimeoutStatusTriggersReauth(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/sessions":
			json.NewEncoder(w).Encode(map[string]any{"sessionId": "tok-2", "ttl": 900})
		default:
			if atomic.AddInt32(&attempts, 1) == 1 {
				w.WriteHeader(statusLoginTimeout)
				return
			}
			w.Write([]byte(`{}`))
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)
	client.Sessions().token = "tok-stale"
	if _, err := client.Get(context.Background(), "/users", nil); err != nil {
		t.Fatalf("expected transparent recovery from 440: %v", err)
	}
	if client.Sessions().Token() != "tok-2" {
		t.Fatalf("expected replaced token, got %q", client.Sessions().Token())
	}
}

func TestClient_SecondRejectionFailsAuth(t *testing.T) {
	var dataCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/sessions":
			json.NewEncoder(w).Encode(map[string]any{"sessionId": "tok-1", "ttl": 900})
		default:
			atomic.AddInt32(&dataCalls, 1)
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Get(context.Background(), "/licenses", nil)
	if !core.IsAuthFailed(err) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if got := atomic.LoadInt32(&dataCalls); got != 2 {
		t.Fatalf("expected exactly one replay (2 data calls), got %d", got)
	}
	if client.Sessions().Token() != "" {
		t.Fatalf("token must be invalidated after failed replay")
	}
}

func TestClient_SendAuthFalseBypassesInterception(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	client.Sessions().token = "tok-1"
	result, err := client.Do(context.Background(), core.TransportRequest{
		Method:   http.MethodGet,
		Path:     "/sessions/current",
		SendAuth: false,
	})
	if err != nil {
		t.Fatalf("do without auth: %v", err)
	}
	if result.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status passthrough, got %d", result.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single call, got %d", got)
	}
}

// Two concurrent 401s on one endpoint share a single /sessions POST; the
// second caller waits for and reuses the first refresh.
func TestClient_ConcurrentUnauthorizedSharesOneSessionPost(t *testing.T) {
	var sessionCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/sessions":
			atomic.AddInt32(&sessionCalls, 1)
			json.NewEncoder(w).Encode(map[string]any{"sessionId": "tok-1", "ttl": 900})
		default:
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{}`))
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)

	const workers = 6
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Get(context.Background(), "/datasets", nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&sessionCalls); got != 1 {
		t.Fatalf("expected one /sessions POST for concurrent 401s, got %d", got)
	}
}

func TestClient_CallClassifiesStatuses(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, "", core.IsNotFound},
		{"conflict", http.StatusConflict, "", core.IsConflict},
		{"validation", http.StatusUnprocessableEntity, `{"errorMessage":"name is taken","errorDetails":{"name":"already in use"}}`, core.IsValidationFailed},
		{"teapot", http.StatusTeapot, "", core.IsNotImplementedOnServer},
		{"server error", http.StatusInternalServerError, "", core.IsTransportFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/v1/sessions" {
					json.NewEncoder(w).Encode(map[string]any{"sessionId": "tok-1", "ttl": 900})
					return
				}
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := newTestClient(t, server)
			client.Sessions().token = "tok-1"
			_, err := client.Get(context.Background(), "/things", nil)
			if err == nil || !tc.check(err) {
				t.Fatalf("expected classified failure, got %v", err)
			}
		})
	}
}

func TestClient_CallSurfacesValidationDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorMessage":"missing fields","errorDetails":{"email":"is required"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	client.Sessions().token = "tok-1"
	_, err := client.Post(context.Background(), "/users", map[string]any{})
	if !core.IsValidationFailed(err) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	fields := core.ValidationFields(err)
	if len(fields) != 1 || fields[0].Field != "email" {
		t.Fatalf("unexpected field errors %v", fields)
	}
}
