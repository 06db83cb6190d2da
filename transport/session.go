package transport

import (
	"context"
	"net/http"
	"strings"
	"sync"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-insights/core"
)

const sessionsPath = "/sessions"

type sessionRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Provider string `json:"provider"`
}

// SessionStore holds the credentials triple and the current session token.
// One store is shared by every request on an endpoint; Refresh serializes
// token acquisition so concurrent 401 observers reuse a single /sessions
// round trip.
type SessionStore struct {
	credentials core.CredentialsConfig
	logger      glog.Logger

	mu      sync.Mutex
	token   string
	session core.Session
}

func NewSessionStore(credentials core.CredentialsConfig, logger glog.Logger) *SessionStore {
	return &SessionStore{
		credentials: core.CredentialsConfig{
			Username: strings.TrimSpace(credentials.Username),
			Password: credentials.Password,
			Provider: strings.TrimSpace(credentials.Provider),
		},
		logger: glog.Ensure(logger),
	}
}

// Token returns the cached session token, or "" when no session has been
// established yet.
func (s *SessionStore) Token() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Session returns the most recently acquired session record.
func (s *SessionStore) Session() core.Session {
	if s == nil {
		return core.Session{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Refresh obtains a session token. stale is the token the caller observed
// failing (possibly empty): when the cached token already differs, another
// caller refreshed first and its token is returned without I/O. The mutex is
// held across the /sessions round trip, so at most one acquisition is in
// flight per store.
func (s *SessionStore) Refresh(ctx context.Context, doer core.Doer, stale string) (string, error) {
	if s == nil {
		return "", core.Internal("transport: session store is not configured", nil)
	}
	if doer == nil {
		return "", core.Internal("transport: session refresh requires a transport", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.token != stale {
		return s.token, nil
	}
	if s.credentials.Username == "" {
		return "", core.AuthFailed("transport: no credentials configured for session acquisition", nil)
	}

	result, err := doer.Do(ctx, core.TransportRequest{
		Method: http.MethodPost,
		Path:   sessionsPath,
		Body: sessionRequest{
			Username: s.credentials.Username,
			Password: s.credentials.Password,
			Provider: s.credentials.Provider,
		},
		// The sessions endpoint must never carry a stale Authorization
		// header; SendAuth false keeps the interceptor out of the loop too.
		SendAuth: false,
	})
	if err != nil {
		return "", err
	}

	switch {
	case result.Success():
	case result.StatusCode == http.StatusServiceUnavailable && indicatesNotInitialized(result.Body):
		return "", core.NotInitialized("transport: server is not yet initialized", map[string]any{
			"status_code": result.StatusCode,
		})
	default:
		return "", core.AuthFailed("transport: session acquisition rejected", map[string]any{
			"status_code": result.StatusCode,
			"username":    s.credentials.Username,
			"provider":    s.credentials.Provider,
		})
	}

	var session core.Session
	if err := result.JSON(&session); err != nil {
		return "", core.WrapTransportFailure(err, "transport: parse session response", nil)
	}
	if strings.TrimSpace(session.SessionID) == "" {
		return "", core.AuthFailed("transport: session response is missing sessionId", nil)
	}

	s.session = session
	s.token = session.SessionID
	s.logger.Debug("transport: session established", "user_id", session.UserID, "ttl", session.TTL)
	return s.token, nil
}

// Invalidate drops the cached token when it matches stale. Used after the
// replayed request still comes back unauthenticated.
func (s *SessionStore) Invalidate(stale string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == stale {
		s.token = ""
		s.session = core.Session{}
	}
}

func indicatesNotInitialized(body []byte) bool {
	text := strings.ToLower(string(body))
	return strings.Contains(text, "not initialized") ||
		strings.Contains(text, "not yet initialized") ||
		strings.Contains(text, "uninitialized")
}
