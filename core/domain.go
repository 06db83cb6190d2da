package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultScheme    = "https"
	DefaultPort      = 8080
	DefaultBasePath  = "/api/v1"
	DefaultUserAgent = "go-insights"
)

// HeaderWarning carries generic deprecation or preview notices.
const HeaderWarning = "Warning"

// HeaderAPIStatus carries the structured API stability status. When both
// headers are present the structured one is preferred.
const HeaderAPIStatus = "X-Api-Status"

// Endpoint identifies one Insights server. Immutable after construction.
type Endpoint struct {
	Scheme    string
	Host      string
	Port      int
	BasePath  string
	VerifyTLS bool
}

func NewEndpoint(scheme string, host string, port int, basePath string, verifyTLS bool) (Endpoint, error) {
	scheme = strings.TrimSpace(strings.ToLower(scheme))
	if scheme == "" {
		scheme = DefaultScheme
	}
	if scheme != "http" && scheme != "https" {
		return Endpoint{}, BadInput(fmt.Sprintf("core: unsupported scheme %q", scheme), map[string]any{"scheme": scheme})
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return Endpoint{}, BadInput("core: endpoint host is required", nil)
	}
	if port <= 0 {
		port = DefaultPort
	}
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		basePath = DefaultBasePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return Endpoint{
		Scheme:    scheme,
		Host:      host,
		Port:      port,
		BasePath:  strings.TrimSuffix(basePath, "/"),
		VerifyTLS: verifyTLS,
	}, nil
}

// URL joins the endpoint origin, base path, and the given path. The path must
// begin with "/".
func (e Endpoint) URL(path string) string {
	return e.Origin() + e.BasePath + path
}

func (e Endpoint) Origin() string {
	return e.Scheme + "://" + e.Host + ":" + strconv.Itoa(e.Port)
}

// Session is the server-issued bearer session. The token is treated as
// opaque; TTL is advisory and expiry is only ever learned from a 401/440.
type Session struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	TTL       int64  `json:"ttl"`
}

// Version is the parsed server version record. Raw preserves the wire form
// "<MAJOR.MINOR.PATCH>-<build>".
type Version struct {
	Major       int
	Minor       int
	Patch       int
	Build       string
	ReleaseName string
	Raw         string
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d-%s", v.Major, v.Minor, v.Patch, v.Build)
}

// ParseVersion parses "<MAJOR.MINOR.PATCH>-<build>" as reported by /version.
func ParseVersion(raw string, releaseName string) (Version, error) {
	raw = strings.TrimSpace(raw)
	numbers, build, found := strings.Cut(raw, "-")
	if !found || strings.TrimSpace(build) == "" {
		return Version{}, BadInput(fmt.Sprintf("core: version %q is missing a build suffix", raw), map[string]any{"version": raw})
	}
	parts := strings.Split(numbers, ".")
	if len(parts) != 3 {
		return Version{}, BadInput(fmt.Sprintf("core: version %q is not MAJOR.MINOR.PATCH", raw), map[string]any{"version": raw})
	}
	fields := make([]int, 3)
	for i, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Version{}, BadInput(fmt.Sprintf("core: version component %q is not a number", part), map[string]any{"version": raw})
		}
		fields[i] = value
	}
	return Version{
		Major:       fields[0],
		Minor:       fields[1],
		Patch:       fields[2],
		Build:       strings.TrimSpace(build),
		ReleaseName: strings.TrimSpace(releaseName),
		Raw:         raw,
	}, nil
}

// TransportRequest describes one HTTP call against the endpoint's API root.
// Body may be nil, raw []byte (sent as application/octet-stream), or any
// JSON-marshalable value.
type TransportRequest struct {
	Method   string
	Path     string
	Query    map[string]string
	Headers  map[string]string
	Body     any
	SendAuth bool
	Timeout  time.Duration
}

// TransportResult is the outcome of one HTTP round trip. Body is the raw
// response payload; Warnings collects deprecation/preview headers.
type TransportResult struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Warnings   []string
	Metadata   map[string]any
}

func (r TransportResult) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the response body into out.
func (r TransportResult) JSON(out any) error {
	if len(r.Body) == 0 {
		return BadInput("core: response body is empty", map[string]any{"status_code": r.StatusCode})
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return WrapBadInput(err, "core: response body is not valid json", map[string]any{"status_code": r.StatusCode})
	}
	return nil
}

// Parsed returns the decoded JSON body, or the raw text when the body is not
// valid JSON.
func (r TransportResult) Parsed() any {
	var value any
	if err := json.Unmarshal(r.Body, &value); err != nil {
		return string(r.Body)
	}
	return value
}

// Warning returns the preferred warning: the structured API-status header
// when present, otherwise the first generic warning.
func (r TransportResult) Warning() string {
	structured := ""
	generic := ""
	for _, warning := range r.Warnings {
		kind, text, found := strings.Cut(warning, ": ")
		if !found {
			if generic == "" {
				generic = warning
			}
			continue
		}
		switch kind {
		case HeaderAPIStatus:
			if structured == "" {
				structured = text
			}
		default:
			if generic == "" {
				generic = text
			}
		}
	}
	if structured != "" {
		return structured
	}
	return generic
}
