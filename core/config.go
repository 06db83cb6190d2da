package core

import (
	"fmt"
	"strings"
	"time"
)

const DefaultRequestTimeout = 30 * time.Second

// CredentialsConfig is the username/password/provider triple posted to
// /sessions. One triple is shared by every request on an endpoint.
type CredentialsConfig struct {
	Username string `koanf:"username" mapstructure:"username"`
	Password string `koanf:"password" mapstructure:"password"`
	Provider string `koanf:"provider" mapstructure:"provider"`
}

type Config struct {
	Scheme      string            `koanf:"scheme" mapstructure:"scheme"`
	Host        string            `koanf:"host" mapstructure:"host"`
	Port        int               `koanf:"port" mapstructure:"port"`
	BasePath    string            `koanf:"base_path" mapstructure:"base_path"`
	// InsecureTLS disables certificate verification; the zero value verifies.
	InsecureTLS bool              `koanf:"insecure_tls" mapstructure:"insecure_tls"`
	UserAgent   string            `koanf:"user_agent" mapstructure:"user_agent"`
	Timeout     time.Duration     `koanf:"timeout" mapstructure:"timeout"`
	RolePath    string            `koanf:"role_path" mapstructure:"role_path"`
	Credentials CredentialsConfig `koanf:"credentials" mapstructure:"credentials"`
}

func DefaultConfig() Config {
	return Config{
		Scheme:    DefaultScheme,
		Port:      DefaultPort,
		BasePath:  DefaultBasePath,
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultRequestTimeout,
		RolePath:  "/roles",
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("core: host is required")
	}
	scheme := strings.TrimSpace(strings.ToLower(c.Scheme))
	if scheme != "" && scheme != "http" && scheme != "https" {
		return fmt.Errorf("core: unsupported scheme %q", c.Scheme)
	}
	if c.Port < 0 {
		return fmt.Errorf("core: port must not be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("core: timeout must not be negative")
	}
	return nil
}

// Endpoint derives the immutable endpoint value from the config.
func (c Config) Endpoint() (Endpoint, error) {
	return NewEndpoint(c.Scheme, c.Host, c.Port, c.BasePath, !c.InsecureTLS)
}
