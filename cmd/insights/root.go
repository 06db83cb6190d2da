package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	insights "github.com/goliatone/go-insights"
	"github.com/goliatone/go-insights/core"
)

// rootOptions holds the global flags shared by every subcommand.
type rootOptions struct {
	Endpoint string
	Insecure bool
	Username string
	Password string
	Provider string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "insights",
		Short:         "Admin client for a log analytics deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Endpoint, "endpoint", "https://localhost:8080", "server endpoint, e.g. https://host:8080")
	cmd.PersistentFlags().BoolVar(&opts.Insecure, "insecure", false, "skip TLS certificate verification")
	cmd.PersistentFlags().StringVar(&opts.Username, "username", "", "username for authenticated operations")
	cmd.PersistentFlags().StringVar(&opts.Password, "password", "", "password for authenticated operations")
	cmd.PersistentFlags().StringVar(&opts.Provider, "provider", "local", "authentication provider")

	cmd.AddCommand(newVersionCommand(opts))
	cmd.AddCommand(newInitializedCommand(opts))

	return cmd
}

// config translates the CLI flags into a client configuration.
func (o *rootOptions) config() (core.Config, error) {
	cfg := core.DefaultConfig()

	parsed, err := url.Parse(strings.TrimSpace(o.Endpoint))
	if err != nil {
		return cfg, fmt.Errorf("parse endpoint %q: %w", o.Endpoint, err)
	}
	if parsed.Scheme != "" {
		cfg.Scheme = parsed.Scheme
	}
	if parsed.Hostname() != "" {
		cfg.Host = parsed.Hostname()
	}
	if parsed.Port() != "" {
		port, err := strconv.Atoi(parsed.Port())
		if err != nil {
			return cfg, fmt.Errorf("parse endpoint port %q: %w", parsed.Port(), err)
		}
		cfg.Port = port
	} else if cfg.Scheme == "http" {
		cfg.Port = 80
	}
	if parsed.Path != "" && parsed.Path != "/" {
		cfg.BasePath = strings.TrimSuffix(parsed.Path, "/")
	}

	cfg.InsecureTLS = o.Insecure
	cfg.Credentials = core.CredentialsConfig{
		Username: o.Username,
		Password: o.Password,
		Provider: o.Provider,
	}
	return cfg, nil
}

func (o *rootOptions) client() (*insights.Client, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	return insights.New(cfg)
}
