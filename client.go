package insights

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-insights/core"
	"github.com/goliatone/go-insights/resource"
	"github.com/goliatone/go-insights/schema"
	"github.com/goliatone/go-insights/transport"
)

type clientBuilder struct {
	logger          glog.Logger
	loggerProvider  glog.LoggerProvider
	httpClient      transport.HTTPDoer
	registry        *schema.Registry
	backoff         core.Backoff
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver
}

type Option func(*clientBuilder)

func WithLogger(logger glog.Logger) Option {
	return func(b *clientBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider glog.LoggerProvider) Option {
	return func(b *clientBuilder) {
		b.loggerProvider = provider
	}
}

// WithHTTPClient swaps the underlying HTTP client, e.g. for custom TLS or
// proxy setups.
func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(b *clientBuilder) {
		b.httpClient = client
	}
}

// WithRegistry replaces the builtin schema registry.
func WithRegistry(registry *schema.Registry) Option {
	return func(b *clientBuilder) {
		b.registry = registry
	}
}

// WithBackoff sets the readiness-poll policy used by Initialize.
func WithBackoff(backoff core.Backoff) Option {
	return func(b *clientBuilder) {
		b.backoff = backoff
	}
}

// WithConfigProvider layers externally loaded configuration between the
// defaults and the runtime config passed to New.
func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *clientBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(b *clientBuilder) {
		b.optionsResolver = resolver
	}
}

// Client is the facade over one Insights server. Collection and resource
// accessors perform no I/O; operations on the returned objects do.
type Client struct {
	config    core.Config
	transport *transport.Client
	registry  *schema.Registry
	logger    glog.Logger
	backoff   core.Backoff
}

// New resolves the configuration (defaults, then the config provider's
// layer, then cfg) and builds the authenticated transport.
func New(cfg core.Config, opts ...Option) (*Client, error) {
	builder := clientBuilder{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("insights", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("insights"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.optionsResolver == nil {
		builder.optionsResolver = core.GoOptionsResolver{}
	}
	if builder.backoff == nil {
		builder.backoff = core.DefaultBackoff()
	}
	if builder.registry == nil {
		builder.registry = schema.Builtin(logger)
	}

	defaults := core.DefaultConfig()
	loaded := core.Config{}
	if builder.configProvider != nil {
		var err error
		loaded, err = builder.configProvider.Load(context.Background(), defaults)
		if err != nil {
			return nil, err
		}
	}
	resolved, err := builder.optionsResolver.Resolve(defaults, loaded, cfg)
	if err != nil {
		return nil, err
	}

	endpoint, err := resolved.Endpoint()
	if err != nil {
		return nil, err
	}
	rest := transport.NewRest(transport.RestConfig{
		Endpoint:   endpoint,
		UserAgent:  resolved.UserAgent,
		Timeout:    resolved.Timeout,
		HTTPClient: builder.httpClient,
		Logger:     logger,
	})
	sessions := transport.NewSessionStore(resolved.Credentials, logger)
	authClient, err := transport.NewClient(transport.ClientConfig{
		Rest:     rest,
		Sessions: sessions,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		config:    resolved,
		transport: authClient,
		registry:  builder.registry,
		logger:    logger,
		backoff:   builder.backoff,
	}, nil
}

// Config returns the resolved configuration.
func (c *Client) Config() core.Config {
	return c.config
}

// Transport exposes the authenticated transport for endpoints the facade
// does not model.
func (c *Client) Transport() *transport.Client {
	return c.transport
}

// Close releases the transport's connection pool.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.transport.Close()
}

type versionBody struct {
	Version     string `json:"version"`
	ReleaseName string `json:"releaseName"`
}

// Version fetches and parses the server version record.
func (c *Client) Version(ctx context.Context) (core.Version, error) {
	result, err := c.transport.Get(ctx, "/version", nil)
	if err != nil {
		return core.Version{}, err
	}
	var body versionBody
	if err := result.JSON(&body); err != nil {
		return core.Version{}, err
	}
	return core.ParseVersion(body.Version, body.ReleaseName)
}

// CurrentSession inspects the server's view of the current session.
func (c *Client) CurrentSession(ctx context.Context) (core.Session, error) {
	result, err := c.transport.Get(ctx, "/sessions/current", nil)
	if err != nil {
		return core.Session{}, err
	}
	var session core.Session
	if err := result.JSON(&session); err != nil {
		return core.Session{}, err
	}
	return session, nil
}

func (c *Client) collection(schemaName string, basePath string) *resource.Collection {
	s, ok := c.registry.Get(schemaName)
	if !ok {
		// Accessors only name builtin schemas; a miss means a caller-supplied
		// registry dropped one. Operations proceed with a bare schema.
		s = schema.Schema{Name: schemaName}
		c.logger.Warn("insights: schema missing from registry", "schema", schemaName)
	}
	return resource.NewCollection(c.transport, s, basePath, c.logger)
}

// Licenses is the license-key collection at /licenses.
func (c *Client) Licenses() *resource.Collection {
	return c.collection(schema.NameLicense, "/licenses")
}

// Users is the user collection at /users. Users update via POST.
func (c *Client) Users() *resource.Collection {
	return c.collection(schema.NameUser, "/users")
}

// Roles is the role collection at the configured canonical path.
func (c *Client) Roles() *resource.Collection {
	return c.collection(schema.NameRole, c.config.RolePath)
}

// Groups is the group alias some server versions serve next to roles.
func (c *Client) Groups() *resource.Collection {
	return c.collection(schema.NameGroup, "/groups")
}

// Datasets is the dataset collection at /datasets.
func (c *Client) Datasets() *resource.Collection {
	return c.collection(schema.NameDataset, "/datasets")
}

// ContentPacks is the content-pack collection at /contentPacks. It is not
// directly addressable; lookups enumerate.
func (c *Client) ContentPacks() *resource.Collection {
	return c.collection(schema.NameContentPack, "/contentPacks")
}

// User is the single-user resource at /users/<id>.
func (c *Client) User(id string) *resource.Resource {
	return c.Users().Resource(id)
}

// Role is the single-role resource under the canonical role path.
func (c *Client) Role(id string) *resource.Resource {
	return c.Roles().Resource(id)
}

// Dataset is the single-dataset resource at /datasets/<id>.
func (c *Client) Dataset(id string) *resource.Resource {
	return c.Datasets().Resource(id)
}
