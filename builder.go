package sessiongate

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/cityhealth/sessiongate/internal/endpoint"
	"github.com/cityhealth/sessiongate/session"
)

// Builder assembles an [Engine]. Configure it with the With* methods and
// call Build once; a Builder is single-use and not safe for concurrent
// configuration.
type Builder struct {
	config Config
	store  TokenStore
	client *http.Client
	logger zerolog.Logger
	hasLog bool

	built bool
}

// New creates a Builder with defaults: an in-memory token store, a
// 10-second HTTP timeout, counters enabled, and logging disabled.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the token store. Defaults to [session.NewMemoryStore];
// front ends that must survive restarts pass a [session.FileStore] or
// [session.RedisStore].
func (b *Builder) WithStore(store TokenStore) *Builder {
	b.store = store
	return b
}

// WithHTTPClient sets the HTTP client used for all backend calls, overriding
// the configured timeout. Useful for tests and custom transports.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.client = client
	return b
}

// WithLogger sets the engine's structured logger. Without one the engine
// stays silent.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	b.hasLog = true
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLoginLatencyHistogram toggles the login round-trip histogram.
func (b *Builder) WithLoginLatencyHistogram(enabled bool) *Builder {
	b.config.Metrics.EnableLoginLatency = enabled
	return b
}

// Build validates the configuration and returns the engine. The new engine
// starts in [StatusUnknown]; call [Engine.Hydrate] (or [Engine.CheckAuth])
// at startup to recover a persisted session.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		store = session.NewMemoryStore()
	}

	httpClient := b.client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTP.Timeout}
	}

	logger := zerolog.Nop()
	if b.hasLog {
		logger = b.logger
	}

	engine := &Engine{
		config:  cfg,
		store:   store,
		log:     logger,
		metrics: NewMetrics(cfg.Metrics),
		checker: validator.New(),
		subs:    make(map[uint64]func(Session)),
	}
	engine.api = endpoint.New(httpClient, endpoint.Config{
		LoginURL:    cfg.Endpoints.LoginURL,
		RegisterURL: cfg.Endpoints.RegisterURL,
		LogoutURL:   cfg.Endpoints.LogoutURL,
		ValidateURL: cfg.Endpoints.ValidateURL,
	}, logger)

	b.built = true

	return engine, nil
}
