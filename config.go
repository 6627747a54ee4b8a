package sessiongate

import (
	"errors"
	"net/url"
	"time"
)

// Config defines the engine's collaborator URLs and runtime knobs. Configure
// it before Build; the engine treats its copy as immutable afterward.
type Config struct {
	Endpoints EndpointConfig
	HTTP      HTTPConfig
	Metrics   MetricsConfig
}

// EndpointConfig holds the backend authentication surface. Login, Register,
// and Logout are required. Validate is optional; leaving it empty disables
// [Engine.Validate].
type EndpointConfig struct {
	LoginURL    string
	RegisterURL string
	LogoutURL   string
	ValidateURL string
}

// HTTPConfig controls the engine's outbound HTTP behavior. A client supplied
// via [Builder.WithHTTPClient] takes precedence over Timeout.
type HTTPConfig struct {
	Timeout time.Duration
}

// MetricsConfig controls the in-process counters. When Enabled is false all
// metric operations are no-ops; EnableLoginLatency additionally records the
// login round-trip histogram.
type MetricsConfig struct {
	Enabled            bool
	EnableLoginLatency bool
}

func defaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:            true,
			EnableLoginLatency: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are values today; the copy is kept behind a helper so adding
	// a reference-typed field later has one place to deep-copy it.
	return cfg
}

// Validate checks the configuration for use by [Builder.Build].
func (c *Config) Validate() error {
	if err := checkURL("Endpoints LoginURL", c.Endpoints.LoginURL, true); err != nil {
		return err
	}
	if err := checkURL("Endpoints RegisterURL", c.Endpoints.RegisterURL, true); err != nil {
		return err
	}
	if err := checkURL("Endpoints LogoutURL", c.Endpoints.LogoutURL, true); err != nil {
		return err
	}
	if err := checkURL("Endpoints ValidateURL", c.Endpoints.ValidateURL, false); err != nil {
		return err
	}

	if c.HTTP.Timeout <= 0 {
		return errors.New("HTTP Timeout must be > 0")
	}

	if c.Metrics.EnableLoginLatency && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLoginLatency requires Metrics Enabled")
	}

	return nil
}

func checkURL(name, raw string, required bool) error {
	if raw == "" {
		if required {
			return errors.New(name + " is required")
		}
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New(name + " must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New(name + " must use http or https")
	}
	return nil
}
