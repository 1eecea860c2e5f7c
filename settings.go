package userfetch

import (
	"context"
	"errors"
	"fmt"
)

// DefaultUserAgent is sent when Settings.UserAgent is empty after loading.
const DefaultUserAgent = "userfetch/1.0"

// Settings is the resolved configuration of the user service client.
type Settings struct {
	// BaseURL is the root address of the remote user service. It must be an
	// absolute URL; New reports a malformed value.
	BaseURL string `env:"BASE_URL" yaml:"base_url" toml:"base_url" json:"base_url" required:"true"`

	// UserAgent is sent with every request.
	UserAgent string `env:"USERFETCH_USER_AGENT" yaml:"user_agent" toml:"user_agent" json:"user_agent" default:"userfetch/1.0"`

	// Verbose turns on request/response debug logging in the client.
	Verbose bool `env:"USERFETCH_VERBOSE" yaml:"verbose" toml:"verbose" json:"verbose"`
}

// SettingsLoader resolves Settings from a set of feeders.
type SettingsLoader struct {
	feeders  []Feeder
	logger   Logger
	verbose  bool
	registry *observerRegistry
}

// NewSettingsLoader creates a loader. With no feeders it uses DefaultConfigFeeders.
func NewSettingsLoader(feeders ...Feeder) *SettingsLoader {
	if len(feeders) == 0 {
		feeders = DefaultConfigFeeders()
	}
	logger := defaultLogger()
	return &SettingsLoader{
		feeders:  feeders,
		logger:   logger,
		registry: newObserverRegistry(logger),
	}
}

// SetVerboseDebug enables verbose logging of the feed process.
func (l *SettingsLoader) SetVerboseDebug(enabled bool, logger Logger) *SettingsLoader {
	l.verbose = enabled
	if logger != nil {
		l.logger = logger
		l.registry.logger = logger
	}
	return l
}

// RegisterObserver subscribes observer to the loader's config.loaded events.
func (l *SettingsLoader) RegisterObserver(observer Observer, eventTypes ...string) error {
	return l.registry.RegisterObserver(observer, eventTypes...)
}

// Load feeds a fresh Settings, applies defaults and checks BASE_URL is set.
// A missing base URL is reported as a *ConfigError wrapping ErrBaseURLRequired.
func (l *SettingsLoader) Load(ctx context.Context) (*Settings, error) {
	settings := &Settings{}

	cfg := NewConfig()
	for _, f := range l.feeders {
		cfg.AddFeeder(f)
	}
	// always set, so a feeder reused from a verbose loader is switched back off
	cfg.SetVerboseDebug(l.verbose, l.logger)
	cfg.AddStructKey("settings", settings)

	if err := cfg.Feed(); err != nil {
		if errors.Is(err, ErrRequiredFieldMissing) {
			return nil, &ConfigError{
				Key:    "BASE_URL",
				Reason: "no base URL configured",
				Cause:  fmt.Errorf("%w: %w", ErrBaseURLRequired, err),
			}
		}
		return nil, &ConfigError{Reason: err.Error(), Cause: err}
	}

	l.logger.Debug("Settings loaded", "baseURL", SanitizeURL(settings.BaseURL), "feeders", len(l.feeders))
	l.registry.emit(ctx, CloudEventTypeConfigLoaded, map[string]any{
		"baseURL":   SanitizeURL(settings.BaseURL),
		"userAgent": settings.UserAgent,
		"feeders":   len(l.feeders),
	}, nil)

	return settings, nil
}

// LoadSettings resolves Settings from feeders, or from DefaultConfigFeeders when
// none are given.
func LoadSettings(feeders ...Feeder) (*Settings, error) {
	return NewSettingsLoader(feeders...).Load(context.Background())
}
