package userfetch

import (
	"fmt"
	"reflect"
	"sort"
)

// Config is the configuration builder. It applies a set of feeders to one or
// more target structs, then fills `default` tags, enforces `required` tags and
// runs any ConfigValidator or ConfigSetup hooks the targets implement.
type Config struct {
	// Feeders contains all the registered configuration feeders
	Feeders []Feeder
	// StructKeys maps struct identifiers to their configuration objects.
	StructKeys map[string]any
	// VerboseDebug enables detailed logging during configuration processing
	VerboseDebug bool
	// Logger is used for verbose debug logging
	Logger Logger
}

// NewConfig creates a new configuration builder.
//
//	cfg := userfetch.NewConfig()
//	cfg.AddFeeder(feeders.NewYamlFeeder("config.yaml"))
//	cfg.AddStructKey("settings", &settings)
//	err := cfg.Feed()
func NewConfig() *Config {
	return &Config{
		Feeders:    make([]Feeder, 0),
		StructKeys: make(map[string]any),
	}
}

// SetVerboseDebug enables or disables verbose debug logging
func (c *Config) SetVerboseDebug(enabled bool, logger Logger) *Config {
	c.VerboseDebug = enabled
	c.Logger = logger

	for _, feeder := range c.Feeders {
		if verboseFeeder, ok := feeder.(VerboseAwareFeeder); ok {
			verboseFeeder.SetVerboseDebug(enabled, logger)
		}
	}

	return c
}

// AddFeeder adds a configuration feeder
func (c *Config) AddFeeder(feeder Feeder) *Config {
	c.Feeders = append(c.Feeders, feeder)

	if c.VerboseDebug && c.Logger != nil {
		if verboseFeeder, ok := feeder.(VerboseAwareFeeder); ok {
			verboseFeeder.SetVerboseDebug(true, c.Logger)
		}
	}

	return c
}

// AddStructKey adds a structure with a key to the configuration
func (c *Config) AddStructKey(key string, target any) *Config {
	c.StructKeys[key] = target
	return c
}

func (c *Config) debug(msg string, args ...any) {
	if c.VerboseDebug && c.Logger != nil {
		c.Logger.Debug(msg, args...)
	}
}

// orderedFeeders returns the feeders sorted by ascending priority.
func (c *Config) orderedFeeders() []Feeder {
	ordered := make([]Feeder, len(c.Feeders))
	copy(ordered, c.Feeders)
	sort.SliceStable(ordered, func(i, j int) bool {
		return feederPriority(ordered[i]) < feederPriority(ordered[j])
	})
	return ordered
}

// Feed applies every feeder to every struct key, in key order, then applies
// defaults and validates each target.
func (c *Config) Feed() error {
	c.debug("Starting config feed process", "structKeysCount", len(c.StructKeys), "feedersCount", len(c.Feeders))

	if len(c.StructKeys) == 0 {
		c.debug("No struct keys configured - skipping feed process")
		return nil
	}

	keys := make([]string, 0, len(c.StructKeys))
	for key := range c.StructKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	feeders := c.orderedFeeders()
	for _, key := range keys {
		if err := c.feedTarget(key, c.StructKeys[key], feeders); err != nil {
			return err
		}
	}

	c.debug("Config feed process completed successfully")
	return nil
}

func (c *Config) feedTarget(key string, target any, feeders []Feeder) error {
	c.debug("Processing struct key", "key", key, "targetType", reflect.TypeOf(target))

	for i, f := range feeders {
		c.debug("Applying feeder to struct", "key", key, "feederIndex", i, "feederType", fmt.Sprintf("%T", f), "priority", feederPriority(f))
		if err := f.Feed(target); err != nil {
			c.debug("Feeder Feed method failed", "key", key, "feederType", fmt.Sprintf("%T", f), "error", err)
			return fmt.Errorf("config feeder error: %w: %w", ErrConfigFeederError, err)
		}
	}

	if err := ValidateConfig(target); err != nil {
		c.debug("Config validation failed", "key", key, "error", err)
		return fmt.Errorf("config validation error for %s: %w", key, err)
	}
	c.debug("Config validation succeeded", "key", key)

	if setupable, ok := target.(ConfigSetup); ok {
		if err := setupable.Setup(); err != nil {
			c.debug("Config setup failed", "key", key, "error", err)
			return fmt.Errorf("%w for %s: %w", ErrConfigSetupError, key, err)
		}
	}

	return nil
}

// ConfigSetup is an interface that configs can implement
// to perform additional setup after being populated by feeders
type ConfigSetup interface {
	Setup() error
}
