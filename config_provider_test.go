package userfetch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderFeeder records the order feeders run in and writes its name into the target.
type orderFeeder struct {
	name     string
	priority int
	log      *[]string
	err      error
}

func (f *orderFeeder) Feed(structure any) error {
	*f.log = append(*f.log, f.name)
	if f.err != nil {
		return f.err
	}
	if cfg, ok := structure.(*testConfig); ok {
		cfg.Name = f.name
	}
	return nil
}

func (f *orderFeeder) Priority() int { return f.priority }

type testConfig struct {
	Name     string        `required:"true"`
	Port     int           `default:"8080"`
	Ratio    float64       `default:"0.25"`
	Enabled  bool          `default:"true"`
	Timeout  time.Duration `default:"2s"`
	Optional string
	Nested   struct {
		Host string `default:"localhost"`
	}
}

type validatedConfig struct {
	Value string `default:"bad"`
}

func (c *validatedConfig) Validate() error {
	if c.Value == "bad" {
		return errors.New("value must not be bad")
	}
	return nil
}

type setupConfig struct {
	Value  string `default:"x"`
	called bool
}

func (c *setupConfig) Setup() error {
	c.called = true
	return nil
}

func TestConfig_FeedOrder(t *testing.T) {
	var order []string
	cfg := &testConfig{}

	err := NewConfig().
		AddFeeder(&orderFeeder{name: "high", priority: 10, log: &order}).
		AddFeeder(&orderFeeder{name: "low", priority: -1, log: &order}).
		AddFeeder(&orderFeeder{name: "zero-a", log: &order}).
		AddFeeder(&orderFeeder{name: "zero-b", log: &order}).
		AddStructKey("test", cfg).
		Feed()
	require.NoError(t, err)

	assert.Equal(t, []string{"low", "zero-a", "zero-b", "high"}, order)
	assert.Equal(t, "high", cfg.Name)
}

func TestConfig_FeederError(t *testing.T) {
	var order []string
	boom := errors.New("boom")

	err := NewConfig().
		AddFeeder(&orderFeeder{name: "broken", log: &order, err: boom}).
		AddStructKey("test", &testConfig{}).
		Feed()
	assert.ErrorIs(t, err, ErrConfigFeederError)
	assert.ErrorIs(t, err, boom)
}

func TestConfig_NoStructKeys(t *testing.T) {
	var order []string
	err := NewConfig().AddFeeder(&orderFeeder{name: "unused", log: &order}).Feed()
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestConfig_SetupHook(t *testing.T) {
	cfg := &setupConfig{}
	require.NoError(t, NewConfig().AddStructKey("setup", cfg).Feed())
	assert.True(t, cfg.called)
	assert.Equal(t, "x", cfg.Value)
}

func TestValidateConfig_Defaults(t *testing.T) {
	cfg := &testConfig{Name: "set", Port: 9090}
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, 9090, cfg.Port, "non-zero values are kept")
	assert.InDelta(t, 0.25, cfg.Ratio, 0.0001)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, "localhost", cfg.Nested.Host)
	assert.Empty(t, cfg.Optional)
}

func TestValidateConfig_Required(t *testing.T) {
	err := ValidateConfig(&testConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequiredFieldMissing)
	assert.Contains(t, err.Error(), "Name")
}

func TestValidateConfig_InvalidDefault(t *testing.T) {
	type badDefault struct {
		Port int `default:"eighty"`
	}
	err := ValidateConfig(&badDefault{})
	assert.ErrorIs(t, err, ErrInvalidDefault)
}

func TestValidateConfig_Validator(t *testing.T) {
	err := ValidateConfig(&validatedConfig{})
	assert.ErrorIs(t, err, ErrConfigValidationFailed)

	assert.NoError(t, ValidateConfig(&validatedConfig{Value: "good"}))
}

func TestValidateConfig_NotPointer(t *testing.T) {
	assert.ErrorIs(t, ValidateConfig(testConfig{}), ErrConfigTargetNotPointer)
	assert.ErrorIs(t, ValidateConfig(nil), ErrConfigTargetNotPointer)
}
