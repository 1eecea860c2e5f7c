package feeders

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// fileFeeder holds what every file-backed feeder shares: a path, a priority
// and the decode function for its format.
type fileFeeder struct {
	path     string
	format   string
	priority int
	verbose  verbose
	decode   func(data []byte, structure any) error
}

func (f *fileFeeder) feed(structure any) error {
	if _, err := structValue(structure); err != nil {
		return err
	}
	f.verbose.debug("Reading config file", "format", f.format, "path", f.path)
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrFileRead, f.path, err)
	}
	if err := f.decode(data, structure); err != nil {
		return fmt.Errorf("%w %s (%s): %w", ErrFileDecode, f.path, f.format, err)
	}
	f.verbose.debug("Config file applied", "format", f.format, "path", f.path)
	return nil
}

// YamlFeeder populates a struct from a YAML file using `yaml` tags.
type YamlFeeder struct {
	fileFeeder
}

// NewYamlFeeder creates a feeder for the YAML file at path.
func NewYamlFeeder(path string) *YamlFeeder {
	return &YamlFeeder{fileFeeder{path: path, format: "yaml", decode: yaml.Unmarshal}}
}

// WithPriority sets the priority of the feeder. Higher priority feeders are applied later.
func (f *YamlFeeder) WithPriority(priority int) *YamlFeeder {
	f.priority = priority
	return f
}

// Priority returns the feeder priority.
func (f *YamlFeeder) Priority() int { return f.priority }

// SetVerboseDebug enables or disables verbose debug logging
func (f *YamlFeeder) SetVerboseDebug(enabled bool, logger VerboseLogger) {
	f.verbose.set(enabled, logger, "yaml")
}

// Feed decodes the YAML file into structure.
func (f *YamlFeeder) Feed(structure any) error { return f.feed(structure) }

// TomlFeeder populates a struct from a TOML file using `toml` tags.
type TomlFeeder struct {
	fileFeeder
}

// NewTomlFeeder creates a feeder for the TOML file at path.
func NewTomlFeeder(path string) *TomlFeeder {
	return &TomlFeeder{fileFeeder{path: path, format: "toml", decode: toml.Unmarshal}}
}

// WithPriority sets the priority of the feeder. Higher priority feeders are applied later.
func (f *TomlFeeder) WithPriority(priority int) *TomlFeeder {
	f.priority = priority
	return f
}

// Priority returns the feeder priority.
func (f *TomlFeeder) Priority() int { return f.priority }

// SetVerboseDebug enables or disables verbose debug logging
func (f *TomlFeeder) SetVerboseDebug(enabled bool, logger VerboseLogger) {
	f.verbose.set(enabled, logger, "toml")
}

// Feed decodes the TOML file into structure.
func (f *TomlFeeder) Feed(structure any) error { return f.feed(structure) }

// JSONFeeder populates a struct from a JSON file using `json` tags.
type JSONFeeder struct {
	fileFeeder
}

// NewJSONFeeder creates a feeder for the JSON file at path.
func NewJSONFeeder(path string) *JSONFeeder {
	return &JSONFeeder{fileFeeder{path: path, format: "json", decode: json.Unmarshal}}
}

// WithPriority sets the priority of the feeder. Higher priority feeders are applied later.
func (f *JSONFeeder) WithPriority(priority int) *JSONFeeder {
	f.priority = priority
	return f
}

// Priority returns the feeder priority.
func (f *JSONFeeder) Priority() int { return f.priority }

// SetVerboseDebug enables or disables verbose debug logging
func (f *JSONFeeder) SetVerboseDebug(enabled bool, logger VerboseLogger) {
	f.verbose.set(enabled, logger, "json")
}

// Feed decodes the JSON file into structure.
func (f *JSONFeeder) Feed(structure any) error { return f.feed(structure) }

// NewFileFeeder picks a file feeder from the path's extension: .yaml/.yml,
// .toml or .json. It returns nil for anything else.
func NewFileFeeder(path string) FileFeeder {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYamlFeeder(path)
	case ".toml":
		return NewTomlFeeder(path)
	case ".json":
		return NewJSONFeeder(path)
	default:
		return nil
	}
}

// FileFeeder is implemented by YamlFeeder, TomlFeeder and JSONFeeder.
type FileFeeder interface {
	Feed(structure any) error
	Priority() int
	Path() string
}

// Path returns the file the feeder reads.
func (f *fileFeeder) Path() string { return f.path }
