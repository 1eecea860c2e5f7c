// Package feeders provides configuration feeders that populate settings
// structs from environment variables and YAML, TOML or JSON files.
package feeders

import (
	"errors"
	"fmt"
	"reflect"
)

// Error definitions
var (
	// ErrTargetNotStructPointer is returned when a feeder is given anything other than a pointer to a struct
	ErrTargetNotStructPointer = errors.New("feeder target must be a non-nil pointer to a struct")

	// ErrFileRead is returned when a config file cannot be read
	ErrFileRead = errors.New("failed to read config file")

	// ErrFileDecode is returned when a config file cannot be decoded
	ErrFileDecode = errors.New("failed to decode config file")

	// ErrEnvCast is returned when an environment value cannot be converted to the field type
	ErrEnvCast = errors.New("failed to convert environment value")

	// ErrUnsupportedFieldType is returned for field kinds the env feeder cannot set
	ErrUnsupportedFieldType = errors.New("unsupported field type")
)

// VerboseLogger is the minimal logging interface feeders accept for verbose debugging.
type VerboseLogger interface {
	Debug(msg string, args ...any)
}

// structValue validates structure and returns the struct it points at.
func structValue(structure any) (reflect.Value, error) {
	v := reflect.ValueOf(structure)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: got %T", ErrTargetNotStructPointer, structure)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: got %T", ErrTargetNotStructPointer, structure)
	}
	return v, nil
}

// verbose bundles the verbose debug switch shared by every feeder.
type verbose struct {
	enabled bool
	logger  VerboseLogger
}

func (v *verbose) set(enabled bool, logger VerboseLogger, name string) {
	v.enabled = enabled
	v.logger = logger
	if enabled && logger != nil {
		logger.Debug("Verbose debugging enabled", "feeder", name)
	}
}

func (v *verbose) debug(msg string, args ...any) {
	if v.enabled && v.logger != nil {
		v.logger.Debug(msg, args...)
	}
}
