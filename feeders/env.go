package feeders

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/golobby/cast"
)

var durationType = reflect.TypeOf(time.Duration(0))

// EnvFeeder populates struct fields tagged `env:"NAME"` from environment
// variables. Nested structs are walked recursively; unset variables leave the
// field untouched so lower-priority feeders keep their values.
type EnvFeeder struct {
	priority int
	verbose  verbose
}

// NewEnvFeeder creates a new EnvFeeder.
func NewEnvFeeder() *EnvFeeder {
	return &EnvFeeder{}
}

// WithPriority sets the priority of the feeder. Higher priority feeders are applied later.
func (f *EnvFeeder) WithPriority(priority int) *EnvFeeder {
	f.priority = priority
	return f
}

// Priority returns the feeder priority.
func (f *EnvFeeder) Priority() int {
	return f.priority
}

// SetVerboseDebug enables or disables verbose debug logging
func (f *EnvFeeder) SetVerboseDebug(enabled bool, logger VerboseLogger) {
	f.verbose.set(enabled, logger, "env")
}

// Feed populates structure from the environment.
func (f *EnvFeeder) Feed(structure any) error {
	v, err := structValue(structure)
	if err != nil {
		return err
	}
	f.verbose.debug("EnvFeeder: feeding struct", "type", v.Type().String())
	return f.feedStruct(v)
}

func (f *EnvFeeder) feedStruct(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		sf := t.Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := f.feedStruct(field); err != nil {
				return err
			}
			continue
		}

		name, ok := sf.Tag.Lookup("env")
		if !ok || name == "" || name == "-" {
			continue
		}
		value, found := os.LookupEnv(name)
		if !found {
			f.verbose.debug("EnvFeeder: variable not set", "env", name, "field", sf.Name)
			continue
		}
		if err := setFromString(field, value); err != nil {
			return fmt.Errorf("%w: %s into field %s: %w", ErrEnvCast, name, sf.Name, err)
		}
		f.verbose.debug("EnvFeeder: field set", "env", name, "field", sf.Name)
	}
	return nil
}

// setFromString converts value to the field's type and assigns it.
func setFromString(field reflect.Value, value string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	if field.Kind() == reflect.Pointer {
		elem := reflect.New(field.Type().Elem())
		if err := setFromString(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	switch field.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFieldType, field.Type())
	}

	converted, err := cast.FromType(value, field.Type())
	if err != nil {
		return err
	}
	field.Set(reflect.ValueOf(converted).Convert(field.Type()))
	return nil
}
