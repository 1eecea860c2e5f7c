package userfetch

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/golobby/cast"
)

// ConfigValidator is implemented by configs that check themselves after
// defaults have been applied.
type ConfigValidator interface {
	Validate() error
}

// ValidateConfig fills zero fields from their `default` tag, checks every
// field tagged `required:"true"` is set, then calls Validate when cfg
// implements ConfigValidator. Nested structs are walked.
func ValidateConfig(cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: got %T", ErrConfigTargetNotPointer, cfg)
	}

	if err := processDefaults(v.Elem()); err != nil {
		return err
	}

	var missing []string
	collectMissing(v.Elem(), "", &missing)
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrRequiredFieldMissing, strings.Join(missing, ", "))
	}

	if validator, ok := cfg.(ConfigValidator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrConfigValidationFailed, err)
		}
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func processDefaults(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		sf := t.Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := processDefaults(field); err != nil {
				return err
			}
			continue
		}

		def, ok := sf.Tag.Lookup("default")
		if !ok || !field.IsZero() {
			continue
		}
		if err := setDefault(field, def); err != nil {
			return fmt.Errorf("%w for field %s (%q): %w", ErrInvalidDefault, sf.Name, def, err)
		}
	}
	return nil
}

func setDefault(field reflect.Value, def string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(def)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	converted, err := cast.FromType(def, field.Type())
	if err != nil {
		return err
	}
	field.Set(reflect.ValueOf(converted).Convert(field.Type()))
	return nil
}

// collectMissing appends the dotted path of every zero field tagged
// `required:"true"`, using the env tag name when present.
func collectMissing(v reflect.Value, prefix string, missing *[]string) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		if field.Kind() == reflect.Struct {
			collectMissing(field, prefix+sf.Name+".", missing)
			continue
		}

		if sf.Tag.Get("required") != "true" || !field.IsZero() {
			continue
		}
		name := prefix + sf.Name
		if env := sf.Tag.Get("env"); env != "" {
			name = env
		}
		*missing = append(*missing, name)
	}
}
