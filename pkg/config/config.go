// Package config provides YAML configuration loading with environment variable override.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads a YAML configuration file into the given struct.
// Values already present in out act as defaults; the file overrides them and
// `env` struct tags override the file.
func Load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	// Expand environment variables in the YAML
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), out); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	return ApplyEnv(out)
}

// LoadOrDefault tries to load config from path. A missing file (or an empty
// path) keeps the defaults in out and only applies environment overrides.
func LoadOrDefault(path string, out any) error {
	if path == "" {
		return ApplyEnv(out)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ApplyEnv(out)
	}
	return Load(path, out)
}

// ApplyEnv sets struct fields from environment variables named by their
// `env` tag. Nested structs are walked recursively.
func ApplyEnv(v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("apply env: expected pointer to struct, got %T", v)
	}
	return applyEnvOverrides(val.Elem())
}

func applyEnvOverrides(val reflect.Value) error {
	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := val.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into struct fields
		if fieldVal.Kind() == reflect.Struct {
			if err := applyEnvOverrides(fieldVal); err != nil {
				return err
			}
			continue
		}

		envTag := field.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envVal, ok := os.LookupEnv(envTag)
		if !ok {
			continue
		}

		if err := setField(fieldVal, envVal); err != nil {
			return fmt.Errorf("env %s: %w", envTag, err)
		}
	}
	return nil
}

func setField(fieldVal reflect.Value, envVal string) error {
	if fieldVal.Type() == durationType {
		d, err := time.ParseDuration(strings.TrimSpace(envVal))
		if err != nil {
			return err
		}
		fieldVal.SetInt(int64(d))
		return nil
	}

	switch fieldVal.Kind() {
	case reflect.String:
		fieldVal.SetString(envVal)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(envVal), 10, 64)
		if err != nil {
			return err
		}
		fieldVal.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(envVal), 64)
		if err != nil {
			return err
		}
		fieldVal.SetFloat(f)
	case reflect.Bool:
		fieldVal.SetBool(strings.EqualFold(envVal, "true") || envVal == "1")
	case reflect.Slice:
		if fieldVal.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", fieldVal.Type())
		}
		var items []string
		for _, part := range strings.Split(envVal, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		fieldVal.Set(reflect.ValueOf(items).Convert(fieldVal.Type()))
	}
	return nil
}
