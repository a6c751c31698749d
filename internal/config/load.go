package config

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix marks environment variables that override file settings.
// WARDEN_CLOSEDOWNAT sets ClosedownAt; WARDEN_REDIS_ADDRESS sets redis.address.
const EnvPrefix = "WARDEN_"

// Load reads path (optional) and the process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Environ())
}

// LoadWithEnv is Load with an explicit environment, for tests.
func LoadWithEnv(path string, environ []string) (*Config, error) {
	raw := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.Fatal(domain.ExitSettingsDirectory, fmt.Errorf("read settings: %w", err))
		}
		var file map[string]any
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, domain.Fatal(domain.ExitInvalidSetting, fmt.Errorf("parse %s: %w", path, err))
		}
		merge(raw, file)
	}

	overlayEnv(raw, environ)

	cfg, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode converts a generic settings map into a Config.
func Decode(raw map[string]any) (*Config, error) {
	var cfg Config
	var meta mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		Metadata:         &meta,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			yesNoHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, domain.Fatal(domain.ExitInvalidSetting, fmt.Errorf("decode settings: %w", err))
	}
	sort.Strings(meta.Unused)
	cfg.Unused = meta.Unused
	for i, host := range cfg.ControlFrom {
		cfg.ControlFrom[i] = strings.TrimSpace(host)
	}
	return &cfg, nil
}

// yesNoHook accepts the yes/no spelling used by the host's settings files.
func yesNoHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}
	switch strings.ToLower(strings.TrimSpace(data.(string))) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off", "":
		return false, nil
	}
	return data, nil
}

// merge copies src into dst, descending into nested maps. Keys match case-insensitively.
func merge(dst, src map[string]any) {
	for k, v := range src {
		key := findKey(dst, k)
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[key].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[key] = v
	}
}

func findKey(m map[string]any, key string) string {
	if _, ok := m[key]; ok {
		return key
	}
	for k := range m {
		if strings.EqualFold(k, key) {
			return k
		}
	}
	return key
}

// overlayEnv applies WARDEN_* variables. An underscore selects a section when
// the part before it names one (WARDEN_LOG_LEVEL -> log.level); otherwise the
// whole remainder is a top-level key.
func overlayEnv(raw map[string]any, environ []string) {
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		key := strings.TrimPrefix(name, EnvPrefix)
		if key == "" {
			continue
		}
		if section, field, nested := strings.Cut(key, "_"); nested {
			sk := findKey(raw, section)
			if sub, ok := raw[sk].(map[string]any); ok {
				sub[findKey(sub, field)] = value
				continue
			}
		}
		raw[findKey(raw, key)] = value
	}
}
