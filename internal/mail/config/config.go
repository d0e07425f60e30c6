package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// CacheSize bounds the MX result cache. Zero disables caching entirely.
	CacheSize uint `koanf:"cache_size" validate:"lte=1000000"`

	// DisableMXCache starts the validator with MX caching switched off.
	// Useful for testing scenarios where cached results must be bypassed.
	DisableMXCache bool `koanf:"disable_mx_cache"`

	// CheckMX enables live MX lookups during validation by default.
	CheckMX bool `koanf:"check_mx"`

	// DNSTimeout is the per-lookup DNS timeout in seconds.
	DNSTimeout uint `koanf:"dns_timeout" validate:"required,gte=1,lte=60"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Port is the network port the HTTP API will bind to.
	Port int `koanf:"port" validate:"required,gte=1,lt=65535"`

	// BlocklistPath points to a flat disposable-domain list file. Optional.
	BlocklistPath string `koanf:"blocklist_path"`

	// AllowlistPath points to a flat allowlist file. Optional.
	AllowlistPath string `koanf:"allowlist_path"`

	// SnapshotPath is the bbolt snapshot database used to persist lists
	// across restarts. Empty disables snapshotting.
	SnapshotPath string `koanf:"snapshot_path"`

	// FeedURL is an optional remote disposable-domain feed fetched at startup.
	FeedURL string `koanf:"feed_url" validate:"omitempty,url"`
}

// DEFAULT_APP_CONFIG defines the default application configuration for the
// validation service.
var DEFAULT_APP_CONFIG = AppConfig{
	CacheSize:  1000,
	CheckMX:    true,
	DNSTimeout: 5,
	Env:        "prod",
	LogLevel:   "info",
	Port:       8080,
}

// envLoader loads environment variables with the prefix "MAIL_".
// It transforms the keys to lowercase and removes the prefix,
// and can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "MAIL_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "MAIL_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads default configuration values into the provided Koanf
// instance using the structs provider. It can be mocked in tests.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
