package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/fluxbase-eu/sizesnap/internal/observability"
	"github.com/fluxbase-eu/sizesnap/internal/sizesnap"
	"github.com/fluxbase-eu/sizesnap/internal/storage"
)

// ConfigName is the base name of the configuration file searched in the
// project directory (sizesnap.yaml, sizesnap.yml or sizesnap.json).
const ConfigName = "sizesnap"

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "SIZESNAP"

// Sections of the configuration file that are not plugin options.
const (
	sectionS3          = "s3"
	sectionTracing     = "tracing"
	sectionMetricsFile = "metrics_file"
)

// Config represents the tool configuration
type Config struct {
	// Options is the raw plugin option map, keyed by canonical option names.
	// Unrecognized keys are passed through so the option validator rejects them.
	Options map[string]any `mapstructure:"-"`

	S3          storage.S3Config           `mapstructure:"s3"`
	Tracing     observability.TracerConfig `mapstructure:"tracing"`
	MetricsFile string                     `mapstructure:"metrics_file"`

	// File is the configuration file that was read, if any
	File string `mapstructure:"-"`
}

// Load loads configuration for the project in dir. configFile overrides the
// search for sizesnap.{yaml,yml,json}; an empty configFile that finds nothing
// is not an error.
func Load(dir, configFile string) (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := loadEnvFile(dir); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(dir)
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("No config file found, using environment variables and defaults")
	} else {
		cfg.File = v.ConfigFileUsed()
		log.Debug().Str("file", cfg.File).Msg("Config file loaded")
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Options = collectOptions(v)

	// An explicit collector endpoint turns tracing on
	if cfg.Tracing.Endpoint != "" {
		cfg.Tracing.Enabled = true
	} else {
		cfg.Tracing.Endpoint = observability.DefaultTracerConfig().Endpoint
	}

	return cfg, nil
}

// collectOptions maps viper's lower-cased keys back to canonical option
// names. Only keys that were actually set are returned, so that defaults stay
// with the option validator.
func collectOptions(v *viper.Viper) map[string]any {
	options := make(map[string]any)
	known := make(map[string]bool)

	for _, key := range sizesnap.OptionKeys() {
		known[strings.ToLower(key)] = true
		if v.IsSet(key) {
			options[key] = v.Get(key)
		}
	}

	keys := make([]string, 0)
	for key := range v.AllSettings() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if known[key] || key == sectionS3 || key == sectionTracing || key == sectionMetricsFile {
			continue
		}
		options[key] = v.Get(key)
	}

	return options
}

// bindEnv binds option names to their snake-case environment variables
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		sizesnap.KeySnapshotPath:  EnvPrefix + "_SNAPSHOT_PATH",
		sizesnap.KeyMatchSnapshot: EnvPrefix + "_MATCH_SNAPSHOT",
		sizesnap.KeyThreshold:     EnvPrefix + "_THRESHOLD",
		sizesnap.KeyPrintInfo:     EnvPrefix + "_PRINT_INFO",
		"tracing.endpoint":        EnvPrefix + "_TRACE_ENDPOINT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// loadEnvFile loads environment variables from a .env file in dir
func loadEnvFile(dir string) error {
	locations := []string{
		".env",
		".env.local",
	}

	for _, location := range locations {
		path := filepath.Join(dir, location)
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return fmt.Errorf("error loading .env file from %s: %w", path, err)
			}
			log.Debug().Str("file", path).Msg(".env file loaded")
			return nil
		}
	}

	return fmt.Errorf("no .env file found")
}

// setDefaults sets default values for the non-option sections, which also
// makes their environment variables visible to Unmarshal. The tracing
// endpoint has no default so that setting it can be detected.
func setDefaults(v *viper.Viper) {
	// S3 defaults
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.use_ssl", true)

	// Tracing defaults
	tracing := observability.DefaultTracerConfig()
	v.SetDefault("tracing.enabled", tracing.Enabled)
	v.SetDefault("tracing.service_name", tracing.ServiceName)
	v.SetDefault("tracing.sample_rate", tracing.SampleRate)
	v.SetDefault("tracing.insecure", tracing.Insecure)

	v.SetDefault("metrics_file", "")
}
