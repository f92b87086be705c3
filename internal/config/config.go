// Package config loads snap-push CLI settings from an optional YAML file, a
// .env file and SNAP_PUSH_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	pusherrors "github.com/input-output-hk/catalyst-forge-libs/push/errors"
	"github.com/input-output-hk/catalyst-forge-libs/push/pushtypes"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage/registry"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SNAP_PUSH_"

// DefaultConcurrency is the CLI's default number of parallel uploads.
const DefaultConcurrency = 3

// Config holds every CLI setting. Fields without an env tag are only set by
// the YAML file or flags.
type Config struct {
	Sources     []string `yaml:"sources" env:"SOURCES" envSeparator:","`
	Destination string   `yaml:"destination" env:"DESTINATION"`
	Prefix      string   `yaml:"prefix" env:"PREFIX"`
	Concurrency int      `yaml:"concurrency" env:"CONCURRENCY"`
	WorkingDir  string   `yaml:"cwd" env:"CWD"`

	// Provider credentials and endpoint.
	AccountName     string `yaml:"account_name" env:"ACCOUNT_NAME"`
	AccountKey      string `yaml:"account_key" env:"ACCOUNT_KEY"`
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT"`
	Region          string `yaml:"region" env:"REGION"`
	CredentialsFile string `yaml:"credentials_file" env:"CREDENTIALS_FILE"`

	Public       bool   `yaml:"public" env:"PUBLIC"`
	Force        bool   `yaml:"force" env:"FORCE"`
	Delete       bool   `yaml:"delete" env:"DELETE"`
	DryRun       bool   `yaml:"dry_run" env:"DRY_RUN"`
	CacheControl string `yaml:"cache_control" env:"CACHE_CONTROL"`
	ListMetadata bool   `yaml:"list_metadata" env:"LIST_METADATA"`

	Encodings         []string `yaml:"encodings" env:"ENCODING" envSeparator:","`
	EncodingExts      []string `yaml:"encoding_extensions" env:"ENCODING_EXT" envSeparator:","`
	EncodingMIMETypes []string `yaml:"encoding_mime_types" env:"ENCODING_MIME" envSeparator:","`
	EncodingMinSize   int64    `yaml:"encoding_min_size" env:"ENCODING_MIN_SIZE"`

	CacheFile   string `yaml:"cache" env:"CACHE"`
	Watch       bool   `yaml:"watch" env:"WATCH"`
	LogFormat   string `yaml:"log_format" env:"LOG_FORMAT"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
	FailOnError bool   `yaml:"fail_on_error" env:"FAIL_ON_ERROR"`
}

// Default returns the configuration used before any layer is applied.
func Default() *Config {
	return &Config{
		Concurrency: DefaultConcurrency,
		LogFormat:   "text",
		LogLevel:    "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment, in that order of precedence. A .env
// file in the working directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	_ = godotenv.Load()

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var problems []string

	if len(c.Sources) == 0 {
		problems = append(problems, pusherrors.ErrNoFiles.Error())
	}
	if c.Concurrency < 1 {
		problems = append(problems, fmt.Sprintf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if _, _, err := registry.ParseDestination(c.Destination); err != nil {
		problems = append(problems, pusherrors.ErrInvalidDestination.Error())
	}
	if _, err := c.EncodingOptions(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return pusherrors.NewError("config",
			fmt.Errorf("%w: %s", pusherrors.ErrInvalidInput, strings.Join(problems, "; "))).
			WithCode(pusherrors.CodeInvalidConfig)
	}
	return nil
}

// EncodingOptions returns the declarative encoding settings, or nil when no
// encodings are configured.
func (c *Config) EncodingOptions() (*pushtypes.EncodingOptions, error) {
	if len(c.Encodings) == 0 {
		return nil, nil
	}

	opts := &pushtypes.EncodingOptions{
		FileExtensions: trimAll(c.EncodingExts),
		MIMETypes:      trimAll(c.EncodingMIMETypes),
		MinFileSize:    c.EncodingMinSize,
	}
	for _, name := range c.Encodings {
		if strings.TrimSpace(name) == "" {
			continue
		}
		enc, err := pushtypes.ParseEncoding(name)
		if err != nil {
			return nil, err
		}
		opts.Encodings = append(opts.Encodings, enc)
	}
	return opts, nil
}

// RegistryOptions returns the provider settings for registry.Open.
func (c *Config) RegistryOptions() registry.Options {
	return registry.Options{
		Region:          c.Region,
		Endpoint:        c.Endpoint,
		AccountName:     c.AccountName,
		AccountKey:      c.AccountKey,
		CredentialsFile: c.CredentialsFile,

		ListMetadataConcurrency: c.Concurrency,
	}
}

// SplitList splits a comma-separated flag value, dropping empty entries.
func SplitList(s string) []string {
	return trimAll(strings.Split(s, ","))
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
