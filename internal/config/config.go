package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tierconvert/internal/storage"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is given and it exists
const DefaultPath = "config/s3.properties"

// Config represents the application configuration
type Config struct {
	Storage     StorageConfig `yaml:"storage"`
	Conversion  Conversion    `yaml:"conversion"`
	LogLevel    string        `yaml:"log_level"`
	LogDir      string        `yaml:"log_dir"`
	MetricsAddr string        `yaml:"metrics_addr"`
	Journal     string        `yaml:"journal"`
	// ShowProgress renders a console summary while the run waits on restores
	ShowProgress bool `yaml:"show_progress"`
}

// StorageConfig represents object store connection settings
type StorageConfig struct {
	Provider  string `yaml:"provider"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}

// Conversion represents what to convert and how to wait for restores
type Conversion struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	// StorageClasses is a '#' separated tier list such as "GLACIER#GLACIER_IR"
	StorageClasses string        `yaml:"storage_classes"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	MaxPollRounds  int           `yaml:"max_poll_rounds"`
	MaxWait        time.Duration `yaml:"max_wait"`
	RestoreDays    int           `yaml:"restore_days"`
	RestoreTier    string        `yaml:"restore_tier"`
	DryRun         bool          `yaml:"dry_run"`
}

// Default returns the configuration used before files and flags apply
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		LogDir:       "logs",
		ShowProgress: true,
		Storage: StorageConfig{
			Provider: storage.ProviderAWS,
			Secure:   true,
		},
		Conversion: Conversion{
			StorageClasses: "GLACIER#GLACIER_IR",
			PollInterval:   time.Hour,
			RestoreDays:    10,
			RestoreTier:    storage.RetrievalBulk,
		},
	}
}

// Load loads configuration from file and command line flags
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			configFile = DefaultPath
		}
	}

	if configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if flags != nil {
		if err := loadFromFlags(cfg, flags); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".properties", ".ini":
		return loadProperties(cfg, filename)
	case ".yaml", ".yml":
		data, err := os.ReadFile(filename)
		if err != nil {
			return err
		}
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file type %q", filepath.Ext(filename))
	}
}

func loadFromFlags(cfg *Config, flags *pflag.FlagSet) error {
	if flags.Changed("provider") {
		cfg.Storage.Provider, _ = flags.GetString("provider")
	}
	if flags.Changed("endpoint") {
		cfg.Storage.Endpoint, _ = flags.GetString("endpoint")
	}
	if flags.Changed("region") {
		cfg.Storage.Region, _ = flags.GetString("region")
	}
	if flags.Changed("access-key") {
		cfg.Storage.AccessKey, _ = flags.GetString("access-key")
	}
	if flags.Changed("secret-key") {
		cfg.Storage.SecretKey, _ = flags.GetString("secret-key")
	}
	if flags.Changed("secure") {
		cfg.Storage.Secure, _ = flags.GetBool("secure")
	}

	if flags.Changed("bucket") {
		cfg.Conversion.Bucket, _ = flags.GetString("bucket")
	}
	if flags.Changed("prefix") {
		cfg.Conversion.Prefix, _ = flags.GetString("prefix")
	}
	if flags.Changed("storage-classes") {
		cfg.Conversion.StorageClasses, _ = flags.GetString("storage-classes")
	}
	if flags.Changed("poll-interval") {
		cfg.Conversion.PollInterval, _ = flags.GetDuration("poll-interval")
	}
	if flags.Changed("max-poll-rounds") {
		cfg.Conversion.MaxPollRounds, _ = flags.GetInt("max-poll-rounds")
	}
	if flags.Changed("max-wait") {
		cfg.Conversion.MaxWait, _ = flags.GetDuration("max-wait")
	}
	if flags.Changed("restore-days") {
		cfg.Conversion.RestoreDays, _ = flags.GetInt("restore-days")
	}
	if flags.Changed("restore-tier") {
		cfg.Conversion.RestoreTier, _ = flags.GetString("restore-tier")
	}
	if flags.Changed("dry-run") {
		cfg.Conversion.DryRun, _ = flags.GetBool("dry-run")
	}

	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-dir") {
		cfg.LogDir, _ = flags.GetString("log-dir")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("journal") {
		cfg.Journal, _ = flags.GetString("journal")
	}
	if flags.Changed("show-progress") {
		cfg.ShowProgress, _ = flags.GetBool("show-progress")
	}

	return nil
}

func (c *Config) validate() error {
	switch c.Storage.Provider {
	case storage.ProviderAWS:
		if c.Storage.Region == "" {
			return errors.New("region is required")
		}
	case storage.ProviderMinIO:
		if c.Storage.Endpoint == "" {
			return errors.New("endpoint is required for minio provider")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return errors.New("access key and secret key are required for minio provider")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Storage.Provider)
	}

	if (c.Storage.AccessKey == "") != (c.Storage.SecretKey == "") {
		return errors.New("access key and secret key must be set together")
	}

	if c.Conversion.Bucket == "" {
		return errors.New("bucket is required")
	}
	if strings.TrimSpace(c.Conversion.StorageClasses) == "" {
		return errors.New("storage classes are required")
	}
	if c.Conversion.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.Conversion.MaxPollRounds < 0 {
		return errors.New("max poll rounds cannot be negative")
	}
	if c.Conversion.MaxWait < 0 {
		return errors.New("max wait cannot be negative")
	}
	if c.Conversion.RestoreDays < 1 {
		return errors.New("restore days must be at least 1")
	}
	if !storage.ValidRetrievalTier(c.Conversion.RestoreTier) {
		return fmt.Errorf("unknown restore tier %q", c.Conversion.RestoreTier)
	}

	return nil
}

// StorageClient returns the gateway settings
func (c *Config) StorageClient() storage.Config {
	return storage.Config{
		Provider:  c.Storage.Provider,
		Endpoint:  c.Storage.Endpoint,
		Region:    c.Storage.Region,
		AccessKey: c.Storage.AccessKey,
		SecretKey: c.Storage.SecretKey,
		Secure:    c.Storage.Secure,
	}
}
