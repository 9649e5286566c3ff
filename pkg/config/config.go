// Package config provides configuration loading and validation for the wcoj
// CLI driver.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidPort        = errors.New("invalid diagnostics server port")
	ErrInvalidBatchSize    = errors.New("worker batch size must be positive")
	ErrInvalidMergeEffort  = errors.New("worker merge effort must be non-negative")
	ErrInvalidSnapshotPath = errors.New("snapshot directory is required when snapshots are enabled")
)

// Default configuration values.
const (
	defaultPort              = 8080
	defaultHost              = "0.0.0.0"
	defaultBatchSize         = 4096
	defaultMergeEffort       = 1
	defaultSnapshotInterval  = "5m"
	maxPort                  = 65535
)

// Config holds all configuration for the wcoj CLI driver.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Motif    MotifConfig    `mapstructure:"motif"`
}

// ServerConfig holds the diagnostics HTTP server's configuration (health,
// readiness, and /metrics endpoints; see internal/observability).
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	Port         int           `mapstructure:"port"`
	Enabled      bool          `mapstructure:"enabled"`
}

// WorkerConfig holds the dataflow worker's resource knobs.
type WorkerConfig struct {
	// BatchSize bounds how many update edges the run command hands to one
	// pkg/worker.Step, and so to one TrackMotif call, before yielding
	// (pkg/worker.DefaultExtensionBatchSize if zero).
	BatchSize int `mapstructure:"batch_size"`

	// MergeEffort is validated as non-negative but read by no other
	// package; Index.MergeTo does not call pkg/lsm.Expend.
	MergeEffort int `mapstructure:"merge_effort"`

	// Peers is loaded but read by no other package; cmd/wcoj runs a single
	// worker and does not call pkg/worker.Shard.
	Peers int `mapstructure:"peers"`
}

// SnapshotConfig holds pkg/snapshot checkpointing configuration.
type SnapshotConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Directory string       `mapstructure:"directory"`
	Interval time.Duration `mapstructure:"interval"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MotifConfig names the motif description to track.
type MotifConfig struct {
	// DescriptionFile is a path to a YAML motif description (see
	// pkg/motif.Parse). The run command does not read it; the motif is
	// always taken from the --motif or --relations flag.
	DescriptionFile string `mapstructure:"description_file"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("config")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/wcoj")
	}

	viperCfg.SetEnvPrefix("WCOJ")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("server.enabled", false)
	viperCfg.SetDefault("server.port", defaultPort)
	viperCfg.SetDefault("server.host", defaultHost)
	viperCfg.SetDefault("server.read_timeout", "30s")
	viperCfg.SetDefault("server.write_timeout", "30s")
	viperCfg.SetDefault("server.idle_timeout", "60s")

	viperCfg.SetDefault("worker.batch_size", defaultBatchSize)
	viperCfg.SetDefault("worker.merge_effort", defaultMergeEffort)
	viperCfg.SetDefault("worker.peers", 1)

	viperCfg.SetDefault("snapshot.enabled", false)
	viperCfg.SetDefault("snapshot.directory", "")
	viperCfg.SetDefault("snapshot.interval", defaultSnapshotInterval)

	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")

	viperCfg.SetDefault("motif.description_file", "")
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Server.Enabled && (config.Server.Port <= 0 || config.Server.Port > maxPort) {
		return fmt.Errorf("%w: %d", ErrInvalidPort, config.Server.Port)
	}

	if config.Worker.BatchSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBatchSize, config.Worker.BatchSize)
	}

	if config.Worker.MergeEffort < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMergeEffort, config.Worker.MergeEffort)
	}

	if config.Snapshot.Enabled && config.Snapshot.Directory == "" {
		return ErrInvalidSnapshotPath
	}

	return nil
}
