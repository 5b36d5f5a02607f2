package mcint

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/mcint/cluster"
	"github.com/arloliu/mcint/internal/logging"
	"github.com/arloliu/mcint/sampler"
)

// BackoffConfig bounds the jittered delay between retried transport requests.
type BackoffConfig struct {
	// Base is the first delay and the lower bound of every later one.
	Base time.Duration `yaml:"base"`

	// Max caps a single delay.
	Max time.Duration `yaml:"max"`
}

// ClusterConfig describes this process's place in a multi-process deployment.
type ClusterConfig struct {
	// Rank of this process. Rank 0 is the coordinator.
	Rank int `yaml:"rank"`

	// Size is the number of processes. 1 means no transport at all.
	Size int `yaml:"size"`

	// Group isolates deployments sharing one NATS server.
	Group string `yaml:"group"`

	// SubjectPrefix is the first token of every NATS subject.
	SubjectPrefix string `yaml:"subjectPrefix"`

	// NATSURL is the server to connect to when Size > 1.
	NATSURL string `yaml:"natsUrl"`

	// RequestTimeout bounds one join or contribution request.
	RequestTimeout time.Duration `yaml:"requestTimeout"`

	// RejoinInterval is how often a waiting worker repeats its join.
	RejoinInterval time.Duration `yaml:"rejoinInterval"`

	// JoinBackoff controls retries of failed requests.
	JoinBackoff BackoffConfig `yaml:"joinBackoff"`
}

// NATS converts the section into a cluster.NATSConfig.
func (c ClusterConfig) NATS() cluster.NATSConfig {
	return cluster.NATSConfig{
		Group:           c.Group,
		Rank:            c.Rank,
		Size:            c.Size,
		SubjectPrefix:   c.SubjectPrefix,
		RequestTimeout:  c.RequestTimeout,
		RejoinInterval:  c.RejoinInterval,
		JoinBackoffBase: c.JoinBackoff.Base,
		JoinBackoffMax:  c.JoinBackoff.Max,
	}
}

// MetricsConfig controls Prometheus exposition.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace"`

	// Listen is the address serving /metrics. Empty disables the endpoint.
	Listen string `yaml:"listen"`
}

// ResultsConfig controls the JetStream result bucket.
type ResultsConfig struct {
	// Bucket is the KV bucket name. Empty disables result persistence.
	Bucket string `yaml:"bucket"`

	// TTL expires stored results. 0 keeps them forever.
	TTL time.Duration `yaml:"ttl"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// Config is the engine configuration.
//
// All duration fields accept Go duration strings like "500ms" or "2s".
type Config struct {
	// Threads is the number of sampling goroutines per process.
	// Defaults to runtime.GOMAXPROCS(0).
	Threads int `yaml:"threads"`

	// CheckEvery is how many samples a thread draws between cancellation checks.
	CheckEvery uint64 `yaml:"checkEvery"`

	Cluster ClusterConfig `yaml:"cluster"`
	Metrics MetricsConfig `yaml:"metrics"`
	Results ResultsConfig `yaml:"results"`
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns a single-process configuration.
func DefaultConfig() Config {
	nats := cluster.NATSConfig{}
	nats.SetDefaults()

	return Config{
		Threads:    runtime.GOMAXPROCS(0),
		CheckEvery: sampler.DefaultCheckEvery,
		Cluster: ClusterConfig{
			Rank:           0,
			Size:           1,
			Group:          nats.Group,
			SubjectPrefix:  nats.SubjectPrefix,
			RequestTimeout: nats.RequestTimeout,
			RejoinInterval: nats.RejoinInterval,
			JoinBackoff: BackoffConfig{
				Base: nats.JoinBackoffBase,
				Max:  nats.JoinBackoffMax,
			},
		},
		Metrics: MetricsConfig{
			Namespace: "mcint",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults fills zero-valued fields with defaults.
//
// Parameters:
//   - cfg: Config to update in place
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Threads == 0 {
		cfg.Threads = defaults.Threads
	}
	if cfg.CheckEvery == 0 {
		cfg.CheckEvery = defaults.CheckEvery
	}
	if cfg.Cluster.Size == 0 {
		cfg.Cluster.Size = defaults.Cluster.Size
	}
	if cfg.Cluster.Group == "" {
		cfg.Cluster.Group = defaults.Cluster.Group
	}
	if cfg.Cluster.SubjectPrefix == "" {
		cfg.Cluster.SubjectPrefix = defaults.Cluster.SubjectPrefix
	}
	if cfg.Cluster.RequestTimeout == 0 {
		cfg.Cluster.RequestTimeout = defaults.Cluster.RequestTimeout
	}
	if cfg.Cluster.RejoinInterval == 0 {
		cfg.Cluster.RejoinInterval = defaults.Cluster.RejoinInterval
	}
	if cfg.Cluster.JoinBackoff.Base == 0 {
		cfg.Cluster.JoinBackoff.Base = defaults.Cluster.JoinBackoff.Base
	}
	if cfg.Cluster.JoinBackoff.Max == 0 {
		cfg.Cluster.JoinBackoff.Max = defaults.Cluster.JoinBackoff.Max
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = defaults.Metrics.Namespace
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Logging.Format
	}
	// Results.Bucket and Results.TTL stay empty: persistence is opt-in
}

// Validate checks configuration constraints.
//
// Rules:
//   - Threads >= 1
//   - Cluster.Size >= 1 and 0 <= Cluster.Rank < Cluster.Size
//   - Cluster.RequestTimeout > 0
//   - Cluster.JoinBackoff.Base <= Cluster.JoinBackoff.Max
//   - Logging.Level and Logging.Format are known
//
// Returns:
//   - error: Wrapped ErrInvalidConfig describing the first violation
func (cfg *Config) Validate() error {
	if cfg.Threads < 1 {
		return fmt.Errorf("%w: threads must be >= 1, got %d", ErrInvalidConfig, cfg.Threads)
	}
	if cfg.Cluster.Size < 1 {
		return fmt.Errorf("%w: cluster.size must be >= 1, got %d", ErrInvalidConfig, cfg.Cluster.Size)
	}
	if cfg.Cluster.Rank < 0 || cfg.Cluster.Rank >= cfg.Cluster.Size {
		return fmt.Errorf("%w: cluster.rank %d outside [0, %d)", ErrInvalidConfig, cfg.Cluster.Rank, cfg.Cluster.Size)
	}
	if cfg.Cluster.RequestTimeout <= 0 {
		return fmt.Errorf("%w: cluster.requestTimeout must be > 0, got %v", ErrInvalidConfig, cfg.Cluster.RequestTimeout)
	}
	if cfg.Cluster.JoinBackoff.Base > cfg.Cluster.JoinBackoff.Max {
		return fmt.Errorf("%w: cluster.joinBackoff.base (%v) exceeds max (%v)",
			ErrInvalidConfig, cfg.Cluster.JoinBackoff.Base, cfg.Cluster.JoinBackoff.Max)
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return err
	}
	if f := cfg.Logging.Format; f != "text" && f != "json" {
		return fmt.Errorf("%w: logging.format must be text or json, got %q", ErrInvalidConfig, f)
	}

	return nil
}

// ValidateWithWarnings logs warnings for legal but questionable values.
//
// Parameters:
//   - logger: Logger for warnings
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if procs := runtime.GOMAXPROCS(0); cfg.Threads > 4*procs {
		logger.Warn("threads far exceed available parallelism",
			"threads", cfg.Threads,
			"gomaxprocs", procs,
		)
	}

	if cfg.CheckEvery < 64 {
		logger.Warn("checkEvery is very small, cancellation checks will dominate sampling",
			"checkEvery", cfg.CheckEvery,
			"recommended", sampler.DefaultCheckEvery,
		)
	}

	if cfg.Cluster.Size > 1 && cfg.Cluster.RejoinInterval < cfg.Cluster.RequestTimeout {
		logger.Warn("rejoinInterval is shorter than requestTimeout, joins may pile up",
			"rejoinInterval", cfg.Cluster.RejoinInterval,
			"requestTimeout", cfg.Cluster.RequestTimeout,
		)
	}
}

// TestConfig returns a configuration with fast transport timings for tests.
func TestConfig() Config {
	cfg := DefaultConfig()
	cfg.Threads = 4
	cfg.CheckEvery = 1024
	cfg.Cluster.RequestTimeout = 500 * time.Millisecond
	cfg.Cluster.RejoinInterval = time.Second
	cfg.Cluster.JoinBackoff = BackoffConfig{Base: 10 * time.Millisecond, Max: 100 * time.Millisecond}

	return cfg
}

// LoadConfig reads a YAML configuration file and applies defaults.
//
// Parameters:
//   - path: File path
//
// Returns:
//   - Config: Loaded configuration with defaults applied
//   - error: Read, parse or validation error
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
	}

	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadJob reads a YAML job file describing one ParameterSet.
//
// Example job file:
//
//	integrand:
//	  name: x^2+4y
//	bounds:
//	  - {low: 11, high: 14}
//	  - {low: 7, high: 10}
//	iterations: 1000000
//
// The parameter set is not validated here; Integrate validates it as its first stage.
func LoadJob(path string) (ParameterSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ParameterSet{}, fmt.Errorf("read job: %w", err)
	}

	var params ParameterSet
	if err := yaml.Unmarshal(data, &params); err != nil {
		return ParameterSet{}, fmt.Errorf("parse job %s: %w", path, err)
	}

	return params, nil
}
