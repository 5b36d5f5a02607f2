package mcint

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/mcint/cluster"
	"github.com/arloliu/mcint/sampler"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, runtime.GOMAXPROCS(0), cfg.Threads)
	require.Equal(t, uint64(sampler.DefaultCheckEvery), cfg.CheckEvery)
	require.Equal(t, 0, cfg.Cluster.Rank)
	require.Equal(t, 1, cfg.Cluster.Size)
	require.Equal(t, cluster.DefaultGroup, cfg.Cluster.Group)
	require.Equal(t, cluster.DefaultSubjectPrefix, cfg.Cluster.SubjectPrefix)
	require.Equal(t, cluster.DefaultRequestTimeout, cfg.Cluster.RequestTimeout)
	require.Equal(t, "mcint", cfg.Metrics.Namespace)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "text", cfg.Logging.Format)
	require.Empty(t, cfg.Results.Bucket)
	require.NoError(t, cfg.Validate())
}

func TestSetDefaults(t *testing.T) {
	t.Run("fills empty config", func(t *testing.T) {
		cfg := Config{}
		SetDefaults(&cfg)

		require.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("preserves custom values", func(t *testing.T) {
		cfg := Config{
			Threads:    3,
			CheckEvery: 128,
			Cluster: ClusterConfig{
				Rank:           2,
				Size:           4,
				Group:          "job-7",
				RequestTimeout: time.Second,
			},
			Logging: LoggingConfig{Level: "debug", Format: "json"},
		}
		SetDefaults(&cfg)

		require.Equal(t, 3, cfg.Threads)
		require.Equal(t, uint64(128), cfg.CheckEvery)
		require.Equal(t, 2, cfg.Cluster.Rank)
		require.Equal(t, 4, cfg.Cluster.Size)
		require.Equal(t, "job-7", cfg.Cluster.Group)
		require.Equal(t, time.Second, cfg.Cluster.RequestTimeout)
		require.Equal(t, "debug", cfg.Logging.Level)
		require.Equal(t, "json", cfg.Logging.Format)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no threads", func(c *Config) { c.Threads = 0 }},
		{"no processes", func(c *Config) { c.Cluster.Size = 0 }},
		{"rank out of range", func(c *Config) { c.Cluster.Rank = 1 }},
		{"negative rank", func(c *Config) { c.Cluster.Rank = -1 }},
		{"no request timeout", func(c *Config) { c.Cluster.RequestTimeout = 0 }},
		{"backoff base above max", func(c *Config) { c.Cluster.JoinBackoff = BackoffConfig{Base: time.Second, Max: time.Millisecond} }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "chatty" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.warnings = append(l.warnings, msg)
}
func (l *recordingLogger) Error(string, ...any) {}
func (l *recordingLogger) Fatal(string, ...any) {}

func TestConfig_ValidateWithWarnings(t *testing.T) {
	t.Run("defaults are quiet", func(t *testing.T) {
		cfg := DefaultConfig()
		logger := &recordingLogger{}
		cfg.ValidateWithWarnings(logger)
		require.Empty(t, logger.warnings)
	})

	t.Run("questionable values warn", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Threads = 4*runtime.GOMAXPROCS(0) + 1
		cfg.CheckEvery = 1
		cfg.Cluster.Size = 2
		cfg.Cluster.RejoinInterval = time.Millisecond

		logger := &recordingLogger{}
		cfg.ValidateWithWarnings(logger)
		require.Len(t, logger.warnings, 3)
	})
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 4, cfg.Threads)
	require.Less(t, cfg.Cluster.RequestTimeout, DefaultConfig().Cluster.RequestTimeout)
}

func TestClusterConfig_NATS(t *testing.T) {
	cfg := TestConfig()
	cfg.Cluster.Rank = 1
	cfg.Cluster.Size = 3

	nc := cfg.Cluster.NATS()
	require.Equal(t, 1, nc.Rank)
	require.Equal(t, 3, nc.Size)
	require.Equal(t, cfg.Cluster.JoinBackoff.Base, nc.JoinBackoffBase)
	require.Equal(t, cfg.Cluster.JoinBackoff.Max, nc.JoinBackoffMax)
	require.NoError(t, nc.Validate())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("yaml with durations", func(t *testing.T) {
		path := writeFile(t, "mcint.yaml", `
threads: 2
cluster:
  rank: 1
  size: 3
  group: job-7
  natsUrl: nats://127.0.0.1:4222
  requestTimeout: 750ms
  joinBackoff:
    base: 20ms
    max: 1s
results:
  bucket: results
  ttl: 24h
logging:
  level: debug
  format: json
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		require.Equal(t, 2, cfg.Threads)
		require.Equal(t, 1, cfg.Cluster.Rank)
		require.Equal(t, 3, cfg.Cluster.Size)
		require.Equal(t, "nats://127.0.0.1:4222", cfg.Cluster.NATSURL)
		require.Equal(t, 750*time.Millisecond, cfg.Cluster.RequestTimeout)
		require.Equal(t, 20*time.Millisecond, cfg.Cluster.JoinBackoff.Base)
		require.Equal(t, 24*time.Hour, cfg.Results.TTL)
		require.Equal(t, "json", cfg.Logging.Format)
		require.Equal(t, uint64(sampler.DefaultCheckEvery), cfg.CheckEvery)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "cluster:\n  rank: 5\n  size: 2\n")
		_, err := LoadConfig(path)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, "broken.yaml", "threads: [1, 2\n")
		_, err := LoadConfig(path)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestConfig_YAMLRoundTrip(t *testing.T) {
	cfg := TestConfig()
	cfg.Results.Bucket = "results"

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	require.Equal(t, cfg, decoded)
}

func TestLoadJob(t *testing.T) {
	path := writeFile(t, "job.yaml", `
integrand:
  name: x^2+4y
bounds:
  - {low: 11, high: 14}
  - {low: 7, high: 10}
iterations: 1000000
`)
	params, err := LoadJob(path)
	require.NoError(t, err)

	require.Equal(t, "x^2+4y", params.Integrand.Name)
	require.Equal(t, []Bound{{Low: 11, High: 14}, {Low: 7, High: 10}}, params.Bounds)
	require.Equal(t, uint64(1000000), params.Iterations)
	require.NoError(t, params.Validate())
}
