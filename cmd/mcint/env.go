package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/arloliu/mcint"
	"github.com/arloliu/mcint/cluster"
	"github.com/arloliu/mcint/internal/logging"
	"github.com/arloliu/mcint/internal/metrics"
	"github.com/arloliu/mcint/sink"
)

// clusterFlags override the cluster and runtime sections of the config file.
type clusterFlags struct {
	rank          int
	size          int
	group         string
	natsURL       string
	threads       int
	metricsListen string
	resultsBucket string
}

func (f *clusterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.rank, "rank", 0, "rank of this process, 0 is the coordinator")
	cmd.Flags().IntVar(&f.size, "size", 1, "number of processes in the deployment")
	cmd.Flags().StringVar(&f.group, "group", "", "deployment group sharing the NATS server")
	cmd.Flags().StringVar(&f.natsURL, "nats-url", "", "NATS server URL (default "+nats.DefaultURL+")")
	cmd.Flags().IntVarP(&f.threads, "threads", "t", 0, "sampling threads per process (default GOMAXPROCS)")
	cmd.Flags().StringVar(&f.metricsListen, "metrics-listen", "", "serve Prometheus /metrics on this address")
	cmd.Flags().StringVar(&f.resultsBucket, "results-bucket", "", "store estimates in this JetStream KV bucket")
}

// loadConfig reads the config file, when given, and applies the flags that were set.
func loadConfig(cmd *cobra.Command, f *clusterFlags) (mcint.Config, error) {
	cfg := mcint.DefaultConfig()
	if cfgFile != "" {
		loaded, err := mcint.LoadConfig(cfgFile)
		if err != nil {
			return mcint.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("rank") {
		cfg.Cluster.Rank = f.rank
	}
	if flags.Changed("size") {
		cfg.Cluster.Size = f.size
	}
	if flags.Changed("group") {
		cfg.Cluster.Group = f.group
	}
	if flags.Changed("nats-url") {
		cfg.Cluster.NATSURL = f.natsURL
	}
	if flags.Changed("threads") {
		cfg.Threads = f.threads
	}
	if flags.Changed("metrics-listen") {
		cfg.Metrics.Listen = f.metricsListen
	}
	if flags.Changed("results-bucket") {
		cfg.Results.Bucket = f.resultsBucket
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	if err := cfg.Validate(); err != nil {
		return mcint.Config{}, err
	}

	return cfg, nil
}

// runtimeEnv holds the process-wide collaborators shared by every engine of one command.
type runtimeEnv struct {
	cfg     mcint.Config
	logger  *logging.SlogLogger
	metrics mcint.MetricsCollector
	nc      *nats.Conn
	closers []func()
}

func newEnv(ctx context.Context, cmd *cobra.Command, cfg mcint.Config) (*runtimeEnv, error) {
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	e := &runtimeEnv{cfg: cfg, logger: logger, metrics: metrics.NewNop()}

	if cfg.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		e.metrics = metrics.NewPrometheus(reg, cfg.Metrics.Namespace)
		e.serveMetrics(ctx, reg)
	}

	if cfg.Cluster.Size > 1 || cfg.Results.Bucket != "" {
		url := cfg.Cluster.NATSURL
		if url == "" {
			url = nats.DefaultURL
		}

		nc, err := nats.Connect(url,
			nats.Name(fmt.Sprintf("mcint-%s-rank-%d", cfg.Cluster.Group, cfg.Cluster.Rank)),
			nats.MaxReconnects(-1),
		)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
		}
		e.nc = nc
		e.closers = append(e.closers, nc.Close)
	}

	return e, nil
}

func (e *runtimeEnv) serveMetrics(ctx context.Context, gatherer prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              e.cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics server failed", "addr", srv.Addr, "error", err)
		}
	}()
	e.logger.Info("metrics server started", "addr", srv.Addr)

	e.closers = append(e.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
}

// communicator returns the process-tier transport for cfg.
func (e *runtimeEnv) communicator() (mcint.Communicator, error) {
	if e.cfg.Cluster.Size == 1 {
		return cluster.NewLocal(), nil
	}

	comm, err := cluster.NewNATS(e.nc, e.cfg.Cluster.NATS(),
		cluster.WithNATSLogger(e.logger.With("rank", e.cfg.Cluster.Rank)),
		cluster.WithNATSMetrics(e.metrics),
	)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, comm.Close)

	return comm, nil
}

// resultSink returns the KV sink when a bucket is configured.
func (e *runtimeEnv) resultSink(ctx context.Context) (mcint.ResultSink, error) {
	if e.cfg.Results.Bucket == "" {
		return sink.Discard{}, nil
	}

	return sink.NewKV(ctx, e.nc, sink.KVConfig{
		Bucket: e.cfg.Results.Bucket,
		TTL:    e.cfg.Results.TTL,
	})
}

func (e *runtimeEnv) engineOptions(extra ...mcint.Option) []mcint.Option {
	opts := []mcint.Option{
		mcint.WithLogger(e.logger),
		mcint.WithMetrics(e.metrics),
	}

	return append(opts, extra...)
}

// Close releases resources in reverse order of acquisition.
func (e *runtimeEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}
