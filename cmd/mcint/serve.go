package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arloliu/mcint"
)

var serveFlags struct {
	cluster clusterFlags
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a worker rank until interrupted",
	Long: `Run a non-coordinator rank that takes part in every invocation the coordinator starts.

Examples:
  mcint serve --rank 1 --size 3 --nats-url nats://127.0.0.1:4222
  mcint serve --config worker.yaml`,
	RunE: serveWorker,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveFlags.cluster.bind(serveCmd)
}

func serveWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, &serveFlags.cluster)
	if err != nil {
		return err
	}
	if cfg.Cluster.Rank == 0 {
		return errors.New("serve needs a rank other than 0; the coordinator uses mcint run")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newEnv(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	comm, err := env.communicator()
	if err != nil {
		return err
	}

	engine, err := mcint.NewEngine(&cfg, comm, env.engineOptions()...)
	if err != nil {
		return err
	}

	return engine.Serve(ctx)
}
