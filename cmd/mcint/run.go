package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/mcint"
	"github.com/arloliu/mcint/cluster"
)

var runFlags struct {
	cluster           clusterFlags
	job               string
	integrand         string
	args              []float64
	bounds            []string
	iterations        uint64
	simulateProcesses int
	output            string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one integration",
	Long: `Run one integration.

On rank 0 the command validates the parameters, distributes them to every rank, samples
its own share and prints the estimate. On any other rank it takes part in exactly one
invocation and exits; use "mcint serve" for long-lived workers.

Examples:
  # x^2 + 4y over [11,14] x [7,10]
  mcint run --integrand x^2+4y --bound 11:14 --bound 7:10 --iterations 1000000

  # Parameters from a job file, four simulated processes
  mcint run --job job.yaml --simulate-processes 4

  # Coordinator of a three-process NATS deployment
  mcint run --job job.yaml --size 3 --nats-url nats://127.0.0.1:4222`,
	RunE: runIntegration,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runFlags.cluster.bind(runCmd)
	runCmd.Flags().StringVarP(&runFlags.job, "job", "j", "", "YAML job file with integrand, bounds and iterations")
	runCmd.Flags().StringVarP(&runFlags.integrand, "integrand", "i", "", "registered integrand name (see mcint integrands)")
	runCmd.Flags().Float64SliceVar(&runFlags.args, "arg", nil, "integrand argument, repeatable")
	runCmd.Flags().StringArrayVarP(&runFlags.bounds, "bound", "b", nil, "dimension bound low:high, repeatable")
	runCmd.Flags().Uint64VarP(&runFlags.iterations, "iterations", "n", 0, "total sample budget")
	runCmd.Flags().IntVar(&runFlags.simulateProcesses, "simulate-processes", 0, "run this many ranks in-process over channels")
	runCmd.Flags().StringVarP(&runFlags.output, "output", "o", "text", "output format (text, json)")
}

func runIntegration(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, &runFlags.cluster)
	if err != nil {
		return err
	}
	if runFlags.output != "text" && runFlags.output != "json" {
		return fmt.Errorf("unknown output format %q", runFlags.output)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newEnv(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	if runFlags.simulateProcesses > 0 {
		params, err := jobParams(cmd)
		if err != nil {
			return err
		}

		est, err := runSimulated(ctx, env, params, runFlags.simulateProcesses)
		if err != nil {
			return err
		}

		return printEstimate(cmd.OutOrStdout(), est, runFlags.output)
	}

	comm, err := env.communicator()
	if err != nil {
		return err
	}
	results, err := env.resultSink(ctx)
	if err != nil {
		return err
	}

	engine, err := mcint.NewEngine(&cfg, comm, env.engineOptions(mcint.WithResultSink(results))...)
	if err != nil {
		return err
	}

	if engine.Rank() != 0 {
		return engine.Participate(ctx)
	}

	params, err := jobParams(cmd)
	if err != nil {
		return err
	}

	est, err := engine.Integrate(ctx, params)
	if err != nil {
		return err
	}

	return printEstimate(cmd.OutOrStdout(), est, runFlags.output)
}

// runSimulated runs size ranks connected by a memory group inside this process.
func runSimulated(ctx context.Context, env *runtimeEnv, params mcint.ParameterSet, size int) (mcint.Estimate, error) {
	ranks, err := cluster.NewMemoryGroup(size)
	if err != nil {
		return mcint.Estimate{}, err
	}

	results, err := env.resultSink(ctx)
	if err != nil {
		return mcint.Estimate{}, err
	}

	engines := make([]*mcint.Engine, size)
	for rank, comm := range ranks {
		cfg := env.cfg
		cfg.Cluster.Rank = rank
		cfg.Cluster.Size = size

		opts := env.engineOptions()
		if rank == 0 {
			opts = env.engineOptions(mcint.WithResultSink(results))
		}
		engine, err := mcint.NewEngine(&cfg, comm, opts...)
		if err != nil {
			return mcint.Estimate{}, err
		}
		engines[rank] = engine
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, engine := range engines[1:] {
		g.Go(func() error { return engine.Participate(gctx) })
	}

	est, err := engines[0].Integrate(gctx, params)
	if err != nil {
		// Workers still waiting for parameters would block forever.
		cancel()
	}
	if waitErr := g.Wait(); err == nil && waitErr != nil {
		err = waitErr
	}

	return est, err
}

// jobParams builds the parameter set from --job and the inline flags. Inline flags win.
func jobParams(cmd *cobra.Command) (mcint.ParameterSet, error) {
	var params mcint.ParameterSet
	if runFlags.job != "" {
		loaded, err := mcint.LoadJob(runFlags.job)
		if err != nil {
			return mcint.ParameterSet{}, err
		}
		params = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("integrand") {
		params.Integrand.Name = runFlags.integrand
	}
	if flags.Changed("arg") {
		params.Integrand.Args = runFlags.args
	}
	if flags.Changed("bound") {
		bounds, err := parseBounds(runFlags.bounds)
		if err != nil {
			return mcint.ParameterSet{}, err
		}
		params.Bounds = bounds
	}
	if flags.Changed("iterations") {
		params.Iterations = runFlags.iterations
	}

	if params.Integrand.Name == "" {
		return mcint.ParameterSet{}, fmt.Errorf("%w: set --integrand or a job file", mcint.ErrUnknownIntegrand)
	}

	return params, nil
}

// parseBounds parses "low:high" pairs. Validation of low <= high is left to the engine.
func parseBounds(specs []string) ([]mcint.Bound, error) {
	bounds := make([]mcint.Bound, 0, len(specs))
	for _, spec := range specs {
		lo, hi, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("bound %q: expected low:high", spec)
		}

		low, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		if err != nil {
			return nil, fmt.Errorf("bound %q: low: %w", spec, err)
		}
		high, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil {
			return nil, fmt.Errorf("bound %q: high: %w", spec, err)
		}
		bounds = append(bounds, mcint.Bound{Low: low, High: high})
	}

	return bounds, nil
}

func printEstimate(w io.Writer, est mcint.Estimate, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(est)
	}

	_, err := fmt.Fprintf(w, "estimate:    %.10g\ninvocation:  %s\nvolume:      %g\niterations:  %d\nprocesses:   %d\nthreads:     %d\nduration:    %s\n",
		est.Value, est.InvocationID, est.Volume, est.Iterations, est.Processes, est.Threads, est.Duration)

	return err
}
