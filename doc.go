// Package mcint estimates definite integrals over hyper-rectangles by Monte Carlo sampling,
// spread across processes and threads.
//
// A fixed sample budget N is split exactly across P processes and, inside each process,
// across T threads. Every thread draws uniform points from its own generator, evaluates
// the integrand and keeps a private running sum. Sums are combined first inside each
// process and then across processes at the coordinator (rank 0), which reports
//
//	estimate = volume * Σ f(xᵢ) / N
//
// # Quick Start
//
// Single process, closure integrand:
//
//	cfg := mcint.DefaultConfig()
//	engine, err := mcint.NewEngine(&cfg, cluster.NewLocal())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	est, err := engine.Integrate(ctx, mcint.ParameterSet{
//	    Func:       func(x []float64) float64 { return x[0]*x[0] + 4*x[1] },
//	    Bounds:     []mcint.Bound{{Low: 11, High: 14}, {Low: 7, High: 10}},
//	    Iterations: 1_000_000,
//	})
//
// # Multiple Processes
//
// Integrands cross process boundaries by registered name. Every process builds an engine
// over a shared communicator; rank 0 calls Integrate, the others call Serve:
//
//	comm, _ := cluster.NewNATS(nc, cluster.NATSConfig{Group: "job-7", Rank: rank, Size: 4})
//	engine, _ := mcint.NewEngine(&cfg, comm)
//	if rank == 0 {
//	    est, err := engine.Integrate(ctx, mcint.ParameterSet{
//	        Integrand:  mcint.IntegrandRef{Name: integrand.SquarePlus},
//	        Bounds:     bounds,
//	        Iterations: 10_000_000,
//	    })
//	} else {
//	    err := engine.Serve(ctx)
//	}
//
// # Lifecycle
//
// Each invocation moves through
//
//	Created → Validated → Prepared → Partitioned → Sampling → Combining → Finalized
//
// and drops to Failed on invalid bounds, a failed worker, an incomplete reduction or a
// cancelled context. Finalized and Failed are terminal.
package mcint
