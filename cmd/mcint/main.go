// Command mcint estimates definite integrals by Monte Carlo sampling.
//
// A single process needs nothing else:
//
//	mcint run --integrand x^2+4y --bound 11:14 --bound 7:10 --iterations 1000000
//
// A multi-process deployment shares one NATS server. Start every worker, then the
// coordinator:
//
//	mcint serve --rank 1 --size 3 --nats-url nats://127.0.0.1:4222
//	mcint serve --rank 2 --size 3 --nats-url nats://127.0.0.1:4222
//	mcint run --size 3 --job job.yaml --nats-url nats://127.0.0.1:4222
//
// Without NATS, --simulate-processes runs the same process tier over in-memory channels:
//
//	mcint run --simulate-processes 4 --job job.yaml
package main

func main() {
	Execute()
}
