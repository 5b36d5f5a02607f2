// Package types provides core type definitions and interfaces for the mcint library.
//
// This package contains shared types that are used across multiple packages in the
// mcint library. By keeping these types in a separate package, we avoid import cycles
// between the root mcint package and its internal implementations.
//
// Key types:
//   - Bound, ParameterSet: Integration domain and sample budget
//   - State: Invocation lifecycle state
//   - Contribution, Estimate: Reduction payload and final result
//   - Communicator: Process-tier broadcast/reduce transport
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
