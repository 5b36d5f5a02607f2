// Package sampler derives the integration volume and per-dimension uniform samplers
// from a parameter set, and runs the per-worker sample evaluators.
//
// Sampler parameters are immutable once built and shared read-only by every worker.
// Random state is never shared: each worker wraps the shared parameters in its own
// Stream backed by a private generator.
package sampler
