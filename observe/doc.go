// Package observe provides observability primitives for Fibonacci evaluation.
//
// It is a pure instrumentation library: no evaluation, no transport, no I/O
// beyond exporter setup. Consumers wrap evaluator calls with Middleware and
// register table gauges against the Observer's meter.
package observe
