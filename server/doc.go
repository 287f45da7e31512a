// Package server exposes a fib.Evaluator over HTTP.
//
// Routes:
//
//	GET /fib/{n}   {"n":10,"fib":55}
//	GET /health    detailed JSON health, {"status":"healthy",...}
//	GET /healthz   liveness
//	GET /readyz    readiness
//	GET /metrics   Prometheus exposition, when the prometheus exporter is on
//
// Every /fib request passes authentication (when enabled), then the rate
// limiter, bulkhead and timeout guards, then the instrumented evaluator.
package server
