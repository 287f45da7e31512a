// Package health provides health checking primitives for the Fibonacci service.
//
// A Checker reports the health of one component. The Aggregator runs a set
// of checkers under a shared deadline and folds their results into a single
// Status: Healthy, Degraded, or Unhealthy.
//
// # Basic Usage
//
//	agg := health.NewAggregator()
//	agg.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{
//	    Entries: func() int { return ev.Table().Len() },
//	}))
//
//	results := agg.CheckAll(ctx)
//	overall := health.OverallStatus(results)
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// registers /healthz (liveness), /readyz (readiness), and /health (detailed
// JSON, {"status":"healthy",...}).
package health
