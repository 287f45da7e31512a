// Package resilience guards the request boundary of the Fibonacci service.
//
// The evaluator itself never times out and has no transient failures, so
// there is nothing to retry and no dependency to break a circuit on. What a
// public endpoint does need is protection from load: a large index can take
// a while to fill, and many of them at once can starve the process.
//
// # Guards
//
//   - RateLimiter: token bucket over incoming requests.
//   - Bulkhead: caps the number of evaluations in flight.
//   - Timeout: bounds how long a caller waits for a result.
//
// # Usage
//
//	ex := resilience.NewExecutor(
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
//	        Rate:  50,
//	        Burst: 10,
//	    })),
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
//	        MaxConcurrent: 8,
//	    })),
//	    resilience.WithTimeout(2*time.Second),
//	)
//
//	err := ex.Execute(ctx, func(ctx context.Context) error {
//	    v, err = ev.Evaluate(n)
//	    return err
//	})
//
// A Timeout abandons the wait, not the work: the fill keeps running and its
// entries land in the memo table for the next caller. The Executor keeps the
// bulkhead slot until that fill returns.
package resilience
