// Package resilience guards calls to remote services.
//
//   - Retry: retries failed operations with exponential backoff
//   - CircuitBreaker: fails fast once a service keeps failing
//
// The catalog client combines both:
//
//	types, err := resilience.Retry(ctx, cfg, func() ([]StageType, error) {
//	    var out []StageType
//	    err := breaker.Execute(func() (err error) {
//	        out, err = fetch(ctx)
//	        return err
//	    })
//	    return out, err
//	})
package resilience
