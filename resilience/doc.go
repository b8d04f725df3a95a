// Package resilience holds the failure-handling primitives used by pulse:
//
//   - Backoff computes jittered exponential reconnect delays.
//   - RateLimiter is a clock-driven token bucket guarding publish endpoints.
//   - Bulkhead caps the number of concurrently open event streams.
package resilience
