// Package resilience provides the failure-handling primitives used by the
// outbound HTTP client and the fetch endpoint: retry with exponential
// backoff, a circuit breaker, a bulkhead and a token-bucket rate limiter.
package resilience
