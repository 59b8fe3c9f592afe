// Package httpclient provides the outbound HTTP client used to call the
// signing service, fetch remote media and probe rendered URLs.
//
// Every request goes through optional retry and circuit-breaker layers from
// the resilience package, and non-2xx responses come back as typed *Error
// values so callers can tell transport failures from rejected requests.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL:        "https://media.example.com",
//	    Retry:          httpclient.DefaultRetryConfig(),
//	    CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("presign"),
//	})
//
//	resp, err := httpclient.Post[PresignResponse](ctx, client, "/api/media/presign", body)
package httpclient
