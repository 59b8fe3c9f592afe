// Package server runs the gin HTTP server that hosts the media endpoints.
//
// Server-level middleware (CORS, body size) wraps the whole handler;
// request-scoped middleware (recovery, request id, metrics, logging, rate
// limiting) runs inside gin. Errors are written as {"error", "code"} by
// RespondWithError.
//
// Operational endpoints: /health, /livez, /readyz, /info, /version and
// /metrics (Prometheus).
package server
