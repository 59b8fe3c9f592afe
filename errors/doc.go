// Package errors provides the structured application error used across the
// media signing service. Every AppError carries a machine-readable code, an
// HTTP status and a retryable flag, so handlers and clients can react to a
// failure without parsing its message.
package errors
