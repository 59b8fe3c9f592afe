// Package component defines the lifecycle contract shared by the service's
// infrastructure pieces and a registry that starts them in order and stops
// them in reverse.
//
// Components that can run without configuration, such as object storage
// without credentials, start degraded rather than failing startup, so that
// /health reports the problem and requests fail with a clear error.
package component
