// Package service wires the media signing pipeline into a bootstrap app.
//
// Register builds the server side: object storage, the presign, fetch and
// upload handlers, Prometheus and OpenTelemetry instrumentation and the
// default health endpoints. RegisterClients builds the caller side used by
// the CLI: the batch resolver with its memory or Redis cache, the gallery
// and the document exporter.
package service
