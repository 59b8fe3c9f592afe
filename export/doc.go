// Package export builds self-contained documents from listing media.
//
// Every image is inlined as a base64 data URL so the output can be opened
// or printed without access to the object store. Each reference is tried
// against the service's fetch endpoint, then resolved and downloaded
// directly; anything left over is rendered as "[unavailable]". A document
// build never fails because of its media.
package export
