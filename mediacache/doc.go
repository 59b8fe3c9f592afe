// Package mediacache caches signed URLs per media reference until shortly
// before they expire.
//
// Memory is a bounded in-process LRU (hashicorp/golang-lru). Redis shares
// entries across instances. Both satisfy Cache and never return an entry
// past its ExpiresAt, which is set to signedAt + TTL - skew by Expiry.
package mediacache
