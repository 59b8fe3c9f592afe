// Package mediakey derives object-store keys from stored media references.
//
// A reference is either an absolute object URL
// ("https://bucket.s3.amazonaws.com/listings/1.jpg") or a bare key
// ("listings/1.jpg"). Extraction never fails: anything that is not a
// usable URL is treated as a key already.
package mediakey

import (
	"net/url"
	"strings"
)

// supabasePrefixes precede the bucket in Supabase object URLs.
var supabasePrefixes = []string{
	"storage/v1/object/public/",
	"storage/v1/object/sign/",
	"storage/v1/object/authenticated/",
}

// Extract returns the object key addressed by ref: the URL path without
// its leading slash. References without a scheme, with an empty path, or
// that fail to parse are returned unchanged.
func Extract(ref string) string {
	if !hasScheme(ref) {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	p := strings.TrimPrefix(u.Path, "/")
	if p == "" {
		return ref
	}
	return p
}

// StripBucket removes a leading bucket segment from key, as found in
// path-style S3 URLs and Supabase object URLs. Keys that do not start with
// the bucket are returned unchanged, so StripBucket is idempotent.
func StripBucket(key, bucket string) string {
	for _, prefix := range supabasePrefixes {
		if rest, ok := strings.CutPrefix(key, prefix); ok {
			key = rest
			break
		}
	}
	if bucket == "" {
		return key
	}
	if rest, ok := strings.CutPrefix(key, bucket+"/"); ok && rest != "" {
		return rest
	}
	return key
}

// Key extracts the key of ref and strips bucket from it.
func Key(ref, bucket string) string {
	return StripBucket(Extract(ref), bucket)
}

// IsURL reports whether ref is an absolute http or https URL.
func IsURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// hasScheme reports whether ref starts with an RFC 3986 scheme followed by
// "://". A bare key like "listings/a:b.jpg" has no scheme.
func hasScheme(ref string) bool {
	i := strings.Index(ref, "://")
	if i <= 0 {
		return false
	}
	for j, r := range ref[:i] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case j > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
