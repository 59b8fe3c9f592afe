// Package auth verifies Supabase-issued bearer tokens for the upload
// endpoint. Presign and fetch stay anonymous; the marketplace front end
// calls them for public listing pages.
package auth
