// Package storage provides the object store abstraction the signing service
// signs and uploads against.
//
// Backends register themselves from init:
//
//   - storage/s3: Amazon S3 and S3-compatible stores, signed with the SDK presign client
//   - storage/supabase: Supabase Storage, signed through /object/sign
//
// # Configuration
//
//	storage:
//	  provider: "s3"
//	  bucket: "listing-media"
//	  region: "eu-west-1"
//	  access_key: "..."
//	  secret_key: "..."
//	  max_file_size: "10MB"
//
// Absent credentials do not stop the service. The storage component starts
// degraded and Get reports a MISCONFIGURED error naming the missing settings.
package storage
