// Package signing is the server side of the media pipeline. It owns the
// object store credentials and exposes three endpoints:
//
//	POST /api/media/presign   {"urls": [...]}   -> {"urls": [{original, presigned, error}], "expiresIn"}
//	POST /api/media/fetch     {"url": "..."}    -> {"dataUrl", "contentType"}
//	POST /api/media/upload    multipart "file"  -> {url, fileName, fileSize, fileType, key}
//
// A presign request carries at most Config.MaxBatch references. Items are
// signed concurrently and returned in request order; a reference that cannot
// be signed yields "presigned": null with an error string while its siblings
// still succeed. Without object store settings every endpoint that needs the
// store answers 500 MISCONFIGURED.
package signing
