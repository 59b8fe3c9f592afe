package httpclient

import "strings"

// Request describes an outbound HTTP request.
type Request struct {
	Method string
	// Path is appended to BaseURL. Absolute http(s) URLs are used as-is.
	Path    string
	Headers map[string]string
	Query   map[string]string
	// Body accepts io.Reader, []byte, string, or any JSON-encodable value.
	Body any
	// Auth overrides the client-level auth for this request.
	Auth *AuthConfig
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	// Headers holds the first value of each header, keyed canonically.
	Headers map[string]string
	Body    []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ContentType returns the media type of the response without parameters.
func (r *Response) ContentType() string {
	ct := r.Headers["Content-Type"]
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}
