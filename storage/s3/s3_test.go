package s3

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/storage"
)

func newTestStorage(t *testing.T, endpoint string) *Storage {
	t.Helper()
	s, err := NewStorage(context.Background(), storage.Config{
		Provider:  storage.ProviderS3,
		Bucket:    "listing-media",
		Region:    "eu-west-1",
		Endpoint:  endpoint,
		AccessKey: "AKIATEST",
		SecretKey: "secret",
	}, logger.Nop())
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}
	return s
}

func TestSignedURL_PresignsGet(t *testing.T) {
	s := newTestStorage(t, "")

	signed, err := s.SignedURL(context.Background(), "listings/42/front.jpg", time.Hour)
	if err != nil {
		t.Fatalf("SignedURL() error = %v", err)
	}

	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("signed URL does not parse: %v", err)
	}
	if u.Host != "listing-media.s3.eu-west-1.amazonaws.com" {
		t.Errorf("host = %q", u.Host)
	}
	if u.Path != "/listings/42/front.jpg" {
		t.Errorf("path = %q", u.Path)
	}
	q := u.Query()
	if q.Get("X-Amz-Expires") != "3600" {
		t.Errorf("X-Amz-Expires = %q, want 3600", q.Get("X-Amz-Expires"))
	}
	if q.Get("X-Amz-Signature") == "" {
		t.Error("signature missing")
	}
	if !strings.HasPrefix(q.Get("X-Amz-Credential"), "AKIATEST/") {
		t.Errorf("credential = %q", q.Get("X-Amz-Credential"))
	}
}

func TestSignedURL_CustomEndpointUsesPathStyle(t *testing.T) {
	s := newTestStorage(t, "http://minio.local:9000")

	signed, err := s.SignedURL(context.Background(), "docs/lease.pdf", 15*time.Minute)
	if err != nil {
		t.Fatalf("SignedURL() error = %v", err)
	}
	if !strings.HasPrefix(signed, "http://minio.local:9000/listing-media/docs/lease.pdf?") {
		t.Errorf("signed = %q", signed)
	}
}

func TestObjectURL(t *testing.T) {
	tests := []struct {
		name      string
		endpoint  string
		pathStyle bool
		want      string
	}{
		{"virtual hosted", "", false, "https://b.s3.us-east-1.amazonaws.com/a%20b/c.jpg"},
		{"path style", "", true, "https://s3.us-east-1.amazonaws.com/b/a%20b/c.jpg"},
		{"custom endpoint", "http://localhost:9000", true, "http://localhost:9000/b/a%20b/c.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ObjectURL(tt.endpoint, "us-east-1", "b", "a b/c.jpg", tt.pathStyle); got != tt.want {
				t.Errorf("ObjectURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestURL_UsesBucket(t *testing.T) {
	s := newTestStorage(t, "")
	if got := s.URL("x.png"); got != "https://listing-media.s3.eu-west-1.amazonaws.com/x.png" {
		t.Errorf("URL() = %q", got)
	}
	if s.Bucket() != "listing-media" {
		t.Errorf("Bucket() = %q", s.Bucket())
	}
}
