package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/storage"
)

func newTestStorage(t *testing.T, handler http.HandlerFunc) *Storage {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewStorage(Config{URL: srv.URL, Bucket: "property-images", SecretKey: "service-role"}, logger.Nop())
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}
	return s
}

func TestSignedURL(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]int
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"signedURL":"/object/sign/property-images/listings/a.jpg?token=abc"}`))
	})

	signed, err := s.SignedURL(context.Background(), "listings/a.jpg", time.Hour)
	if err != nil {
		t.Fatalf("SignedURL() error = %v", err)
	}
	if gotPath != "/storage/v1/object/sign/property-images/listings/a.jpg" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer service-role" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["expiresIn"] != 3600 {
		t.Errorf("expiresIn = %d, want 3600", gotBody["expiresIn"])
	}
	if !strings.HasSuffix(signed, "/storage/v1/object/sign/property-images/listings/a.jpg?token=abc") {
		t.Errorf("signed = %q", signed)
	}
}

func TestSignedURL_NotFound(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	})

	_, err := s.SignedURL(context.Background(), "missing.jpg", time.Hour)
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := storage.Translate(err); appErr.HTTPStatus != http.StatusNotFound {
		t.Errorf("translated status = %d, want 404", appErr.HTTPStatus)
	}
}

func TestUploadAndDownload(t *testing.T) {
	stored := map[string][]byte{}
	var contentType, upsert string
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			contentType = r.Header.Get("Content-Type")
			upsert = r.Header.Get("x-upsert")
			stored[r.URL.Path], _ = io.ReadAll(r.Body)
			_, _ = w.Write([]byte(`{"Key":"ok"}`))
		case http.MethodGet:
			data, ok := stored[r.URL.Path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(data)
		}
	})
	ctx := context.Background()

	if err := s.Upload(ctx, "uploads/x/1.png", strings.NewReader("png-bytes"), 9, "image/png"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if contentType != "image/png" || upsert != "true" {
		t.Errorf("headers: content-type=%q x-upsert=%q", contentType, upsert)
	}

	rc, err := s.Download(ctx, "uploads/x/1.png")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "png-bytes" {
		t.Errorf("Download() = %q", data)
	}

	if _, err := s.Download(ctx, "nope.png"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download(missing) error = %v, want ErrNotFound", err)
	}
}

func TestExists(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/here.jpg") {
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	if ok, err := s.Exists(context.Background(), "here.jpg"); err != nil || !ok {
		t.Errorf("Exists(here) = %v, %v", ok, err)
	}
	if ok, err := s.Exists(context.Background(), "gone.jpg"); err != nil || ok {
		t.Errorf("Exists(gone) = %v, %v", ok, err)
	}
}

func TestURL_EscapesSegments(t *testing.T) {
	s, err := NewStorage(Config{URL: "https://xyz.supabase.co/", Bucket: "property-images", SecretKey: "k"}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	want := "https://xyz.supabase.co/storage/v1/object/public/property-images/a%20b/c.jpg"
	if got := s.URL("a b/c.jpg"); got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestNewStorage_RequiresSettings(t *testing.T) {
	if _, err := NewStorage(Config{URL: "https://x"}, logger.Nop()); err == nil {
		t.Error("expected error for missing bucket and key")
	}
}
