package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/estatly/mediasign/logger"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

// mapResolver resolves references through a fixed table, identity otherwise.
type mapResolver map[string]string

func (m mapResolver) ResolveOne(_ context.Context, ref string) string {
	if v, ok := m[ref]; ok {
		return v
	}
	return ref
}

// newMediaServer serves /photo.png as PNG and /page.html as HTML.
func newMediaServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/photo.png", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(pngBytes)
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>denied</body></html>"))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

// newFetchServer fakes the service fetch endpoint. status other than 200
// makes every call fail.
func newFetchServer(t *testing.T, status int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != DefaultFetchPath {
			http.NotFound(w, r)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"upstream failed"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(fetchResponse{
			DataURL:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes),
			ContentType: "image/png",
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newEmbedder(t *testing.T, cfg Config, res Resolver) *Embedder {
	t.Helper()
	e, err := NewEmbedder(cfg, res, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewEmbedder() error = %v", err)
	}
	return e
}

func TestEmbed_ServerPath(t *testing.T) {
	var calls atomic.Int32
	fetch := newFetchServer(t, http.StatusOK, &calls)
	e := newEmbedder(t, Config{ServiceURL: fetch.URL}, nil)

	a := e.Embed(context.Background(), "listings/a.png")

	if a.Unavailable || a.Source != SourceServer {
		t.Fatalf("asset = %+v, want server embed", a)
	}
	if !strings.HasPrefix(a.DataURL, "data:image/png;base64,") {
		t.Errorf("DataURL = %q", a.DataURL)
	}
	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1", calls.Load())
	}
}

func TestEmbed_LocalFallbackWhenServerFails(t *testing.T) {
	var calls atomic.Int32
	fetch := newFetchServer(t, http.StatusBadGateway, &calls)
	media := newMediaServer(t)
	res := mapResolver{"listings/a.png": media.URL + "/photo.png"}
	e := newEmbedder(t, Config{ServiceURL: fetch.URL}, res)

	a := e.Embed(context.Background(), "listings/a.png")

	if a.Unavailable || a.Source != SourceLocal {
		t.Fatalf("asset = %+v, want local embed", a)
	}
	if a.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want sniffed image/png", a.ContentType)
	}
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	if a.DataURL != want {
		t.Errorf("DataURL = %q, want %q", a.DataURL, want)
	}
}

func TestEmbed_LocalOnlyWithoutService(t *testing.T) {
	media := newMediaServer(t)
	e := newEmbedder(t, Config{}, nil)

	a := e.Embed(context.Background(), media.URL+"/photo.png")
	if a.Unavailable || a.Source != SourceLocal {
		t.Errorf("asset = %+v, want local embed", a)
	}
}

func TestEmbed_Unavailable(t *testing.T) {
	var calls atomic.Int32
	fetch := newFetchServer(t, http.StatusInternalServerError, &calls)
	media := newMediaServer(t)
	e := newEmbedder(t, Config{ServiceURL: fetch.URL}, nil)

	tests := []struct {
		name string
		ref  string
	}{
		{"empty", ""},
		{"bare key without signing", "listings/a.png"},
		{"not an image", media.URL + "/page.html"},
		{"missing object", media.URL + "/missing.png"},
		{"malformed", "not a url at all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := e.Embed(context.Background(), tt.ref)
			if !a.Unavailable {
				t.Fatalf("asset = %+v, want unavailable", a)
			}
			if a.Label() != UnavailableLabel || a.Ref != tt.ref {
				t.Errorf("asset = %+v", a)
			}
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.MaxBytes() != 15<<20 {
		t.Errorf("MaxBytes() = %d, want 15 MiB", cfg.MaxBytes())
	}
	if cfg.FetchPath != DefaultFetchPath {
		t.Errorf("FetchPath = %q", cfg.FetchPath)
	}

	bad := Config{MaxSize: "lots"}
	bad.ApplyDefaults()
	if err := bad.Validate(); err == nil {
		t.Error("Validate() should reject an unparseable size")
	}
}

// countingEmbedder marks refs containing "broken" unavailable.
type countingEmbedder struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingEmbedder) Embed(_ context.Context, ref string) Asset {
	c.mu.Lock()
	c.calls[ref]++
	c.mu.Unlock()
	if strings.Contains(ref, "broken") {
		return unavailable(ref)
	}
	return Asset{Ref: ref, DataURL: "data:image/png;base64,AAAA", ContentType: "image/png", Source: SourceLocal}
}

func TestBuilder_Build(t *testing.T) {
	emb := &countingEmbedder{calls: make(map[string]int)}
	b := NewBuilder(emb, 2)
	doc := Document{
		Title: "12 Harbour St",
		Sections: []Section{
			{Heading: "Exterior", Media: []string{"front.jpg", "broken.jpg", "garden.jpg"}},
			{Heading: "Notes", Body: "No media here."},
			{Heading: "Cover", Media: []string{"front.jpg"}},
		},
	}

	out := b.Build(context.Background(), doc)

	if out.Title != doc.Title || len(out.Sections) != 3 {
		t.Fatalf("rendered = %+v", out)
	}
	got := out.Sections[0].Assets
	if len(got) != 3 || got[0].Ref != "front.jpg" || got[1].Ref != "broken.jpg" || got[2].Ref != "garden.jpg" {
		t.Errorf("section assets out of order: %+v", got)
	}
	if !got[1].Unavailable {
		t.Error("broken.jpg should be unavailable")
	}
	if out.Unavailable() != 1 {
		t.Errorf("Unavailable() = %d, want 1", out.Unavailable())
	}
	if emb.calls["front.jpg"] != 1 {
		t.Errorf("front.jpg embedded %d times, want 1", emb.calls["front.jpg"])
	}
	if len(out.Sections[1].Assets) != 0 {
		t.Errorf("section without media has assets: %+v", out.Sections[1].Assets)
	}
}

func TestRenderHTML(t *testing.T) {
	doc := &Rendered{
		Title:       "Flat <3>",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Sections: []RenderedSection{{
			Heading: "Photos",
			Assets: []Asset{
				{Ref: "a.png", DataURL: "data:image/png;base64,AAAA", ContentType: "image/png", Source: SourceServer},
				unavailable("b.png"),
			},
		}},
	}

	var buf bytes.Buffer
	if err := RenderHTML(&buf, doc); err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		`<title>Flat &lt;3&gt;</title>`,
		`<img src="data:image/png;base64,AAAA" alt="">`,
		`<em class="unavailable">[unavailable]</em>`,
		`<h2>Photos</h2>`,
		`Generated 2026-03-01 12:00 UTC`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q\n%s", want, html)
		}
	}
}

func TestBuildAndRender_EndToEnd(t *testing.T) {
	media := newMediaServer(t)
	res := mapResolver{"listings/a.png": media.URL + "/photo.png"}
	e := newEmbedder(t, Config{}, res)

	out := NewBuilder(e, 0).Build(context.Background(), Document{
		Title:    "Listing",
		Sections: []Section{{Heading: "Photos", Media: []string{"listings/a.png", "listings/gone.png"}}},
	})
	var buf bytes.Buffer
	if err := RenderHTML(&buf, out); err != nil {
		t.Fatal(err)
	}
	if c := strings.Count(buf.String(), "<img "); c != 1 {
		t.Errorf("img tags = %d, want 1", c)
	}
	if !strings.Contains(buf.String(), UnavailableLabel) {
		t.Error("missing unavailable label")
	}
}
