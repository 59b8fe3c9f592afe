package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"github.com/estatly/mediasign/bootstrap"
	"github.com/estatly/mediasign/config"
	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/mediacache"
	"github.com/estatly/mediasign/service"
	storagetest "github.com/estatly/mediasign/storage/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func noFiles() []config.LoaderOption {
	return []config.LoaderOption{
		config.WithConfigFile("/nonexistent/config.yml"),
		config.WithEnvFile("/nonexistent/.env"),
	}
}

func newApp(t *testing.T, cfg *service.Config) *bootstrap.App[*service.Config] {
	t.Helper()
	app, err := bootstrap.NewApp(cfg,
		bootstrap.WithLogger(logger.Nop()),
		bootstrap.WithSummaryWriter(io.Discard),
	)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

// startService registers the signing service on an in-memory store and
// serves it from an httptest server.
func startService(t *testing.T, cfg *service.Config) (*service.Service, *storagetest.Component, *httptest.Server) {
	t.Helper()
	store := storagetest.NewComponent("listing-media")
	app := newApp(t, cfg)
	svc, err := service.Register(app, service.WithStorage(store))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := store.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(svc.Server.Handler())
	t.Cleanup(ts.Close)
	return svc, store, ts
}

func TestLoadConfig_LegacyEnvironment(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-central-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIAEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_S3_BUCKET_NAME", "listing-media")
	t.Setenv("MEDIASIGN_PRESIGN_PUBLIC_FALLBACK", "true")
	t.Setenv("MEDIASIGN_PRESIGN_TTL", "10m")

	cfg, err := service.LoadConfig(noFiles()...)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Name != service.Name {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Storage.Region != "eu-central-1" || cfg.Storage.Bucket != "listing-media" || cfg.Storage.AccessKey != "AKIAEXAMPLE" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if len(cfg.Storage.Missing()) != 0 {
		t.Errorf("Missing = %v", cfg.Storage.Missing())
	}
	if !cfg.Presign.PublicFallback || !cfg.Gallery.PublicFallback {
		t.Error("public fallback not propagated to the gallery")
	}
	if cfg.Presign.TTL != 10*time.Minute || cfg.Client.TTL != 10*time.Minute {
		t.Errorf("ttl presign=%s client=%s", cfg.Presign.TTL, cfg.Client.TTL)
	}
	if cfg.Client.ServerMaxBatch != cfg.Presign.MaxBatch || cfg.Client.BatchSize != 20 {
		t.Errorf("client batch = %d / %d", cfg.Client.BatchSize, cfg.Client.ServerMaxBatch)
	}
}

func TestLoadConfig_PrefixedBeatsAlias(t *testing.T) {
	t.Setenv("AWS_S3_BUCKET_NAME", "legacy")
	t.Setenv("MEDIASIGN_STORAGE_BUCKET", "current")

	cfg, err := service.LoadConfig(noFiles()...)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Bucket != "current" {
		t.Errorf("Bucket = %q", cfg.Storage.Bucket)
	}
}

func TestValidate_MissingStorageIsNotFatal(t *testing.T) {
	cfg := &service.Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(cfg.Storage.Missing()) == 0 {
		t.Fatal("expected missing storage settings")
	}
}

func TestValidate_RejectsBadSections(t *testing.T) {
	cfg := &service.Config{}
	cfg.Auth.JWTSecret = "short"
	cfg.ApplyDefaults()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "auth") {
		t.Fatalf("err = %v", err)
	}
}

func TestRegister_Presign(t *testing.T) {
	cfg := &service.Config{}
	_, store, ts := startService(t, cfg)

	body := `{"urls":["https://listing-media.s3.amazonaws.com/listings/7/front.jpg","listings/7/back.jpg"]}`
	resp, err := http.Post(ts.URL+"/api/media/presign", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out struct {
		URLs []struct {
			Original  string  `json:"original"`
			Presigned *string `json:"presigned"`
		} `json:"urls"`
		ExpiresIn int `json:"expiresIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.URLs) != 2 || out.ExpiresIn != 3600 {
		t.Fatalf("response = %+v", out)
	}
	for _, item := range out.URLs {
		if item.Presigned == nil || !strings.HasPrefix(*item.Presigned, storagetest.SignedURLBase) {
			t.Errorf("%s not signed: %v", item.Original, item.Presigned)
		}
	}
	if store.SignCalls() != 2 {
		t.Errorf("SignCalls = %d", store.SignCalls())
	}
}

func TestRegister_InfoAndMetrics(t *testing.T) {
	cfg := &service.Config{}
	cfg.Presign.PublicFallback = true
	_, _, ts := startService(t, cfg)

	resp, err := http.Post(ts.URL+"/api/media/presign", "application/json", strings.NewReader(`{"urls":["a.jpg"]}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/info")
	if err != nil {
		t.Fatal(err)
	}
	var info map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&info)
	resp.Body.Close()
	if info["service"] != service.Name || info["public_fallback"] != true || info["max_batch"] != float64(20) {
		t.Errorf("info = %v", info)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, name := range []string{"presign_items_total", "requests_total", "go_goroutines"} {
		if !bytes.Contains(raw, []byte(name)) {
			t.Errorf("metrics missing %s", name)
		}
	}
}

func TestRegister_UploadRequiresToken(t *testing.T) {
	cfg := &service.Config{}
	cfg.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
	_, _, ts := startService(t, cfg)

	resp, err := http.Post(ts.URL+"/api/media/upload", "multipart/form-data; boundary=x", strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestClients_ResolveThroughRedisCache(t *testing.T) {
	_, store, ts := startService(t, &service.Config{})

	mr := miniredis.RunT(t)
	cfg := &service.Config{}
	cfg.Client.BaseURL = ts.URL
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	app := newApp(t, cfg)

	clients, err := service.RegisterClients(app)
	if err != nil {
		t.Fatalf("RegisterClients: %v", err)
	}

	refs := []string{"listings/1/a.jpg", "listings/1/b.jpg", "listings/1/a.jpg"}
	err = app.RunTask(context.Background(), func(ctx context.Context) error {
		cache, err := clients.Cache()
		if err != nil {
			return err
		}
		if _, ok := cache.(*mediacache.Redis); !ok {
			t.Errorf("cache = %T, want *mediacache.Redis", cache)
		}

		res, err := clients.Resolver()
		if err != nil {
			return err
		}
		first := res.Resolve(ctx, refs)
		second := res.Resolve(ctx, refs)
		for _, ref := range refs {
			if !first.Signed(ref) || first[ref] != second[ref] {
				t.Errorf("%s: first=%q second=%q", ref, first[ref], second[ref])
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}

	// the second pass is served from Redis
	if store.SignCalls() != 3 {
		t.Errorf("SignCalls = %d, want 3", store.SignCalls())
	}
	if !mr.Exists("mediasign:signed:listings/1/a.jpg") {
		t.Errorf("redis keys = %v", mr.Keys())
	}
}

func TestClients_ResolverRequiresBaseURL(t *testing.T) {
	app := newApp(t, &service.Config{})
	clients, err := service.RegisterClients(app)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := clients.Resolver(); err == nil {
		t.Fatal("expected error without client.base_url")
	}
}

func TestClients_ExportThroughService(t *testing.T) {
	_, store, ts := startService(t, &service.Config{})
	store.Put("listings/1/a.png", []byte("not really a png"), "image/png")

	cfg := &service.Config{}
	cfg.Client.BaseURL = ts.URL
	app := newApp(t, cfg)
	clients, err := service.RegisterClients(app)
	if err != nil {
		t.Fatal(err)
	}
	res, err := clients.Resolver()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := clients.Builder(res); err != nil {
		t.Fatalf("Builder: %v", err)
	}
	if _, err := clients.Gallery([]string{"listings/1/a.png"}, res); err != nil {
		t.Fatalf("Gallery: %v", err)
	}
}
