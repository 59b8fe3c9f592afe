package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testStorage struct {
	Bucket      string `mapstructure:"bucket"`
	Region      string `mapstructure:"region"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

type testConfig struct {
	ServiceConfig `mapstructure:",squash"`
	Storage       testStorage `mapstructure:"storage"`
}

type mockFS struct {
	files  map[string]bool
	loaded []string
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error {
	m.loaded = append(m.loaded, path)
	return nil
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected logging defaults, got %+v", cfg.Logging)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yamlContent := `
name: mediasign
environment: staging
storage:
  bucket: listing-media
  max_file_size: 1024
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := Load("mediasign", &cfg, WithConfigFile(configPath), WithEnvFile("/nonexistent/.env"), WithEnvPrefix("MSYAML")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "mediasign" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.Storage.Bucket != "listing-media" || cfg.Storage.MaxFileSize != 1024 {
		t.Errorf("unexpected storage config %+v", cfg.Storage)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("storage:\n  bucket: from-file\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("MSTEST_STORAGE_BUCKET", "from-env")
	t.Setenv("MSTEST_STORAGE_MAX_FILE_SIZE", "2048")

	var cfg testConfig
	err := Load("mediasign", &cfg,
		WithConfigFile(configPath),
		WithEnvFile("/nonexistent/.env"),
		WithEnvPrefix("MSTEST"),
	)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Bucket != "from-env" {
		t.Errorf("expected env to win, got %q", cfg.Storage.Bucket)
	}
	if cfg.Storage.MaxFileSize != 2048 {
		t.Errorf("expected max_file_size=2048, got %d", cfg.Storage.MaxFileSize)
	}
}

func TestLoadAliases(t *testing.T) {
	t.Setenv("MSALIAS_TEST_REGION", "eu-west-1")

	var cfg testConfig
	err := Load("mediasign", &cfg,
		WithConfigFile("/nonexistent/config.yml"),
		WithEnvFile("/nonexistent/.env"),
		WithEnvPrefix("MSALIAS"),
		WithAliases(map[string][]string{"storage.region": {"MSALIAS_TEST_REGION"}}),
	)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Region != "eu-west-1" {
		t.Errorf("expected alias to populate region, got %q", cfg.Storage.Region)
	}
}

func TestLoadDefaults(t *testing.T) {
	var cfg testConfig
	err := Load("mediasign", &cfg,
		WithConfigFile("/nonexistent/config.yml"),
		WithEnvFile("/nonexistent/.env"),
		WithEnvPrefix("MSDEFAULT"),
		WithDefaults(map[string]any{"storage.bucket": "fallback"}),
	)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Bucket != "fallback" {
		t.Errorf("expected default bucket, got %q", cfg.Storage.Bucket)
	}
}

func TestLoadSearchesEnvFile(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"./cmd/mediasign/.env": true}}
	var cfg testConfig
	if err := Load("mediasign", &cfg, WithFileSystem(fs), WithEnvPrefix("MSSEARCH")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(fs.loaded) != 1 || fs.loaded[0] != "./cmd/mediasign/.env" {
		t.Errorf("expected service .env to be loaded, got %v", fs.loaded)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("CLIENT_CIRCUIT_BREAKER_ENABLED")
	want := map[string]bool{
		"client_circuit_breaker_enabled": false,
		"client.circuit.breaker.enabled": false,
		"client.circuit_breaker.enabled": false,
	}
	for _, v := range variants {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("expected variant %q in %v", k, variants)
		}
	}
	if len(variants) != 8 {
		t.Errorf("expected 8 variants for 4 parts, got %d", len(variants))
	}
}
