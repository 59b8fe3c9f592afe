package storage

import (
	"reflect"
	"testing"
)

func TestConfig_MissingS3(t *testing.T) {
	cfg := Config{Bucket: "b"}
	cfg.ApplyDefaults()

	want := []string{"storage.region", "storage.access_key", "storage.secret_key"}
	if got := cfg.Missing(); !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}
}

func TestConfig_MissingSupabase(t *testing.T) {
	cfg := Config{Provider: ProviderSupabase, URL: "https://x.supabase.co", SecretKey: "k"}
	cfg.ApplyDefaults()

	if got := cfg.Missing(); !reflect.DeepEqual(got, []string{"storage.bucket"}) {
		t.Errorf("Missing() = %v", got)
	}
}

func TestConfig_CustomEndpointDefaultsRegion(t *testing.T) {
	cfg := Config{Endpoint: "http://minio:9000"}
	cfg.ApplyDefaults()
	if cfg.Region != defaultRegion {
		t.Errorf("Region = %q, want %q", cfg.Region, defaultRegion)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
	if cfg.MaxFileSizeBytes() != 10<<20 {
		t.Errorf("MaxFileSizeBytes() = %d", cfg.MaxFileSizeBytes())
	}

	bad := Config{Provider: "gcs"}
	bad.ApplyDefaults()
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown provider")
	}
}
