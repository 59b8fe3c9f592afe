package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newJSONLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: FormatJSON}, "mediasign", buf)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestNewWithWriter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info")
	l.Info("batch resolved", Fields("size", 20, "signed", 19))

	m := decodeLine(t, &buf)
	if m["message"] != "batch resolved" {
		t.Errorf("unexpected message %v", m["message"])
	}
	if m[FieldService] != "mediasign" {
		t.Errorf("expected service field, got %v", m[FieldService])
	}
	if m["size"] != float64(20) {
		t.Errorf("expected size=20, got %v", m["size"])
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "warn")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
	l.Warn("shown")
	if buf.Len() == 0 {
		t.Error("expected warn to be written")
	}
}

func TestNewWithWriter_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "nope")
	l.Debug("hidden")
	l.Info("shown")
	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("expected only the info line, got %q", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	newJSONLogger(&buf, "info").WithComponent("resolver").Info("x")
	if m := decodeLine(t, &buf); m[FieldComponent] != "resolver" {
		t.Errorf("expected component=resolver, got %v", m[FieldComponent])
	}
}

func TestWithContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithRequestID(context.Background(), "req-1")
	newJSONLogger(&buf, "info").WithContext(ctx).Info("x")
	if m := decodeLine(t, &buf); m[FieldRequestID] != "req-1" {
		t.Errorf("expected request_id, got %v", m[FieldRequestID])
	}
}

func TestWithContext_NoRequestID(t *testing.T) {
	l := Nop()
	if l.WithContext(context.Background()) != l {
		t.Error("expected same logger when context carries no request id")
	}
}

func TestErrorValuesAreStrings(t *testing.T) {
	var buf bytes.Buffer
	newJSONLogger(&buf, "info").Error("failed", Fields("error", errors.New("boom")))
	if m := decodeLine(t, &buf); m["error"] != "boom" {
		t.Errorf("expected error string, got %v", m["error"])
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: FormatConsole, NoColor: true}, "mediasign", &buf)
	l.Info("hello")
	out := buf.String()
	if !strings.Contains(out, "[MED][INF]") {
		t.Errorf("expected service and level tags, got %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("expected message, got %q", out)
	}
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(newJSONLogger(&buf, "info"))
	Info("global")
	if m := decodeLine(t, &buf); m["message"] != "global" {
		t.Errorf("unexpected message %v", m["message"])
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != FormatConsole || cfg.Output != "stdout" || !cfg.Timestamp {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "debug", Format: FormatJSON}, false},
		{"bad level", Config{Level: "loud", Format: FormatJSON}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDurationFields(t *testing.T) {
	f := DurationFields("presign", 1500*time.Millisecond)
	if f[FieldOperation] != "presign" || f[FieldDuration] != int64(1500) {
		t.Errorf("unexpected fields %v", f)
	}
}

func TestErrorFields(t *testing.T) {
	f := ErrorFields("upload", errors.New("too big"))
	if f[FieldError] != "too big" {
		t.Errorf("unexpected fields %v", f)
	}
}
