package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mdrdcalc/mdrdcalc/server/internal/egfr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

// replaceConfig atomically swaps the file at path, the way editors save.
func replaceConfig(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename config: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Server.GRPCPort != DefaultGRPCPort {
		t.Errorf("grpc_port: got %d, want %d", cfg.Server.GRPCPort, DefaultGRPCPort)
	}
	if cfg.Server.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("shutdown_timeout: got %v, want %v", cfg.Server.ShutdownTimeout, DefaultShutdownTimeout)
	}
	if cfg.Validation.Bounds() != egfr.StrictBounds {
		t.Errorf("bounds: got %+v, want strict", cfg.Validation.Bounds())
	}
	if cfg.Result.Rounding != egfr.HalfAway {
		t.Errorf("rounding: got %q, want half_away", cfg.Result.Rounding)
	}
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	p := writeConfig(t, "# nothing here\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9000
  grpc_port: 0
  log_level: debug
  shutdown_timeout: 3s
validation:
  policy: lenient
  age_min: 16
result:
  rounding: half_even
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9000 {
		t.Errorf("http_port: got %d, want 9000", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPCPort != 0 {
		t.Errorf("grpc_port: got %d, want 0", cfg.Server.GRPCPort)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("shutdown_timeout: got %v, want 3s", cfg.Server.ShutdownTimeout)
	}
	want := egfr.LenientBounds
	want.AgeMin = 16
	if got := cfg.Validation.Bounds(); got != want {
		t.Errorf("bounds: got %+v, want %+v", got, want)
	}
	if cfg.Result.Rounding != egfr.HalfEven {
		t.Errorf("rounding: got %q, want half_even", cfg.Result.Rounding)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("MDRD_HTTP_PORT", "7070")
	t.Setenv("MDRD_POLICY", "lenient")
	t.Setenv("MDRD_CREATININE_MAX", "20")
	t.Setenv("MDRD_ROUNDING", "half_even")
	p := writeConfig(t, `server:
  http_port: 9000
validation:
  policy: strict
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 7070 {
		t.Errorf("http_port: got %d, want 7070", cfg.Server.HTTPPort)
	}
	b := cfg.Validation.Bounds()
	if b.CreatinineMin != egfr.LenientBounds.CreatinineMin || b.CreatinineMax != 20 {
		t.Errorf("bounds: got %+v", b)
	}
	if cfg.Result.Rounding != egfr.HalfEven {
		t.Errorf("rounding: got %q, want half_even", cfg.Result.Rounding)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"http port":      "server:\n  http_port: 70000\n",
		"grpc port":      "server:\n  grpc_port: -1\n",
		"same ports":     "server:\n  http_port: 9000\n  grpc_port: 9000\n",
		"log level":      "server:\n  log_level: loud\n",
		"shutdown":       "server:\n  shutdown_timeout: 0s\n",
		"policy":         "validation:\n  policy: paediatric\n",
		"inverted age":   "validation:\n  age_min: 100\n  age_max: 50\n",
		"negative scr":   "validation:\n  creatinine_min: -0.5\n",
		"rounding":       "result:\n  rounding: truncate\n",
		"malformed yaml": "server: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestSlogLevel(t *testing.T) {
	for level, want := range map[string]string{
		"debug": "DEBUG", "INFO": "INFO", "warn": "WARN", "error": "ERROR", "": "INFO",
	} {
		if got := (ServerConfig{LogLevel: level}).SlogLevel().String(); got != want {
			t.Errorf("SlogLevel(%q) = %s, want %s", level, got, want)
		}
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	p := writeConfig(t, "validation:\n  policy: strict\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, p, func(cfg *Config) { reloaded <- cfg })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	replaceConfig(t, p, "validation:\n  policy: lenient\n")

	deadline := time.After(3 * time.Second)
	for waiting := true; waiting; {
		select {
		case cfg := <-reloaded:
			waiting = cfg.Validation.Policy != PolicyLenient
		case <-deadline:
			t.Fatal("timed out waiting for lenient reload")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_InvalidReloadIgnored(t *testing.T) {
	p := writeConfig(t, "validation:\n  policy: strict\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	go Watch(ctx, p, func(cfg *Config) { reloaded <- cfg }) //nolint:errcheck

	time.Sleep(100 * time.Millisecond)
	replaceConfig(t, p, "validation:\n  policy: bogus\n")

	select {
	case cfg := <-reloaded:
		t.Fatalf("unexpected reload with policy %q", cfg.Validation.Policy)
	case <-time.After(300 * time.Millisecond):
	}
}
