package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr: %q", cfg.Addr)
	}
	if cfg.SampleInterval != time.Second {
		t.Errorf("sample interval: %v", cfg.SampleInterval)
	}
	if cfg.RecordingLimit != 300*time.Second {
		t.Errorf("recording limit: %v", cfg.RecordingLimit)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr: %q", cfg.Addr)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostwatch.yml")
	data := "addr: \":9090\"\nsample_interval: 2s\nrecording_limit: 10m\nproc_limit: 25\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("addr: %q", cfg.Addr)
	}
	if cfg.SampleInterval != 2*time.Second {
		t.Errorf("sample interval: %v", cfg.SampleInterval)
	}
	if cfg.RecordingLimit != 10*time.Minute {
		t.Errorf("recording limit: %v", cfg.RecordingLimit)
	}
	if cfg.ProcLimit != 25 {
		t.Errorf("proc limit: %d", cfg.ProcLimit)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostwatch.yml")
	if err := os.WriteFile(path, []byte("addr: \":9090\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOSTWATCH_ADDR", ":7070")
	t.Setenv("HOSTWATCH_RECORDING_LIMIT", "90s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("env override lost: %q", cfg.Addr)
	}
	if cfg.RecordingLimit != 90*time.Second {
		t.Errorf("recording limit: %v", cfg.RecordingLimit)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostwatch.yml")
	if err := os.WriteFile(path, []byte("sample_interval: soon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error for bad duration")
	}
}
