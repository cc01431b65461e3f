package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Listen != ":8080" {
		t.Fatalf("unexpected listen default: %s", cfg.Listen)
	}
	if cfg.LivenessTimeout != 30*time.Second {
		t.Fatalf("unexpected liveness timeout default: %s", cfg.LivenessTimeout)
	}
	if len(cfg.Worker.Models) == 0 {
		t.Fatal("worker defaults should advertise at least one model")
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != Defaults().Listen {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "infera.yaml")
	data := []byte("listen: \":9090\"\nworker:\n  name: bench-node\n  port: 9100\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9090" {
		t.Fatalf("listen not overridden: %s", cfg.Listen)
	}
	if cfg.Worker.Name != "bench-node" || cfg.Worker.Port != 9100 {
		t.Fatalf("worker section not overridden: %+v", cfg.Worker)
	}
	// Untouched fields keep their defaults
	if cfg.LivenessTimeout != 30*time.Second {
		t.Fatalf("liveness timeout should keep default, got %s", cfg.LivenessTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/no/such/config.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
