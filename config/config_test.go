package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Production.OrderPrefix != "PO" {
		t.Errorf("order prefix = %q, want PO", cfg.Production.OrderPrefix)
	}
	if cfg.Locks.TTL != 30*time.Second {
		t.Errorf("lock ttl = %v, want 30s", cfg.Locks.TTL)
	}
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tinacopro.yaml")
	data := []byte("database:\n  driver: postgres\nmessaging:\n  backend: mqtt\nproduction:\n  shipment_prefix: ENV\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Messaging.Backend != "mqtt" {
		t.Errorf("backend = %q, want mqtt", cfg.Messaging.Backend)
	}
	if cfg.Production.ShipmentPrefix != "ENV" {
		t.Errorf("shipment prefix = %q, want ENV", cfg.Production.ShipmentPrefix)
	}
	// untouched keys keep their defaults
	if cfg.Production.OrderPrefix != "PO" {
		t.Errorf("order prefix = %q, want PO", cfg.Production.OrderPrefix)
	}
}

func TestEnvOverridesSecrets(t *testing.T) {
	t.Setenv("TINACO_REDIS_ADDR", "redis.plant:6380")
	t.Setenv("TINACO_SESSION_SECRET", "s3cret")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.Address != "redis.plant:6380" {
		t.Errorf("redis address = %q", cfg.Redis.Address)
	}
	if cfg.Web.SessionSecret != "s3cret" {
		t.Errorf("session secret = %q", cfg.Web.SessionSecret)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Defaults()
	cfg.Web.Port = 9999
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Web.Port != 9999 {
		t.Errorf("port = %d, want 9999", got.Web.Port)
	}
}
