package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("UNOSTAT_PORT", "9090")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("DB_PATH", "")
	path := writeConfig(t, `
server:
  port: ${UNOSTAT_PORT}
kafka:
  enabled: true
  brokers: ["kafka:9092"]
sync:
  interval: 1m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected expanded port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Kafka.Enabled || cfg.Kafka.Brokers[0] != "kafka:9092" || cfg.Kafka.Topic != "match-results" {
		t.Fatalf("unexpected kafka config: %+v", cfg.Kafka)
	}
	if cfg.Sync.Interval != time.Minute || cfg.Sync.Concurrency != 4 {
		t.Fatalf("unexpected sync config: %+v", cfg.Sync)
	}
	if cfg.Store.Driver() != "memory" {
		t.Fatalf("expected memory store, got %s", cfg.Store.Driver())
	}
}

func TestEnvOverridesSelectStore(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("DB_PATH", "/tmp/unostat.db")
	t.Setenv("SCORING_TOKEN", "secret")
	path := writeConfig(t, `
store:
  sqlite_path: ignored.db
scoring:
  token: from-file
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.SQLitePath != "/tmp/unostat.db" || cfg.Store.Driver() != "sqlite" {
		t.Fatalf("expected DB_PATH override, got %+v", cfg.Store)
	}
	if cfg.Scoring.Token != "secret" {
		t.Fatalf("expected SCORING_TOKEN override, got %q", cfg.Scoring.Token)
	}

	t.Setenv("POSTGRES_DSN", "postgres://localhost/unostat")
	if got := DefaultConfig().Store.Driver(); got != "postgres" {
		t.Fatalf("expected postgres to win, got %s", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExportBucketEnvEnablesExport(t *testing.T) {
	t.Setenv("EXPORT_BUCKET", "")
	if DefaultConfig().Export.Enabled {
		t.Fatal("export must be off without a bucket")
	}

	t.Setenv("EXPORT_BUCKET", "unostat-snapshots")
	t.Setenv("EXPORT_REGION", "eu-central-1")
	cfg := DefaultConfig()
	if !cfg.Export.Enabled || cfg.Export.Bucket != "unostat-snapshots" || cfg.Export.Region != "eu-central-1" {
		t.Fatalf("unexpected export config: %+v", cfg.Export)
	}
}
