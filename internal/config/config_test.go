package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INITDB_MARKER_PATH", "")
	t.Setenv("INITDB_DESCRIPTOR_PATH", "")
	t.Setenv("INITDB_CLIENT_TOKEN", "")
	t.Setenv("LOG_DIR", "")
	t.Setenv("LOG_RETENTION_DAYS", "")

	cfg := Load()
	if filepath.Base(cfg.MarkerPath) != ".db_initialized" {
		t.Errorf("unexpected marker path %q", cfg.MarkerPath)
	}
	if filepath.Base(cfg.DescriptorPath) != ".db_connection" {
		t.Errorf("unexpected descriptor path %q", cfg.DescriptorPath)
	}
	if filepath.Dir(cfg.MarkerPath) != filepath.Dir(cfg.DescriptorPath) {
		t.Errorf("marker and descriptor should live side by side: %q vs %q", cfg.MarkerPath, cfg.DescriptorPath)
	}
	if cfg.ClientToken != "psql" {
		t.Errorf("expected client token psql, got %q", cfg.ClientToken)
	}
	if cfg.LogDir != "storage/logs" {
		t.Errorf("expected default log dir, got %q", cfg.LogDir)
	}
	if cfg.LogRetentionDays != 7 {
		t.Errorf("expected 7 retention days, got %d", cfg.LogRetentionDays)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("INITDB_MARKER_PATH", "/var/lib/dash/marker")
	t.Setenv("INITDB_DESCRIPTOR_PATH", " /run/dash/conn ")
	t.Setenv("INITDB_CLIENT_TOKEN", "pgcli")
	t.Setenv("LOG_RETENTION_DAYS", "30")

	cfg := Load()
	if cfg.MarkerPath != "/var/lib/dash/marker" {
		t.Errorf("marker override ignored: %q", cfg.MarkerPath)
	}
	if cfg.DescriptorPath != "/run/dash/conn" {
		t.Errorf("descriptor override not trimmed: %q", cfg.DescriptorPath)
	}
	if cfg.ClientToken != "pgcli" {
		t.Errorf("client token override ignored: %q", cfg.ClientToken)
	}
	if cfg.LogRetentionDays != 7 {
		t.Errorf("retention should cap at 7, got %d", cfg.LogRetentionDays)
	}
}

func TestLoadBadRetentionFallsBack(t *testing.T) {
	t.Setenv("LOG_RETENTION_DAYS", "weekly")
	if got := Load().LogRetentionDays; got != 7 {
		t.Errorf("expected fallback 7, got %d", got)
	}
}
