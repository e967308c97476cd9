package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	MarkerPath       string
	DescriptorPath   string
	ClientToken      string
	LogDir           string
	LogRetentionDays int
}

func Load() Config {
	base := installDir()
	return Config{
		MarkerPath:       envOr("INITDB_MARKER_PATH", filepath.Join(base, ".db_initialized")),
		DescriptorPath:   envOr("INITDB_DESCRIPTOR_PATH", filepath.Join(base, ".db_connection")),
		ClientToken:      envOr("INITDB_CLIENT_TOKEN", "psql"),
		LogDir:           envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays: clamp(envOrInt("LOG_RETENTION_DAYS", 7), 1, 7),
	}
}

// installDir is the directory holding the running binary, falling back to
// the working directory when it cannot be resolved.
func installDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
