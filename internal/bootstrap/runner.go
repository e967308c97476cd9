package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
)

// Initializer performs the one-time database setup.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Runner invokes Init unless the marker file already exists, and writes the
// marker only after Init succeeds.
type Runner struct {
	MarkerPath string
	Init       Initializer
}

// Run reports whether initialization ran. A present marker is a silent
// success.
func (r Runner) Run(ctx context.Context) (bool, error) {
	done, err := MarkerExists(r.MarkerPath)
	if err != nil {
		return false, errMarker(err)
	}
	if done {
		log.Printf("runner: %s present, nothing to do", r.MarkerPath)
		return false, nil
	}
	log.Printf("runner: %s absent, initializing database", r.MarkerPath)
	if err := r.Init.Initialize(ctx); err != nil {
		return true, err
	}
	if err := writeMarker(r.MarkerPath); err != nil {
		return true, errMarker(err)
	}
	log.Printf("runner: initialization complete, wrote %s", r.MarkerPath)
	return true, nil
}

// MarkerExists reports whether the marker file is present.
func MarkerExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func writeMarker(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return file.Close()
}
