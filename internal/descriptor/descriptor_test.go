package descriptor

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantURL string
		wantErr string
	}{
		{name: "url", content: "psql postgres://dash:pw@db:5432/dash\n", wantURL: "postgres://dash:pw@db:5432/dash"},
		{name: "postgresql scheme", content: "  psql postgresql://localhost/dash  ", wantURL: "postgresql://localhost/dash"},
		{name: "keyword dsn", content: "psql host=db port=5432 dbname=dash user=dash", wantURL: "host=db port=5432 dbname=dash user=dash"},
		{name: "trailing blank lines", content: "psql postgres://db/dash\n\n\n", wantURL: "postgres://db/dash"},
		{name: "empty", content: "  \n", wantErr: "empty"},
		{name: "token only", content: "psql", wantErr: "expected"},
		{name: "wrong client", content: "mysql postgres://db/dash", wantErr: `client "mysql" is not "psql"`},
		{name: "not a url", content: "psql db.internal", wantErr: "not a postgres url"},
		{name: "bare scheme", content: "psql postgres://", wantErr: "not a postgres url"},
		{name: "two lines", content: "psql postgres://db/a\npsql postgres://db/b", wantErr: "single line"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, reason := Parse(tt.content, "psql")
			if tt.wantErr != "" {
				if !strings.Contains(reason, tt.wantErr) {
					t.Fatalf("expected reason containing %q, got %q", tt.wantErr, reason)
				}
				return
			}
			if reason != "" {
				t.Fatalf("unexpected reason %q", reason)
			}
			if desc.URL != tt.wantURL {
				t.Errorf("url = %q, want %q", desc.URL, tt.wantURL)
			}
			if desc.ClientToken != "psql" {
				t.Errorf("client token = %q", desc.ClientToken)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".db_connection")
	_, err := Load(path, "psql")
	var descErr *Error
	if !errors.As(err, &descErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
	if !strings.Contains(err.Error(), "run the startup script first") {
		t.Errorf("message should point at the startup script: %q", err.Error())
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".db_connection")
	if err := os.WriteFile(path, []byte("sqlite3 file:dash.db\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path, "psql")
	var descErr *Error
	if !errors.As(err, &descErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if descErr.Path != path {
		t.Errorf("path = %q", descErr.Path)
	}
}

func TestLoadValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".db_connection")
	if err := os.WriteFile(path, []byte("psql postgres://dash@localhost:5432/dash?sslmode=disable\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	desc, err := Load(path, "psql")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if desc.URL != "postgres://dash@localhost:5432/dash?sslmode=disable" {
		t.Errorf("url = %q", desc.URL)
	}
}

func TestParseAcceptedHasNoReason(t *testing.T) {
	desc, reason := Parse("psql postgres://dash@db:5432/dash", "psql")
	if reason != "" {
		t.Fatalf("valid descriptor rejected: %q", reason)
	}
	if desc.ClientToken != "psql" || desc.URL != "postgres://dash@db:5432/dash" {
		t.Fatalf("unexpected descriptor %+v", desc)
	}
}
