// Package descriptor reads the connection descriptor written by the startup
// process: a single line "<client-token> <connection-url>".
package descriptor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const startupHint = "run the startup script first to generate it"

// Descriptor names the database the initializer connects to.
type Descriptor struct {
	ClientToken string
	URL         string
}

// Error reports a missing or malformed descriptor.
type Error struct {
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("connection descriptor %s: %s; %s", e.Path, e.Reason, startupHint)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads the descriptor at path and checks it names the expected client.
func Load(path, expectedToken string) (Descriptor, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Descriptor{}, &Error{Path: path, Reason: "not found", Err: err}
		}
		return Descriptor{}, &Error{Path: path, Reason: "unreadable", Err: err}
	}
	desc, reason := Parse(string(content), expectedToken)
	if reason != "" {
		return Descriptor{}, &Error{Path: path, Reason: reason}
	}
	return desc, nil
}

// Parse validates descriptor content. A non-empty reason means the content
// is unusable.
func Parse(content, expectedToken string) (Descriptor, string) {
	line := strings.TrimSpace(content)
	if line == "" {
		return Descriptor{}, "empty"
	}
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		if strings.TrimSpace(line[idx+1:]) != "" {
			return Descriptor{}, "expected a single line"
		}
		line = strings.TrimSpace(line[:idx])
	}
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return Descriptor{}, "expected \"<client> <connection-url>\""
	}
	if parts[0] != expectedToken {
		return Descriptor{}, fmt.Sprintf("client %q is not %q", parts[0], expectedToken)
	}
	url := strings.TrimSpace(line[len(parts[0]):])
	if !looksLikeDSN(url) {
		return Descriptor{}, "connection url is not a postgres url"
	}
	return Descriptor{ClientToken: parts[0], URL: url}, ""
}

func looksLikeDSN(raw string) bool {
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return len(raw) > strings.Index(raw, "://")+3
	}
	return strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=")
}
