package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeInitializer struct {
	calls int
	err   error
}

func (f *fakeInitializer) Initialize(ctx context.Context) error {
	f.calls++
	return f.err
}

func TestRunnerWritesMarkerOnSuccess(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "state", ".db_initialized")
	initializer := &fakeInitializer{}
	runner := Runner{MarkerPath: marker, Init: initializer}

	ran, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !ran || initializer.calls != 1 {
		t.Fatalf("expected one initialization, ran=%v calls=%d", ran, initializer.calls)
	}
	info, err := os.Stat(marker)
	if err != nil {
		t.Fatalf("marker missing: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("marker should be empty, size=%d", info.Size())
	}
}

func TestRunnerSecondRunIsNoop(t *testing.T) {
	marker := filepath.Join(t.TempDir(), ".db_initialized")
	initializer := &fakeInitializer{}
	runner := Runner{MarkerPath: marker, Init: initializer}

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	ran, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if ran {
		t.Error("second run should not initialize")
	}
	if initializer.calls != 1 {
		t.Errorf("initializer called %d times, want 1", initializer.calls)
	}
}

func TestRunnerSkipsWhenMarkerHasContent(t *testing.T) {
	marker := filepath.Join(t.TempDir(), ".db_initialized")
	if err := os.WriteFile(marker, []byte("anything"), 0o644); err != nil {
		t.Fatal(err)
	}
	initializer := &fakeInitializer{err: errors.New("must not run")}
	ran, err := Runner{MarkerPath: marker, Init: initializer}.Run(context.Background())
	if err != nil || ran || initializer.calls != 0 {
		t.Fatalf("expected silent no-op, ran=%v err=%v calls=%d", ran, err, initializer.calls)
	}
}

func TestRunnerFailureLeavesMarkerAbsent(t *testing.T) {
	marker := filepath.Join(t.TempDir(), ".db_initialized")
	failure := ExitError{Status: StatusStatement, Message: "initialization failed", Err: errors.New("boom")}
	initializer := &fakeInitializer{err: failure}
	runner := Runner{MarkerPath: marker, Init: initializer}

	_, err := runner.Run(context.Background())
	if StatusOf(err) != StatusStatement {
		t.Fatalf("expected statement status, got %d (%v)", StatusOf(err), err)
	}
	if _, statErr := os.Stat(marker); !os.IsNotExist(statErr) {
		t.Fatalf("marker should not exist after failure: %v", statErr)
	}

	initializer.err = nil
	ran, err := runner.Run(context.Background())
	if err != nil || !ran {
		t.Fatalf("retry should initialize, ran=%v err=%v", ran, err)
	}
	if initializer.calls != 2 {
		t.Errorf("expected retry to call initializer again, calls=%d", initializer.calls)
	}
}

func TestRunnerMarkerWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	runner := Runner{MarkerPath: filepath.Join(blocker, ".db_initialized"), Init: &fakeInitializer{}}
	_, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error when the marker path is under a file")
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("plain"), 1},
		{errConfig(errors.New("x")), StatusConfig},
		{errDatabase(errors.New("x")), StatusDatabase},
		{errStatement(errors.New("x")), StatusStatement},
		{errMarker(errors.New("x")), StatusMarker},
	}
	for _, tt := range tests {
		if got := StatusOf(tt.err); got != tt.want {
			t.Errorf("StatusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
