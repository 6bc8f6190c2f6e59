package subprocess

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/watchbind/watchbind/internal/env"
)

func TestRunBlockingCapturesStdout(t *testing.T) {
	r := NewRunner(0)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := r.RunBlocking(ctx, "echo hello", EnvSlice(env.New().Snapshot()))
	if err != nil {
		t.Fatalf("RunBlocking: %v", err)
	}
	if got := strings.TrimRight(string(res.Stdout), "\n"); got != "hello" {
		t.Fatalf("Stdout = %q, want %q", got, "hello")
	}
	if res.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestRunBlockingReportsNonZeroExit(t *testing.T) {
	r := NewRunner(0)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := r.RunBlocking(ctx, "exit 7", nil)
	if err != nil {
		t.Fatalf("RunBlocking: %v", err)
	}
	if res.ExitCode != 7 {
		t.Fatalf("ExitCode = %d, want 7", res.ExitCode)
	}
}

func TestRunBlockingRespectsCaptureBound(t *testing.T) {
	r := NewRunner(4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := r.RunBlocking(ctx, "printf '0123456789'", nil)
	if err != nil {
		t.Fatalf("RunBlocking: %v", err)
	}
	if len(res.Stdout) != 4 {
		t.Fatalf("len(Stdout) = %d, want 4", len(res.Stdout))
	}
	if !res.Truncated {
		t.Fatalf("Truncated = false, want true")
	}
}

func TestRunBlockingCancellation(t *testing.T) {
	r := NewRunner(0)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.RunBlocking(ctx, "sleep 5", nil)
	if err == nil {
		t.Fatalf("expected error from cancelled context")
	}
}

func TestEnvSliceAppendsSnapshot(t *testing.T) {
	tbl := env.New()
	tbl.Set("WATCHBIND_TEST_VAR", "abc")
	slice := EnvSlice(tbl.Snapshot())
	found := false
	for _, kv := range slice {
		if kv == "WATCHBIND_TEST_VAR=abc" {
			found = true
		}
	}
	if !found {
		t.Fatalf("EnvSlice = %v, want WATCHBIND_TEST_VAR=abc present", slice)
	}
}

func TestStartBackgroundCompletes(t *testing.T) {
	r := NewRunner(0)
	bg, err := r.StartBackground("exit 3", nil)
	if err != nil {
		t.Fatalf("StartBackground: %v", err)
	}
	select {
	case <-bg.Done:
	case <-time.After(5 * time.Second):
		t.Fatalf("background process did not complete in time")
	}
	if bg.ExitCode != 3 {
		t.Fatalf("ExitCode = %d, want 3", bg.ExitCode)
	}
}

func TestBuildTuiInheritCmdInheritsStdio(t *testing.T) {
	cmd := BuildTuiInheritCmd("cat", nil)
	if cmd.Stdin == nil || cmd.Stdout == nil || cmd.Stderr == nil {
		t.Fatalf("expected inherited stdio, got %+v", cmd)
	}
}
