package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sa6mwa/linerun"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--dir", t.TempDir()}, args...))
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandLine(t *testing.T) {
	if got := commandLine([]string{`echo "a b"`}); got != `echo "a b"` {
		t.Fatalf("single argument altered: %q", got)
	}
	got := commandLine([]string{"echo", "a b", "c"})
	words, err := linerun.Split(got)
	if err != nil {
		t.Fatalf("Split(%q): %v", got, err)
	}
	if strings.Join(words, "|") != "echo|a b|c" {
		t.Fatalf("round trip through %q gave %q", got, words)
	}
}

func TestRootPrintsCleanedLines(t *testing.T) {
	out, err := execute(t, "--", "printf", `\033[32mok\033[0m\nsecond\n`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if out != "ok\nsecond\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRootPassesFlagsToCommand(t *testing.T) {
	out, err := execute(t, "sh", "-c", "echo interspersed")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if out != "interspersed\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRootPropagatesExitCode(t *testing.T) {
	out, err := execute(t, `sh -c 'echo partial; exit 6'`)
	var ee *exitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected exitError, got %v", err)
	}
	if ee.code != 6 {
		t.Fatalf("unexpected exit code: %d", ee.code)
	}
	if out != "partial\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRootParseErrorExitsTwo(t *testing.T) {
	_, err := execute(t, `echo "unterminated`)
	var ee *exitError
	if !errors.As(err, &ee) || ee.code != 2 {
		t.Fatalf("expected exit code 2, got %v", err)
	}
}

func TestRootDenyList(t *testing.T) {
	_, err := execute(t, "--deny", "echo", "echo hi")
	if !errors.Is(err, linerun.ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}
}

func TestRootAllowList(t *testing.T) {
	out, err := execute(t, "--allow", "echo", "echo allowed")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if out != "allowed\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, err := execute(t, "--allow", "echo", "true"); !errors.Is(err, linerun.ErrDenied) {
		t.Fatalf("expected true to be denied, got %v", err)
	}
}

func TestRootNoWait(t *testing.T) {
	out, err := execute(t, "--no-wait", "echo", "hidden")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if out != "" {
		t.Fatalf("expected no output, got %q", out)
	}
}

func TestRootRequiresCommand(t *testing.T) {
	if _, err := execute(t); err == nil {
		t.Fatalf("expected error without a command")
	}
}
