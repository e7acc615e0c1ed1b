package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newTailTestCmd(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{Use: "tail"}
	cmd.SetOut(out)
	cmd.Flags().StringP("pattern", "p", "", "only show lines matching regex pattern")
	cmd.Flags().StringP("level", "l", "", "minimum log level to display")
	cmd.Flags().IntP("lines", "n", 10, "number of initial lines to show")
	cmd.Flags().Bool("no-follow", false, "print last N lines and exit")
	cmd.Flags().Bool("follow-rotate", false, "follow through log rotations")
	cmd.Flags().Bool("no-color", false, "disable colored output")
	return cmd
}

func TestTailNoFollowReplaysInitialLines(t *testing.T) {
	dir := t.TempDir()
	file := writeTempFile(t, dir, "app.log", []string{
		`{"timestamp":"2025-01-26T10:00:00Z","level":"info","message":"first"}`,
		`{"timestamp":"2025-01-26T10:00:01Z","level":"error","message":"boom"}`,
	})

	var out bytes.Buffer
	cmd := newTailTestCmd(&out)
	if err := cmd.Flags().Set("no-follow", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cmd.Flags().Set("no-color", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := runTail(cmd, []string{file}); err != nil {
		t.Fatalf("runTail() error = %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "first") || !strings.Contains(output, "boom") {
		t.Fatalf("expected both lines replayed, got:\n%s", output)
	}
}

func TestTailNoFollowFiltersByLevel(t *testing.T) {
	dir := t.TempDir()
	file := writeTempFile(t, dir, "app.log", []string{
		`{"timestamp":"2025-01-26T10:00:00Z","level":"info","message":"first"}`,
		`{"timestamp":"2025-01-26T10:00:01Z","level":"error","message":"boom"}`,
	})

	var out bytes.Buffer
	cmd := newTailTestCmd(&out)
	if err := cmd.Flags().Set("no-follow", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cmd.Flags().Set("no-color", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cmd.Flags().Set("level", "error"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := runTail(cmd, []string{file}); err != nil {
		t.Fatalf("runTail() error = %v", err)
	}

	output := out.String()
	if strings.Contains(output, "first") {
		t.Fatalf("expected info line filtered out, got:\n%s", output)
	}
	if !strings.Contains(output, "boom") {
		t.Fatalf("expected error line present, got:\n%s", output)
	}
}

func TestTailMissingFileErrors(t *testing.T) {
	var out bytes.Buffer
	cmd := newTailTestCmd(&out)
	if err := cmd.Flags().Set("no-follow", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := runTail(cmd, []string{"/nonexistent/path/app.log"}); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
