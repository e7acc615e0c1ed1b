package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newConvertTestCmd(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{Use: "convert"}
	cmd.SetOut(out)
	cmd.Flags().String("to", "json", "output format to convert to")
	return cmd
}

func TestConvertToCSV(t *testing.T) {
	viper.Reset()
	viper.Set("format", "text")

	dir := t.TempDir()
	file := writeTempFile(t, dir, "app.log", []string{
		`{"timestamp":"2025-01-26T10:00:00Z","level":"info","message":"first"}`,
		`{"timestamp":"2025-01-26T10:00:01Z","level":"error","message":"boom"}`,
	})

	var out bytes.Buffer
	cmd := newConvertTestCmd(&out)
	if err := cmd.Flags().Set("to", "csv"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := runConvert(cmd, []string{file}); err != nil {
		t.Fatalf("runConvert() error = %v", err)
	}

	output := out.String()
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 data rows, got %d lines:\n%s", len(lines), output)
	}
	if !strings.HasPrefix(lines[0], "line,timestamp,level,message") {
		t.Errorf("expected CSV header, got: %s", lines[0])
	}
	if !strings.Contains(lines[2], "boom") {
		t.Errorf("expected second row to contain 'boom', got: %s", lines[2])
	}
}

func TestConvertToNDJSON(t *testing.T) {
	viper.Reset()
	viper.Set("format", "text")

	dir := t.TempDir()
	file := writeTempFile(t, dir, "app.log", []string{
		`{"timestamp":"2025-01-26T10:00:00Z","level":"info","message":"first"}`,
	})

	var out bytes.Buffer
	cmd := newConvertTestCmd(&out)
	if err := cmd.Flags().Set("to", "ndjson"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := runConvert(cmd, []string{file}); err != nil {
		t.Fatalf("runConvert() error = %v", err)
	}

	output := out.String()
	if strings.Count(output, "\n") != 1 {
		t.Fatalf("expected exactly one NDJSON line, got:\n%s", output)
	}
	if !strings.Contains(output, `"message":"first"`) {
		t.Errorf("expected compact NDJSON message field, got:\n%s", output)
	}
}

func TestConvertDefaultsToJSON(t *testing.T) {
	viper.Reset()
	viper.Set("format", "text")

	dir := t.TempDir()
	file := writeTempFile(t, dir, "app.log", []string{"plain line"})

	var out bytes.Buffer
	cmd := newConvertTestCmd(&out)

	if err := runConvert(cmd, []string{file}); err != nil {
		t.Fatalf("runConvert() error = %v", err)
	}

	if !strings.Contains(out.String(), `"raw": "plain line"`) {
		t.Errorf("expected default --to json output, got:\n%s", out.String())
	}
}
