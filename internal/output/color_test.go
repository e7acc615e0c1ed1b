package output

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/solwick/cascade/internal/event"
)

func TestColorizeLine(t *testing.T) {
	tests := []struct {
		name          string
		level         event.Level
		line          string
		expectColor   bool
		expectedColor string
	}{
		{"DEBUG level - gray", event.LevelDebug, "debug message", true, colorGray},
		{"INFO level - no color", event.LevelInfo, "info message", false, ""},
		{"WARN level - yellow", event.LevelWarn, "warning message", true, colorYellow},
		{"ERROR level - red", event.LevelError, "error message", true, colorRed},
		{"FATAL level - bold red", event.LevelFatal, "fatal message", true, colorBold + colorRed},
		{"UNKNOWN level - no color", event.LevelUnknown, "unknown message", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ColorizeLine(tt.level, tt.line)

			if tt.expectColor {
				if !strings.Contains(result, tt.expectedColor) {
					t.Errorf("expected color code %q, got: %s", tt.expectedColor, result)
				}
				if !strings.Contains(result, colorReset) {
					t.Errorf("expected reset code, got: %s", result)
				}
				if !strings.Contains(result, tt.line) {
					t.Errorf("expected line %q in result, got: %s", tt.line, result)
				}
			} else if result != tt.line {
				t.Errorf("expected line unchanged, got: %s", result)
			}
		})
	}
}

func TestFormatResult(t *testing.T) {
	evt := event.New("test log line", "test log line", event.FormatPlainText)
	evt.SetLevel(event.LevelError)
	result := event.ParseResult{Success: true, Event: evt}

	t.Run("with colorize", func(t *testing.T) {
		out := FormatResult(result, true)
		if !strings.Contains(out, colorRed) {
			t.Errorf("expected red color in result: %s", out)
		}
		if !strings.Contains(out, "test log line") {
			t.Errorf("expected original line in result: %s", out)
		}
	})

	t.Run("without colorize", func(t *testing.T) {
		out := FormatResult(result, false)
		if out != result.Event.Raw {
			t.Errorf("expected raw line %q, got: %s", result.Event.Raw, out)
		}
		if strings.Contains(out, "\033[") {
			t.Errorf("expected no color codes, got: %s", out)
		}
	})
}

func TestShouldColorize(t *testing.T) {
	tests := []struct {
		name     string
		mode     ColorMode
		writer   interface{}
		expected bool
	}{
		{"ColorAlways - any writer", ColorAlways, &bytes.Buffer{}, true},
		{"ColorNever - any writer", ColorNever, os.Stdout, false},
		{"ColorAuto - non-file writer", ColorAuto, &bytes.Buffer{}, false},
		{"ColorAuto - file writer (stdout)", ColorAuto, os.Stdout, isTerminal(os.Stdout)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shouldColorize(tt.mode, tt.writer)
			if result != tt.expected {
				t.Errorf("shouldColorize() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestWriteColoredResult(t *testing.T) {
	evt := event.New("test error message", "test error message", event.FormatPlainText)
	evt.SetLevel(event.LevelError)
	result := event.ParseResult{Success: true, Event: evt}

	t.Run("ColorNever mode", func(t *testing.T) {
		buf := &bytes.Buffer{}
		writer := New(buf, FormatText)

		if err := writer.WriteColoredResult(result, ColorNever); err != nil {
			t.Fatalf("WriteColoredResult() error = %v", err)
		}

		out := buf.String()
		if strings.Contains(out, "\033[") {
			t.Errorf("expected no color codes, got: %s", out)
		}
		if !strings.Contains(out, "test error message") {
			t.Errorf("expected message in output, got: %s", out)
		}
	})

	t.Run("ColorAlways mode", func(t *testing.T) {
		buf := &bytes.Buffer{}
		writer := New(buf, FormatText)

		if err := writer.WriteColoredResult(result, ColorAlways); err != nil {
			t.Fatalf("WriteColoredResult() error = %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, colorRed) {
			t.Errorf("expected red color code, got: %s", out)
		}
	})

	t.Run("ColorAuto mode with buffer (not TTY)", func(t *testing.T) {
		buf := &bytes.Buffer{}
		writer := New(buf, FormatText)

		if err := writer.WriteColoredResult(result, ColorAuto); err != nil {
			t.Fatalf("WriteColoredResult() error = %v", err)
		}

		out := buf.String()
		if strings.Contains(out, "\033[") {
			t.Errorf("expected no color codes for non-TTY, got: %s", out)
		}
	})
}

func TestColorModeConstants(t *testing.T) {
	modes := []ColorMode{ColorAuto, ColorAlways, ColorNever}
	seen := make(map[ColorMode]bool)

	for _, mode := range modes {
		if seen[mode] {
			t.Errorf("duplicate ColorMode value: %v", mode)
		}
		seen[mode] = true
	}
}

func TestANSIColorCodes(t *testing.T) {
	codes := []struct {
		name  string
		value string
	}{
		{"reset", colorReset},
		{"red", colorRed},
		{"yellow", colorYellow},
		{"gray", colorGray},
		{"bold", colorBold},
	}

	for _, code := range codes {
		t.Run(code.name, func(t *testing.T) {
			if !strings.HasPrefix(code.value, "\033[") {
				t.Errorf("color code %q should start with an ANSI escape sequence", code.name)
			}
			if !strings.HasSuffix(code.value, "m") {
				t.Errorf("color code %q should end with 'm'", code.name)
			}
		})
	}
}

func TestColorizeLinePreservesContent(t *testing.T) {
	testLines := []string{
		"simple line",
		"line with special chars: !@#$%^&*()",
		"line with numbers 12345",
		"line with unicode: 你好世界",
		"line with\ttabs\tand\tspaces",
	}

	for _, line := range testLines {
		t.Run(line, func(t *testing.T) {
			colored := ColorizeLine(event.LevelError, line)
			cleaned := strings.ReplaceAll(colored, colorRed, "")
			cleaned = strings.ReplaceAll(cleaned, colorReset, "")
			if cleaned != line {
				t.Errorf("content was modified: expected %q, got %q", line, cleaned)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	t.Logf("os.Stdout isTerminal: %v", isTerminal(os.Stdout))
	t.Logf("os.Stderr isTerminal: %v", isTerminal(os.Stderr))
}
