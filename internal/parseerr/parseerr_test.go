package parseerr

import (
	"strings"
	"testing"
)

func TestKindStrings(t *testing.T) {
	cases := map[Kind]string{
		KindJSONSyntax:              "json_syntax_error",
		KindJSONNotObject:           "json_not_object",
		KindLogfmtInsufficientPairs: "logfmt_insufficient_pairs",
		KindLogfmtMalformedSyntax:   "logfmt_malformed_syntax",
		KindTimestampParse:          "timestamp_parse_error",
		KindLevelParse:              "level_parse_error",
		KindPatternMatch:            "pattern_match_error",
		KindFieldExtraction:         "field_extraction_error",
		KindRegex:                   "regex_error",
		KindIO:                      "io_error",
		KindResourceExhausted:       "resource_exhausted",
		KindConfiguration:           "configuration_error",
		KindGeneric:                 "generic_error",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestEveryVariantImplementsError(t *testing.T) {
	line := 3
	col := 7
	errs := []error{
		&JSONSyntaxError{Message: "unexpected token", Line: &line, Column: &col},
		&JSONNotObject{ActualType: "array"},
		&LogfmtInsufficientPairs{FoundPairs: 1, RequiredPairs: 3},
		&LogfmtMalformedSyntax{InvalidSegment: "key=", Position: 4},
		&TimestampParseError{Input: "bogus", AttemptedFormats: []string{"RFC3339"}},
		&LevelParseError{Input: "blah", ValidLevels: []string{"info", "error"}},
		&PatternMatchError{Input: "line", AttemptedPatterns: []string{"p1", "p2"}},
		&FieldExtractionError{FieldName: "user_id", ErrorMessage: "missing"},
		&RegexError{Pattern: "(", ErrorMessage: "unbalanced parenthesis"},
		&IOError{Operation: "read", ErrorMessage: "disk full"},
		&ResourceExhausted{ResourceType: "memory", Limit: "512MB"},
		&ConfigurationError{Parameter: "pattern", ErrorMessage: "empty"},
		&GenericError{Message: "unexpected", Context: map[string]string{"k": "v"}},
	}
	for _, err := range errs {
		if err.Error() == "" {
			t.Errorf("%T.Error() returned empty string", err)
		}
	}
}

func TestKindAccessorsMatchVariant(t *testing.T) {
	if (&JSONSyntaxError{}).Kind() != KindJSONSyntax {
		t.Error("JSONSyntaxError.Kind() mismatch")
	}
	if (&LogfmtInsufficientPairs{}).Kind() != KindLogfmtInsufficientPairs {
		t.Error("LogfmtInsufficientPairs.Kind() mismatch")
	}
	if (&PatternMatchError{}).Kind() != KindPatternMatch {
		t.Error("PatternMatchError.Kind() mismatch")
	}
	if (&ConfigurationError{}).Kind() != KindConfiguration {
		t.Error("ConfigurationError.Kind() mismatch")
	}
	if (&GenericError{}).Kind() != KindGeneric {
		t.Error("GenericError.Kind() mismatch")
	}
}

func TestJSONSyntaxErrorIncludesLocation(t *testing.T) {
	line, col := 2, 9
	err := &JSONSyntaxError{Message: "unexpected EOF", Line: &line, Column: &col}
	msg := err.Error()
	if !strings.Contains(msg, "line 2") || !strings.Contains(msg, "column 9") {
		t.Errorf("expected location in error message, got %q", msg)
	}
}

func TestJSONSyntaxErrorWithoutLocation(t *testing.T) {
	err := &JSONSyntaxError{Message: "unexpected EOF"}
	msg := err.Error()
	if strings.Contains(msg, "line") || strings.Contains(msg, "column") {
		t.Errorf("expected no location in message when unset, got %q", msg)
	}
}
