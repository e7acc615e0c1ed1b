// Package parseerr defines the closed taxonomy of structured parse
// errors produced by cascade's format and profile parsers. Every
// variant carries enough context to explain itself without a wrapped
// cause, and none of them ever terminate a stream — callers downgrade
// them to a plain-text fallback instead.
package parseerr

import "fmt"

// Kind identifies which of the thirteen closed variants an error is,
// for callers that want to branch on error category without a type
// switch.
type Kind int

const (
	KindJSONSyntax Kind = iota
	KindJSONNotObject
	KindLogfmtInsufficientPairs
	KindLogfmtMalformedSyntax
	KindTimestampParse
	KindLevelParse
	KindPatternMatch
	KindFieldExtraction
	KindRegex
	KindIO
	KindResourceExhausted
	KindConfiguration
	KindGeneric
)

func (k Kind) String() string {
	switch k {
	case KindJSONSyntax:
		return "json_syntax_error"
	case KindJSONNotObject:
		return "json_not_object"
	case KindLogfmtInsufficientPairs:
		return "logfmt_insufficient_pairs"
	case KindLogfmtMalformedSyntax:
		return "logfmt_malformed_syntax"
	case KindTimestampParse:
		return "timestamp_parse_error"
	case KindLevelParse:
		return "level_parse_error"
	case KindPatternMatch:
		return "pattern_match_error"
	case KindFieldExtraction:
		return "field_extraction_error"
	case KindRegex:
		return "regex_error"
	case KindIO:
		return "io_error"
	case KindResourceExhausted:
		return "resource_exhausted"
	case KindConfiguration:
		return "configuration_error"
	default:
		return "generic_error"
	}
}

// JSONSyntaxError reports a JSON parse failure, with optional line/column.
type JSONSyntaxError struct {
	Message string
	Line    *int
	Column  *int
}

func (e *JSONSyntaxError) Kind() Kind { return KindJSONSyntax }

func (e *JSONSyntaxError) Error() string {
	s := fmt.Sprintf("JSON syntax error: %s", e.Message)
	if e.Line != nil {
		s += fmt.Sprintf(" at line %d", *e.Line)
	}
	if e.Column != nil {
		s += fmt.Sprintf(" column %d", *e.Column)
	}
	return s
}

// JSONNotObject reports that the JSON value parsed but was not an object.
type JSONNotObject struct {
	ActualType string
}

func (e *JSONNotObject) Kind() Kind { return KindJSONNotObject }

func (e *JSONNotObject) Error() string {
	return fmt.Sprintf("JSON is not an object, found: %s", e.ActualType)
}

// LogfmtInsufficientPairs reports fewer key=value pairs than required.
type LogfmtInsufficientPairs struct {
	FoundPairs    int
	RequiredPairs int
}

func (e *LogfmtInsufficientPairs) Kind() Kind { return KindLogfmtInsufficientPairs }

func (e *LogfmtInsufficientPairs) Error() string {
	return fmt.Sprintf("insufficient logfmt pairs: found %d, required %d", e.FoundPairs, e.RequiredPairs)
}

// LogfmtMalformedSyntax reports an unparsable key=value segment.
type LogfmtMalformedSyntax struct {
	InvalidSegment string
	Position       int
}

func (e *LogfmtMalformedSyntax) Kind() Kind { return KindLogfmtMalformedSyntax }

func (e *LogfmtMalformedSyntax) Error() string {
	return fmt.Sprintf("malformed logfmt syntax at position %d: '%s'", e.Position, e.InvalidSegment)
}

// TimestampParseError reports that no known timestamp format matched.
type TimestampParseError struct {
	Input            string
	AttemptedFormats []string
}

func (e *TimestampParseError) Kind() Kind { return KindTimestampParse }

func (e *TimestampParseError) Error() string {
	return fmt.Sprintf("failed to parse timestamp '%s', tried formats: %v", e.Input, e.AttemptedFormats)
}

// LevelParseError reports an unrecognized level token.
type LevelParseError struct {
	Input       string
	ValidLevels []string
}

func (e *LevelParseError) Kind() Kind { return KindLevelParse }

func (e *LevelParseError) Error() string {
	return fmt.Sprintf("unrecognized level '%s', valid levels: %v", e.Input, e.ValidLevels)
}

// PatternMatchError reports that no sub-pattern recognized the line.
type PatternMatchError struct {
	Input              string
	AttemptedPatterns []string
}

func (e *PatternMatchError) Kind() Kind { return KindPatternMatch }

func (e *PatternMatchError) Error() string {
	return fmt.Sprintf("no pattern matched for '%s', tried: %v", e.Input, e.AttemptedPatterns)
}

// FieldExtractionError reports a failure extracting a named field.
type FieldExtractionError struct {
	FieldName    string
	ErrorMessage string
}

func (e *FieldExtractionError) Kind() Kind { return KindFieldExtraction }

func (e *FieldExtractionError) Error() string {
	return fmt.Sprintf("failed to extract field '%s': %s", e.FieldName, e.ErrorMessage)
}

// RegexError reports a compilation or execution failure for a pattern.
type RegexError struct {
	Pattern      string
	ErrorMessage string
}

func (e *RegexError) Kind() Kind { return KindRegex }

func (e *RegexError) Error() string {
	return fmt.Sprintf("regex error for pattern '%s': %s", e.Pattern, e.ErrorMessage)
}

// IOError reports a failure during an I/O operation in the streaming path.
type IOError struct {
	Operation    string
	ErrorMessage string
}

func (e *IOError) Kind() Kind { return KindIO }

func (e *IOError) Error() string {
	return fmt.Sprintf("I/O error during %s: %s", e.Operation, e.ErrorMessage)
}

// ResourceExhausted reports a memory or capacity limit being exceeded.
type ResourceExhausted struct {
	ResourceType string
	Limit        string
}

func (e *ResourceExhausted) Kind() Kind { return KindResourceExhausted }

func (e *ResourceExhausted) Error() string {
	return fmt.Sprintf("resource exhausted: %s exceeded limit %s", e.ResourceType, e.Limit)
}

// ConfigurationError reports an invalid parser or profile configuration.
type ConfigurationError struct {
	Parameter    string
	ErrorMessage string
}

func (e *ConfigurationError) Kind() Kind { return KindConfiguration }

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for '%s': %s", e.Parameter, e.ErrorMessage)
}

// GenericError is the catch-all variant carrying free-form context.
type GenericError struct {
	Message string
	Context map[string]string
}

func (e *GenericError) Kind() Kind { return KindGeneric }

func (e *GenericError) Error() string {
	s := fmt.Sprintf("parse error: %s", e.Message)
	if len(e.Context) > 0 {
		s += fmt.Sprintf(" (context: %v)", e.Context)
	}
	return s
}
