// Package parsererror defines the typed errors raised while reading an
// export file and moving it through the import wizard.
package parsererror

import (
	"fmt"
	"strings"
)

// ParseError represents an error while reading one record of an input.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents a request that cannot be processed as a whole,
// for example an unsupported date format.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// InvalidFormatError represents an error where the input file does not conform
// to the expected shape.
type InvalidFormatError struct {
	FilePath             string
	ExpectedFormat       string
	ActualContentSnippet string // Optional: a snippet of the actual content for debugging
	Msg                  string
	Err                  error
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s. Content snippet: '%s'",
			e.FilePath, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}

// FileTooLargeError is returned before any parsing when an upload exceeds
// the configured size limit.
type FileTooLargeError struct {
	FilePath string
	Size     int64
	Limit    int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file '%s' is too large: %d bytes exceeds the limit of %d MB",
		e.FilePath, e.Size, e.Limit/(1024*1024))
}

// UnresolvedCurrencyError blocks the wizard while currency tokens have
// neither a mapping nor a complete new-currency proposal.
type UnresolvedCurrencyError struct {
	Tokens []string
}

func (e *UnresolvedCurrencyError) Error() string {
	quoted := make([]string, len(e.Tokens))
	for i, t := range e.Tokens {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return fmt.Sprintf("%d unresolved currency token(s): %s", len(e.Tokens), strings.Join(quoted, ", "))
}

// SubmissionError is a failed import submission: either a transport error
// (StatusCode 0) or a non-2xx response from the executor.
type SubmissionError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("import submission failed: %v", e.Err)
	case e.Code != "":
		return fmt.Sprintf("import submission failed (%d %s): %s", e.StatusCode, e.Code, e.Message)
	default:
		return fmt.Sprintf("import submission failed (%d): %s", e.StatusCode, e.Message)
	}
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
