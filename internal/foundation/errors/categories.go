package errors

import "maps"

// ErrorCategory selects the exit code and the log treatment of an error.
type ErrorCategory string

const (
	// Input problems the user can fix.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Reading sources and writing outputs.
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryParse      ErrorCategory = "parse"

	// Edit resolution and patching.
	CategoryConflict ErrorCategory = "conflict"
	CategorySpan     ErrorCategory = "span"
	CategoryRender   ErrorCategory = "render"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity picks the log level when an error is reported.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
)

// ErrorContext is the key/value detail attached to an error.
type ErrorContext map[string]any

// Set stores value under key, allocating the map when c is nil.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

func (c ErrorContext) Get(key string) (any, bool) {
	value, ok := c[key]
	return value, ok
}

// Merge returns a new context holding both sets of keys; other wins.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	result := make(ErrorContext, len(c)+len(other))
	maps.Copy(result, c)
	maps.Copy(result, other)
	return result
}
