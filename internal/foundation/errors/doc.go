// Package errors provides the classified error type used across promptpack.
//
// A ClassifiedError carries a category, a severity and key/value context.
// The CLI adapter maps categories to process exit codes.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryConflict, "conflicting edits").
//		WithContext("document", doc.String()).
//		Fatal().
//		Build()
package errors
