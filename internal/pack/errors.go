package pack

import (
	"context"
	"errors"

	"git.home.luguber.info/inful/promptpack/internal/edits"
	ferrors "git.home.luguber.info/inful/promptpack/internal/foundation/errors"
)

// classifyEditError maps resolver and patcher failures onto classified errors.
func classifyEditError(err error) error {
	var conflict *edits.ConflictError
	if errors.As(err, &conflict) {
		return ferrors.WrapError(err, ferrors.CategoryConflict, "overlapping edits").
			Fatal().
			WithContext("document", conflict.Doc.String()).
			WithContext("kept", conflict.Kept.String()).
			WithContext("rejected", conflict.Rejected.String()).
			Build()
	}

	var span *edits.SpanError
	if errors.As(err, &span) {
		return ferrors.WrapError(err, ferrors.CategorySpan, "invalid edit span").
			Fatal().
			WithContext("document", span.Doc.String()).
			WithContext("span", span.Span.String()).
			WithContext("reason", span.Reason).
			Build()
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to patch documents").Build()
}

// isEditError reports whether err aborted a run because edits did not fit.
func isEditError(err error) bool {
	ce, ok := ferrors.AsClassified(err)
	if !ok {
		return false
	}
	return ce.Category() == ferrors.CategoryConflict || ce.Category() == ferrors.CategorySpan
}
