package discovery

import "errors"

var (
	// ErrRootNotFound indicates a requested root path does not exist.
	ErrRootNotFound = errors.New("discovery root not found")

	// ErrWalkFailed indicates filesystem traversal of a root failed.
	ErrWalkFailed = errors.New("directory walk failed")

	// ErrInvalidPattern indicates an include or exclude glob does not compile.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)
