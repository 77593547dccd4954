package nodepath

import "errors"

var (
	// ErrInvalidPathKind reports a node path whose set/unset fields no rendering rule covers.
	ErrInvalidPathKind = errors.New("invalid node path kind")

	// ErrInvalidSegment reports a field value that cannot be used as a single path segment.
	ErrInvalidSegment = errors.New("invalid node path segment")

	// ErrNotMatched reports a raw key that does not conform to a search criteria.
	ErrNotMatched = errors.New("node path not matched")

	// ErrInvalidVersion reports a negative version index.
	ErrInvalidVersion = errors.New("invalid version")
)
