package nvram

import "errors"

// Sentinel errors for persistent region operations.
var (
	// ErrCorrupt indicates the region is unformatted, or the stored checksum
	// disagrees with one recomputed over the credential record. Callers must
	// treat the region as uninitialised and reformat it.
	ErrCorrupt = errors.New("persistent region corrupt or unformatted")

	// ErrCommit indicates the underlying medium refused to accept a write.
	// The in-memory state is left unchanged when this is returned.
	ErrCommit = errors.New("persistent region commit failed")
)
