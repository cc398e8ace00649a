package nvram

import (
	"errors"
	"fmt"
	"sync"
)

// Store provides checked access to the persistent credential/config region.
//
// It keeps an in-memory copy of the decoded region; saves re-serialise the
// whole image, recompute the checksum, and only update the in-memory copy
// after the medium accepts the commit. A failed commit therefore leaves
// callers observing the previous state.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Store struct {
	region Region

	mu    sync.Mutex
	cred  CredentialRecord
	slots ConfigSlots
}

// New creates a Store over the given region without touching the medium.
// Most callers want Open, which loads and self-heals.
func New(region Region) *Store {
	return &Store{region: region}
}

// Open loads the region, reformatting it if the contents are corrupt or the
// medium was never formatted. The returned bool reports whether a reformat
// happened (prior credentials and config were lost).
func Open(region Region) (*Store, bool, error) {
	s := New(region)

	err := s.Load()
	if err == nil {
		return s, false, nil
	}
	if !errors.Is(err, ErrCorrupt) {
		return nil, false, err
	}

	// Self-healing policy: corruption degrades to a factory reset rather
	// than surfacing partial data.
	if err := s.Format(); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// Load reads and validates the region, refreshing the in-memory copy.
// Returns ErrCorrupt when the sentinel flag is absent or the checksum over
// the credential record does not match.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	img := make([]byte, RegionSize)
	if err := s.region.Read(img); err != nil {
		return fmt.Errorf("loading region: %w", err)
	}

	cred, slots, err := decodeImage(img)
	if err != nil {
		return err
	}

	s.cred = cred
	s.slots = slots
	return nil
}

// Format erases the region: empty unenrolled credential record, empty
// slots, checksum over the zeroed record, sentinel flag set. Prior contents
// are irrecoverable. A commit failure is reported, never swallowed.
func (s *Store) Format() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(CredentialRecord{}, ConfigSlots{})
}

// SaveCredentials persists a new credential record alongside the current
// slots in one combined commit.
func (s *Store) SaveCredentials(rec CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(rec, s.slots)
}

// SaveSlots persists new notification slots alongside the current
// credential record in one combined commit.
func (s *Store) SaveSlots(slots ConfigSlots) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(s.cred, slots)
}

// persistLocked writes the full image and updates the in-memory copy only
// on success. Callers must hold s.mu.
func (s *Store) persistLocked(cred CredentialRecord, slots ConfigSlots) error {
	img := encodeImage(cred, slots)

	if err := s.region.Write(img); err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}
	if err := s.region.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}

	s.cred = cred
	s.slots = slots
	return nil
}

// Credentials returns the current in-memory credential record.
func (s *Store) Credentials() CredentialRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred
}

// Slots returns the current in-memory notification slots.
func (s *Store) Slots() ConfigSlots {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots
}
