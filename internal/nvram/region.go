package nvram

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// filePermissions is the permission mode for the backing file.
const filePermissions = 0600

// Region is a byte-addressable non-volatile medium holding one full image.
// Read and Write operate on the whole region; Commit flushes buffered
// writes to the medium. Implementations must tolerate a freshly created
// (all-zero) region.
type Region interface {
	// Read fills p from the start of the region. A region shorter than p
	// (fresh medium) is zero-extended, not an error.
	Read(p []byte) error

	// Write replaces the region contents from the start.
	Write(p []byte) error

	// Commit flushes written data to the medium.
	Commit() error
}

// FileRegion is a Region backed by a regular file, the deployment medium.
type FileRegion struct {
	f *os.File
}

// OpenFileRegion opens (or creates) the file backing the persistent region.
// The parent directory is created if missing.
func OpenFileRegion(path string) (*FileRegion, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, filePermissions)
	if err != nil {
		return nil, fmt.Errorf("opening storage file: %w", err)
	}

	return &FileRegion{f: f}, nil
}

// Read fills p from the start of the file, zero-extending past EOF.
func (r *FileRegion) Read(p []byte) error {
	n, err := r.f.ReadAt(p, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading region: %w", err)
	}
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return nil
}

// Write replaces the file contents from the start.
func (r *FileRegion) Write(p []byte) error {
	if _, err := r.f.WriteAt(p, 0); err != nil {
		return fmt.Errorf("writing region: %w", err)
	}
	return nil
}

// Commit fsyncs the file.
func (r *FileRegion) Commit() error {
	if err := r.f.Sync(); err != nil {
		return fmt.Errorf("syncing region: %w", err)
	}
	return nil
}

// Close releases the backing file.
func (r *FileRegion) Close() error {
	return r.f.Close()
}

// MemRegion is an in-memory Region used by tests and by deployments without
// persistent storage. The commit error is injectable to exercise failure
// paths.
type MemRegion struct {
	mu        sync.Mutex
	buf       []byte
	commitErr error
}

// NewMemRegion creates a zeroed in-memory region of the standard size.
func NewMemRegion() *MemRegion {
	return &MemRegion{buf: make([]byte, RegionSize)}
}

// Read copies the region contents into p, zero-extending if needed.
func (r *MemRegion) Read(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := copy(p, r.buf)
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return nil
}

// Write replaces the region contents.
func (r *MemRegion) Write(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(p) > len(r.buf) {
		r.buf = make([]byte, len(p))
	}
	copy(r.buf, p)
	return nil
}

// Commit returns the injected commit error, if any.
func (r *MemRegion) Commit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commitErr
}

// SetCommitError makes subsequent Commit calls fail with err (nil to clear).
func (r *MemRegion) SetCommitError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commitErr = err
}

// FlipBit inverts a single bit in the stored image, simulating medium decay.
func (r *MemRegion) FlipBit(offset int, bit uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[offset] ^= 1 << (bit % 8)
}

// Snapshot returns a copy of the raw region contents.
func (r *MemRegion) Snapshot() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, len(r.buf))
	copy(out, r.buf)
	return out
}
