package settings

import (
	"fmt"
	"strings"

	"github.com/ashdown-labs/sentinel-core/internal/nvram"
)

// Invalidator revokes the active session. Satisfied by *auth.Session.
type Invalidator interface {
	Invalidate()
}

// Entry is one phone/message pair submitted by the portal.
type Entry struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Settings exposes the device configuration operations.
type Settings struct {
	store   *nvram.Store
	session Invalidator
}

// New returns a Settings facade over the given store. The session is
// consulted only on factory reset and may be nil in tests.
func New(store *nvram.Store, session Invalidator) *Settings {
	return &Settings{store: store, session: session}
}

// SaveSlots persists the submitted entries into the five notification
// slots. Entries beyond the fifth are ignored, over-long fields are
// truncated to the on-medium capacity, and missing entries clear their
// slot. Fields are cut at the first NUL byte, since the zero-padded
// records would drop anything past it on reload anyway.
func (s *Settings) SaveSlots(entries []Entry) error {
	var slots nvram.ConfigSlots
	for i := 0; i < nvram.SlotCount && i < len(entries); i++ {
		phone := clipField(entries[i].Phone, nvram.MaxPhoneLen)
		message := clipField(entries[i].Message, nvram.MaxMessageLen)
		slots[i] = nvram.Slot{Phone: phone, Message: message}
	}
	if err := s.store.SaveSlots(slots); err != nil {
		return fmt.Errorf("save slots: %w", err)
	}
	return nil
}

// clipField truncates s to max bytes and cuts it at the first NUL.
func clipField(s string, max int) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	if len(s) > max {
		s = s[:max]
	}
	return s
}

// Slots returns the current notification slots.
func (s *Settings) Slots() nvram.ConfigSlots {
	return s.store.Slots()
}

// SetMode persists the alarm mode flag.
func (s *Settings) SetMode(mode nvram.Mode) error {
	rec := s.store.Credentials()
	rec.Mode = mode
	if err := s.store.SaveCredentials(rec); err != nil {
		return fmt.Errorf("set mode: %w", err)
	}
	return nil
}

// Mode returns the current alarm mode.
func (s *Settings) Mode() nvram.Mode {
	return s.store.Credentials().Mode
}

// ResetAll restores factory defaults: the stored image is rewritten
// blank and the active session, if any, is revoked.
func (s *Settings) ResetAll() error {
	if err := s.store.Format(); err != nil {
		return fmt.Errorf("factory reset: %w", err)
	}
	if s.session != nil {
		s.session.Invalidate()
	}
	return nil
}
