package nvram

import (
	"bytes"
	"encoding/binary"
)

// Region layout. Addresses are cumulative; every field has a fixed width so
// the serialised form never depends on compiler struct packing.
const (
	// formatSentinel marks the region as previously formatted by this system.
	formatSentinel byte = 0xA5

	headerSize     = 3 // flag:1 + crc:2 (little-endian)
	usernameSize   = 20
	passwordSize   = 20
	reservedSize   = 10
	credentialSize = usernameSize + passwordSize + 1 + 1 + reservedSize // 52

	phoneSize   = 15
	messageSize = 51
	slotSize    = phoneSize + messageSize // 66

	// SlotCount is the fixed number of notification slots. Never resized.
	SlotCount = 5

	// RegionSize is the total size of the persistent image.
	RegionSize = headerSize + credentialSize + SlotCount*slotSize // 385
)

// Field bounds exposed to the validation layers above.
const (
	MaxUsernameLen = usernameSize
	MaxPasswordLen = passwordSize
	MaxPhoneLen    = phoneSize - 1   // 14
	MaxMessageLen  = messageSize - 1 // 50
)

// Mode selects the device's alarm behaviour.
type Mode uint8

const (
	// ModeFull drives the siren output and dispatches notifications.
	ModeFull Mode = 0

	// ModeBeep limits the alarm to a short audible chirp.
	ModeBeep Mode = 1
)

// String returns the wire name of the mode ("full" or "beep").
func (m Mode) String() string {
	if m == ModeBeep {
		return "beep"
	}
	return "full"
}

// CredentialRecord is the single enrolled credential plus the mode flag.
// Owned exclusively by the credential vault; the slots layer only reads it
// to re-serialise the combined image.
type CredentialRecord struct {
	Username string
	Password string
	Enrolled bool
	Mode     Mode
}

// Slot is one (phone number, message) notification pair.
// Either field may be empty; an all-empty slot is cleared.
type Slot struct {
	Phone   string
	Message string
}

// ConfigSlots is the fixed array of notification slots.
type ConfigSlots [SlotCount]Slot

// marshalCredentials serialises a credential record into its fixed 52-byte
// form. Over-long strings are truncated at the field bound.
func marshalCredentials(rec CredentialRecord) []byte {
	buf := make([]byte, credentialSize)
	putPadded(buf[0:usernameSize], rec.Username)
	putPadded(buf[usernameSize:usernameSize+passwordSize], rec.Password)
	if rec.Enrolled {
		buf[usernameSize+passwordSize] = 1
	}
	buf[usernameSize+passwordSize+1] = byte(rec.Mode)
	return buf
}

// unmarshalCredentials decodes the fixed 52-byte credential form.
func unmarshalCredentials(buf []byte) CredentialRecord {
	rec := CredentialRecord{
		Username: trimPadded(buf[0:usernameSize]),
		Password: trimPadded(buf[usernameSize : usernameSize+passwordSize]),
		Enrolled: buf[usernameSize+passwordSize] != 0,
	}
	if buf[usernameSize+passwordSize+1] == byte(ModeBeep) {
		rec.Mode = ModeBeep
	}
	return rec
}

// marshalSlots serialises the notification slots into their fixed 330-byte form.
func marshalSlots(slots ConfigSlots) []byte {
	buf := make([]byte, SlotCount*slotSize)
	for i, s := range slots {
		off := i * slotSize
		putPadded(buf[off:off+phoneSize], s.Phone)
		putPadded(buf[off+phoneSize:off+slotSize], s.Message)
	}
	return buf
}

// unmarshalSlots decodes the fixed 330-byte slots form.
func unmarshalSlots(buf []byte) ConfigSlots {
	var slots ConfigSlots
	for i := range slots {
		off := i * slotSize
		slots[i] = Slot{
			Phone:   trimPadded(buf[off : off+phoneSize]),
			Message: trimPadded(buf[off+phoneSize : off+slotSize]),
		}
	}
	return slots
}

// encodeImage assembles the full region image: header, credential record,
// slots. The CRC covers the credential record bytes only.
func encodeImage(rec CredentialRecord, slots ConfigSlots) []byte {
	img := make([]byte, RegionSize)
	cred := marshalCredentials(rec)

	img[0] = formatSentinel
	binary.LittleEndian.PutUint16(img[1:headerSize], checksum(cred))
	copy(img[headerSize:], cred)
	copy(img[headerSize+credentialSize:], marshalSlots(slots))
	return img
}

// decodeImage validates and decodes a full region image.
// Returns ErrCorrupt if the sentinel flag is absent or the stored checksum
// disagrees with one recomputed over the credential bytes.
func decodeImage(img []byte) (CredentialRecord, ConfigSlots, error) {
	if len(img) != RegionSize || img[0] != formatSentinel {
		return CredentialRecord{}, ConfigSlots{}, ErrCorrupt
	}

	cred := img[headerSize : headerSize+credentialSize]
	stored := binary.LittleEndian.Uint16(img[1:headerSize])
	if checksum(cred) != stored {
		return CredentialRecord{}, ConfigSlots{}, ErrCorrupt
	}

	return unmarshalCredentials(cred), unmarshalSlots(img[headerSize+credentialSize:]), nil
}

// putPadded copies s into dst, truncating at len(dst) and zero-padding the rest.
func putPadded(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// trimPadded returns the string content of a zero-padded field.
func trimPadded(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
