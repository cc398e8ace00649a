// Package nvram implements the checksum-guarded persistent record layout
// holding the device's enrolled credential and notification slots.
//
// The on-medium image is a fixed 385-byte region:
//
//	[Header{flag:1, crc:2 LE}][CredentialRecord:52][5 × ConfigSlot:66]
//
// The header flag must equal the format sentinel for the region to be
// considered formatted, and the CRC must match a CRC-16 (poly 0xA001,
// init 0xFFFF) recomputed over the serialised credential record. The
// notification slots are deliberately outside the checksum.
//
// Serialisation uses an explicit byte codec with fixed field widths, so the
// checksum is reproducible independent of host struct layout.
//
// Corruption handling is self-healing: Open treats a bad flag or checksum
// as "uninitialised" and reformats the region, trading data loss for
// availability.
package nvram
