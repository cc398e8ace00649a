package nvram

// CRC-16 parameters: reflected polynomial 0xA001, initial value 0xFFFF.
// The pair is fixed; deployed regions are only readable with this exact
// polynomial and seed.
const (
	crcPoly uint16 = 0xA001
	crcInit uint16 = 0xFFFF
)

// checksum computes the CRC-16 of data, byte by byte.
func checksum(data []byte) uint16 {
	crc := crcInit
	for _, b := range data {
		crc ^= uint16(b)
		for _i := 0; _i < 8; _i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ crcPoly
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
