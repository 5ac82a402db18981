package protocol

// CRC-16/CCITT as enforced by HDL BusPro gateways: polynomial 0x1021,
// zero seed, MSB-first, computed with a 256-entry table indexed by the
// high byte of the running remainder XORed with the next input byte.
// The checksum covers the frame from the length byte through the end of
// the data area; the two checksum bytes themselves are excluded.

const crcPolynomial = 0x1021

var crcTable = makeCRCTable()

func makeCRCTable() [256]uint16 {
	var table [256]uint16
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}

func checksum16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		idx := byte(crc>>8) ^ b
		crc = (crc << 8) ^ crcTable[idx]
	}
	return crc
}

// Checksum computes the frame checksum over data and returns the two
// checksum bytes in wire order (big-endian: hi first).
func Checksum(data []byte) (hi, lo byte) {
	crc := checksum16(data)
	return byte(crc >> 8), byte(crc)
}
