package romfs

import "hash/crc32"

// crcFinalXOR, together with the zero seed in superblockCRC, gives this
// format's CRC32 its non-standard framing: the usual CRC-32 (zlib/IEEE) algorithm seeds the register
// with 0xFFFFFFFF and XORs the result with 0xFFFFFFFF. This format
// instead seeds with 0 and XORs the result with only the top byte,
// 0xFF000000. The reflected table itself is the ordinary IEEE 802.3
// table for polynomial 0xEDB88320, which crc32.IEEETable already is.
const crcFinalXOR = 0xFF000000

// superblockCRC computes this format's CRC32 over buf, which must be a
// full superblock sector with its crc field already zeroed.
func superblockCRC(buf []byte) uint32 {
	crc := uint32(0)
	table := crc32.IEEETable
	for _, b := range buf {
		crc = table[byte(crc)^b] ^ (crc >> 8)
	}
	return crc ^ crcFinalXOR
}
