package romfs

import "encoding/binary"

// magic identifies a valid superblock sector.
const magic uint64 = 0xDEAD0BEEF0F00D

// sbHeaderSize is the size in bytes of the fixed header fields that
// precede the file-entry table: magic(8) + epoch(8) + totalSectors(4)
// + crc32(4).
const sbHeaderSize = 24

// fileEntrySize is the on-disk size of one fileEntry record: name(24)
// + startSector(4) + length(4).
const fileEntrySize = NameLen + 4 + 4

// fileEntry is one record of the superblock's fixed-size file table.
// A zero first name byte marks the slot free.
type fileEntry struct {
	name        [NameLen]byte
	startSector int32
	length      int32
}

func (e fileEntry) free() bool {
	return e.name[0] == 0
}

// fileEntryCount returns the number of fileEntry records that fit in
// one sector alongside the header and the packed FAT for the given
// sector count. Deriving it from totalSectors (rather than hard-coding
// it) means resizing the filesystem re-derives a consistent file table
// size in the same sector, per the chosen resolution of the historical
// "fixed vs. derived FILEENTRIES" ambiguity.
func fileEntryCount(totalSectors int) int {
	avail := SectorSize - sbHeaderSize - fatBytes(totalSectors)
	if avail < 0 {
		return 0
	}
	return avail / fileEntrySize
}

// superblock is the in-RAM mirror of the one-sector metadata structure
// that sectors 0..FATCopies-1 hold redundant, epoch-numbered copies of.
type superblock struct {
	epoch        int64
	totalSectors uint32
	entries      []fileEntry
	fat          []byte
}

func newSuperblock(totalSectors uint32) *superblock {
	return &superblock{
		epoch:        0,
		totalSectors: totalSectors,
		entries:      make([]fileEntry, fileEntryCount(int(totalSectors))),
		fat:          make([]byte, fatBytes(int(totalSectors))),
	}
}

// encode serializes the superblock to a SectorSize buffer with the crc
// field computed and filled in.
func (sb *superblock) encode() []byte {
	buf := make([]byte, SectorSize)
	binary.LittleEndian.PutUint64(buf[0:8], magic)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(sb.epoch))
	binary.LittleEndian.PutUint32(buf[16:20], sb.totalSectors)
	// buf[20:24] (crc32) stays zero while computing the checksum.

	off := sbHeaderSize
	for _, e := range sb.entries {
		copy(buf[off:off+NameLen], e.name[:])
		binary.LittleEndian.PutUint32(buf[off+NameLen:off+NameLen+4], uint32(e.startSector))
		binary.LittleEndian.PutUint32(buf[off+NameLen+4:off+fileEntrySize], uint32(e.length))
		off += fileEntrySize
	}
	copy(buf[off:], sb.fat)

	crc := superblockCRC(buf)
	binary.LittleEndian.PutUint32(buf[20:24], crc)
	return buf
}

// decodeSuperblock parses a full sector previously produced by encode.
// It returns ErrCorrupt if the magic does not match or the CRC does
// not validate.
func decodeSuperblock(buf []byte) (*superblock, error) {
	if len(buf) != SectorSize {
		return nil, wrap(ErrCorrupt)
	}
	if binary.LittleEndian.Uint64(buf[0:8]) != magic {
		return nil, wrap(ErrCorrupt)
	}

	gotCRC := binary.LittleEndian.Uint32(buf[20:24])
	check := make([]byte, SectorSize)
	copy(check, buf)
	binary.LittleEndian.PutUint32(check[20:24], 0)
	if superblockCRC(check) != gotCRC {
		return nil, wrap(ErrCorrupt)
	}

	sb := &superblock{
		epoch:        int64(binary.LittleEndian.Uint64(buf[8:16])),
		totalSectors: binary.LittleEndian.Uint32(buf[16:20]),
	}
	n := fileEntryCount(int(sb.totalSectors))
	sb.entries = make([]fileEntry, n)
	off := sbHeaderSize
	for i := 0; i < n; i++ {
		copy(sb.entries[i].name[:], buf[off:off+NameLen])
		sb.entries[i].startSector = int32(binary.LittleEndian.Uint32(buf[off+NameLen : off+NameLen+4]))
		sb.entries[i].length = int32(binary.LittleEndian.Uint32(buf[off+NameLen+4 : off+fileEntrySize]))
		off += fileEntrySize
	}
	sb.fat = make([]byte, fatBytes(int(sb.totalSectors)))
	copy(sb.fat, buf[off:off+len(sb.fat)])

	return sb, nil
}

// peekHeader reads just magic+epoch (the first 16 bytes) from a slot,
// the minimum needed to rank candidate slots without reading and
// validating every slot's full sector.
func peekHeader(dev Device, slot int) (gotMagic uint64, epoch int64, err error) {
	buf := make([]byte, 16)
	if err := dev.Read(slot, 0, buf); err != nil {
		return 0, 0, err
	}
	return binary.LittleEndian.Uint64(buf[0:8]), int64(binary.LittleEndian.Uint64(buf[8:16])), nil
}
