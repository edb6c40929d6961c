package romfs

import "testing"

func TestSuperblockCRCDeterministic(t *testing.T) {
	buf := make([]byte, SectorSize)
	for i := range buf {
		buf[i] = byte(i)
	}
	a := superblockCRC(buf)
	b := superblockCRC(buf)
	if a != b {
		t.Fatalf("crc not deterministic: %#x != %#x", a, b)
	}
}

func TestSuperblockCRCDetectsChange(t *testing.T) {
	buf := make([]byte, SectorSize)
	base := superblockCRC(buf)

	buf[100] ^= 0xFF
	changed := superblockCRC(buf)
	if base == changed {
		t.Fatal("crc did not change after flipping a byte")
	}
}

func TestSuperblockCRCAllZero(t *testing.T) {
	// A fully zeroed buffer must not hash to zero, since the finalizer
	// XORs in 0xFF000000 unconditionally; this guards against an
	// accidental all-zero sector passing CRC validation.
	buf := make([]byte, SectorSize)
	if superblockCRC(buf) == 0 {
		t.Fatal("zero buffer must not produce a zero crc")
	}
}
