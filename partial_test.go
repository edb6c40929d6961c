package romfs

import (
	"bytes"
	"math/rand"
	"testing"
)

// rawDevice is a minimal Device backed by a single sector's worth of
// bytes, just enough to exercise readPartial without pulling in the
// flashsim package (which imports romfs, and so cannot be imported
// from an internal test file here).
type rawDevice struct {
	data []byte
}

func (d *rawDevice) Sectors() int { return 1 }
func (d *rawDevice) Erase(int) error {
	for i := range d.data {
		d.data[i] = 0
	}
	return nil
}
func (d *rawDevice) Program(_ int, buf []byte) error {
	copy(d.data, buf)
	return nil
}
func (d *rawDevice) Read(_ int, off int, buf []byte) error {
	copy(buf, d.data[off:off+len(buf)])
	return nil
}

func TestReadPartialAlignedFastPath(t *testing.T) {
	dev := &rawDevice{data: make([]byte, SectorSize)}
	for i := range dev.data {
		dev.data[i] = byte(i)
	}

	buf := make([]byte, 8)
	if err := readPartial(dev, 0, 16, buf); err != nil {
		t.Fatalf("readPartial: %v", err)
	}
	if !bytes.Equal(buf, dev.data[16:24]) {
		t.Errorf("got %v, want %v", buf, dev.data[16:24])
	}
}

func TestReadPartialUnalignedOffsetAndLength(t *testing.T) {
	dev := &rawDevice{data: make([]byte, SectorSize)}
	for i := range dev.data {
		dev.data[i] = byte(i % 251)
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		off := rng.Intn(SectorSize - 1)
		maxLen := SectorSize - off
		if maxLen > 37 {
			maxLen = 37
		}
		n := rng.Intn(maxLen + 1)

		buf := make([]byte, n)
		if err := readPartial(dev, 0, off, buf); err != nil {
			t.Fatalf("off=%d n=%d: %v", off, n, err)
		}
		if !bytes.Equal(buf, dev.data[off:off+n]) {
			t.Fatalf("off=%d n=%d: got %v, want %v", off, n, buf, dev.data[off:off+n])
		}
	}
}

func TestReadPartialOutOfRange(t *testing.T) {
	dev := &rawDevice{data: make([]byte, SectorSize)}
	buf := make([]byte, 10)
	if err := readPartial(dev, 0, SectorSize-5, buf); err == nil {
		t.Fatal("expected error reading past end of sector")
	}
	if err := readPartial(dev, 0, -1, buf); err == nil {
		t.Fatal("expected error for negative offset")
	}
}

func TestReadPartialZeroLength(t *testing.T) {
	dev := &rawDevice{data: make([]byte, SectorSize)}
	if err := readPartial(dev, 0, 10, nil); err != nil {
		t.Fatalf("zero-length read should succeed: %v", err)
	}
}
