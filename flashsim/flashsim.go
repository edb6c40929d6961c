// Package flashsim provides host-side stand-ins for the physical NOR
// flash the romfs core is built against. It is deliberately outside
// the core: romfs only ever talks to the romfs.Device interface, and
// these types exist purely to give tests and the host CLI something
// concrete to implement it with, the way a real board would supply a
// driver over SPI flash.
package flashsim

import (
	"fmt"
	"os"

	"github.com/aligator/romfs"
)

// erasedByte is the value every byte of a sector takes on immediately
// after Erase.
const erasedByte = 0x00

// Memory is an in-memory romfs.Device. It tracks, per sector, whether
// the sector has been erased since its last program, and refuses
// Program on a sector that has not been, the same discipline a real
// NOR part enforces (only 1->0 bit transitions without an erase).
type Memory struct {
	sectorSize int
	sectors    [][]byte
	erased     []bool
}

// NewMemory allocates an in-memory device of the given sector count,
// each romfs.SectorSize bytes, starting fully erased.
func NewMemory(sectorCount int) *Memory {
	m := &Memory{
		sectorSize: romfs.SectorSize,
		sectors:    make([][]byte, sectorCount),
		erased:     make([]bool, sectorCount),
	}
	for i := range m.sectors {
		m.sectors[i] = make([]byte, m.sectorSize)
		m.erased[i] = true
	}
	return m
}

func (m *Memory) Sectors() int { return len(m.sectors) }

func (m *Memory) Erase(s int) error {
	if s < 0 || s >= len(m.sectors) {
		return fmt.Errorf("flashsim: sector %d out of range", s)
	}
	for i := range m.sectors[s] {
		m.sectors[s][i] = erasedByte
	}
	m.erased[s] = true
	return nil
}

func (m *Memory) Program(s int, buf []byte) error {
	if s < 0 || s >= len(m.sectors) {
		return fmt.Errorf("flashsim: sector %d out of range", s)
	}
	if len(buf) != m.sectorSize {
		return fmt.Errorf("flashsim: program buffer must be %d bytes, got %d", m.sectorSize, len(buf))
	}
	if !m.erased[s] {
		return fmt.Errorf("flashsim: sector %d programmed without a preceding erase", s)
	}
	copy(m.sectors[s], buf)
	m.erased[s] = false
	return nil
}

func (m *Memory) Read(s, off int, buf []byte) error {
	if s < 0 || s >= len(m.sectors) {
		return fmt.Errorf("flashsim: sector %d out of range", s)
	}
	if off < 0 || off+len(buf) > m.sectorSize {
		return fmt.Errorf("flashsim: read range out of bounds in sector %d", s)
	}
	copy(buf, m.sectors[s][off:off+len(buf)])
	return nil
}

// File is a romfs.Device backed by a regular file on disk, the shape
// the host CLI (cmd/romfsutil) uses to persist an image between runs.
// It enforces the same erase-before-program discipline as Memory.
type File struct {
	f          *os.File
	sectorSize int
	sectors    int
	erased     []bool
}

// OpenFile opens (creating if necessary) a file-backed device of
// sectorCount sectors. An existing file shorter than that is zero-
// extended; sectors are treated as already-programmed (not erased) on
// open, since a persisted image is expected to already hold data.
func OpenFile(path string, sectorCount int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	size := int64(sectorCount) * romfs.SectorSize
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() < size {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &File{
		f:          f,
		sectorSize: romfs.SectorSize,
		sectors:    sectorCount,
		erased:     make([]bool, sectorCount),
	}, nil
}

func (d *File) Close() error { return d.f.Close() }

func (d *File) Sectors() int { return d.sectors }

func (d *File) Erase(s int) error {
	if s < 0 || s >= d.sectors {
		return fmt.Errorf("flashsim: sector %d out of range", s)
	}
	zero := make([]byte, d.sectorSize)
	if _, err := d.f.WriteAt(zero, int64(s)*int64(d.sectorSize)); err != nil {
		return err
	}
	d.erased[s] = true
	return nil
}

func (d *File) Program(s int, buf []byte) error {
	if s < 0 || s >= d.sectors {
		return fmt.Errorf("flashsim: sector %d out of range", s)
	}
	if len(buf) != d.sectorSize {
		return fmt.Errorf("flashsim: program buffer must be %d bytes, got %d", d.sectorSize, len(buf))
	}
	if !d.erased[s] {
		return fmt.Errorf("flashsim: sector %d programmed without a preceding erase", s)
	}
	if _, err := d.f.WriteAt(buf, int64(s)*int64(d.sectorSize)); err != nil {
		return err
	}
	d.erased[s] = false
	return nil
}

func (d *File) Read(s, off int, buf []byte) error {
	if s < 0 || s >= d.sectors {
		return fmt.Errorf("flashsim: sector %d out of range", s)
	}
	if off < 0 || off+len(buf) > d.sectorSize {
		return fmt.Errorf("flashsim: read range out of bounds in sector %d", s)
	}
	_, err := d.f.ReadAt(buf, int64(s)*int64(d.sectorSize)+int64(off))
	return err
}
