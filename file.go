package romfs

import (
	"io"
	"log/slog"
)

// fileHandleFs is the narrow capability File calls back into the
// owning Filesystem through (spec.md §9's "friend" note): a back
// reference plus a small set of operations, never ambient global
// state.
type fileHandleFs interface {
	getFAT(s int) int
	setFAT(s, v int)
	eraseSector(s int) error
	programSector(s int, buf []byte) error
	readPartial(s, off int, buf []byte) error
	allocSector() (int, error)
	getFileEntry(idx int) fileEntry
	setFileEntry(idx int, e fileEntry)
	flushSuperblock() error
	relocationEnabled() bool
	handleLogger() *slog.Logger
}

// File is a single open handle: independent read and write cursors, a
// one-sector dirty write buffer, and mode flags. It is not safe for
// concurrent use by more than one goroutine, matching the single-
// logical-owner resource model of the whole filesystem.
type File struct {
	fs       fileHandleFs
	entryIdx int
	name     string

	canRead  bool
	canWrite bool
	append   bool

	entry fileEntry

	readPos  int64
	writePos int64

	curReadSector    int
	curReadSectorOff int64

	curWriteSector    int
	curWriteSectorOff int64
	data              [SectorSize]byte
	dirty             bool

	closed bool
}

// Name returns the name the handle was opened with.
func (f *File) Name() string { return f.name }

// Tell returns the current read cursor position.
func (f *File) Tell() int64 { return f.readPos }

// Size returns the file's current length in bytes.
func (f *File) Size() int64 { return int64(f.entry.length) }

// Eof reports whether the read cursor is at or past the end of the
// file.
func (f *File) Eof() bool { return f.readPos >= int64(f.entry.length) }

// Seek repositions the read cursor (and, outside append mode, the write
// cursor too) per spec.md §4.8. It is rejected in pure append mode ("a");
// in "a+" only the read cursor moves, since writes always go to the end.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.append && !f.canRead {
		return 0, wrap(ErrBadArgument)
	}

	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = f.readPos
	case io.SeekEnd:
		base = int64(f.entry.length)
	default:
		return 0, wrap(ErrBadArgument)
	}

	target := base + offset
	if target < 0 {
		return 0, wrap(ErrBadArgument)
	}

	f.readPos = target
	if !f.append {
		f.writePos = target
	}
	return target, nil
}

// GetByte reads a single byte, returning io.EOF at end of file.
func (f *File) GetByte() (byte, error) {
	var b [1]byte
	n, err := f.Read(b[:])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return b[0], nil
}

// PutByte writes a single byte.
func (f *File) PutByte(b byte) error {
	_, err := f.Write([]byte{b})
	return err
}

// Read implements io.Reader. It clips to the file's current length,
// serves from the in-RAM write buffer when the read and write cursors
// share the same sector (read-after-write consistency within this
// handle), and otherwise goes through the partial-read alignment
// helper.
func (f *File) Read(p []byte) (int, error) {
	if !f.canRead {
		return 0, wrap(ErrBadArgument)
	}
	if len(p) == 0 {
		return 0, nil
	}

	avail := int64(f.entry.length) - f.readPos
	if avail <= 0 {
		return 0, io.EOF
	}
	want := int64(len(p))
	if want > avail {
		want = avail
	}

	read := 0
	for int64(read) < want {
		if f.curReadSector < 0 || f.readPos < f.curReadSectorOff || f.readPos >= f.curReadSectorOff+SectorSize {
			if err := f.locateReadSector(f.readPos); err != nil {
				return read, err
			}
		}

		sectorOff := int(f.readPos - f.curReadSectorOff)
		chunk := SectorSize - sectorOff
		if remaining := int(want) - read; chunk > remaining {
			chunk = remaining
		}

		if f.curWriteSector >= 0 && f.curReadSector == f.curWriteSector {
			copy(p[read:read+chunk], f.data[sectorOff:sectorOff+chunk])
		} else if err := f.fs.readPartial(f.curReadSector, sectorOff, p[read:read+chunk]); err != nil {
			return read, err
		}

		read += chunk
		f.readPos += int64(chunk)
	}

	if !f.append {
		f.writePos = f.readPos
	}
	return read, nil
}

// locateReadSector walks the FAT chain from the file's start sector to
// the sector containing byte offset pos, which must be < file length.
// A chain that ends before reaching pos means the chain is shorter
// than the length recorded in the file entry, a corruption rather than
// a condition to paper over with a short read.
func (f *File) locateReadSector(pos int64) error {
	targetHop := pos / SectorSize
	sector := int(f.entry.startSector)
	for hop := int64(0); hop < targetHop; hop++ {
		next := f.fs.getFAT(sector)
		if next == fatEOF || next < 0 {
			f.fs.handleLogger().Warn("file chain shorter than its length", "file", f.name, "pos", pos)
			return wrap(ErrCorrupt)
		}
		sector = next
	}
	f.curReadSector = sector
	f.curReadSectorOff = targetHop * SectorSize
	return nil
}

// Write implements io.Writer with the engine described in spec.md
// §4.6: align to the sector containing the write cursor (extending the
// chain, or relocating the sector being overwritten, as needed), copy
// into the dirty buffer, and repeat across sector boundaries.
func (f *File) Write(p []byte) (int, error) {
	if !f.canWrite {
		return 0, wrap(ErrBadArgument)
	}
	if f.append {
		f.writePos = int64(f.entry.length)
	}

	written := 0
	for written < len(p) {
		if f.curWriteSector < 0 || f.writePos < f.curWriteSectorOff || f.writePos >= f.curWriteSectorOff+SectorSize {
			if err := f.flushWriteBuffer(); err != nil {
				return written, err
			}
			if err := f.locateWriteSector(f.writePos); err != nil {
				return written, err
			}
		}

		sectorOff := int(f.writePos - f.curWriteSectorOff)
		n := copy(f.data[sectorOff:], p[written:])
		f.dirty = true
		f.writePos += int64(n)
		written += n

		if f.writePos > int64(f.entry.length) {
			f.entry.length = int32(f.writePos)
			f.fs.setFileEntry(f.entryIdx, f.entry)
		}
		if !f.append {
			f.readPos = f.writePos
		}
	}
	return written, nil
}

// locateWriteSector walks (and, where needed, extends or relocates)
// the FAT chain so that curWriteSector/curWriteSectorOff identify the
// sector containing byte offset pos, with its current contents loaded
// into data.
func (f *File) locateWriteSector(pos int64) error {
	targetHop := pos / SectorSize
	sector := int(f.entry.startSector)
	prev := -1
	justExtended := false

	for hop := int64(0); hop < targetHop; hop++ {
		next := f.fs.getFAT(sector)
		justExtended = next == fatEOF || next < 0
		if justExtended {
			extended, err := f.extendChain(sector)
			if err != nil {
				return err
			}
			next = extended
		}
		prev = sector
		sector = next
	}

	// Only relocate a sector that genuinely already held data for this
	// position (an overwrite into an existing tail): a sector the loop
	// above just allocated to extend the chain is already fresh, and so
	// is the first sector of a file that has never been written past,
	// even though it was allocated (and zeroed) at creation.
	hasExistingData := targetHop*SectorSize < int64(f.entry.length)
	if f.fs.relocationEnabled() && !justExtended && hasExistingData {
		if relocated, ok, err := f.relocate(prev, sector); err != nil {
			return err
		} else if ok {
			sector = relocated
		}
	}

	f.curWriteSector = sector
	f.curWriteSectorOff = targetHop * SectorSize
	if err := f.fs.readPartial(sector, 0, f.data[:]); err != nil {
		return err
	}
	f.dirty = false

	if int64(f.entry.length) < f.curWriteSectorOff {
		f.entry.length = int32(f.curWriteSectorOff)
		f.fs.setFileEntry(f.entryIdx, f.entry)
	}
	return nil
}

// extendChain allocates a fresh, zero-filled, EOF-terminated sector and
// links it after sector, returning the new sector index.
func (f *File) extendChain(sector int) (int, error) {
	newSector, err := f.fs.allocSector()
	if err != nil {
		f.fs.handleLogger().Warn("device exhausted extending file chain", "file", f.name, "sector", sector, "err", err)
		return -1, err
	}
	f.fs.setFAT(sector, newSector)
	f.fs.setFAT(newSector, fatEOF)

	var zero [SectorSize]byte
	if err := f.fs.eraseSector(newSector); err != nil {
		return -1, err
	}
	if err := f.fs.programSector(newSector, zero[:]); err != nil {
		return -1, err
	}
	return newSector, nil
}

// relocate implements the copy-on-write refinement (spec.md §4.6/§9,
// default-on per SPEC_FULL.md §5): move sector's content to a fresh
// free sector, relink the chain around it, and free the original. It
// is a no-op (ok=false) when no free sector is available, falling back
// to in-place modification of sector.
func (f *File) relocate(prev, sector int) (int, bool, error) {
	newSector, err := f.fs.allocSector()
	if err != nil {
		f.fs.handleLogger().Debug("relocation skipped, no free sector available", "file", f.name, "sector", sector, "err", err)
		return sector, false, nil
	}

	var content [SectorSize]byte
	if err := f.fs.readPartial(sector, 0, content[:]); err != nil {
		return -1, false, err
	}
	if err := f.fs.eraseSector(newSector); err != nil {
		return -1, false, err
	}
	if err := f.fs.programSector(newSector, content[:]); err != nil {
		return -1, false, err
	}

	oldNext := f.fs.getFAT(sector)
	f.fs.setFAT(newSector, oldNext)
	if prev < 0 {
		f.entry.startSector = int32(newSector)
		f.fs.setFileEntry(f.entryIdx, f.entry)
	} else {
		f.fs.setFAT(prev, newSector)
	}
	f.fs.setFAT(sector, 0)
	if f.curReadSector == sector {
		// Keep the read cache off the sector just freed so later reads
		// see this handle's writes to the copy.
		f.curReadSector = newSector
	}
	return newSector, true, nil
}

// flushWriteBuffer programs the dirty buffer to its current sector, if
// any.
func (f *File) flushWriteBuffer() error {
	if !f.dirty || f.curWriteSector < 0 {
		return nil
	}
	if err := f.fs.eraseSector(f.curWriteSector); err != nil {
		return err
	}
	if err := f.fs.programSector(f.curWriteSector, f.data[:]); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

// Sync flushes the dirty write buffer and the filesystem's superblock,
// persisting length and FAT changes. It is a no-op for a handle that
// is not writable.
func (f *File) Sync() error {
	if !f.canWrite {
		return nil
	}
	if err := f.flushWriteBuffer(); err != nil {
		return err
	}
	return f.fs.flushSuperblock()
}

// Close flushes the dirty write buffer, if any, but unlike Sync does
// not flush the superblock: FAT/length changes only become durable
// across a remount via a later Sync or Umount.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if !f.canWrite {
		return nil
	}
	return f.flushWriteBuffer()
}
