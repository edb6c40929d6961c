package romfs

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Filesystem is a mounted (or mountable) instance of the packed-FAT
// flash filesystem over a single Device. It owns the in-RAM superblock
// and is not safe for concurrent use, matching the single-logical-
// owner resource model this format assumes.
type Filesystem struct {
	dev          Device
	totalSectors int

	log      *slog.Logger
	rng      *rand.Rand
	relocate bool

	mounted bool
	dirty   bool
	sb      *superblock
}

// New constructs a Filesystem over dev. totalSectors is only consulted
// by Mkfs; Mount always adopts the totalSectors recorded in whichever
// superblock copy it selects.
func New(dev Device, totalSectors int, opts ...Option) *Filesystem {
	fs := &Filesystem{
		dev:          dev,
		totalSectors: totalSectors,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		relocate:     true,
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// Mkfs initializes a fresh image. Requires the filesystem to be
// unmounted; does not itself mount the result.
func (fs *Filesystem) Mkfs() error {
	if fs.mounted {
		return wrap(ErrAlreadyMounted)
	}
	if fs.totalSectors <= FATCopies || fs.totalSectors > MaxSectors {
		return wrap(ErrBadArgument)
	}
	if fileEntryCount(fs.totalSectors) <= 0 {
		// The packed FAT alone would leave no room in the superblock
		// sector for even one file entry.
		return wrap(ErrBadArgument)
	}

	sb := newSuperblock(uint32(fs.totalSectors))
	for i := 0; i < FATCopies; i++ {
		setFAT(sb.fat, fs.totalSectors, i, fatEOF)
	}

	sb.epoch = 1
	buf := sb.encode()
	for slot := 0; slot < FATCopies; slot++ {
		if err := fs.dev.Erase(slot); err != nil {
			return wrapCause(err, ErrIOFailure)
		}
		if err := fs.dev.Program(slot, buf); err != nil {
			return wrapCause(err, ErrIOFailure)
		}
	}

	// All FATCopies slots now tie at epoch 1. Run one extra flush-like
	// write so mount has an unambiguous newest copy to select, instead
	// of leaving every slot tied.
	sb.epoch = 2
	buf = sb.encode()
	if err := fs.dev.Erase(0); err != nil {
		return wrapCause(err, ErrIOFailure)
	}
	if err := fs.dev.Program(0, buf); err != nil {
		return wrapCause(err, ErrIOFailure)
	}

	fs.log.Info("mkfs", "sectors", fs.totalSectors, "fileEntries", len(sb.entries))
	return nil
}

// Mount scans the FATCopies superblock slots and adopts the one with
// the highest epoch among those whose magic matches and whose CRC
// validates.
func (fs *Filesystem) Mount() error {
	if fs.mounted {
		return wrap(ErrAlreadyMounted)
	}

	var best *superblock
	bestSlot := -1
	anyMagic := false

	for slot := 0; slot < FATCopies; slot++ {
		m, _, err := peekHeader(fs.dev, slot)
		if err != nil {
			return wrapCause(err, ErrIOFailure)
		}
		if m != magic {
			continue
		}
		anyMagic = true

		full := make([]byte, SectorSize)
		if err := fs.dev.Read(slot, 0, full); err != nil {
			return wrapCause(err, ErrIOFailure)
		}
		candidate, err := decodeSuperblock(full)
		if err != nil {
			// CRC failed for this slot; keep scanning other slots
			// instead of failing mount outright on the first
			// torn copy found.
			fs.log.Warn("superblock slot failed validation", "slot", slot, "err", err)
			continue
		}
		if best == nil || candidate.epoch > best.epoch {
			best = candidate
			bestSlot = slot
		}
	}

	if best == nil {
		if anyMagic {
			return wrap(ErrCorrupt)
		}
		return wrap(ErrNotFound)
	}

	fs.sb = best
	fs.totalSectors = int(best.totalSectors)
	fs.mounted = true
	fs.dirty = false
	fs.log.Info("mount", "slot", bestSlot, "epoch", best.epoch)
	return nil
}

// Umount flushes any pending changes and releases the mount.
func (fs *Filesystem) Umount() error {
	if !fs.mounted {
		return wrap(ErrNotMounted)
	}
	if err := fs.flush(); err != nil {
		return err
	}
	fs.mounted = false
	fs.sb = nil
	fs.log.Info("umount")
	return nil
}

// flush writes a new epoch of the superblock into the oldest slot, or
// does nothing if there is nothing dirty to persist.
func (fs *Filesystem) flush() error {
	if !fs.mounted || !fs.dirty {
		return nil
	}

	victim, err := fs.findVictimSlot()
	if err != nil {
		return err
	}

	fs.sb.epoch++
	buf := fs.sb.encode()
	if err := fs.dev.Erase(victim); err != nil {
		return wrapCause(err, ErrIOFailure)
	}
	if err := fs.dev.Program(victim, buf); err != nil {
		return wrapCause(err, ErrIOFailure)
	}
	fs.dirty = false
	fs.log.Debug("flush", "slot", victim, "epoch", fs.sb.epoch)
	return nil
}

// findVictimSlot picks the slot to overwrite on the next flush: a
// bad-magic slot if one exists (cheapest place to write), else the
// slot with the lowest epoch.
func (fs *Filesystem) findVictimSlot() (int, error) {
	badSlot := -1
	oldestSlot := -1
	oldestEpoch := int64(math.MaxInt64)

	for slot := 0; slot < FATCopies; slot++ {
		m, epoch, err := peekHeader(fs.dev, slot)
		if err != nil {
			return -1, wrapCause(err, ErrIOFailure)
		}
		if m != magic {
			if badSlot == -1 {
				badSlot = slot
			}
			continue
		}
		if epoch < oldestEpoch {
			oldestEpoch = epoch
			oldestSlot = slot
		}
	}

	if badSlot != -1 {
		return badSlot, nil
	}
	if oldestSlot == -1 {
		return -1, wrap(ErrCorrupt)
	}
	return oldestSlot, nil
}

// --- file-entry / directory services (spec.md §4.5) ---

func entryNameEqual(e fileEntry, name string) bool {
	nb := []byte(name)
	if len(nb) > NameLen {
		return false
	}
	for i := 0; i < NameLen; i++ {
		var want byte
		if i < len(nb) {
			want = nb[i]
		}
		if e.name[i] != want {
			return false
		}
	}
	return true
}

func entryName(e fileEntry) string {
	n := bytes.IndexByte(e.name[:], 0)
	if n < 0 {
		n = NameLen
	}
	return string(e.name[:n])
}

func (fs *Filesystem) findByName(name string) int {
	for i, e := range fs.sb.entries {
		if e.free() {
			continue
		}
		if entryNameEqual(e, name) {
			return i
		}
	}
	return -1
}

func (fs *Filesystem) createEntry(name string) (int, error) {
	idx := -1
	for i, e := range fs.sb.entries {
		if e.free() {
			idx = i
			break
		}
	}
	if idx == -1 {
		return -1, wrap(ErrNoSpace)
	}

	sector, err := findFreeSector(fs.sb.fat, fs.totalSectors, fs.rng)
	if err != nil {
		return -1, err
	}
	setFAT(fs.sb.fat, fs.totalSectors, sector, fatEOF)

	// Zero the start sector up front, the same as extendChain does for
	// every later sector in the chain, so a sparse write past the first
	// sector leaves it reading back as zeros instead of whatever the
	// device held.
	var zero [SectorSize]byte
	if err := fs.dev.Erase(sector); err != nil {
		return -1, wrapCause(err, ErrIOFailure)
	}
	if err := fs.dev.Program(sector, zero[:]); err != nil {
		return -1, wrapCause(err, ErrIOFailure)
	}

	var nameBuf [NameLen]byte
	copy(nameBuf[:], name)
	fs.sb.entries[idx] = fileEntry{name: nameBuf, startSector: int32(sector), length: 0}
	fs.dirty = true

	if err := fs.flush(); err != nil {
		return -1, err
	}
	return idx, nil
}

func (fs *Filesystem) unlinkIndex(idx int) error {
	cur := int(fs.sb.entries[idx].startSector)
	for {
		next := getFAT(fs.sb.fat, fs.totalSectors, cur)
		setFAT(fs.sb.fat, fs.totalSectors, cur, 0)
		if next == fatEOF || next < 0 {
			break
		}
		cur = next
	}
	fs.sb.entries[idx] = fileEntry{}
	fs.dirty = true
	return fs.flush()
}

// Unlink removes name, freeing its sector chain.
func (fs *Filesystem) Unlink(name string) error {
	if !fs.mounted {
		return wrap(ErrNotMounted)
	}
	idx := fs.findByName(name)
	if idx < 0 {
		return wrap(ErrNotFound)
	}
	return fs.unlinkIndex(idx)
}

// Exists reports whether name has a live file entry.
func (fs *Filesystem) Exists(name string) bool {
	if !fs.mounted {
		return false
	}
	return fs.findByName(name) >= 0
}

// Rename renames oldName to newName. Succeeds only when oldName exists
// and newName does not already exist. The rename is not itself
// flushed; it rides along with the next flush point.
func (fs *Filesystem) Rename(oldName, newName string) error {
	if !fs.mounted {
		return wrap(ErrNotMounted)
	}
	if len(newName) == 0 || len(newName) > NameLen {
		return wrap(ErrBadArgument)
	}
	oldIdx := fs.findByName(oldName)
	if oldIdx < 0 {
		return wrap(ErrNotFound)
	}
	if fs.findByName(newName) >= 0 {
		return wrap(ErrAlreadyExists)
	}

	var nameBuf [NameLen]byte
	copy(nameBuf[:], newName)
	fs.sb.entries[oldIdx].name = nameBuf
	fs.dirty = true
	return nil
}

// Available reports the number of bytes free across unallocated
// sectors.
func (fs *Filesystem) Available() (int64, error) {
	if !fs.mounted {
		return 0, wrap(ErrNotMounted)
	}
	free := 0
	for s := 0; s < fs.totalSectors; s++ {
		if getFAT(fs.sb.fat, fs.totalSectors, s) == 0 {
			free++
		}
	}
	return int64(free) * SectorSize, nil
}

// Size reports the length of name in bytes, or -1 if it does not
// exist.
func (fs *Filesystem) Size(name string) (int64, error) {
	if !fs.mounted {
		return -1, wrap(ErrNotMounted)
	}
	idx := fs.findByName(name)
	if idx < 0 {
		return -1, wrap(ErrNotFound)
	}
	return int64(fs.sb.entries[idx].length), nil
}

// Dirent is one entry returned by ReadDir.
type Dirent struct {
	Name        string
	Size        int64
	StartSector int32
}

// DirCursor is a caller-owned cursor over the file-entry table.
type DirCursor struct {
	next int
}

// OpenDir returns a fresh cursor positioned at the start of the
// directory.
func (fs *Filesystem) OpenDir() *DirCursor {
	return &DirCursor{}
}

// ReadDir advances cur and returns the next live entry, or (nil, nil)
// once the table is exhausted.
func (fs *Filesystem) ReadDir(cur *DirCursor) (*Dirent, error) {
	if !fs.mounted {
		return nil, wrap(ErrNotMounted)
	}
	for cur.next < len(fs.sb.entries) {
		e := fs.sb.entries[cur.next]
		cur.next++
		if e.free() {
			continue
		}
		return &Dirent{Name: entryName(e), Size: int64(e.length), StartSector: e.startSector}, nil
	}
	return nil, nil
}

// CloseDir releases cur. It holds no resources of its own; the method
// exists to keep the opendir/readdir/closedir triple from spec.md §6
// symmetric for callers coming from the C-like API.
func (fs *Filesystem) CloseDir(cur *DirCursor) {}

// --- mode parsing and Open (spec.md §4.6-§4.8) ---

type fileMode struct {
	canRead         bool
	canWrite        bool
	append          bool
	truncate        bool
	createIfMissing bool
}

func parseMode(mode string) (fileMode, error) {
	m := strings.TrimSuffix(mode, "b")
	switch m {
	case "r":
		return fileMode{canRead: true}, nil
	case "r+":
		return fileMode{canRead: true, canWrite: true}, nil
	case "w":
		return fileMode{canWrite: true, truncate: true, createIfMissing: true}, nil
	case "w+":
		return fileMode{canRead: true, canWrite: true, truncate: true, createIfMissing: true}, nil
	case "a":
		return fileMode{canWrite: true, append: true, createIfMissing: true}, nil
	case "a+":
		return fileMode{canRead: true, canWrite: true, append: true, createIfMissing: true}, nil
	default:
		return fileMode{}, wrap(ErrBadArgument)
	}
}

// Open opens name under mode, one of r/r+/w/w+/a/a+ with an optional
// trailing "b" (accepted and ignored).
func (fs *Filesystem) Open(name, mode string) (*File, error) {
	if !fs.mounted {
		return nil, wrap(ErrNotMounted)
	}
	m, err := parseMode(mode)
	if err != nil {
		return nil, err
	}
	if len(name) == 0 || len(name) > NameLen {
		return nil, wrap(ErrBadArgument)
	}

	idx := fs.findByName(name)
	switch {
	case m.truncate:
		if idx >= 0 {
			if err := fs.unlinkIndex(idx); err != nil {
				return nil, err
			}
		}
		idx, err = fs.createEntry(name)
		if err != nil {
			return nil, err
		}
	case idx < 0:
		if !m.createIfMissing {
			return nil, wrap(ErrNotFound)
		}
		idx, err = fs.createEntry(name)
		if err != nil {
			return nil, err
		}
	}

	entry := fs.sb.entries[idx]
	f := &File{
		fs:                fs,
		entryIdx:          idx,
		name:              name,
		canRead:           m.canRead,
		canWrite:          m.canWrite,
		append:            m.append,
		entry:             entry,
		curWriteSector:    -1,
		curWriteSectorOff: -SectorSize,
		curReadSector:     -1,
		curReadSectorOff:  -SectorSize,
	}
	if m.append {
		f.writePos = int64(entry.length)
	}
	return f, nil
}

// --- capability surface consumed by File (spec.md §9 "friend" note) ---
//
// File holds a non-owning back reference to *Filesystem through this
// narrow set of unexported methods rather than through ambient global
// state or full struct access.

func (fs *Filesystem) getFAT(s int) int {
	return getFAT(fs.sb.fat, fs.totalSectors, s)
}

func (fs *Filesystem) setFAT(s, v int) {
	setFAT(fs.sb.fat, fs.totalSectors, s, v)
	fs.dirty = true
}

func (fs *Filesystem) eraseSector(s int) error {
	if err := fs.dev.Erase(s); err != nil {
		return wrapCause(err, ErrIOFailure)
	}
	return nil
}

func (fs *Filesystem) programSector(s int, buf []byte) error {
	if err := fs.dev.Program(s, buf); err != nil {
		return wrapCause(err, ErrIOFailure)
	}
	return nil
}

func (fs *Filesystem) readPartial(s, off int, buf []byte) error {
	return readPartial(fs.dev, s, off, buf)
}

func (fs *Filesystem) allocSector() (int, error) {
	return findFreeSector(fs.sb.fat, fs.totalSectors, fs.rng)
}

func (fs *Filesystem) getFileEntry(idx int) fileEntry {
	return fs.sb.entries[idx]
}

func (fs *Filesystem) setFileEntry(idx int, e fileEntry) {
	fs.sb.entries[idx] = e
	fs.dirty = true
}

func (fs *Filesystem) flushSuperblock() error {
	return fs.flush()
}

func (fs *Filesystem) relocationEnabled() bool {
	return fs.relocate
}

func (fs *Filesystem) handleLogger() *slog.Logger {
	return fs.log
}
