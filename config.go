package romfs

import (
	"log/slog"
	"math/rand"
)

// Fixed format parameters (spec.md §6). These are not configurable per
// instance: changing them changes the on-disk contract.
const (
	SectorSize = 4096
	FATCopies  = 8
	NameLen    = 24

	// MaxSectors bounds totalSectors well under the 12-bit FAT's 4096-
	// sector addressing limit: the packed FAT for totalSectors has to
	// fit in the superblock sector alongside its header and at least
	// one file entry (fileEntryCount(totalSectors) > 0), which stops
	// holding past roughly 2693 sectors. 2048 keeps a comfortable
	// margin and a round image size.
	MaxSectors = 2048
)

// Option configures a Filesystem at construction time.
type Option func(*Filesystem)

// WithLogger attaches a structured logger for mount/flush/umount
// transitions and corruption/exhaustion detection. The core never logs
// on the byte-copy hot path. A nil logger (the default) discards.
func WithLogger(logger *slog.Logger) Option {
	return func(fs *Filesystem) {
		if logger != nil {
			fs.log = logger
		}
	}
}

// WithRand injects the random source the free-sector allocator uses,
// for reproducible tests. Defaults to a per-Filesystem source seeded
// from the current time in New.
func WithRand(rng *rand.Rand) Option {
	return func(fs *Filesystem) {
		if rng != nil {
			fs.rng = rng
		}
	}
}

// WithoutRelocation disables the copy-on-write relocation that, by
// default, moves an existing data sector to a fresh free sector before
// overwriting it in place. Disabling it falls back to the simpler
// always-in-place overwrite.
func WithoutRelocation() Option {
	return func(fs *Filesystem) {
		fs.relocate = false
	}
}
