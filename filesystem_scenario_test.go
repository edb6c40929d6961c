package romfs_test

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aligator/romfs"
	"github.com/aligator/romfs/flashsim"
)

func newMountedFS(t *testing.T, sectors int) *romfs.Filesystem {
	t.Helper()
	dev := flashsim.NewMemory(sectors)
	fs := romfs.New(dev, sectors, romfs.WithRand(rand.New(rand.NewSource(1))))
	require.NoError(t, fs.Mkfs())
	require.NoError(t, fs.Mount())
	t.Cleanup(func() { fs.Umount() })
	return fs
}

// Scenario 1 (spec.md §8): pattern write, a seeked overwrite near the
// start, then a read spanning both.
func TestScenarioPatternWriteAndOverwrite(t *testing.T) {
	fs := newMountedFS(t, 768)

	f, err := fs.Open("test.bin", "w")
	require.NoError(t, err)

	pattern := "0123456789abcdefghij"
	for i := 0; i < 400; i++ {
		_, err := f.Write([]byte(pattern))
		require.NoError(t, err)
	}
	_, err = f.Seek(12, io.SeekStart)
	require.NoError(t, err)
	_, err = f.Write([]byte("Earle Is At 12"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := fs.Open("test.bin", "r")
	require.NoError(t, err)
	buf := make([]byte, 1000)
	n, err := io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, 1000, n)

	// Bytes [12,26) are the overwrite; everything after resumes the
	// cyclic 20-byte pattern at the rotation it would have reached by
	// absolute offset 26 (26 mod 20 == 6).
	want := "0123456789ab" + "Earle Is At 12" + "6789abcdefghij0123456789abcdefghij01"
	require.Equal(t, want, string(buf[:len(want)]))
}

// Scenario 2 (spec.md §8): a write spanning a 4 KiB sector boundary.
func TestScenarioWriteSpanningSectorBoundary(t *testing.T) {
	fs := newMountedFS(t, 768)

	f, err := fs.Open("test.bin", "w")
	require.NoError(t, err)
	pattern := bytes.Repeat([]byte("0123456789abcdefghij"), 400)
	_, err = f.Write(pattern)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rw, err := fs.Open("test.bin", "r+")
	require.NoError(t, err)
	_, err = rw.Seek(4080, io.SeekStart)
	require.NoError(t, err)
	_, err = rw.Write([]byte("I Am Spanning A 4K Block!"))
	require.NoError(t, err)

	_, err = rw.Seek(4070, io.SeekStart)
	require.NoError(t, err)
	buf := make([]byte, 1000)
	n, err := io.ReadFull(rw, buf)
	require.NoError(t, err)
	require.Equal(t, 1000, n)
	require.NoError(t, rw.Close())

	want := pattern[4070:4080]
	want = append(append([]byte{}, want...), []byte("I Am Spanning A 4K Block!")...)
	want = append(want, pattern[4105:4105+(1000-len(want))]...)
	require.Equal(t, want, buf)
}

// Scenario 3 (spec.md §8): a sparse hole reads back as zero.
func TestScenarioSparseHole(t *testing.T) {
	fs := newMountedFS(t, 768)

	f, err := fs.Open("expand.bin", "w")
	require.NoError(t, err)
	_, err = f.Seek(5000, io.SeekStart)
	require.NoError(t, err)
	_, err = f.Write([]byte("@10,000\x00"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := fs.Open("expand.bin", "r")
	require.NoError(t, err)

	var out []byte
	for {
		b, err := r.GetByte()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		out = append(out, b)
	}
	require.True(t, r.Eof())

	require.Len(t, out, 5008)
	for i := 0; i < 5000; i++ {
		require.Equalf(t, byte(0), out[i], "byte %d should be zero", i)
	}
	require.Equal(t, "@10,000\x00", string(out[5000:5008]))

	size, err := fs.Size("expand.bin")
	require.NoError(t, err)
	require.Equal(t, int64(5008), size)
}

// Scenario 4 (spec.md §8): rename semantics.
func TestScenarioRename(t *testing.T) {
	fs := newMountedFS(t, 768)

	f, err := fs.Open("newfile.txt", "w")
	require.NoError(t, err)
	_, err = f.Write([]byte("four score and seven years ago"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, fs.Rename("newfile.txt", "gettysburg.txt"))

	require.False(t, fs.Exists("newfile.txt"))
	require.True(t, fs.Exists("gettysburg.txt"))

	size, err := fs.Size("gettysburg.txt")
	require.NoError(t, err)
	require.Equal(t, int64(len("four score and seven years ago")), size)
}

// Scenario 5 (spec.md §8): survives umount/mount and enumerates the
// live file set.
func TestScenarioSurvivesRemount(t *testing.T) {
	dev := flashsim.NewMemory(768)
	fs := romfs.New(dev, 768, romfs.WithRand(rand.New(rand.NewSource(2))))
	require.NoError(t, fs.Mkfs())
	require.NoError(t, fs.Mount())

	f, err := fs.Open("a.txt", "w")
	require.NoError(t, err)
	_, err = f.Write([]byte("aaa"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	g, err := fs.Open("b.txt", "w")
	require.NoError(t, err)
	_, err = g.Write([]byte("bbbbb"))
	require.NoError(t, err)
	require.NoError(t, g.Close())

	require.NoError(t, fs.Umount())
	require.NoError(t, fs.Mount())
	defer fs.Umount()

	names := map[string]int64{}
	cur := fs.OpenDir()
	for {
		d, err := fs.ReadDir(cur)
		require.NoError(t, err)
		if d == nil {
			break
		}
		names[d.Name] = d.Size
	}
	require.Equal(t, map[string]int64{"a.txt": 3, "b.txt": 5}, names)
}

// Scenario 6 (spec.md §8): byte-by-byte round trip through a write+
// seek+read cycle.
func TestScenarioByteByByteRoundTrip(t *testing.T) {
	fs := newMountedFS(t, 768)

	f, err := fs.Open("b", "w+")
	require.NoError(t, err)
	for i := 0; i < 8192; i++ {
		require.NoError(t, f.PutByte('a'))
	}

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	count := 0
	for {
		b, err := f.GetByte()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.Equal(t, byte('a'), b)
		count++
	}
	require.Equal(t, 8192, count)
	require.True(t, f.Eof())
}

func TestMkfsTwiceWhileMountedFails(t *testing.T) {
	fs := newMountedFS(t, 256)
	err := fs.Mkfs()
	require.ErrorIs(t, err, romfs.ErrAlreadyMounted)
}

func TestAvailableDecreasesWithAllocation(t *testing.T) {
	fs := newMountedFS(t, 64)
	before, err := fs.Available()
	require.NoError(t, err)

	f, err := fs.Open("x", "w")
	require.NoError(t, err)
	_, err = f.Write(bytes.Repeat([]byte{1}, romfs.SectorSize*3))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	after, err := fs.Available()
	require.NoError(t, err)

	// The sector createEntry reserved is filled in place by the first
	// write (it has no existing data to relocate away from), and two
	// more sectors are chained on to hold the rest: 3 sectors total.
	require.Equal(t, before-int64(3*romfs.SectorSize), after)
}

func TestAppendAlwaysWritesAtEnd(t *testing.T) {
	fs := newMountedFS(t, 64)

	f, err := fs.Open("log", "a+")
	require.NoError(t, err)
	_, err = f.Write([]byte("first"))
	require.NoError(t, err)

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	buf := make([]byte, 5)
	_, err = io.ReadFull(f, buf)
	require.NoError(t, err)
	require.Equal(t, "first", string(buf))

	_, err = f.Write([]byte("second"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	size, err := fs.Size("log")
	require.NoError(t, err)
	require.Equal(t, int64(len("firstsecond")), size)
}
