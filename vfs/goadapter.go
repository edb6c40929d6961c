package vfs

import (
	"errors"
	"io/fs"
)

// GoDirEntry adapts an os.FileInfo to fs.DirEntry, the same shape
// aligator's own GoDirEntry uses over its FAT directory records.
type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode { return g.FileInfo.Mode().Type() }

func (g GoDirEntry) Info() (fs.FileInfo, error) { return g.FileInfo, nil }

// GoFile adapts *File to fs.File plus fs.ReadDirFile.
type GoFile struct {
	*File
}

func (g GoFile) Stat() (fs.FileInfo, error) { return g.File.Stat() }

func (g GoFile) Read(p []byte) (int, error) { return g.File.Read(p) }

func (g GoFile) Close() error { return g.File.Close() }

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	infos, err := g.File.Readdir(n)
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = GoDirEntry{info}
	}
	return entries, err
}

// GoFS wraps Fs to satisfy fs.FS for generic Go filesystem consumers.
type GoFS struct {
	*Fs
}

// NewGoFS wraps an afero-backed Fs as an fs.FS.
func NewGoFS(a *Fs) *GoFS { return &GoFS{a} }

func (g *GoFS) Open(name string) (fs.File, error) {
	file, err := g.Fs.Open(name)
	if err != nil {
		return nil, err
	}
	f, ok := file.(*File)
	if !ok {
		return nil, errors.New("vfs: unexpected File implementation")
	}
	return GoFile{f}, nil
}
