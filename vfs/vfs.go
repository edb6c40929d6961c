// Package vfs adapts a mounted romfs.Filesystem to the generic
// github.com/spf13/afero.Fs interface (and, on top of that, to
// io/fs.FS), mirroring the role aligator's own Fs/File and GoFs/GoFile
// types played for a read-only FAT view, adapted to this format's
// flat, writable namespace.
package vfs

import (
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/aligator/romfs"
)

// Fs wraps a mounted *romfs.Filesystem as an afero.Fs. The namespace is
// flat: paths are compared as plain names, with any leading "/"
// stripped, since this format has no directories to traverse.
type Fs struct {
	fs *romfs.Filesystem
}

// New wraps an already-mounted filesystem.
func New(rfs *romfs.Filesystem) *Fs {
	return &Fs{fs: rfs}
}

func cleanName(name string) string {
	for len(name) > 0 && name[0] == '/' {
		name = name[1:]
	}
	return name
}

func (a *Fs) Name() string { return "romfs" }

func (a *Fs) Create(name string) (afero.File, error) {
	f, err := a.fs.Open(cleanName(name), "w+")
	if err != nil {
		return nil, err
	}
	return &File{fs: a.fs, file: f}, nil
}

func (a *Fs) Open(name string) (afero.File, error) {
	f, err := a.fs.Open(cleanName(name), "r")
	if err != nil {
		return nil, err
	}
	return &File{fs: a.fs, file: f}, nil
}

// OpenFile maps the os.O_* flag combinations onto this format's C-style
// mode strings.
func (a *Fs) OpenFile(name string, flag int, _ os.FileMode) (afero.File, error) {
	mode := "r"
	switch {
	case flag&os.O_APPEND != 0:
		if flag&os.O_RDWR != 0 {
			mode = "a+"
		} else {
			mode = "a"
		}
	case flag&os.O_TRUNC != 0 || flag&os.O_CREATE != 0 && flag&os.O_RDWR != 0:
		mode = "w+"
	case flag&os.O_RDWR != 0:
		mode = "r+"
	}

	f, err := a.fs.Open(cleanName(name), mode)
	if err != nil {
		return nil, err
	}
	return &File{fs: a.fs, file: f}, nil
}

func (a *Fs) Remove(name string) error { return a.fs.Unlink(cleanName(name)) }

func (a *Fs) RemoveAll(path string) error { return a.fs.Unlink(cleanName(path)) }

func (a *Fs) Rename(oldname, newname string) error {
	return a.fs.Rename(cleanName(oldname), cleanName(newname))
}

func (a *Fs) Stat(name string) (os.FileInfo, error) {
	name = cleanName(name)
	size, err := a.fs.Size(name)
	if err != nil {
		return nil, err
	}
	return fileInfo{name: name, size: size}, nil
}

// Mkdir, MkdirAll, Chmod, Chtimes and Chown have no meaning over a
// flat, permission-less, single-owner namespace; they return
// fs.ErrInvalid.
func (a *Fs) Mkdir(string, os.FileMode) error            { return fs.ErrInvalid }
func (a *Fs) MkdirAll(string, os.FileMode) error         { return fs.ErrInvalid }
func (a *Fs) Chmod(string, os.FileMode) error            { return fs.ErrInvalid }
func (a *Fs) Chtimes(string, time.Time, time.Time) error { return fs.ErrInvalid }
func (a *Fs) Chown(string, int, int) error               { return fs.ErrInvalid }

var _ afero.Fs = (*Fs)(nil)

// File adapts a *romfs.File to afero.File.
type File struct {
	fs   *romfs.Filesystem
	file *romfs.File
}

func (f *File) Close() error                 { return f.file.Close() }
func (f *File) Read(p []byte) (int, error)   { return f.file.Read(p) }
func (f *File) Write(p []byte) (int, error)  { return f.file.Write(p) }
func (f *File) Seek(offset int64, whence int) (int64, error) {
	return f.file.Seek(offset, whence)
}
func (f *File) Name() string { return f.file.Name() }
func (f *File) Sync() error  { return f.file.Sync() }

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if _, err := f.file.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return f.file.Read(p)
}

func (f *File) WriteAt(p []byte, off int64) (int, error) {
	if _, err := f.file.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return f.file.Write(p)
}

func (f *File) WriteString(s string) (int, error) { return f.file.Write([]byte(s)) }

// Truncate is not supported: this format has no in-place shrink
// operation, only append-by-write and whole-file unlink+recreate.
func (f *File) Truncate(int64) error { return fs.ErrInvalid }

func (f *File) Stat() (os.FileInfo, error) {
	return fileInfo{name: f.file.Name(), size: f.file.Size()}, nil
}

// Readdir lists the filesystem's live entries; count <= 0 returns all of
// them, count > 0 at most count. Every call starts again from the first
// entry: no position is kept between calls. There is no hierarchy to
// descend into, so this always
// reflects the whole namespace regardless of which file it's called on
// (afero callers are expected to call it on a directory handle, which
// this format has no equivalent of).
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	cur := f.fs.OpenDir()
	var out []os.FileInfo
	for count <= 0 || len(out) < count {
		d, err := f.fs.ReadDir(cur)
		if err != nil {
			return out, err
		}
		if d == nil {
			break
		}
		out = append(out, fileInfo{name: d.Name, size: d.Size})
	}
	return out, nil
}

func (f *File) Readdirnames(n int) ([]string, error) {
	infos, err := f.Readdir(n)
	names := make([]string, len(infos))
	for i, fi := range infos {
		names[i] = fi.Name()
	}
	return names, err
}

type fileInfo struct {
	name string
	size int64
}

func (i fileInfo) Name() string       { return i.name }
func (i fileInfo) Size() int64        { return i.size }
func (i fileInfo) Mode() os.FileMode  { return 0o644 }
func (i fileInfo) ModTime() time.Time { return time.Time{} }
func (i fileInfo) IsDir() bool        { return false }
func (i fileInfo) Sys() interface{}   { return nil }
