// Package stream adapts a romfs file handle to the standard
// io.Reader/io.Writer/io.Seeker/io.Closer interfaces, the "external
// byte-stream interface" spec.md §9 calls out as a thin wrapper that
// must not own any state of its own. Everything here delegates
// straight through to the underlying *romfs.File.
package stream

import (
	"io"

	"github.com/aligator/romfs"
)

// Stream wraps a *romfs.File for code that wants the standard library
// file-like interfaces instead of romfs's own method names.
type Stream struct {
	file *romfs.File
}

// New wraps file. It owns no state beyond the reference to file.
func New(file *romfs.File) *Stream {
	return &Stream{file: file}
}

func (s *Stream) Read(p []byte) (int, error) { return s.file.Read(p) }

func (s *Stream) Write(p []byte) (int, error) { return s.file.Write(p) }

func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	return s.file.Seek(offset, whence)
}

func (s *Stream) Close() error { return s.file.Close() }

// Available reports how many bytes remain between the read cursor and
// the end of the file.
func (s *Stream) Available() int64 {
	remaining := s.file.Size() - s.file.Tell()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Peek returns the next byte without advancing the read cursor.
func (s *Stream) Peek() (byte, error) {
	pos := s.file.Tell()
	b, err := s.file.GetByte()
	if err != nil {
		return 0, err
	}
	if _, err := s.file.Seek(pos, io.SeekStart); err != nil {
		return 0, err
	}
	return b, nil
}

// Flush syncs the underlying file (dirty buffer and superblock).
func (s *Stream) Flush() error { return s.file.Sync() }
