// Command stream-example demonstrates romfs/stream: writing and
// reading a file through the generic io.Reader/io.Writer/io.Seeker
// adapter instead of romfs.File's own method names, the successor to
// aligator-GoFAT's cmd/example walk-the-filesystem demo.
package main

import (
	"fmt"
	"os"

	"github.com/aligator/romfs"
	"github.com/aligator/romfs/flashsim"
	"github.com/aligator/romfs/stream"
)

func main() {
	dev := flashsim.NewMemory(64)
	fs := romfs.New(dev, dev.Sectors())

	if err := fs.Mkfs(); err != nil {
		fail(err)
	}
	if err := fs.Mount(); err != nil {
		fail(err)
	}
	defer fs.Umount()

	f, err := fs.Open("greeting.txt", "w+")
	if err != nil {
		fail(err)
	}
	s := stream.New(f)

	if _, err := s.Write([]byte("hello from romfs\n")); err != nil {
		fail(err)
	}
	if _, err := s.Seek(0, 0); err != nil {
		fail(err)
	}

	buf := make([]byte, 64)
	n, err := s.Read(buf)
	if err != nil {
		fail(err)
	}
	fmt.Print(string(buf[:n]))

	if err := s.Close(); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
