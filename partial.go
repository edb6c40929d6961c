package romfs

// readPartial reads len(buf) bytes from sector s at byte offset off,
// working around a Device's requirement that whole-sector reads be
// 4-byte aligned. When off and len(buf) are already 4-aligned it
// issues a single aligned read. Otherwise it splits the requested
// range into an aligned middle span (read directly) plus unaligned
// head/tail slack of at most three bytes each, each served from a
// small aligned bounce read.
func readPartial(dev Device, s, off int, buf []byte) error {
	n := len(buf)
	if off < 0 || n < 0 || off+n > SectorSize {
		return wrap(ErrBadArgument)
	}
	if n == 0 {
		return nil
	}
	if off%4 == 0 && n%4 == 0 {
		return dev.Read(s, off, buf)
	}

	alignedStart := (off + 3) &^ 3
	alignedEnd := (off + n) &^ 3

	b1 := alignedStart
	if b1 > off+n {
		b1 = off + n
	}
	b2 := alignedEnd
	if b2 < b1 {
		b2 = b1
	}

	// Head: [off, b1), at most 3 bytes, always inside the aligned word
	// starting at off&^3.
	if b1 > off {
		word := off &^ 3
		var bounce [4]byte
		if err := dev.Read(s, word, bounce[:]); err != nil {
			return err
		}
		copy(buf[:b1-off], bounce[off-word:])
	}

	// Middle: [b1, b2), already aligned on both ends.
	if b2 > b1 {
		if err := dev.Read(s, b1, buf[b1-off:b2-off]); err != nil {
			return err
		}
	}

	// Tail: [b2, off+n), at most 3 bytes. Non-empty only when b2 ==
	// alignedEnd, which is always a multiple of 4, so the bounce word
	// starting at b2 itself covers it.
	if off+n > b2 {
		var bounce [4]byte
		if err := dev.Read(s, b2, bounce[:]); err != nil {
			return err
		}
		copy(buf[b2-off:], bounce[:off+n-b2])
	}

	return nil
}
