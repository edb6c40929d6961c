package romfs

import "testing"

func TestFATRoundTrip(t *testing.T) {
	const totalSectors = 100
	fat := make([]byte, fatBytes(totalSectors))

	tests := []struct {
		name string
		s    int
		v    int
	}{
		{"even zero", 0, 0},
		{"even value", 4, 0x123},
		{"odd value", 5, 0x456},
		{"eof even", 10, fatEOF},
		{"eof odd", 11, fatEOF},
		{"max value", 99, 0xFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setFAT(fat, totalSectors, tt.s, tt.v)
			if got := getFAT(fat, totalSectors, tt.s); got != tt.v&0xFFF {
				t.Errorf("getFAT(%d) = %#x, want %#x", tt.s, got, tt.v&0xFFF)
			}
		})
	}
}

func TestFATNeighborsUnaffected(t *testing.T) {
	const totalSectors = 4
	fat := make([]byte, fatBytes(totalSectors))

	setFAT(fat, totalSectors, 0, 0xABC)
	setFAT(fat, totalSectors, 1, 0xDEF)
	if got := getFAT(fat, totalSectors, 0); got != 0xABC {
		t.Errorf("sector 0 clobbered: got %#x", got)
	}
	if got := getFAT(fat, totalSectors, 1); got != 0xDEF {
		t.Errorf("sector 1 clobbered: got %#x", got)
	}

	setFAT(fat, totalSectors, 2, 0x111)
	setFAT(fat, totalSectors, 3, 0x222)
	if got := getFAT(fat, totalSectors, 2); got != 0x111 {
		t.Errorf("sector 2 clobbered: got %#x", got)
	}
	if got := getFAT(fat, totalSectors, 3); got != 0x222 {
		t.Errorf("sector 3 clobbered: got %#x", got)
	}
}

func TestFATOutOfRange(t *testing.T) {
	fat := make([]byte, fatBytes(10))
	if got := getFAT(fat, 10, 10); got != -1 {
		t.Errorf("getFAT out of range = %d, want -1", got)
	}
	if got := getFAT(fat, 10, -1); got != -1 {
		t.Errorf("getFAT negative = %d, want -1", got)
	}
	// setFAT out of range must be a silent no-op, not a panic.
	setFAT(fat, 10, 10, 0x123)
}
