package romfs

import "math/rand"

// findFreeSector returns a sector index s in [0, totalSectors) with
// fat[s] == 0, chosen by probing linearly from a random start. A
// uniformly random start approximates wear-leveling of data sectors
// without maintaining a global allocation cursor; rng is injected so
// tests can make the choice reproducible.
func findFreeSector(fat []byte, totalSectors int, rng *rand.Rand) (int, error) {
	if totalSectors <= 0 {
		return -1, wrap(ErrNoSpace)
	}
	start := rng.Intn(totalSectors)
	for i := 0; i < totalSectors; i++ {
		s := (start + i) % totalSectors
		if getFAT(fat, totalSectors, s) == 0 {
			return s, nil
		}
	}
	return -1, wrap(ErrNoSpace)
}
