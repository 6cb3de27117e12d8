package automaton

const (
	// Golden ratio bit mixer.
	PHI_C64 = uint64(0x9e3779b97f4a7c15)
)

// MurmurHash3 32-bit finalization step.
func mix32(v int) int {
	k := uint32(v)
	k = (k ^ (k >> 16)) * 0x85ebca6b
	k = (k ^ (k >> 13)) * 0xc2b2ae35
	return int(k ^ (k >> 16))
}

// mixPair Hashes an ordered pair of states.
func mixPair(a, b int) uint64 {
	h := uint64(uint32(mix32(a)))*PHI_C64 + uint64(uint32(mix32(b)))
	return h ^ (h >> 32)
}
