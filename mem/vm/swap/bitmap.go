package swap

// A bitmap tracks one bit per sector.
type bitmap struct {
	bits []uint64
	size uint64
}

func newBitmap(size uint64) *bitmap {
	return &bitmap{
		bits: make([]uint64, (size+63)/64),
		size: size,
	}
}

func (b *bitmap) test(i uint64) bool {
	return b.bits[i/64]&(1<<(i%64)) != 0
}

func (b *bitmap) set(i uint64, value bool) {
	if value {
		b.bits[i/64] |= 1 << (i % 64)
	} else {
		b.bits[i/64] &^= 1 << (i % 64)
	}
}

// setMultiple sets cnt bits starting at start.
func (b *bitmap) setMultiple(start, cnt uint64, value bool) {
	for i := start; i < start+cnt; i++ {
		b.set(i, value)
	}
}

// all tells if cnt bits starting at start are all set to value.
func (b *bitmap) all(start, cnt uint64, value bool) bool {
	for i := start; i < start+cnt; i++ {
		if b.test(i) != value {
			return false
		}
	}

	return true
}

// scanAndFlip finds the first run of cnt clear bits, sets them, and returns
// the index of the first one.
func (b *bitmap) scanAndFlip(cnt uint64) (uint64, bool) {
	if cnt == 0 || cnt > b.size {
		return 0, false
	}

	for start := uint64(0); start+cnt <= b.size; start++ {
		if b.all(start, cnt, false) {
			b.setMultiple(start, cnt, true)
			return start, true
		}
	}

	return 0, false
}

// count returns the number of set bits.
func (b *bitmap) count() uint64 {
	n := uint64(0)
	for i := uint64(0); i < b.size; i++ {
		if b.test(i) {
			n++
		}
	}

	return n
}
