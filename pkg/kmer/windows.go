package kmer

var base2bit = makeBase2Bit()

// makeBase2Bit maps A, C, G, T (either case) to their 2-bit codes, and every
// other byte to 4
func makeBase2Bit() [256]uint8 {
	var b2b [256]uint8
	for i := range b2b {
		b2b[i] = 4
	}
	b2b['A'], b2b['a'] = 0, 0
	b2b['C'], b2b['c'] = 1, 1
	b2b['G'], b2b['g'] = 2, 2
	b2b['T'], b2b['t'] = 3, 3
	return b2b
}

// Window is one length-k window of a sequence
type Window struct {
	Pos         int  // 0-based start of the window
	Kmer        Kmer // canonical form
	Orientation Orientation
}

// Windows calls fn for every length-k window of seq in increasing position
// order, skipping windows that contain a base other than A, C, G or T.
// Iteration stops early if fn returns false.
func (c Codec) Windows(seq []byte, fn func(w Window) bool) {
	if len(seq) < c.k {
		return
	}

	var (
		fwd, rev uint64
		valid    int // number of consecutive valid bases ending at i
	)
	shift := 2 * uint(c.k-1)

	for i := 0; i < len(seq); i++ {
		b := base2bit[seq[i]]
		if b > 3 {
			valid = 0
			fwd, rev = 0, 0
			continue
		}
		fwd = ((fwd << 2) | uint64(b)) & c.mask
		rev = (rev >> 2) | (uint64(3-b) << shift)
		valid++

		if valid < c.k {
			continue
		}

		w := Window{Pos: i - c.k + 1, Kmer: Kmer(fwd), Orientation: Forward}
		if rev < fwd {
			w.Kmer = Kmer(rev)
			w.Orientation = Reverse
		}
		if !fn(w) {
			return
		}
	}
}
