package index

import (
	"bytes"

	log "github.com/sirupsen/logrus"
)

var substitutions = []byte("CGT")

// FilterPolyA removes from the k-mer map the canonical forms of the poly-A
// k-mer and of every k-mer within two substitutions of it, and returns the
// number of k-mers removed. Removing an absent k-mer is a no-op, so the filter
// is idempotent.
func (idx *Index) FilterPolyA() int {
	k := idx.K
	polyA := bytes.Repeat([]byte{'A'}, k)
	log.Debugf("searching for neighbors of %s", polyA)

	removed := 0
	remove := func(seq []byte) {
		km, _, err := idx.codec.Canonicalize(seq)
		if err != nil {
			// unreachable: seq is always k bases of ACGT
			panic(err)
		}
		ec, ok := idx.Kmers[km]
		if !ok {
			return
		}
		members, _ := idx.Classes.Members(ec)
		log.Debugf("removing %s %v", seq, members)
		delete(idx.Kmers, km)
		removed++
	}

	remove(polyA)

	x := make([]byte, k)
	y := make([]byte, k)
	for i := 0; i < k; i++ {
		for _, a := range substitutions {
			copy(x, polyA)
			x[i] = a
			remove(x)

			for j := i + 1; j < k; j++ {
				copy(y, x)
				for _, b := range substitutions {
					y[j] = b
					remove(y)
				}
			}
		}
	}

	return removed
}
