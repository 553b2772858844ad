/*
Package pseudo assigns reads to the references they are compatible with, by
intersecting the equivalence classes of the read's indexed k-mers.
*/
package pseudo

import (
	"github.com/pkg/errors"

	"github.com/virus-evolution/ecindex/pkg/index"
	"github.com/virus-evolution/ecindex/pkg/kmer"
)

var ErrNoKmerTable = errors.New("index was loaded without its k-mer table")

// Result is the compatibility of one read with the references
type Result struct {
	// Members is the set of references that contain every indexed k-mer of
	// the read. It is empty if no k-mer was indexed or if they disagree.
	Members []int32

	// Class is the equivalence class with exactly these members, or -1
	Class int32

	// Hits is the number of k-mer windows that were found in the index
	Hits int
}

// Match pseudo-aligns seq against idx
func Match(idx *index.Index, seq []byte) (Result, error) {
	if !idx.HasKmerTable() {
		return Result{Class: -1}, ErrNoKmerTable
	}

	res := Result{Class: -1}
	var members []int32
	idx.Codec().Windows(seq, func(w kmer.Window) bool {
		ec, ok := idx.Class(w.Kmer)
		if !ok {
			return true
		}
		m, _ := idx.Classes.Members(ec)
		if res.Hits == 0 {
			members = append(members, m...)
		} else {
			members = intersect(members, m)
		}
		res.Hits++
		return true
	})

	if len(members) == 0 {
		return res, nil
	}
	res.Members = members
	if ec, ok := idx.Classes.Lookup(members); ok {
		res.Class = ec
	}
	return res, nil
}

// intersect keeps the elements of a that are also in b. Both are sorted.
func intersect(a, b []int32) []int32 {
	out := a[:0]
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
