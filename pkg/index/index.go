/*
Package index builds, saves and loads a k-mer equivalence class index: a map
from every canonical k-mer of a set of reference sequences to the class of
references it is compatible with.
*/
package index

import (
	"github.com/virus-evolution/ecindex/pkg/ecmap"
	"github.com/virus-evolution/ecindex/pkg/kmer"
)

// Version is the on-disk format version written to and required from index files
const Version uint64 = 1

// Index is a k-mer equivalence class index
type Index struct {
	K       int
	Names   []string
	Lengths []int32
	Kmers   map[kmer.Kmer]int32 // canonical k-mer -> class ID
	Classes *ecmap.Registry

	codec     kmer.Codec
	kmerTable bool
}

// Codec returns the k-mer codec for the index's k
func (idx *Index) Codec() kmer.Codec {
	return idx.codec
}

// HasKmerTable reports whether Kmers holds the index's k-mer table. It is
// false for an index loaded without it. A table can be present and empty.
func (idx *Index) HasKmerTable() bool {
	return idx.kmerTable
}

// NumReferences returns the number of reference sequences in the index
func (idx *Index) NumReferences() int {
	return len(idx.Names)
}

// Class returns the class ID of the canonical k-mer km
func (idx *Index) Class(km kmer.Kmer) (int32, bool) {
	ec, ok := idx.Kmers[km]
	return ec, ok
}

// Stats are the sizes of a built or loaded index
type Stats struct {
	References int
	Classes    int
	Kmers      int
	Removed    int // k-mers dropped by the poly-A filter
}

func (idx *Index) stats() Stats {
	return Stats{
		References: idx.NumReferences(),
		Classes:    idx.Classes.Len(),
		Kmers:      len(idx.Kmers),
	}
}
