/*
Package textindex provides exact substring search over a set of reference
sequences, and resolution of a k-mer to the set of references it occurs in on
either strand.
*/
package textindex

import (
	"bytes"
	"index/suffixarray"
	"sort"
)

// Occurrence is one exact match of a pattern: the reference it falls in and
// its 0-based start within that reference
type Occurrence struct {
	Ref int32
	Pos int
}

// Searcher finds every occurrence of a pattern across a reference set.
// Implementations must be safe for concurrent use once constructed.
type Searcher interface {
	Search(pattern []byte) []Occurrence
}

// separator is placed between references in the concatenated text. It is
// outside the nucleotide alphabet, so no ACGT pattern can match across it.
const separator = '$'

// SuffixArray is a Searcher backed by a suffix array over the concatenation
// of all references
type SuffixArray struct {
	sa     *suffixarray.Index
	starts []int // offset of each reference in the concatenated text
}

// NewSuffixArray builds a SuffixArray over seqs, in which sequence i is reference i
func NewSuffixArray(seqs [][]byte) *SuffixArray {
	size := 0
	for _, s := range seqs {
		size += len(s) + 1
	}

	text := make([]byte, 0, size)
	starts := make([]int, len(seqs))
	for i, s := range seqs {
		starts[i] = len(text)
		text = append(text, s...)
		text = append(text, separator)
	}

	return &SuffixArray{sa: suffixarray.New(text), starts: starts}
}

// Search returns the occurrences of pattern ordered by reference then position
func (s *SuffixArray) Search(pattern []byte) []Occurrence {
	if len(pattern) == 0 {
		return nil
	}
	offsets := s.sa.Lookup(pattern, -1)
	occs := make([]Occurrence, 0, len(offsets))
	for _, off := range offsets {
		// the last reference starting at or before off
		ref := sort.SearchInts(s.starts, off+1) - 1
		occs = append(occs, Occurrence{Ref: int32(ref), Pos: off - s.starts[ref]})
	}
	sortOccurrences(occs)
	return occs
}

// Naive is a Searcher that scans every reference for each query. It is meant
// for small inputs and for checking other Searchers.
type Naive struct {
	seqs [][]byte
}

func NewNaive(seqs [][]byte) *Naive {
	return &Naive{seqs: seqs}
}

func (n *Naive) Search(pattern []byte) []Occurrence {
	if len(pattern) == 0 {
		return nil
	}
	occs := make([]Occurrence, 0)
	for i, seq := range n.seqs {
		for from := 0; from+len(pattern) <= len(seq); {
			j := bytes.Index(seq[from:], pattern)
			if j < 0 {
				break
			}
			occs = append(occs, Occurrence{Ref: int32(i), Pos: from + j})
			from += j + 1
		}
	}
	return occs
}

func sortOccurrences(occs []Occurrence) {
	sort.Slice(occs, func(i, j int) bool {
		if occs[i].Ref != occs[j].Ref {
			return occs[i].Ref < occs[j].Ref
		}
		return occs[i].Pos < occs[j].Pos
	})
}
