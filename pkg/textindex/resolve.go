package textindex

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/virus-evolution/ecindex/pkg/alphabet"
)

// ErrNoOccurrence means a k-mer taken from a reference was not found in the
// reference set on either strand. It indicates a broken Searcher, not bad input.
var ErrNoOccurrence = errors.New("internal error: k-mer has no occurrence in the reference set")

// Resolve returns the ascending, deduplicated IDs of the references in which
// kmer or its reverse complement occurs
func Resolve(s Searcher, kmer []byte) ([]int32, error) {
	refs := make([]int32, 0, 4)

	for _, occ := range s.Search(kmer) {
		refs = append(refs, occ.Ref)
	}
	for _, occ := range s.Search(alphabet.ReverseComplement(kmer)) {
		refs = append(refs, occ.Ref)
	}

	if len(refs) == 0 {
		return nil, errors.Wrapf(ErrNoOccurrence, "k-mer %s", kmer)
	}

	slices.Sort(refs)
	return slices.Compact(refs), nil
}
