/*
Package kmer packs fixed-length nucleotide strings into 2-bit integers and
chooses a canonical representative of each k-mer and its reverse complement.

Bases are packed most-significant first with A=0, C=1, G=2, T=3, so numeric
order on packed k-mers is the lexicographic order of the strings, and the
canonical form (the smaller of a k-mer and its reverse complement) is the
lexicographically smaller string.
*/
package kmer

import (
	"github.com/pkg/errors"
	"github.com/shenwei356/kmers"

	"github.com/virus-evolution/ecindex/pkg/alphabet"
)

// MaxK is the largest supported k-mer size. 31 bases use 62 bits.
const MaxK = 31

var (
	ErrInvalidK    = errors.New("invalid k-mer size")
	ErrInvalidBase = errors.New("invalid base in k-mer")
	ErrLength      = errors.New("sequence length does not match k")
)

// Kmer is a 2-bit packed k-mer. The value alone does not carry k.
type Kmer uint64

// Orientation records which strand of a k-mer was chosen as canonical
type Orientation uint8

const (
	Forward Orientation = iota
	Reverse
)

func (o Orientation) String() string {
	if o == Reverse {
		return "reverse"
	}
	return "forward"
}

// Codec encodes and decodes k-mers of one fixed size
type Codec struct {
	k    int
	mask uint64
}

// NewCodec returns a Codec for k-mers of size k, which must be in [1, MaxK]
func NewCodec(k int) (Codec, error) {
	if k < 1 || k > MaxK {
		return Codec{}, errors.Wrapf(ErrInvalidK, "k = %d, must be between 1 and %d", k, MaxK)
	}
	return Codec{k: k, mask: (uint64(1) << (2 * uint(k))) - 1}, nil
}

// K returns the k-mer size of the codec
func (c Codec) K() int {
	return c.k
}

// Encode packs seq, which must be exactly k bases of A, C, G or T
func (c Codec) Encode(seq []byte) (Kmer, error) {
	if len(seq) != c.k {
		return 0, errors.Wrapf(ErrLength, "got %d bases, k = %d", len(seq), c.k)
	}
	if ok, i := alphabet.AllValid(seq); !ok {
		return 0, errors.Wrapf(ErrInvalidBase, "%q at position %d", seq[i], i)
	}
	code, err := kmers.Encode(seq)
	if err != nil {
		return 0, errors.Wrap(err, "encoding k-mer")
	}
	return Kmer(code), nil
}

// ReverseComplement returns the packed reverse complement of km
func (c Codec) ReverseComplement(km Kmer) Kmer {
	return Kmer(kmers.MustRevComp(uint64(km), c.k))
}

// Canonical returns the smaller of km and its reverse complement
func (c Codec) Canonical(km Kmer) Kmer {
	rc := c.ReverseComplement(km)
	if rc < km {
		return rc
	}
	return km
}

// Canonicalize encodes seq and returns its canonical form, and which strand that form came from
func (c Codec) Canonicalize(seq []byte) (Kmer, Orientation, error) {
	km, err := c.Encode(seq)
	if err != nil {
		return 0, Forward, err
	}
	rc := c.ReverseComplement(km)
	if rc < km {
		return rc, Reverse, nil
	}
	return km, Forward, nil
}

// String decodes km to upper case bases
func (c Codec) String(km Kmer) string {
	return string(kmers.MustDecode(uint64(km), c.k))
}
