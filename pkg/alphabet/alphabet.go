// Package alphabet provides lookup tables for the unambiguous nucleotide
// alphabet {A, C, G, T} used by k-mer extraction
package alphabet

// MakeCompArray returns a lookup table from a nucleotide byte to its complement.
// Upper and lower case A, C, G and T are complemented (preserving case); every
// other byte maps to 0.
func MakeCompArray() [256]byte {
	var compArray [256]byte

	compArray['A'] = 'T'
	compArray['C'] = 'G'
	compArray['G'] = 'C'
	compArray['T'] = 'A'
	compArray['a'] = 't'
	compArray['c'] = 'g'
	compArray['g'] = 'c'
	compArray['t'] = 'a'

	return compArray
}

// MakeValidArray returns a lookup table that is true for the bytes that may
// appear in a k-mer: A, C, G and T in either case.
func MakeValidArray() [256]bool {
	var validArray [256]bool

	for _, b := range []byte("ACGTacgt") {
		validArray[b] = true
	}

	return validArray
}

var (
	compArray  = MakeCompArray()
	validArray = MakeValidArray()
)

// AllValid reports whether every byte of seq is one of A, C, G or T. It returns
// the index of the first invalid byte, or -1.
func AllValid(seq []byte) (bool, int) {
	for i := range seq {
		if !validArray[seq[i]] {
			return false, i
		}
	}
	return true, -1
}

// ReverseComplement returns a new slice holding the reverse complement of seq.
// Bytes outside the alphabet are copied (reversed) as 'N'.
func ReverseComplement(seq []byte) []byte {
	n := len(seq)
	rc := make([]byte, n)
	for i := 0; i < n; i++ {
		c := compArray[seq[n-1-i]]
		if c == 0 {
			c = 'N'
		}
		rc[i] = c
	}
	return rc
}
