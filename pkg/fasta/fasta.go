/*
Package fasta reads reference sequences in fasta format and checks them
against a samtools faidx index when one is available
*/
package fasta

import (
	"bytes"
	"io"
	"os"

	"github.com/biogo/hts/fai"
	"github.com/pkg/errors"
)

var (
	ErrCountMismatch  = errors.New("number of sequences does not match the fasta index")
	ErrLengthMismatch = errors.New("sequence length does not match the fasta index")
	ErrDuplicateName  = errors.New("duplicate sequence name")
)

// A struct for one Fasta record
type Record struct {
	ID          string
	Description string
	Seq         []byte
}

// Reference is one reference sequence. IDs are assigned in input order starting from 0.
type Reference struct {
	ID   int32
	Name string
	Seq  []byte
}

// Length returns the number of bases in the reference
func (R Reference) Length() int {
	return len(R.Seq)
}

// ReadReferences reads every record of a fasta file, upper-casing the
// sequences. The name of each reference is the first word of its header.
func ReadReferences(f io.Reader) ([]Reference, error) {
	r := NewReader(f)
	refs := make([]Reference, 0)
	seen := make(map[string]bool)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if seen[record.ID] {
			return nil, errors.Wrap(ErrDuplicateName, record.ID)
		}
		seen[record.ID] = true
		refs = append(refs, Reference{
			ID:   int32(len(refs)),
			Name: record.ID,
			Seq:  bytes.ToUpper(record.Seq),
		})
	}
	if len(refs) == 0 {
		return nil, errEmptyFasta
	}
	return refs, nil
}

// CheckFai checks that refs has exactly the sequences, with the same lengths,
// that are listed in idx
func CheckFai(refs []Reference, idx fai.Index) error {
	if len(refs) != len(idx) {
		return errors.Wrapf(ErrCountMismatch, "%d sequences read, %d in index", len(refs), len(idx))
	}
	for _, ref := range refs {
		rec, ok := idx[ref.Name]
		if !ok {
			return errors.Wrapf(ErrCountMismatch, "%s is not in the index", ref.Name)
		}
		if rec.Length != ref.Length() {
			return errors.Wrapf(ErrLengthMismatch, "%s: %d bases read, %d in index", ref.Name, ref.Length(), rec.Length)
		}
	}
	return nil
}

// LoadReferences reads the references in path. If path.fai exists, the
// references are checked against it.
func LoadReferences(path string) ([]Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	refs, err := ReadReferences(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	idxFile, err := os.Open(path + ".fai")
	if os.IsNotExist(err) {
		return refs, nil
	} else if err != nil {
		return nil, err
	}
	defer idxFile.Close()

	idx, err := fai.ReadFrom(idxFile)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s.fai", path)
	}
	if err = CheckFai(refs, idx); err != nil {
		return nil, errors.Wrapf(err, "checking %s against %s.fai", path, path)
	}

	return refs, nil
}
