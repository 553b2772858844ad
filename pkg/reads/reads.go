/*
Package reads streams query sequences from FASTA, SAM or BAM files.
*/
package reads

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/biogo/hts/bam"
	biogosam "github.com/biogo/hts/sam"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/virus-evolution/ecindex/pkg/fasta"
)

// Format is the file type of a read source
type Format int

const (
	FASTA Format = iota
	SAM
	BAM
)

var ErrUnknownFormat = errors.New("unknown read format")

func (f Format) String() string {
	switch f {
	case FASTA:
		return "fasta"
	case SAM:
		return "sam"
	case BAM:
		return "bam"
	}
	return "unknown"
}

// ParseFormat accepts a format name as given on the command line
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "fasta", "fa", "fna":
		return FASTA, nil
	case "sam":
		return SAM, nil
	case "bam":
		return BAM, nil
	}
	return FASTA, errors.Wrap(ErrUnknownFormat, s)
}

// FormatOf guesses the format of a file from its extension. Anything that is
// not .sam or .bam is read as fasta.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sam":
		return SAM
	case ".bam":
		return BAM
	}
	return FASTA
}

// Read is one query sequence
type Read struct {
	Name string
	Seq  []byte
}

// Reader yields reads until io.EOF
type Reader interface {
	Read() (Read, error)
}

// NewReader wraps r in a Reader for the given format
func NewReader(r io.Reader, format Format) (Reader, error) {
	switch format {
	case FASTA:
		return &fastaReader{fasta.NewReader(r)}, nil
	case SAM:
		s, err := biogosam.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "reading sam header")
		}
		return &alignmentReader{r: s}, nil
	case BAM:
		b, err := bam.NewReader(r, 1)
		if err != nil {
			return nil, errors.Wrap(err, "reading bam header")
		}
		return &alignmentReader{r: b}, nil
	}
	return nil, errors.Wrapf(ErrUnknownFormat, "%d", format)
}

type fastaReader struct {
	r *fasta.Reader
}

func (f *fastaReader) Read() (Read, error) {
	rec, err := f.r.Read()
	if err != nil {
		return Read{}, err
	}
	return Read{Name: rec.ID, Seq: rec.Seq}, nil
}

type samRecordReader interface {
	Read() (*biogosam.Record, error)
}

// alignmentReader returns each query once: secondary and supplementary
// records repeat a primary record's read and are skipped
type alignmentReader struct {
	r samRecordReader
}

func (a *alignmentReader) Read() (Read, error) {
	for {
		rec, err := a.r.Read()
		if err != nil {
			return Read{}, err
		}
		if rec.Flags&(biogosam.Secondary|biogosam.Supplementary) != 0 {
			log.Debugf("ignoring secondary mapping: %s", rec.Name)
			continue
		}
		return Read{Name: rec.Name, Seq: rec.Seq.Expand()}, nil
	}
}

// Open reads r in the format implied by path
func Open(path string, r io.Reader) (Reader, error) {
	return NewReader(r, FormatOf(path))
}
