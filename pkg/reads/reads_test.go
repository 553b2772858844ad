package reads

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/biogo/hts/bam"
	biogosam "github.com/biogo/hts/sam"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r Reader) []Read {
	t.Helper()
	var out []Read
	for {
		rd, err := r.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		out = append(out, rd)
	}
	return out
}

func TestFormatOf(t *testing.T) {
	require.Equal(t, SAM, FormatOf("x/reads.sam"))
	require.Equal(t, BAM, FormatOf("reads.BAM"))
	require.Equal(t, FASTA, FormatOf("reads.fa"))
	require.Equal(t, FASTA, FormatOf("stdin"))

	f, err := ParseFormat("BAM")
	require.NoError(t, err)
	require.Equal(t, BAM, f)
	_, err = ParseFormat("fastq")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestReadFasta(t *testing.T) {
	in := ">r1 first read\nACGT\nAC\n>r2\nTTTT\n"
	r, err := NewReader(strings.NewReader(in), FASTA)
	require.NoError(t, err)
	got := readAll(t, r)
	require.Equal(t, []Read{
		{Name: "r1", Seq: []byte("ACGTAC")},
		{Name: "r2", Seq: []byte("TTTT")},
	}, got)
}

const samText = "@HD\tVN:1.6\tSO:unsorted\n" +
	"@SQ\tSN:ref\tLN:20\n" +
	"q1\t0\tref\t1\t60\t4M\t*\t0\t0\tACGT\t*\n" +
	"q1\t256\tref\t5\t0\t4M\t*\t0\t0\tACGT\t*\n" +
	"q2\t4\t*\t0\t0\t*\t*\t0\t0\tGGCA\t*\n" +
	"q3\t2048\tref\t9\t0\t4M\t*\t0\t0\tTTAA\t*\n" +
	"q4\t16\tref\t3\t60\t3M\t*\t0\t0\tCCA\t*\n"

func TestReadSam(t *testing.T) {
	r, err := NewReader(strings.NewReader(samText), SAM)
	require.NoError(t, err)
	got := readAll(t, r)
	require.Equal(t, []Read{
		{Name: "q1", Seq: []byte("ACGT")},
		{Name: "q2", Seq: []byte("GGCA")},
		{Name: "q4", Seq: []byte("CCA")},
	}, got)
}

func TestReadBam(t *testing.T) {
	s, err := biogosam.NewReader(strings.NewReader(samText))
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := bam.NewWriter(&buf, s.Header(), 1)
	require.NoError(t, err)
	for {
		rec, err := s.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())

	r, err := NewReader(&buf, BAM)
	require.NoError(t, err)
	got := readAll(t, r)
	require.Len(t, got, 3)
	require.Equal(t, "q4", got[2].Name)
	require.Equal(t, []byte("CCA"), got[2].Seq)
}

func TestReadBadHeader(t *testing.T) {
	_, err := NewReader(strings.NewReader("not a bam file"), BAM)
	require.Error(t, err)
}
