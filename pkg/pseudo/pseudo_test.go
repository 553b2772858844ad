package pseudo

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/virus-evolution/ecindex/pkg/alphabet"
	"github.com/virus-evolution/ecindex/pkg/fasta"
	"github.com/virus-evolution/ecindex/pkg/index"
	"github.com/virus-evolution/ecindex/pkg/reads"
)

// testIndex builds k = 15 over four unrelated random references and a fifth
// that shares its first half with the first
func testIndex(t *testing.T) (*index.Index, []fasta.Reference) {
	t.Helper()
	r := rand.New(rand.NewSource(7))
	refs := make([]fasta.Reference, 5)
	for i := 0; i < 4; i++ {
		seq := make([]byte, 200)
		for j := range seq {
			seq[j] = "ACGT"[r.Intn(4)]
		}
		refs[i] = fasta.Reference{ID: int32(i), Name: fmt.Sprintf("ref%d", i), Seq: seq}
	}
	shared := append([]byte{}, refs[0].Seq[:100]...)
	for j := 0; j < 100; j++ {
		shared = append(shared, "ACGT"[r.Intn(4)])
	}
	refs[4] = fasta.Reference{ID: 4, Name: "ref4", Seq: shared}

	idx, _, err := index.Build(refs, index.BuildOptions{K: 15})
	require.NoError(t, err)
	return idx, refs
}

func TestIntersect(t *testing.T) {
	require.Equal(t, []int32{2, 5}, intersect([]int32{1, 2, 5, 9}, []int32{0, 2, 3, 5}))
	require.Empty(t, intersect([]int32{1, 3}, []int32{2, 4}))
	require.Empty(t, intersect(nil, []int32{2, 4}))
}

func TestMatch(t *testing.T) {
	idx, refs := testIndex(t)

	res, err := Match(idx, refs[2].Seq[50:120])
	require.NoError(t, err)
	require.Equal(t, []int32{2}, res.Members)
	require.Equal(t, int32(2), res.Class)
	require.Equal(t, 70-15+1, res.Hits)

	// the shared half is compatible with both references that carry it
	res, err = Match(idx, refs[0].Seq[10:60])
	require.NoError(t, err)
	require.Equal(t, []int32{0, 4}, res.Members)
	members, _ := idx.Classes.Members(res.Class)
	require.Equal(t, []int32{0, 4}, members)

	// reverse complemented reads match the same references
	res, err = Match(idx, alphabet.ReverseComplement(refs[2].Seq[50:120]))
	require.NoError(t, err)
	require.Equal(t, []int32{2}, res.Members)

	// no indexed k-mers
	res, err = Match(idx, []byte("NNNNNNNNNNNNNNNNNNNN"))
	require.NoError(t, err)
	require.Empty(t, res.Members)
	require.Equal(t, int32(-1), res.Class)
	require.Zero(t, res.Hits)

	// a chimera of two references is compatible with neither
	chimera := append(append([]byte{}, refs[1].Seq[:40]...), refs[3].Seq[:40]...)
	res, err = Match(idx, chimera)
	require.NoError(t, err)
	require.Empty(t, res.Members)
	require.Equal(t, int32(-1), res.Class)
	require.Greater(t, res.Hits, 0)
}

func TestMatchWithoutKmerTable(t *testing.T) {
	idx, refs := testIndex(t)

	var buf bytes.Buffer
	require.NoError(t, idx.Write(&buf, true))
	loaded, err := index.Read(&buf, index.LoadOptions{LoadKmerTable: false})
	require.NoError(t, err)

	_, err = Match(loaded, refs[0].Seq)
	require.ErrorIs(t, err, ErrNoKmerTable)
	_, err = Run(loaded, &failingReader{}, new(bytes.Buffer), 1)
	require.ErrorIs(t, err, ErrNoKmerTable)
}

// at k = 3 the poly-A filter empties the k-mer map of these references, but
// the table is still there and reads are simply unassigned
func TestMatchEmptyKmerTable(t *testing.T) {
	refs := []fasta.Reference{
		{ID: 0, Name: "a", Seq: []byte("AAAA")},
		{ID: 1, Name: "b", Seq: []byte("AAAT")},
	}
	idx, _, err := index.Build(refs, index.BuildOptions{K: 3})
	require.NoError(t, err)
	require.Empty(t, idx.Kmers)

	var buf bytes.Buffer
	require.NoError(t, idx.Write(&buf, true))
	loaded, err := index.Read(&buf, index.LoadOptions{LoadKmerTable: true})
	require.NoError(t, err)

	for _, x := range []*index.Index{idx, loaded} {
		res, err := Match(x, []byte("AAAT"))
		require.NoError(t, err)
		require.Equal(t, Result{Class: -1}, res)

		r, err := reads.NewReader(strings.NewReader(">q\nAAAT\n"), reads.FASTA)
		require.NoError(t, err)
		var out bytes.Buffer
		summary, err := Run(x, r, &out, 2)
		require.NoError(t, err)
		require.Equal(t, "q\t-1\t0\t*\n", out.String())
		require.Equal(t, Summary{Reads: 1, Unassigned: 1}, summary)
	}
}

func TestRun(t *testing.T) {
	idx, refs := testIndex(t)

	var in strings.Builder
	fmt.Fprintf(&in, ">q0\n%s\n", refs[2].Seq[50:120])
	fmt.Fprintf(&in, ">q1 shared\n%s\n", refs[0].Seq[10:60])
	in.WriteString(">q2\nNNNNNNNNNNNNNNNNNNNN\n")
	fmt.Fprintf(&in, ">q3\n%s\n", refs[4].Seq[150:])

	want := "q0\t2\t56\tref2\n" +
		"q1\t" + fmt.Sprint(classOf(t, idx, 0, 4)) + "\t36\tref0,ref4\n" +
		"q2\t-1\t0\t*\n" +
		"q3\t4\t36\tref4\n"

	for _, threads := range []int{1, 4} {
		r, err := reads.NewReader(strings.NewReader(in.String()), reads.FASTA)
		require.NoError(t, err)

		var out bytes.Buffer
		summary, err := Run(idx, r, &out, threads)
		require.NoError(t, err)
		require.Equal(t, want, out.String(), "threads = %d", threads)
		require.Equal(t, Summary{Reads: 4, Assigned: 3, Unassigned: 1}, summary)
	}
}

func classOf(t *testing.T, idx *index.Index, members ...int32) int32 {
	t.Helper()
	ec, ok := idx.Classes.Lookup(members)
	require.True(t, ok)
	return ec
}

type failingReader struct{ n int }

func (f *failingReader) Read() (reads.Read, error) {
	f.n++
	if f.n > 3 {
		return reads.Read{}, fmt.Errorf("disk on fire")
	}
	return reads.Read{Name: "q", Seq: []byte("ACGT")}, nil
}

func TestRunReaderError(t *testing.T) {
	idx, _ := testIndex(t)
	_, err := Run(idx, &failingReader{}, new(bytes.Buffer), 2)
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk on fire")
}
