package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func buildFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("build", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.StringP("reference", "r", "", "")
	flags.StringP("index", "o", "", "")
	flags.IntP("k", "k", 31, "")
	flags.IntP("threads", "t", 1, "")
	flags.Bool("no-kmer-table", false, "")
	flags.Bool("progress", false, "")
	return flags
}

func TestDefaults(t *testing.T) {
	flags := buildFlags()
	require.NoError(t, flags.Parse([]string{"-r", "refs.fa", "-o", "out.idx"}))

	c, err := New(flags)
	require.NoError(t, err)
	require.Equal(t, Config{Reference: "refs.fa", Index: "out.idx", K: 31, Threads: 1}, c)
	require.NoError(t, c.ValidateBuild())
}

func TestEnvironment(t *testing.T) {
	t.Setenv("ECINDEX_THREADS", "6")
	t.Setenv("ECINDEX_NO_KMER_TABLE", "true")

	flags := buildFlags()
	require.NoError(t, flags.Parse([]string{"-r", "refs.fa", "-o", "out.idx", "-k", "21"}))

	c, err := New(flags)
	require.NoError(t, err)
	require.Equal(t, 21, c.K)
	require.Equal(t, 6, c.Threads)
	require.True(t, c.NoKmerTable)
	require.Equal(t, "6", flags.Lookup("threads").Value.String())
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ecindex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("k: 15\nthreads: 3\nreference: from-file.fa\n"), 0644))

	flags := buildFlags()
	require.NoError(t, flags.Parse([]string{"--config", path, "-r", "refs.fa", "-o", "out.idx"}))

	c, err := New(flags)
	require.NoError(t, err)
	require.Equal(t, 15, c.K)
	require.Equal(t, 3, c.Threads)
	// flags take priority over the file
	require.Equal(t, "refs.fa", c.Reference)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("kmer-size: 15\n"), 0644))
	flags = buildFlags()
	require.NoError(t, flags.Parse([]string{"--config", bad}))
	_, err = New(flags)
	require.ErrorIs(t, err, ErrConfigFile)

	flags = buildFlags()
	require.NoError(t, flags.Parse([]string{"--config", filepath.Join(dir, "missing.yaml")}))
	_, err = New(flags)
	require.ErrorIs(t, err, ErrConfigFile)
}

func TestValidate(t *testing.T) {
	ok := Config{Reference: "r.fa", Index: "o.idx", K: 31, Threads: 1}
	require.NoError(t, ok.ValidateBuild())

	for _, c := range []Config{
		{Index: "o.idx", K: 31, Threads: 1},
		{Reference: "r.fa", K: 31, Threads: 1},
		{Reference: "r.fa", Index: "o.idx", K: 0, Threads: 1},
		{Reference: "r.fa", Index: "o.idx", K: 32, Threads: 1},
		{Reference: "r.fa", Index: "o.idx", K: 31, Threads: 0},
	} {
		require.ErrorIs(t, c.ValidateBuild(), ErrInvalid, "%+v", c)
	}

	require.NoError(t, Config{Index: "o.idx", Reads: "r.sam", Threads: 2}.ValidateMatch())
	require.ErrorIs(t, Config{Reads: "r.sam", Threads: 2}.ValidateMatch(), ErrInvalid)
	require.ErrorIs(t, Config{Index: "o.idx", Threads: 2}.ValidateMatch(), ErrInvalid)
}
