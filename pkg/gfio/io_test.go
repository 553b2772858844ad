package gfio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func testCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "test",
		Short:   "test",
		Long:    `test`,
		Version: "1.0",
	}
	var reference, output string
	cmd.PersistentFlags().StringVarP(&reference, "reference", "r", Stdin, "Reference fasta file")
	cmd.PersistentFlags().StringVar(&output, "output", Stdout, "Output file")
	return cmd
}

func TestOpenIn(t *testing.T) {
	cmd := testCmd()
	cmd.PersistentFlags().Set("reference", "not/a/file.whatever")

	_, err := OpenIn(*cmd.Flag("reference"))
	want := "open -r / --reference not/a/file.whatever: no such file or directory"
	if err == nil || err.Error() != want {
		t.Errorf("want %q, got %v", want, err)
	}

	cmd = testCmd()
	f, err := OpenIn(*cmd.Flag("reference"))
	if err != nil {
		t.Fatal(err)
	}
	if f != os.Stdin {
		t.Errorf("expected stdin")
	}
	if err = Close(f); err != nil {
		t.Error(err)
	}
}

func TestOpenOut(t *testing.T) {
	cmd := testCmd()
	f, err := OpenOut(*cmd.Flag("output"))
	if err != nil || f != os.Stdout {
		t.Errorf("expected stdout, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.tsv")
	cmd.PersistentFlags().Set("output", path)
	f, err = OpenOut(*cmd.Flag("output"))
	if err != nil {
		t.Fatal(err)
	}
	if err = Close(f); err != nil {
		t.Error(err)
	}
	if _, err = os.Stat(path); err != nil {
		t.Error(err)
	}

	cmd.PersistentFlags().Set("output", filepath.Join(t.TempDir(), "no", "dir", "out.tsv"))
	_, err = OpenOut(*cmd.Flag("output"))
	if err == nil {
		t.Fatal("expected an error creating a file in a missing directory")
	}
	want := "open --output "
	if got := err.Error(); len(got) < len(want) || got[:len(want)] != want {
		t.Errorf("error should name the flag: %v", err)
	}
}
