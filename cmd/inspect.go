package cmd

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/virus-evolution/ecindex/pkg/gfio"
	"github.com/virus-evolution/ecindex/pkg/index"
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringP("index", "i", "", "The index file to read")
	inspectCmd.Flags().StringP("output", "o", gfio.Stdout, "The output file to write")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the references and equivalence classes of an index",
	Long: `Print the references and equivalence classes of an index

Output is tab-separated: a header, one "ref" line per reference (id, name,
length) and one "class" line per equivalence class (id, comma-separated
member ids). The k-mer table is not loaded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if c.Index == "" {
			return errors.New("no index given")
		}

		idx, err := index.Load(c.Index, index.LoadOptions{LoadKmerTable: false})
		if err != nil {
			return err
		}

		f, err := gfio.OpenOut(*cmd.Flag("output"))
		if err != nil {
			return err
		}
		defer gfio.Close(f)

		w := bufio.NewWriter(f)
		writeSummary(w, idx)
		return w.Flush()
	},
}

func writeSummary(w *bufio.Writer, idx *index.Index) {
	fmt.Fprintf(w, "#k\t%d\n", idx.K)
	fmt.Fprintf(w, "#references\t%d\n", idx.NumReferences())
	fmt.Fprintf(w, "#classes\t%d\n", idx.Classes.Len())
	for i, name := range idx.Names {
		fmt.Fprintf(w, "ref\t%d\t%s\t%d\n", i, name, idx.Lengths[i])
	}
	idx.Classes.Each(func(id int32, members []int32) {
		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = strconv.Itoa(int(m))
		}
		fmt.Fprintf(w, "class\t%d\t%s\n", id, strings.Join(ids, ","))
	})
}
