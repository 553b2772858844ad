package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/virus-evolution/ecindex/pkg/gfio"
	"github.com/virus-evolution/ecindex/pkg/index"
	"github.com/virus-evolution/ecindex/pkg/pseudo"
	"github.com/virus-evolution/ecindex/pkg/reads"
)

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("index", "i", "", "The index file to read. It must have been built with its k-mer table")
	matchCmd.Flags().String("reads", gfio.Stdin, "Reads to pseudo-align, in fasta, sam or bam format. If none is specified, will read fasta from stdin")
	matchCmd.Flags().String("format", "", "Format of --reads (fasta, sam or bam). Guessed from the file extension if not given")
	matchCmd.Flags().StringP("output", "o", gfio.Stdout, "The output file to write")
	matchCmd.Flags().IntP("threads", "t", 1, "Number of threads to use")
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Pseudo-align reads against an index",
	Long: `Pseudo-align reads against an index

Each read is assigned the references that contain every one of its indexed
k-mers. Output is tab-separated, one line per read in input order:
name, class id (-1 if the set is not a class), number of indexed k-mers,
comma-separated reference names (* if none).

Secondary and supplementary sam/bam records are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err = c.ValidateMatch(); err != nil {
			return err
		}

		var format reads.Format
		if c.Format != "" {
			if format, err = reads.ParseFormat(c.Format); err != nil {
				return err
			}
		}

		idx, err := index.Load(c.Index, index.LoadOptions{LoadKmerTable: true})
		if err != nil {
			return err
		}
		if len(idx.Kmers) == 0 {
			log.Warnf("%s has an empty k-mer table (built with --no-kmer-table?), no read will be assigned", c.Index)
		}

		in, err := gfio.OpenIn(*cmd.Flag("reads"))
		if err != nil {
			return err
		}
		defer gfio.Close(in)

		var r reads.Reader
		if c.Format != "" {
			r, err = reads.NewReader(in, format)
		} else {
			r, err = reads.Open(c.Reads, in)
		}
		if err != nil {
			return err
		}

		out, err := gfio.OpenOut(*cmd.Flag("output"))
		if err != nil {
			return err
		}

		_, err = pseudo.Run(idx, r, out, c.Threads)
		if err != nil {
			gfio.Close(out)
			return err
		}
		return gfio.Close(out)
	},
}
