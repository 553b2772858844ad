package cmd

import (
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/virus-evolution/ecindex/pkg/fasta"
	"github.com/virus-evolution/ecindex/pkg/index"
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("reference", "r", "", "Reference sequences in fasta format. If a samtools .fai index sits next to it, the two must agree")
	buildCmd.Flags().StringP("index", "o", "", "The index file to write")
	buildCmd.Flags().IntP("k", "k", 31, "k-mer size, at most 31")
	buildCmd.Flags().IntP("threads", "t", 1, "Number of threads to use")
	buildCmd.Flags().Bool("no-kmer-table", false, "Write only the references and equivalence classes")
	buildCmd.Flags().Bool("progress", false, "Show a progress bar over the references")
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a k-mer equivalence class index",
	Long: `Build a k-mer equivalence class index

Example usage:
	ecindex build -r transcripts.fa -k 31 -t 4 -o transcripts.idx

k-mers within two substitutions of the poly-A k-mer are removed from the
index after it is built.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err = c.ValidateBuild(); err != nil {
			return err
		}

		refs, err := fasta.LoadReferences(c.Reference)
		if err != nil {
			return err
		}

		opts := index.BuildOptions{K: c.K, Threads: c.Threads}

		var pbs *mpb.Progress
		var bar *mpb.Bar
		if c.Progress {
			pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
			bar = pbs.AddBar(int64(len(refs)),
				mpb.PrependDecorators(
					decor.Name("indexed references: ", decor.WC{W: len("indexed references: "), C: decor.DidentRight}),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
					decor.EwmaETA(decor.ET_STYLE_GO, 10),
					decor.OnComplete(decor.Name(""), ". done"),
				),
			)
			last := time.Now()
			opts.Progress = func(done, total int) {
				now := time.Now()
				bar.EwmaIncrBy(1, now.Sub(last))
				last = now
			}
		}

		idx, stats, err := index.Build(refs, opts)
		if pbs != nil {
			if err != nil {
				bar.Abort(false)
			}
			pbs.Wait()
		}
		if err != nil {
			return errors.Wrap(err, "building index")
		}

		if err = idx.Save(c.Index, !c.NoKmerTable); err != nil {
			return err
		}
		log.Infof("wrote %s: %d references, %d classes, %d k-mers", c.Index, stats.References, stats.Classes, stats.Kmers)
		return nil
	},
}
