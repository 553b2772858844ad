package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/virus-evolution/ecindex/pkg/config"
)

var (
	rootCmd = &cobra.Command{
		Use:   "ecindex",
		Short: "k-mer equivalence class indexes of reference sequences",
		Long: `k-mer equivalence class indexes of reference sequences

Every canonical k-mer of a reference set is assigned the set of references
that contain it. Identical sets share one equivalence class. The index is
saved in a versioned binary format and can be used to pseudo-align reads.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().String("config", "", "Configuration file (yaml, toml or json). Flags take priority over ECINDEX_ environment variables, which take priority over the file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug messages")

	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

// loadConfig merges the command's flags with the environment and the config
// file, and sets the log level
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	c, err := config.New(cmd.Flags())
	if err != nil {
		return c, err
	}
	if c.Verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	return c, nil
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
