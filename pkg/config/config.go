// Package config holds the settings shared by the commands. They are
// unmarshalled from viper, which merges command line flags, ECINDEX_
// environment variables and an optional config file, in that priority order.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/virus-evolution/ecindex/pkg/kmer"
)

// EnvPrefix is prepended to the upper-cased flag names to find environment
// overrides, e.g. ECINDEX_THREADS or ECINDEX_NO_KMER_TABLE
const EnvPrefix = "ECINDEX"

var (
	ErrConfigFile = errors.New("error reading configuration file")
	ErrInvalid    = errors.New("invalid configuration")
)

// Config is the union of every command's settings. Each command only reads
// the fields it registered flags for.
type Config struct {
	// path to the reference fasta, for build
	Reference string `mapstructure:"reference"`

	// path to the index file, written by build and read by inspect and match
	Index string `mapstructure:"index"`

	// path to the query reads, for match
	Reads string `mapstructure:"reads"`

	// format of the query reads; empty guesses from the file extension
	Format string `mapstructure:"format"`

	// output path, or "stdout"
	Output string `mapstructure:"output"`

	K       int `mapstructure:"k"`
	Threads int `mapstructure:"threads"`

	// write only the references and classes
	NoKmerTable bool `mapstructure:"no-kmer-table"`

	Progress bool `mapstructure:"progress"`
	Verbose  bool `mapstructure:"verbose"`
}

// New reads flags (which define the valid options and their defaults), the
// environment and the file named by the "config" flag, if it is set
func New(flags *pflag.FlagSet) (Config, error) {
	var c Config
	v := viper.New()

	if err := v.BindPFlags(flags); err != nil {
		return c, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, errors.Wrapf(ErrConfigFile, "%s: %v", path, err)
		}

		valid := make(map[string]bool)
		flags.VisitAll(func(f *pflag.Flag) {
			valid[f.Name] = true
		})
		for _, key := range v.AllKeys() {
			if !valid[key] {
				return c, errors.Wrapf(ErrConfigFile, "%s: invalid option %q", path, key)
			}
		}
	}

	// write the merged values back, so that code reading the flags directly
	// sees the same settings
	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil {
			return
		}
		if value := v.GetString(f.Name); value != f.Value.String() {
			flagErr = errors.Wrapf(f.Value.Set(value), "setting --%s", f.Name)
		}
	})
	if flagErr != nil {
		return c, flagErr
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, errors.Wrap(err, "unable to decode configuration")
	}
	return c, nil
}

func (c Config) checkThreads() error {
	if c.Threads < 1 {
		return errors.Wrapf(ErrInvalid, "threads must be at least 1, got %d", c.Threads)
	}
	return nil
}

// ValidateBuild checks the settings the build command needs
func (c Config) ValidateBuild() error {
	if c.Reference == "" {
		return errors.Wrap(ErrInvalid, "no reference fasta given")
	}
	if c.Index == "" {
		return errors.Wrap(ErrInvalid, "no output index given")
	}
	if c.K < 1 || c.K > kmer.MaxK {
		return errors.Wrapf(ErrInvalid, "k must be between 1 and %d, got %d", kmer.MaxK, c.K)
	}
	return c.checkThreads()
}

// ValidateMatch checks the settings the match command needs
func (c Config) ValidateMatch() error {
	if c.Index == "" {
		return errors.Wrap(ErrInvalid, "no index given")
	}
	if c.Reads == "" {
		return errors.Wrap(ErrInvalid, "no reads given")
	}
	return c.checkThreads()
}
