/*
Package gfio opens the files named by command line flags. "stdin" and
"stdout" stand for the standard streams, and errors name the flag that
supplied the bad path.
*/
package gfio

import (
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

const (
	Stdin  = "stdin"
	Stdout = "stdout"
)

func flagString(flag pflag.Flag) string {
	if len(flag.Shorthand) == 0 {
		return "--" + flag.Name
	}
	return "-" + flag.Shorthand + " / --" + flag.Name
}

func parseErr(err error, flag pflag.Flag) error {
	switch x := err.(type) {
	case *fs.PathError:
		return errors.New(x.Op + " " + flagString(flag) + " " + x.Path + ": " + x.Err.Error())
	default:
		return err
	}
}

// OpenIn opens the file named by flag for reading
func OpenIn(flag pflag.Flag) (*os.File, error) {
	inFile := flag.Value.String()
	if inFile == Stdin {
		return os.Stdin, nil
	}
	f, err := os.Open(inFile)
	if err != nil {
		return nil, parseErr(err, flag)
	}
	return f, nil
}

// OpenOut creates the file named by flag
func OpenOut(flag pflag.Flag) (*os.File, error) {
	outFile := flag.Value.String()
	if outFile == Stdout {
		return os.Stdout, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, parseErr(err, flag)
	}
	return f, nil
}

// Close closes f unless it is one of the standard streams
func Close(f *os.File) error {
	if f == os.Stdin || f == os.Stdout {
		return nil
	}
	return f.Close()
}
