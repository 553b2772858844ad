package index

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MaxNameLength is the longest reference name that can be written to or read from an index file
const MaxNameLength = 4096

var (
	ErrVersionMismatch = errors.New("incompatible index version")
	ErrKConflict       = errors.New("k-mer size conflict")
	ErrNameTooLong     = errors.New("reference name too long")
	ErrCorrupt         = errors.New("corrupt index file")
)

// encoder writes fixed-width little-endian fields and keeps the first error
type encoder struct {
	w   *bufio.Writer
	buf [8]byte
	err error
}

func (e *encoder) write(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) u64(v uint64) {
	binary.LittleEndian.PutUint64(e.buf[:], v)
	e.write(e.buf[:8])
}

func (e *encoder) i32(v int32) {
	binary.LittleEndian.PutUint32(e.buf[:], uint32(v))
	e.write(e.buf[:4])
}

// Write serializes the index to w. The layout is:
//
//	version                 uint64
//	k                       int32
//	number of references n  int32
//	reference lengths       n x int32
//	number of k-mers m      uint64 (0 if writeKmerTable is false)
//	k-mer, class ID         m x (uint64, int32), in ascending k-mer order
//	number of classes c     uint64
//	classes                 c x (ID int32, size s uint64, members s x int32), in ascending ID order
//	reference names         n x (length uint64, bytes)
//
// All fields are little-endian.
func (idx *Index) Write(w io.Writer, writeKmerTable bool) error {
	for _, name := range idx.Names {
		if len(name) > MaxNameLength {
			return errors.Wrapf(ErrNameTooLong, "%d bytes, the limit is %d", len(name), MaxNameLength)
		}
	}
	if len(idx.Lengths) != len(idx.Names) {
		return errors.Errorf("index has %d names but %d lengths", len(idx.Names), len(idx.Lengths))
	}

	e := &encoder{w: bufio.NewWriter(w)}

	e.u64(Version)
	e.i32(int32(idx.K))
	e.i32(int32(len(idx.Names)))
	for _, l := range idx.Lengths {
		e.i32(l)
	}

	if writeKmerTable {
		kms := maps.Keys(idx.Kmers)
		slices.Sort(kms)
		e.u64(uint64(len(kms)))
		for _, km := range kms {
			e.u64(uint64(km))
			e.i32(idx.Kmers[km])
		}
	} else {
		e.u64(0)
	}

	e.u64(uint64(idx.Classes.Len()))
	idx.Classes.Each(func(id int32, members []int32) {
		e.i32(id)
		e.u64(uint64(len(members)))
		for _, m := range members {
			e.i32(m)
		}
	})

	for _, name := range idx.Names {
		e.u64(uint64(len(name)))
		e.write([]byte(name))
	}

	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

// Save writes the index to path. The file is written under a temporary name
// in the same directory and renamed into place once complete.
func (idx *Index) Save(path string, writeKmerTable bool) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrap(err, "index output file could not be opened")
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err = idx.Write(f, writeKmerTable); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Chmod(f.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// kmerTableBytes is the on-disk size of one k-mer table entry
const kmerTableBytes = 8 + 4
