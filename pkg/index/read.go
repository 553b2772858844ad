package index

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/virus-evolution/ecindex/pkg/ecmap"
	"github.com/virus-evolution/ecindex/pkg/kmer"
)

// LoadOptions control how an index file is read
type LoadOptions struct {
	// K is the k-mer size the caller already works with. 0 accepts the
	// stored value; anything else must equal it.
	K int

	// LoadKmerTable reads the k-mer map. When false only the references and
	// the equivalence classes are loaded.
	LoadKmerTable bool
}

// decoder reads fixed-width little-endian fields and keeps the first error
type decoder struct {
	r   *bufio.Reader
	buf [8]byte
	err error
}

func (d *decoder) read(n int, field string) []byte {
	if d.err != nil {
		return d.buf[:n]
	}
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		d.err = errors.Wrapf(ErrCorrupt, "reading %s: %v", field, err)
	}
	return d.buf[:n]
}

func (d *decoder) u64(field string) uint64 {
	return binary.LittleEndian.Uint64(d.read(8, field))
}

func (d *decoder) i32(field string) int32 {
	return int32(binary.LittleEndian.Uint32(d.read(4, field)))
}

func (d *decoder) discard(n int64, field string) {
	if d.err != nil {
		return
	}
	for n > 0 {
		chunk := n
		if chunk > math.MaxInt32 {
			chunk = math.MaxInt32
		}
		if _, err := d.r.Discard(int(chunk)); err != nil {
			d.err = errors.Wrapf(ErrCorrupt, "skipping %s: %v", field, err)
			return
		}
		n -= chunk
	}
}

// Read deserializes an index written by Write. Nothing is returned unless
// the whole index was read and is consistent.
func Read(r io.Reader, opts LoadOptions) (*Index, error) {
	d := &decoder{r: bufio.NewReader(r)}

	version := d.u64("version")
	if d.err != nil {
		return nil, d.err
	}
	if version != Version {
		return nil, errors.Wrapf(ErrVersionMismatch,
			"found version %d, expected version %d; rerun the build command to regenerate the index", version, Version)
	}

	k := int(d.i32("k"))
	if d.err != nil {
		return nil, d.err
	}
	if opts.K != 0 && opts.K != k {
		return nil, errors.Wrapf(ErrKConflict, "k was already set to %d, which conflicts with the index's k = %d", opts.K, k)
	}
	codec, err := kmer.NewCodec(k)
	if err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}

	n := d.i32("number of references")
	if d.err != nil {
		return nil, d.err
	}
	if n < 0 {
		return nil, errors.Wrapf(ErrCorrupt, "%d references", n)
	}

	lengths := make([]int32, 0)
	for i := int32(0); i < n; i++ {
		l := d.i32("reference length")
		if d.err != nil {
			return nil, d.err
		}
		if l < 0 {
			return nil, errors.Wrapf(ErrCorrupt, "reference %d has length %d", i, l)
		}
		lengths = append(lengths, l)
	}

	kmapSize := d.u64("k-mer map size")
	if d.err != nil {
		return nil, d.err
	}
	log.Debugf("[index] k: %d", k)
	log.Debugf("[index] number of references: %d", n)
	log.Debugf("[index] k-mer map size: %d", kmapSize)

	kmers := make(map[kmer.Kmer]int32)
	if opts.LoadKmerTable {
		limit := uint64(1) << (2 * uint(k))
		for i := uint64(0); i < kmapSize; i++ {
			km := d.u64("k-mer")
			ec := d.i32("k-mer class")
			if d.err != nil {
				return nil, d.err
			}
			if km >= limit {
				return nil, errors.Wrapf(ErrCorrupt, "k-mer %d does not fit in k = %d", km, k)
			}
			if _, ok := kmers[kmer.Kmer(km)]; ok {
				return nil, errors.Wrapf(ErrCorrupt, "k-mer %s appears twice", codec.String(kmer.Kmer(km)))
			}
			kmers[kmer.Kmer(km)] = ec
		}
	} else {
		if kmapSize > math.MaxInt64/kmerTableBytes {
			return nil, errors.Wrapf(ErrCorrupt, "k-mer map size %d", kmapSize)
		}
		d.discard(int64(kmapSize)*kmerTableBytes, "k-mer map")
	}

	numClasses := d.u64("number of classes")
	if d.err != nil {
		return nil, d.err
	}
	log.Debugf("[index] number of classes: %d", numClasses)
	if numClasses > math.MaxInt32 {
		return nil, errors.Wrapf(ErrCorrupt, "%d classes", numClasses)
	}

	byID := make(map[int32][]int32)
	for i := uint64(0); i < numClasses; i++ {
		id := d.i32("class ID")
		size := d.u64("class size")
		if d.err != nil {
			return nil, d.err
		}
		if id < 0 || uint64(id) >= numClasses {
			return nil, errors.Wrapf(ErrCorrupt, "class ID %d out of range", id)
		}
		if _, ok := byID[id]; ok {
			return nil, errors.Wrapf(ErrCorrupt, "class %d appears twice", id)
		}
		if size == 0 || size > uint64(n) {
			return nil, errors.Wrapf(ErrCorrupt, "class %d has %d members", id, size)
		}
		members := make([]int32, size)
		for j := range members {
			members[j] = d.i32("class member")
		}
		if d.err != nil {
			return nil, d.err
		}
		byID[id] = members
	}

	classes := make([][]int32, numClasses)
	for id, members := range byID {
		classes[id] = members
	}
	registry, err := ecmap.FromClasses(int(n), classes)
	if err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}

	names := make([]string, 0)
	for i := int32(0); i < n; i++ {
		l := d.u64("name length")
		if d.err != nil {
			return nil, d.err
		}
		if l > MaxNameLength {
			return nil, errors.Wrapf(ErrNameTooLong, "reference %d: %d bytes, the limit is %d", i, l, MaxNameLength)
		}
		name := make([]byte, l)
		if _, err = io.ReadFull(d.r, name); err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "reading name of reference %d: %v", i, err)
		}
		names = append(names, string(name))
	}

	for km, ec := range kmers {
		if ec < 0 || int(ec) >= registry.Len() {
			return nil, errors.Wrapf(ErrCorrupt, "k-mer %s has unknown class %d", codec.String(km), ec)
		}
	}

	return &Index{
		K:       k,
		Names:   names,
		Lengths: lengths,
		Kmers:   kmers,
		Classes: registry,
		codec:   codec,

		kmerTable: opts.LoadKmerTable,
	}, nil
}

// Load reads the index file at path
func Load(path string, opts LoadOptions) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "index input file could not be opened")
	}
	defer f.Close()

	idx, err := Read(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return idx, nil
}
