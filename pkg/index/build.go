package index

import (
	"bytes"
	"context"
	"sync"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/virus-evolution/ecindex/pkg/ecmap"
	"github.com/virus-evolution/ecindex/pkg/fasta"
	"github.com/virus-evolution/ecindex/pkg/kmer"
	"github.com/virus-evolution/ecindex/pkg/textindex"
)

var (
	ErrNoReferences = errors.New("no reference sequences")
	ErrReferenceID  = errors.New("reference IDs must match their input order")
)

// BuildOptions control index construction
type BuildOptions struct {
	K int

	// Threads > 1 resolves references concurrently. The result is identical
	// to a single-threaded build.
	Threads int

	// Searcher, if set, is used instead of building a suffix array over the references
	Searcher textindex.Searcher

	// Progress, if set, is called after each reference has been classified
	Progress func(done, total int)
}

// Build indexes every canonical k-mer of refs, then removes the k-mers close to poly-A
func Build(refs []fasta.Reference, opts BuildOptions) (*Index, Stats, error) {
	idx, err := build(refs, opts)
	if err != nil {
		return nil, Stats{}, err
	}

	log.Infof("found %s k-mers in %s equivalence classes before filtering",
		humanize.Comma(int64(len(idx.Kmers))), humanize.Comma(int64(idx.Classes.Len())))

	removed := idx.FilterPolyA()

	stats := idx.stats()
	stats.Removed = removed
	log.Infof("created %s equivalence classes from %s references",
		humanize.Comma(int64(stats.Classes)), humanize.Comma(int64(stats.References)))
	log.Infof("k-mer map has %s k-mers (%d removed near poly-A)", humanize.Comma(int64(stats.Kmers)), removed)

	return idx, stats, nil
}

// build classifies every canonical k-mer of refs, without filtering
func build(refs []fasta.Reference, opts BuildOptions) (*Index, error) {
	codec, err := kmer.NewCodec(opts.K)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, ErrNoReferences
	}

	idx := &Index{
		K:       opts.K,
		Names:   make([]string, len(refs)),
		Lengths: make([]int32, len(refs)),
		Kmers:   make(map[kmer.Kmer]int32),
		Classes: ecmap.New(len(refs)),
		codec:   codec,

		kmerTable: true,
	}

	refs = upperCase(refs)
	seqs := make([][]byte, len(refs))
	for i, ref := range refs {
		if ref.ID != int32(i) {
			return nil, errors.Wrapf(ErrReferenceID, "reference %s has ID %d at position %d", ref.Name, ref.ID, i)
		}
		idx.Names[i] = ref.Name
		idx.Lengths[i] = int32(ref.Length())
		seqs[i] = ref.Seq
	}

	log.Infof("indexing %s references, k: %d", humanize.Comma(int64(len(refs))), opts.K)

	s := opts.Searcher
	if s == nil {
		log.Debugf("building suffix array")
		s = textindex.NewSuffixArray(seqs)
	}

	b := &builder{idx: idx, searcher: s, progress: opts.Progress, total: len(refs)}
	if opts.Threads > 1 {
		err = b.buildParallel(refs, opts.Threads)
	} else {
		err = b.buildSerial(refs)
	}
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// upperCase returns refs with their sequences in upper case. The searcher
// matches bytes exactly, so a lower case base would never be found in an
// upper case reference. Sequences that need it are copied, refs is not modified.
func upperCase(refs []fasta.Reference) []fasta.Reference {
	out := make([]fasta.Reference, len(refs))
	copy(out, refs)
	for i := range out {
		if bytes.IndexFunc(out[i].Seq, unicode.IsLower) >= 0 {
			out[i].Seq = bytes.ToUpper(out[i].Seq)
		}
	}
	return out
}

type builder struct {
	idx      *Index
	searcher textindex.Searcher
	progress func(done, total int)
	total    int
	done     int

	// guards idx.Kmers while workers read it during a parallel build
	mu sync.RWMutex

	// window is the most references a parallel build resolves ahead of the
	// last committed one. peak is the largest number of resolved references
	// that were waiting to be committed.
	window int
	peak   int
}

func (b *builder) step() {
	b.done++
	if b.progress != nil {
		b.progress(b.done, b.total)
	}
}

// classify records the class of km, unless km already has one
func (b *builder) classify(km kmer.Kmer, set []int32) error {
	if _, ok := b.idx.Kmers[km]; ok {
		return nil
	}
	ec, err := b.idx.Classes.Classify(set)
	if err != nil {
		return errors.Wrapf(err, "classifying k-mer %s", b.idx.codec.String(km))
	}
	b.mu.Lock()
	b.idx.Kmers[km] = ec
	b.mu.Unlock()
	return nil
}

func (b *builder) known(km kmer.Kmer) bool {
	b.mu.RLock()
	_, ok := b.idx.Kmers[km]
	b.mu.RUnlock()
	return ok
}

func (b *builder) buildSerial(refs []fasta.Reference) error {
	k := b.idx.K
	var err error
	for _, ref := range refs {
		b.idx.codec.Windows(ref.Seq, func(w kmer.Window) bool {
			// the first classification of a k-mer is kept
			if _, ok := b.idx.Kmers[w.Kmer]; ok {
				return true
			}
			var set []int32
			set, err = textindex.Resolve(b.searcher, ref.Seq[w.Pos:w.Pos+k])
			if err != nil {
				err = errors.Wrapf(err, "reference %s position %d", ref.Name, w.Pos)
				return false
			}
			err = b.classify(w.Kmer, set)
			return err == nil
		})
		if err != nil {
			return err
		}
		b.step()
	}
	return nil
}

// resolved holds the reference sets of the distinct k-mers of one reference
// that were not yet classified when it was resolved, in order of first occurrence
type resolved struct {
	ref   int
	kmers []kmer.Kmer
	sets  [][]int32
}

func (b *builder) resolveReference(i int, ref fasta.Reference) (resolved, error) {
	k := b.idx.K
	r := resolved{ref: i}
	seen := make(map[kmer.Kmer]bool)
	var err error
	b.idx.codec.Windows(ref.Seq, func(w kmer.Window) bool {
		if seen[w.Kmer] {
			return true
		}
		seen[w.Kmer] = true
		// every classified k-mer came from an earlier reference, and the
		// first classification is kept
		if b.known(w.Kmer) {
			return true
		}
		var set []int32
		set, err = textindex.Resolve(b.searcher, ref.Seq[w.Pos:w.Pos+k])
		if err != nil {
			err = errors.Wrapf(err, "reference %s position %d", ref.Name, w.Pos)
			return false
		}
		r.kmers = append(r.kmers, w.Kmer)
		r.sets = append(r.sets, set)
		return true
	})
	return r, err
}

// buildParallel resolves references on a pool of workers and classifies the
// results in reference order, so that class IDs are allocated exactly as in
// buildSerial. At most b.window references are handed out beyond the last
// one committed.
func (b *builder) buildParallel(refs []fasta.Reference, threads int) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if b.window < threads {
		b.window = 4 * threads
	}

	jobs := make(chan int)
	results := make(chan resolved, threads)
	// one token per reference handed out and not yet committed
	inflight := make(chan struct{}, b.window)

	g.Go(func() error {
		defer close(jobs)
		for i := range refs {
			select {
			case inflight <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for i := range jobs {
				r, err := b.resolveReference(i, refs[i])
				if err != nil {
					return err
				}
				select {
				case results <- r:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	pending := make(map[int]resolved)
	next := 0
	var commitErr error
	for r := range results {
		if commitErr != nil {
			continue
		}
		pending[r.ref] = r
		if len(pending) > b.peak {
			b.peak = len(pending)
		}
		for {
			rr, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			for j, km := range rr.kmers {
				if commitErr = b.classify(km, rr.sets[j]); commitErr != nil {
					cancel()
					break
				}
			}
			if commitErr != nil {
				break
			}
			next++
			b.step()
			<-inflight
		}
	}

	err := g.Wait()
	if commitErr != nil {
		return commitErr
	}
	return err
}
