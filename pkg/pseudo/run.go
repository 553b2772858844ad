package pseudo

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/virus-evolution/ecindex/pkg/index"
	"github.com/virus-evolution/ecindex/pkg/reads"
)

// Summary counts the outcome of a Run
type Summary struct {
	Reads      int
	Assigned   int
	Unassigned int
}

type job struct {
	idx  int
	read reads.Read
}

type matched struct {
	idx  int
	name string
	res  Result
}

// Run matches every read from r against idx on threads workers and writes
// one tab-separated line per read to w, in input order:
//
//	name  class  hits  members
//
// class is -1 when the members are not a registered class, and members is a
// comma-separated list of reference names ("*" for none).
func Run(idx *index.Index, r reads.Reader, w io.Writer, threads int) (Summary, error) {
	if !idx.HasKmerTable() {
		return Summary{}, ErrNoKmerTable
	}
	if threads < 1 {
		threads = 1
	}

	g, ctx := errgroup.WithContext(context.Background())
	jobs := make(chan job, threads)
	results := make(chan matched, threads)

	g.Go(func() error {
		defer close(jobs)
		for counter := 0; ; counter++ {
			rd, err := r.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "reading query %d", counter+1)
			}
			select {
			case jobs <- job{idx: counter, read: rd}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	var wg sync.WaitGroup
	for n := 0; n < threads; n++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for j := range jobs {
				res, err := Match(idx, j.read.Seq)
				if err != nil {
					return errors.Wrap(err, j.read.Name)
				}
				select {
				case results <- matched{idx: j.idx, name: j.read.Name, res: res}:
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

	// results arrive in any order; outputMap holds them until the next one
	// in input order turns up
	var summary Summary
	var writeErr error
	bw := bufio.NewWriter(w)
	outputMap := make(map[int]matched)
	next := 0
	for m := range results {
		if writeErr != nil {
			continue
		}
		outputMap[m.idx] = m
		for {
			mm, ok := outputMap[next]
			if !ok {
				break
			}
			delete(outputMap, next)
			_, writeErr = fmt.Fprintf(bw, "%s\t%d\t%d\t%s\n", mm.name, mm.res.Class, mm.res.Hits, memberNames(idx, mm.res.Members))
			if writeErr != nil {
				break
			}
			summary.Reads++
			if len(mm.res.Members) > 0 {
				summary.Assigned++
			} else {
				summary.Unassigned++
			}
			next++
		}
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	if writeErr != nil {
		return summary, errors.Wrap(writeErr, "writing results")
	}
	if err := bw.Flush(); err != nil {
		return summary, errors.Wrap(err, "writing results")
	}

	log.Infof("pseudo-aligned %s reads: %s assigned, %s unassigned",
		humanize.Comma(int64(summary.Reads)), humanize.Comma(int64(summary.Assigned)), humanize.Comma(int64(summary.Unassigned)))
	return summary, nil
}

func memberNames(idx *index.Index, members []int32) string {
	if len(members) == 0 {
		return "*"
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = idx.Names[m]
	}
	return strings.Join(names, ",")
}
