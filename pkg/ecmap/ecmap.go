/*
Package ecmap holds the equivalence classes of an index: a one-to-one mapping
between sets of reference IDs and compact class IDs.

Class IDs 0..n-1 are the singleton classes {i} of the n references. Larger IDs
are allocated in increasing order the first time a multi-member set is seen.
*/
package ecmap

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

var (
	ErrEmptySet    = errors.New("empty reference set")
	ErrUnsortedSet = errors.New("reference set is not strictly ascending")
	ErrBadMember   = errors.New("reference ID out of range")
	ErrDuplicate   = errors.New("reference set registered twice")
	ErrSingleton   = errors.New("singleton classes must come first, in reference order")
)

// Registry is a bidirectional map between reference sets and class IDs.
// It is not safe for concurrent mutation.
type Registry struct {
	numRefs int
	classes [][]int32          // class ID -> members
	buckets map[uint64][]int32 // hash of members -> class IDs
}

// New returns a Registry holding the singleton class of each of numRefs references
func New(numRefs int) *Registry {
	r := &Registry{
		numRefs: numRefs,
		classes: make([][]int32, 0, numRefs),
		buckets: make(map[uint64][]int32, numRefs),
	}
	for i := 0; i < numRefs; i++ {
		r.add([]int32{int32(i)})
	}
	return r
}

// FromClasses rebuilds a Registry from classes indexed by class ID, checking
// that the first numRefs are the singletons and that no set appears twice
func FromClasses(numRefs int, classes [][]int32) (*Registry, error) {
	if len(classes) < numRefs {
		return nil, errors.Wrapf(ErrSingleton, "%d classes for %d references", len(classes), numRefs)
	}
	r := &Registry{
		numRefs: numRefs,
		classes: make([][]int32, 0, len(classes)),
		buckets: make(map[uint64][]int32, len(classes)),
	}
	for id, members := range classes {
		if id < numRefs && (len(members) != 1 || members[0] != int32(id)) {
			return nil, errors.Wrapf(ErrSingleton, "class %d is %v", id, members)
		}
		if err := r.check(members); err != nil {
			return nil, errors.Wrapf(err, "class %d", id)
		}
		if other, ok := r.Lookup(members); ok {
			return nil, errors.Wrapf(ErrDuplicate, "classes %d and %d are both %v", other, id, members)
		}
		r.add(slices.Clone(members))
	}
	return r, nil
}

// NumReferences returns the number of references, which is also the number of singleton classes
func (r *Registry) NumReferences() int {
	return r.numRefs
}

// Len returns the number of classes
func (r *Registry) Len() int {
	return len(r.classes)
}

// Classify returns the class ID of set, registering it if it has not been
// seen before. set must be strictly ascending and non-empty.
func (r *Registry) Classify(set []int32) (int32, error) {
	if err := r.check(set); err != nil {
		return -1, err
	}
	if len(set) == 1 {
		return set[0], nil
	}
	if id, ok := r.Lookup(set); ok {
		return id, nil
	}
	return r.add(slices.Clone(set)), nil
}

// Lookup returns the class ID of set without registering it
func (r *Registry) Lookup(set []int32) (int32, bool) {
	for _, id := range r.buckets[hash(set)] {
		if slices.Equal(r.classes[id], set) {
			return id, true
		}
	}
	return -1, false
}

// Members returns the reference IDs of class id. The slice must not be modified.
func (r *Registry) Members(id int32) ([]int32, bool) {
	if id < 0 || int(id) >= len(r.classes) {
		return nil, false
	}
	return r.classes[id], true
}

// Each calls fn for every class in ascending ID order
func (r *Registry) Each(fn func(id int32, members []int32)) {
	for id, members := range r.classes {
		fn(int32(id), members)
	}
}

func (r *Registry) add(set []int32) int32 {
	id := int32(len(r.classes))
	r.classes = append(r.classes, set)
	h := hash(set)
	r.buckets[h] = append(r.buckets[h], id)
	return id
}

func (r *Registry) check(set []int32) error {
	if len(set) == 0 {
		return ErrEmptySet
	}
	for i, m := range set {
		if m < 0 || int(m) >= r.numRefs {
			return errors.Wrapf(ErrBadMember, "%d (%d references)", m, r.numRefs)
		}
		if i > 0 && set[i-1] >= m {
			return errors.Wrapf(ErrUnsortedSet, "%v", set)
		}
	}
	return nil
}

func hash(set []int32) uint64 {
	buf := make([]byte, 4*len(set))
	for i, m := range set {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(m))
	}
	return xxhash.Sum64(buf)
}
