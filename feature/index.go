// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package feature

import (
	"fmt"
	"sort"

	"github.com/biogo/store/interval"
)

// DuplicateIDError describes a pair of input features on one contig
// sharing a feature identifier.
type DuplicateIDError struct {
	Contig string
	ID     string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("feature: duplicate ID %q on contig %q", e.ID, e.Contig)
}

// record is a tree-resident feature interval.
type record struct {
	id uintptr
	f  *Feature
}

// Tree ranges are half open so an inclusive interval [b,e]
// is stored as [b,e+1).
func (r record) Overlap(b interval.IntRange) bool {
	return r.f.End+1 > b.Start && r.f.Begin < b.End
}
func (r record) ID() uintptr { return r.id }
func (r record) Range() interval.IntRange {
	return interval.IntRange{Start: r.f.Begin, End: r.f.End + 1}
}

// query is an inclusive interval query.
type query struct {
	begin, end int
}

func (q query) Overlap(b interval.IntRange) bool {
	return q.end+1 > b.Start && q.begin < b.End
}
func (q query) ID() uintptr { return 0 }
func (q query) Range() interval.IntRange {
	return interval.IntRange{Start: q.begin, End: q.end + 1}
}

// Index is a read-only coordinate index over a set of features. Within
// a contig, features are ordered by begin position with ties broken by
// ID, so traversal order is reproducible between runs. An Index must
// not be modified after construction; it may be shared between
// goroutines.
type Index struct {
	contigs []string
	ordered map[string][]*Feature
	byID    map[string]map[string]*Feature
	trees   map[string]*interval.IntTree
}

// BuildIndex constructs an Index from the given features. It returns a
// *DuplicateIDError if two features on one contig share an ID.
func BuildIndex(fs []*Feature) (*Index, error) {
	idx := &Index{
		ordered: make(map[string][]*Feature),
		byID:    make(map[string]map[string]*Feature),
		trees:   make(map[string]*interval.IntTree),
	}
	var id uintptr
	for _, f := range fs {
		ids, ok := idx.byID[f.Contig]
		if !ok {
			ids = make(map[string]*Feature)
			idx.byID[f.Contig] = ids
			idx.contigs = append(idx.contigs, f.Contig)
		}
		if _, exists := ids[f.ID]; exists {
			return nil, &DuplicateIDError{Contig: f.Contig, ID: f.ID}
		}
		ids[f.ID] = f
		idx.ordered[f.Contig] = append(idx.ordered[f.Contig], f)

		t, ok := idx.trees[f.Contig]
		if !ok {
			t = &interval.IntTree{}
			idx.trees[f.Contig] = t
		}
		err := t.Insert(record{id: id, f: f}, true)
		if err != nil {
			return nil, err
		}
		id++
	}
	sort.Strings(idx.contigs)
	for _, fs := range idx.ordered {
		sort.Sort(byLocation(fs))
	}
	for _, t := range idx.trees {
		t.AdjustRanges()
	}
	return idx, nil
}

// Contigs returns the contig IDs present in the index in lexicographic
// order.
func (x *Index) Contigs() []string { return x.contigs }

// On returns the features of the given contig ordered by (begin, ID).
// The returned slice is shared and must not be modified.
func (x *Index) On(contig string) []*Feature { return x.ordered[contig] }

// Get returns the feature with the given ID on the given contig.
func (x *Index) Get(contig, id string) (*Feature, bool) {
	f, ok := x.byID[contig][id]
	return f, ok
}

// Len returns the total number of features held by the index.
func (x *Index) Len() int {
	var n int
	for _, fs := range x.ordered {
		n += len(fs)
	}
	return n
}

// EachOverlap calls fn for every feature on the given contig whose
// inclusive extent intersects [begin,end]. Traversal order is the tree
// order, not positional order; callers needing determinism must collect
// and sort.
func (x *Index) EachOverlap(contig string, begin, end int, fn func(*Feature)) {
	t, ok := x.trees[contig]
	if !ok {
		return
	}
	t.DoMatching(func(iv interval.IntInterface) (done bool) {
		fn(iv.(record).f)
		return
	}, query{begin: begin, end: end})
}

// byLocation sorts features by begin position, ties broken by ID.
type byLocation []*Feature

func (s byLocation) Len() int { return len(s) }
func (s byLocation) Less(i, j int) bool {
	return s[i].Begin < s[j].Begin || (s[i].Begin == s[j].Begin && s[i].ID < s[j].ID)
}
func (s byLocation) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
