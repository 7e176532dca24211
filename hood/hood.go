// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hood groups coordinate-indexed features into gene
// neighborhoods under a merge distance, expands neighborhoods by a
// flanking margin and resolves their boundaries.
package hood

import (
	"fmt"
	"sort"

	"github.com/biogo/armada/feature"
)

// A Neighborhood is a set of features sharing one contig, keyed by
// (begin, featureID). Its boundary is never stored; it is recomputed
// from the membership by Boundary.
type Neighborhood struct {
	// ID is the neighborhood identifier,
	// genome, separator, tag and counter.
	ID string

	// Contig is the contig all members lie on.
	Contig string

	members map[memberKey]*feature.Feature
}

type memberKey struct {
	begin int
	id    string
}

func newNeighborhood(id, contig string) *Neighborhood {
	return &Neighborhood{ID: id, Contig: contig, members: make(map[memberKey]*feature.Feature)}
}

// Add includes f in the neighborhood's membership. Add panics if f
// lies on another contig.
func (n *Neighborhood) Add(f *feature.Feature) {
	if f.Contig != n.Contig {
		panic(fmt.Sprintf("hood: contig mismatch: %v into %s on %s", f, n.ID, n.Contig))
	}
	n.members[memberKey{begin: f.Begin, id: f.ID}] = f
}

// Len returns the number of members.
func (n *Neighborhood) Len() int { return len(n.members) }

// Members returns the membership ordered by (begin, ID).
func (n *Neighborhood) Members() []*feature.Feature {
	fs := make([]*feature.Feature, 0, len(n.members))
	for _, f := range n.members {
		fs = append(fs, f)
	}
	sort.Sort(byLocation(fs))
	return fs
}

// Boundary returns the contig, the minimal begin, the maximal end and
// the member count over the given features. Boundary panics on an
// empty set or on members spanning more than one contig; neither can
// occur for a merged neighborhood.
func Boundary(members []*feature.Feature) (contig string, begin, end, count int) {
	if len(members) == 0 {
		panic("hood: boundary of empty neighborhood")
	}
	contig = members[0].Contig
	begin = members[0].Begin
	end = members[0].End
	for _, f := range members[1:] {
		if f.Contig != contig {
			panic("hood: contig mismatch in neighborhood")
		}
		if f.Begin < begin {
			begin = f.Begin
		}
		if f.End > end {
			end = f.End
		}
	}
	return contig, begin, end, len(members)
}

// Merge groups the seed features of idx into neighborhoods. Contigs
// are visited in lexicographic order and seeds within a contig in
// (begin, ID) order. A seed whose begin lies mergeDist or more bases
// beyond the open neighborhood's running maximal end closes it and
// opens the next. Neighborhood IDs are genome+sep+tag+counter with the
// counter zero-padded to five digits and shared across all contigs of
// one call, so IDs are unique within the call and assignment is
// reproducible.
func Merge(seeds map[string]bool, idx *feature.Index, mergeDist int, tag, sep string) []*Neighborhood {
	var (
		hoods []*Neighborhood
		n     = 1
	)
	for _, ctg := range idx.Contigs() {
		var (
			cur    *Neighborhood
			curEnd int
		)
		for _, f := range idx.On(ctg) {
			if !seeds[f.ID] {
				continue
			}
			if cur != nil {
				interDist := f.Begin - curEnd - 1
				if interDist < mergeDist {
					cur.Add(f)
					if f.End > curEnd {
						curEnd = f.End
					}
					continue
				}
				hoods = append(hoods, cur)
			}
			cur = newNeighborhood(ID(sep, ctg, tag, n), ctg)
			n++
			cur.Add(f)
			curEnd = f.End
		}
		if cur != nil {
			hoods = append(hoods, cur)
		}
	}
	return hoods
}

// ID formats a neighborhood identifier from the genome of the given
// contig, the tag and a counter.
func ID(sep, contig, tag string, n int) string {
	return fmt.Sprintf("%s%s%s%05d", feature.GenomeOf(sep, contig), sep, tag, n)
}

// Populate expands each neighborhood's boundary by flank, clamped at
// zero, and absorbs every feature of idx contained in or straddling
// either edge of the expanded window. The input neighborhoods are
// superseded by the returned set. With flank greater than zero a
// further Merge pass over all populated members, with the same tag and
// merge distance, fuses neighborhoods whose expanded content overlaps;
// with flank zero the membership and boundaries are returned as
// computed, without a second pass.
func Populate(hoods []*Neighborhood, idx *feature.Index, flank, mergeDist int, tag, sep string) []*Neighborhood {
	populated := make([]*Neighborhood, 0, len(hoods))
	for _, h := range hoods {
		contig, begin, end, _ := Boundary(h.Members())
		begin -= flank
		if begin < 0 {
			begin = 0
		}
		end += flank
		p := newNeighborhood(h.ID, contig)
		for _, f := range idx.On(contig) {
			if within(f, begin, end) {
				p.Add(f)
			}
		}
		populated = append(populated, p)
	}
	if flank == 0 {
		return populated
	}
	seeds := make(map[string]bool)
	for _, h := range populated {
		for _, f := range h.Members() {
			seeds[f.ID] = true
		}
	}
	return Merge(seeds, idx, mergeDist, tag, sep)
}

// within reports whether f is contained in the window [begin,end] or
// straddles either window edge. The three cases are tested separately
// so a feature edge coinciding exactly with a window edge is included.
func within(f *feature.Feature, begin, end int) bool {
	if f.Begin >= begin && f.End <= end {
		return true
	}
	if f.Begin <= begin && f.End >= begin {
		return true
	}
	if f.Begin <= end && f.End >= end {
		return true
	}
	return false
}

// byLocation sorts features by begin position, ties broken by ID.
type byLocation []*feature.Feature

func (s byLocation) Len() int { return len(s) }
func (s byLocation) Less(i, j int) bool {
	return s[i].Begin < s[j].Begin || (s[i].Begin == s[j].Begin && s[i].ID < s[j].ID)
}
func (s byLocation) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
