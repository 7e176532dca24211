// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hood

import (
	"sort"

	"github.com/biogo/armada/feature"

	"github.com/biogo/store/step"
)

// Row is one occupancy matrix row: per-tag member counts and summary
// statistics for one neighborhood.
type Row struct {
	ID     string
	Contig string

	// Begin and End are the neighborhood boundary.
	Begin, End int

	// Counts holds the number of members per type tag.
	Counts map[string]int

	// SizeBP is the boundary span in bases and SizeGenes the
	// member count.
	SizeBP    int
	SizeGenes int

	// DistinctAnnotations is the number of distinct Annot values
	// over all members. AnnotationCoverage is the fraction of the
	// span covered by members carrying at least one Annot value.
	DistinctAnnotations int
	AnnotationCoverage  float64

	// Rule is the label of the first matching rule when rule
	// filtering has been applied.
	Rule string
}

// stepBool is a bool type satisfying the step.Equaler interface.
type stepBool bool

// Equal returns whether b equals e. Equal assumes the underlying type of e is a stepBool.
func (b stepBool) Equal(e step.Equaler) bool {
	return b == e.(stepBool)
}

// Occupancy returns one matrix row per neighborhood, in the given
// order, together with the sorted union of member type tags over all
// neighborhoods. A member with no type counts under ".".
func Occupancy(hoods []*Neighborhood) ([]Row, []string) {
	tagSet := make(map[string]bool)
	rows := make([]Row, 0, len(hoods))
	for _, h := range hoods {
		members := h.Members()
		contig, begin, end, count := Boundary(members)
		row := Row{
			ID:        h.ID,
			Contig:    contig,
			Begin:     begin,
			End:       end,
			Counts:    make(map[string]int),
			SizeBP:    end - begin + 1,
			SizeGenes: count,
		}

		// Coverage is accumulated half open over [begin,end+1).
		v, err := step.New(begin, end+1, stepBool(false))
		if err != nil {
			panic(err)
		}
		annots := make(map[string]bool)
		for _, f := range members {
			tag := f.Type
			if tag == "" {
				tag = "."
			}
			row.Counts[tag]++
			tagSet[tag] = true

			vals := f.Attrs.All(feature.AnnotTag)
			for _, a := range vals {
				annots[a] = true
			}
			if len(vals) != 0 {
				v.SetRange(f.Begin, f.End+1, stepBool(true))
			}
		}
		row.DistinctAnnotations = len(annots)
		var covered int
		v.Do(func(start, end int, e step.Equaler) {
			if e.(stepBool) {
				covered += end - start
			}
		})
		row.AnnotationCoverage = float64(covered) / float64(row.SizeBP)

		rows = append(rows, row)
	}
	tags := make([]string, 0, len(tagSet))
	for t := range tagSet {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return rows, tags
}
