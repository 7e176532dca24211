// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reconcile merges two independently produced feature sets
// over a common assembly, resolving identifier adoption where newly
// predicted features coordinate-overlap a prior annotation.
package reconcile

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/biogo/armada/feature"
)

// Stats summarises identifier resolution over one Reconcile call.
type Stats struct {
	// OldOverlapping is the number of distinct prior features
	// overlapped by at least one new feature.
	OldOverlapping int

	// NewAdopted is the number of new features that adopted a
	// prior identifier.
	NewAdopted int

	// Conflicts is the number of prior identifiers claimed by more
	// than one new feature. A contested identifier is adopted by
	// neither claimant.
	Conflicts int
}

// Result holds the outcome of a Reconcile call.
type Result struct {
	// Overlaps maps each new feature ID to the sorted IDs of the
	// prior features it overlaps. New features overlapping nothing
	// are absent.
	Overlaps map[string][]string

	// Renames maps new feature IDs to the qualified prior
	// identifier each adopted.
	Renames map[string]string

	// Merged is the reconciled feature set ordered by contig,
	// begin and ID: every new feature, renamed where resolution
	// was unambiguous, together with prior features overlapped by
	// no new feature.
	Merged []*feature.Feature

	Stats Stats
}

// Reconcile intersects the features of newIdx with those of oldIdx.
// Two features overlap when they share at least one base on the same
// contig; a prior feature with the same ID as the new feature under
// consideration is not an overlap. Each overlapping new feature
// resolves to the lexicographically first prior ID it overlaps,
// qualified with the genome ID of its contig under sep, and adopts it
// unless another new feature resolves to the same identifier. New
// feature coordinates are used unchanged in the merged set whether or
// not an identifier was adopted; an adopting feature also receives
// the prior feature's attributes after its own. Prior features
// overlapped by a new feature, or sharing a contig and ID with one,
// do not appear in the merged set.
func Reconcile(newIdx, oldIdx *feature.Index, sep string) *Result {
	res := &Result{
		Overlaps: make(map[string][]string),
		Renames:  make(map[string]string),
	}

	hit := make(map[*feature.Feature]bool)
	for _, contig := range newIdx.Contigs() {
		for _, nf := range newIdx.On(contig) {
			f := nf
			oldIdx.EachOverlap(contig, f.Begin, f.End, func(of *feature.Feature) {
				if of.ID == f.ID {
					return
				}
				res.Overlaps[f.ID] = append(res.Overlaps[f.ID], of.ID)
				hit[of] = true
			})
		}
	}
	res.Stats.OldOverlapping = len(hit)

	// Group claimants per replacement identifier. A replacement
	// claimed by a single new feature is adopted; contested
	// replacements are retained by nobody.
	claims := make(map[string][]string)
	for _, contig := range newIdx.Contigs() {
		genome := feature.GenomeOf(sep, contig)
		for _, nf := range newIdx.On(contig) {
			oldIDs := res.Overlaps[nf.ID]
			if len(oldIDs) == 0 {
				continue
			}
			sort.Strings(oldIDs)
			repl := feature.Qualify(sep, genome, oldIDs[0])
			claims[repl] = append(claims[repl], nf.ID)
		}
	}
	for repl, claimants := range claims {
		if len(claimants) > 1 {
			res.Stats.Conflicts++
			continue
		}
		res.Renames[claimants[0]] = repl
	}
	res.Stats.NewAdopted = len(res.Renames)

	for _, contig := range newIdx.Contigs() {
		for _, nf := range newIdx.On(contig) {
			repl, ok := res.Renames[nf.ID]
			if !ok {
				res.Merged = append(res.Merged, nf)
				continue
			}
			of, _ := oldIdx.Get(contig, res.Overlaps[nf.ID][0])
			rf := *nf
			rf.ID = repl
			rf.Attrs = append(append(feature.Attributes(nil), nf.Attrs...), of.Attrs...)
			res.Merged = append(res.Merged, &rf)
		}
	}
	for _, contig := range oldIdx.Contigs() {
		for _, of := range oldIdx.On(contig) {
			if hit[of] {
				continue
			}
			if _, ok := newIdx.Get(contig, of.ID); ok {
				// The same feature is present in both sets;
				// the new record supersedes it.
				continue
			}
			res.Merged = append(res.Merged, of)
		}
	}
	sort.Sort(byLocation(res.Merged))

	return res
}

type byLocation []*feature.Feature

func (s byLocation) Len() int { return len(s) }
func (s byLocation) Less(i, j int) bool {
	if s[i].Contig != s[j].Contig {
		return s[i].Contig < s[j].Contig
	}
	if s[i].Begin != s[j].Begin {
		return s[i].Begin < s[j].Begin
	}
	return s[i].ID < s[j].ID
}
func (s byLocation) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

// WriteTable writes the resolution table for res to w as
// tab-separated text, one row per new feature with at least one
// overlap. Status is "adopted" for a feature that took a prior
// identifier and "conflict" for one retaining its own identifier
// because its resolution was contested. Overlapping prior IDs are
// joined with ";".
func WriteTable(w io.Writer, res *Result) error {
	_, err := fmt.Fprintln(w, "id\tresolved\tstatus\toverlaps")
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(res.Overlaps))
	for id := range res.Overlaps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		resolved, status := id, "conflict"
		if repl, ok := res.Renames[id]; ok {
			resolved, status = repl, "adopted"
		}
		_, err = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, resolved, status, strings.Join(res.Overlaps[id], ";"))
		if err != nil {
			return err
		}
	}
	return nil
}
