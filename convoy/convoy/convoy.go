// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package convoy groups elements by pairwise similarity, preparing
// similarity data for clustering and assigning stable group
// identifiers to the clusters that come back.
package convoy

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/armada/feature"
)

// A Similarity is one observed pairwise similarity between two
// elements.
type Similarity struct {
	Ref, Que string
	Weight   float64
}

// An Edge is an undirected similarity between two distinct elements
// with From lexicographically before To. The weight of an edge is the
// mean over all observations of its pair.
type Edge struct {
	From, To string
	Weight   float64
}

// ReadSimilarities reads tab-separated similarity triples, refID,
// queID and a similarity in [0,1], from r. Blank lines and lines
// starting with "#" are ignored. Malformed lines are skipped and
// reported in the returned warnings.
func ReadSimilarities(r io.Reader, file string) ([]Similarity, []feature.Warning, error) {
	var (
		sims  []Similarity
		warns []feature.Warning
	)
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := sc.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 3 || fields[0] == "" || fields[1] == "" {
			warns = append(warns, feature.Warning{
				File: file, Line: line, Text: text,
				Reason: "need ref, query and similarity",
			})
			continue
		}
		w, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			warns = append(warns, feature.Warning{
				File: file, Line: line, Text: text,
				Reason: err.Error(),
			})
			continue
		}
		if w < 0 || w > 1 {
			warns = append(warns, feature.Warning{
				File: file, Line: line, Text: text,
				Reason: fmt.Sprintf("similarity %v outside [0,1]", w),
			})
			continue
		}
		sims = append(sims, Similarity{Ref: fields[0], Que: fields[1], Weight: w})
	}
	return sims, warns, sc.Err()
}

// BuildEdges collapses sims into a deduplicated undirected edge list
// ordered by endpoints. Pairs differing only in orientation are one
// edge whose weight is the mean of all their observations.
// Self-similarities are dropped.
func BuildEdges(sims []Similarity) []Edge {
	type pair struct{ a, b string }
	sums := make(map[pair]float64)
	counts := make(map[pair]int)
	for _, s := range sims {
		if s.Ref == s.Que {
			continue
		}
		p := pair{s.Ref, s.Que}
		if p.b < p.a {
			p.a, p.b = p.b, p.a
		}
		sums[p] += s.Weight
		counts[p]++
	}
	edges := make([]Edge, 0, len(sums))
	for p, sum := range sums {
		edges = append(edges, Edge{From: p.a, To: p.b, Weight: sum / float64(counts[p])})
	}
	sort.Sort(byEndpoints(edges))
	return edges
}

// Threshold returns the edges of the given list weighing at least min.
func Threshold(edges []Edge, min float64) []Edge {
	var kept []Edge
	for _, e := range edges {
		if e.Weight >= min {
			kept = append(kept, e)
		}
	}
	return kept
}

// Rescale returns a copy of edges with weights mapped linearly from
// [min,1] onto [0,1]. Callers must ensure min < 1.
func Rescale(edges []Edge, min float64) []Edge {
	out := make([]Edge, len(edges))
	for i, e := range edges {
		e.Weight = (e.Weight - min) / (1 - min)
		out[i] = e
	}
	return out
}

// WriteABC writes edges to w in label pair format, one
// from/to/weight triple per line.
func WriteABC(w io.Writer, edges []Edge) error {
	for _, e := range edges {
		_, err := fmt.Fprintf(w, "%s\t%s\t%v\n", e.From, e.To, e.Weight)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteEdges writes the edge table for edges to w as tab-separated
// text.
func WriteEdges(w io.Writer, edges []Edge) error {
	_, err := fmt.Fprintln(w, "from\tto\tweight")
	if err != nil {
		return err
	}
	for _, e := range edges {
		_, err = fmt.Fprintf(w, "%s\t%s\t%.4f\n", e.From, e.To, e.Weight)
		if err != nil {
			return err
		}
	}
	return nil
}

// byEndpoints sorts edges by From, ties broken by To.
type byEndpoints []Edge

func (e byEndpoints) Len() int { return len(e) }
func (e byEndpoints) Less(i, j int) bool {
	if e[i].From != e[j].From {
		return e[i].From < e[j].From
	}
	return e[i].To < e[j].To
}
func (e byEndpoints) Swap(i, j int) { e[i], e[j] = e[j], e[i] }
