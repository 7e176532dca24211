// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hood

import (
	"bytes"
	"strings"

	"github.com/biogo/armada/feature"

	check "gopkg.in/check.v1"
)

func annotated(f *feature.Feature, typ string, annots ...string) *feature.Feature {
	f.Type = typ
	for _, a := range annots {
		f.Attrs = append(f.Attrs, feature.Attribute{Tag: feature.AnnotTag, Value: a})
	}
	return f
}

func (s *S) TestOccupancy(c *check.C) {
	h := newNeighborhood("gA_hood00001", "gA_ctg1")
	h.Add(annotated(feature.New("gA_ctg1", "g1", 100, 199), "cap", "tyr"))
	h.Add(annotated(feature.New("gA_ctg1", "g2", 150, 249), "gene"))
	h.Add(annotated(feature.New("gA_ctg1", "g3", 250, 299), "cap", "duf", "tyr"))

	rows, tags := Occupancy([]*Neighborhood{h})
	c.Check(tags, check.DeepEquals, []string{"cap", "gene"})
	c.Assert(rows, check.HasLen, 1)

	row := rows[0]
	c.Check(row.ID, check.Equals, "gA_hood00001")
	c.Check(row.Contig, check.Equals, "gA_ctg1")
	c.Check(row.Begin, check.Equals, 100)
	c.Check(row.End, check.Equals, 299)
	c.Check(row.SizeBP, check.Equals, 200)
	c.Check(row.SizeGenes, check.Equals, 3)
	c.Check(row.Counts, check.DeepEquals, map[string]int{"cap": 2, "gene": 1})
	c.Check(row.DistinctAnnotations, check.Equals, 2)
	// g1 and g3 carry annotations and cover 150 of 200 bases.
	c.Check(row.AnnotationCoverage, check.Equals, 0.75)
}

func (s *S) TestOccupancyNoAnnotation(c *check.C) {
	h := newNeighborhood("gA_hood00001", "gA_ctg1")
	h.Add(feature.New("gA_ctg1", "g1", 100, 199))

	rows, tags := Occupancy([]*Neighborhood{h})
	c.Check(tags, check.DeepEquals, []string{"."})
	c.Assert(rows, check.HasLen, 1)
	c.Check(rows[0].Counts, check.DeepEquals, map[string]int{".": 1})
	c.Check(rows[0].DistinctAnnotations, check.Equals, 0)
	c.Check(rows[0].AnnotationCoverage, check.Equals, 0.0)
}

func (s *S) TestReadRules(c *check.C) {
	const in = "# starship rules\n" +
		"complete\tcap,duf3435\n" +
		"partial\tcap\n" +
		"nolabel\n" +
		"empty\t ,\n" +
		"\n"

	rules, warns, err := ReadRules(strings.NewReader(in), "rules.tsv")
	c.Assert(err, check.Equals, nil)
	c.Check(rules, check.DeepEquals, []Rule{
		{Label: "complete", Tags: []string{"cap", "duf3435"}},
		{Label: "partial", Tags: []string{"cap"}},
	})
	c.Assert(warns, check.HasLen, 2)
	c.Check(warns[0].Line, check.Equals, 4)
	c.Check(warns[1].Line, check.Equals, 5)
}

func (s *S) TestRuleMatchAndApply(c *check.C) {
	rules := []Rule{
		{Label: "complete", Tags: []string{"cap", "duf3435"}},
		{Label: "partial", Tags: []string{"cap"}},
	}
	rows := []Row{
		{ID: "a", Counts: map[string]int{"cap": 1, "duf3435": 2}},
		{ID: "b", Counts: map[string]int{"cap": 1}},
		{ID: "c", Counts: map[string]int{"gene": 4}},
	}
	out := ApplyRules(rules, rows)
	c.Assert(out, check.HasLen, 2)
	c.Check(out[0].ID, check.Equals, "a")
	c.Check(out[0].Rule, check.Equals, "complete")
	c.Check(out[1].ID, check.Equals, "b")
	c.Check(out[1].Rule, check.Equals, "partial")
}

func (s *S) TestWriteOccupancy(c *check.C) {
	rows := []Row{{
		ID: "gA_hood00001", Contig: "gA_ctg1", Begin: 100, End: 299,
		Counts: map[string]int{"cap": 2, "gene": 1}, SizeBP: 200, SizeGenes: 3,
		DistinctAnnotations: 2, AnnotationCoverage: 0.75, Rule: "complete",
	}}
	var buf bytes.Buffer
	err := WriteOccupancy(&buf, rows, []string{"cap", "gene"}, true)
	c.Assert(err, check.Equals, nil)
	c.Check(buf.String(), check.Equals,
		"neighborhood\tcontig\tbegin\tend\tcap\tgene\tsize.bp\tsize.genes\tdistinctAnnotations\tannotationCoverage\trule\n"+
			"gA_hood00001\tgA_ctg1\t100\t299\t2\t1\t200\t3\t2\t0.7500\tcomplete\n")
}
