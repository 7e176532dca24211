// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package feature

import (
	"testing"

	check "gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

func (s *S) TestCheckSep(c *check.C) {
	for i, t := range []struct {
		sep string
		ok  bool
	}{
		{sep: "_", ok: true},
		{sep: "-", ok: true},
		{sep: "µ", ok: true},
		{sep: "", ok: false},
		{sep: "__", ok: false},
		{sep: ":", ok: false},
		{sep: ";", ok: false},
		{sep: "|", ok: false},
	} {
		err := CheckSep(t.sep)
		if t.ok {
			c.Check(err, check.Equals, nil, check.Commentf("Test %d", i))
		} else {
			c.Check(err, check.NotNil, check.Commentf("Test %d", i))
		}
	}
}

func (s *S) TestQualify(c *check.C) {
	for i, t := range []struct {
		genome, id string
		want       string
	}{
		{genome: "gA", id: "gene1", want: "gA_gene1"},
		{genome: "gA", id: "gA_gene1", want: "gA_gene1"},
		{genome: "gA", id: "gA", want: "gA_gA"},
		{genome: "g", id: "gA_x", want: "g_gA_x"},
	} {
		c.Check(Qualify("_", t.genome, t.id), check.Equals, t.want, check.Commentf("Test %d", i))
	}
}

func (s *S) TestGenomeOf(c *check.C) {
	for i, t := range []struct {
		contig string
		want   string
	}{
		{contig: "gA_ctg1", want: "gA"},
		{contig: "chr1", want: "chr1"},
		{contig: "a_b_c", want: "a"},
		{contig: "_tail", want: ""},
	} {
		c.Check(GenomeOf("_", t.contig), check.Equals, t.want, check.Commentf("Test %d", i))
	}
}

func (s *S) TestNewSwapsReversed(c *check.C) {
	f := New("ctgA", "g1", 200, 100)
	c.Check(f.Begin, check.Equals, 100)
	c.Check(f.End, check.Equals, 200)
	c.Check(f.Len(), check.Equals, 101)

	f = New("ctgA", "g2", 300, 300)
	c.Check(f.Begin, check.Equals, 300)
	c.Check(f.End, check.Equals, 300)
	c.Check(f.Len(), check.Equals, 1)
}

func (s *S) TestAttributes(c *check.C) {
	a := Attributes{
		{Tag: "Annot", Value: "tyr"},
		{Tag: "Note", Value: "partial"},
		{Tag: "Annot", Value: "duf3435"},
	}
	c.Check(a.Get("Annot"), check.Equals, "tyr")
	c.Check(a.Get("Note"), check.Equals, "partial")
	c.Check(a.Get("absent"), check.Equals, "")
	c.Check(a.All("Annot"), check.DeepEquals, []string{"tyr", "duf3435"})
	c.Check(a.All("absent"), check.IsNil)
}
