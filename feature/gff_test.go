// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package feature

import (
	"bytes"
	"strings"

	"github.com/biogo/biogo/seq"

	check "gopkg.in/check.v1"
)

var gff2In = "ctgA\ttest\tgene\t100\t200\t.\t+\t.\tID \"gene1\"; Note \"hypothetical\"\n" +
	"ctgA\ttest\tgene\t250\t300\t.\t-\t.\tID \"gene2\"\n" +
	"ctgB\ttest\tgene\t10\t90\t.\t.\t.\tNote \"anonymous\"\n"

var gff3In = "gA_ctg1\tmetaeuk\tgene\t1000\t2000\t.\t+\t.\tID=gene3;color=red\n"

func (s *S) TestReadGFF(c *check.C) {
	fs, warns, err := ReadGFF(strings.NewReader(gff2In), "in.gff")
	c.Assert(err, check.Equals, nil)
	c.Assert(fs, check.HasLen, 2)

	c.Check(fs[0].Contig, check.Equals, "ctgA")
	c.Check(fs[0].ID, check.Equals, "gene1")
	c.Check(fs[0].Begin, check.Equals, 100)
	c.Check(fs[0].End, check.Equals, 200)
	c.Check(fs[0].Strand, check.Equals, seq.Plus)
	c.Check(fs[0].Type, check.Equals, "gene")
	c.Check(fs[0].Attrs, check.DeepEquals, Attributes{{Tag: "Note", Value: "hypothetical"}})

	c.Check(fs[1].ID, check.Equals, "gene2")
	c.Check(fs[1].Strand, check.Equals, seq.Minus)
	c.Check(fs[1].Attrs, check.HasLen, 0)

	c.Assert(warns, check.HasLen, 1)
	c.Check(warns[0].File, check.Equals, "in.gff")
	c.Check(warns[0].Line, check.Equals, 3)
	c.Check(warns[0].Reason, check.Equals, "no identifier attribute")
}

func (s *S) TestReadGFFv3Attributes(c *check.C) {
	fs, warns, err := ReadGFF(strings.NewReader(gff3In), "in.gff3")
	c.Assert(err, check.Equals, nil)
	c.Check(warns, check.HasLen, 0)
	c.Assert(fs, check.HasLen, 1)
	c.Check(fs[0].ID, check.Equals, "gene3")
	c.Check(fs[0].Contig, check.Equals, "gA_ctg1")
	c.Check(fs[0].Begin, check.Equals, 1000)
	c.Check(fs[0].End, check.Equals, 2000)
	c.Check(fs[0].Attrs, check.DeepEquals, Attributes{{Tag: "color", Value: "red"}})
}

func (s *S) TestWriteGFFRoundTrip(c *check.C) {
	in := []*Feature{
		{Contig: "ctgA", ID: "gene1", Begin: 100, End: 200, Strand: seq.Plus, Type: "gene",
			Attrs: Attributes{{Tag: "Annot", Value: "tyr"}}},
		{Contig: "ctgB", ID: "gene2", Begin: 5, End: 5, Strand: seq.None, Type: "gene"},
	}
	var buf bytes.Buffer
	err := WriteGFF(&buf, in, "armada")
	c.Assert(err, check.Equals, nil)

	out, warns, err := ReadGFF(&buf, "roundtrip.gff")
	c.Assert(err, check.Equals, nil)
	c.Check(warns, check.HasLen, 0)
	c.Assert(out, check.HasLen, len(in))
	for i := range in {
		c.Check(out[i].Contig, check.Equals, in[i].Contig, check.Commentf("Test %d", i))
		c.Check(out[i].ID, check.Equals, in[i].ID, check.Commentf("Test %d", i))
		c.Check(out[i].Begin, check.Equals, in[i].Begin, check.Commentf("Test %d", i))
		c.Check(out[i].End, check.Equals, in[i].End, check.Commentf("Test %d", i))
		c.Check(out[i].Strand, check.Equals, in[i].Strand, check.Commentf("Test %d", i))
		c.Check(out[i].Type, check.Equals, in[i].Type, check.Commentf("Test %d", i))
	}
	c.Check(out[0].Attrs.Get("Annot"), check.Equals, "tyr")
}
