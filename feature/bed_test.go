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

func (s *S) TestWriteBEDCoordinates(c *check.C) {
	var buf bytes.Buffer
	err := WriteBED(&buf, []*Feature{
		{Contig: "ctgA", ID: "g1", Begin: 100, End: 200, Strand: seq.Plus, Type: "gene"},
	}, "gA_hood00001")
	c.Assert(err, check.Equals, nil)
	c.Check(buf.String(), check.Equals, "ctgA\t99\t200\tg1\tgene\t+\tgA_hood00001\t.\n")
}

func (s *S) TestBEDRoundTrip(c *check.C) {
	in := []*Feature{
		{Contig: "ctgA", ID: "g1", Begin: 100, End: 200, Strand: seq.Plus, Type: "cap",
			Attrs: Attributes{
				{Tag: GroupTag, Value: "gA_hood00001"},
				{Tag: AnnotTag, Value: "tyr"},
				{Tag: AnnotTag, Value: "duf3435"},
			}},
		{Contig: "ctgA", ID: "g2", Begin: 250, End: 300, Strand: seq.Minus, Type: "gene",
			Attrs: Attributes{{Tag: GroupTag, Value: "gA_hood00001"}}},
		{Contig: "ctgB", ID: "g3", Begin: 1, End: 50, Strand: seq.None},
	}
	var buf bytes.Buffer
	err := WriteBED(&buf, in, "")
	c.Assert(err, check.Equals, nil)

	out, warns, err := ReadBED(&buf, "roundtrip.bed")
	c.Assert(err, check.Equals, nil)
	c.Check(warns, check.HasLen, 0)
	c.Assert(out, check.HasLen, len(in))
	for i := range in {
		c.Check(out[i].Contig, check.Equals, in[i].Contig, check.Commentf("Test %d", i))
		c.Check(out[i].ID, check.Equals, in[i].ID, check.Commentf("Test %d", i))
		c.Check(out[i].Begin, check.Equals, in[i].Begin, check.Commentf("Test %d", i))
		c.Check(out[i].End, check.Equals, in[i].End, check.Commentf("Test %d", i))
		c.Check(out[i].Strand, check.Equals, in[i].Strand, check.Commentf("Test %d", i))
	}
	c.Check(out[0].Attrs, check.DeepEquals, in[0].Attrs)
	c.Check(out[1].Attrs.Get(GroupTag), check.Equals, "gA_hood00001")
	c.Check(out[2].Attrs, check.HasLen, 0)
	c.Check(out[2].Type, check.Equals, "")
}

func (s *S) TestReadBEDWarnings(c *check.C) {
	const in = "# comment line\n" +
		"ctgA\t99\t200\tg1\tgene\t+\tgrp\t.\n" +
		"ctgA\tnotanumber\t200\tg2\n" +
		"ctgA\t10\n" +
		"ctgA\t10\t20\tg3\tgene\tx\n" +
		"\n" +
		"ctgB\t0\t10\tg4\n"

	fs, warns, err := ReadBED(strings.NewReader(in), "in.bed")
	c.Assert(err, check.Equals, nil)
	c.Assert(fs, check.HasLen, 2)
	c.Check(fs[0].ID, check.Equals, "g1")
	c.Check(fs[1].ID, check.Equals, "g4")
	c.Check(fs[1].Begin, check.Equals, 1)
	c.Check(fs[1].End, check.Equals, 10)

	c.Assert(warns, check.HasLen, 3)
	c.Check(warns[0].Line, check.Equals, 3)
	c.Check(warns[1].Line, check.Equals, 4)
	c.Check(warns[2].Line, check.Equals, 5)
	c.Check(warns[2].Reason, check.Matches, `illegal strand: "x"`)
	for _, w := range warns {
		c.Check(w.File, check.Equals, "in.bed")
	}
}
