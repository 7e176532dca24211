// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package feature

import (
	"sort"

	check "gopkg.in/check.v1"
)

func ids(fs []*Feature) []string {
	var v []string
	for _, f := range fs {
		v = append(v, f.ID)
	}
	return v
}

func (s *S) TestBuildIndexOrdering(c *check.C) {
	fs := []*Feature{
		New("ctgB", "b1", 50, 80),
		New("ctgA", "a3", 100, 150),
		New("ctgA", "a1", 400, 500),
		New("ctgA", "a2", 100, 120),
	}
	idx, err := BuildIndex(fs)
	c.Assert(err, check.Equals, nil)

	c.Check(idx.Contigs(), check.DeepEquals, []string{"ctgA", "ctgB"})
	c.Check(ids(idx.On("ctgA")), check.DeepEquals, []string{"a2", "a3", "a1"})
	c.Check(ids(idx.On("ctgB")), check.DeepEquals, []string{"b1"})
	c.Check(idx.On("absent"), check.IsNil)
	c.Check(idx.Len(), check.Equals, 4)

	f, ok := idx.Get("ctgA", "a1")
	c.Check(ok, check.Equals, true)
	c.Check(f.Begin, check.Equals, 400)
	_, ok = idx.Get("ctgA", "nope")
	c.Check(ok, check.Equals, false)
}

func (s *S) TestBuildIndexDeterminism(c *check.C) {
	mk := func() []*Feature {
		return []*Feature{
			New("ctgA", "a1", 10, 20),
			New("ctgA", "a2", 10, 30),
			New("ctgB", "b1", 5, 9),
			New("ctgA", "a0", 40, 60),
		}
	}
	first := mk()
	second := mk()
	// Reverse the second input ordering.
	for i, j := 0, len(second)-1; i < j; i, j = i+1, j-1 {
		second[i], second[j] = second[j], second[i]
	}
	x1, err := BuildIndex(first)
	c.Assert(err, check.Equals, nil)
	x2, err := BuildIndex(second)
	c.Assert(err, check.Equals, nil)

	c.Check(x2.Contigs(), check.DeepEquals, x1.Contigs())
	for _, ctg := range x1.Contigs() {
		c.Check(ids(x2.On(ctg)), check.DeepEquals, ids(x1.On(ctg)), check.Commentf("contig %s", ctg))
	}
}

func (s *S) TestBuildIndexDuplicateID(c *check.C) {
	fs := []*Feature{
		New("ctgA", "g1", 10, 20),
		New("ctgB", "g1", 10, 20), // Same ID on another contig is allowed.
		New("ctgA", "g1", 30, 40),
	}
	idx, err := BuildIndex(fs)
	c.Check(idx, check.IsNil)
	c.Assert(err, check.FitsTypeOf, &DuplicateIDError{})
	dup := err.(*DuplicateIDError)
	c.Check(dup.Contig, check.Equals, "ctgA")
	c.Check(dup.ID, check.Equals, "g1")
	c.Check(err, check.ErrorMatches, `feature: duplicate ID "g1" on contig "ctgA"`)

	idx, err = BuildIndex(fs[:2])
	c.Check(err, check.Equals, nil)
	c.Check(idx.Len(), check.Equals, 2)
}

func (s *S) TestEachOverlap(c *check.C) {
	idx, err := BuildIndex([]*Feature{
		New("ctgA", "g1", 100, 200),
		New("ctgA", "g2", 205, 300),
		New("ctgA", "g3", 150, 210),
		New("ctgB", "g4", 100, 200),
	})
	c.Assert(err, check.Equals, nil)

	for i, t := range []struct {
		contig     string
		begin, end int
		want       []string
	}{
		{contig: "ctgA", begin: 200, end: 205, want: []string{"g1", "g2", "g3"}},
		{contig: "ctgA", begin: 201, end: 204, want: []string{"g3"}},
		{contig: "ctgA", begin: 100, end: 100, want: []string{"g1"}},
		{contig: "ctgA", begin: 301, end: 400, want: nil},
		{contig: "ctgB", begin: 1, end: 1000, want: []string{"g4"}},
		{contig: "absent", begin: 1, end: 1000, want: nil},
	} {
		var got []string
		idx.EachOverlap(t.contig, t.begin, t.end, func(f *Feature) {
			got = append(got, f.ID)
		})
		sort.Strings(got)
		c.Check(got, check.DeepEquals, t.want, check.Commentf("Test %d", i))
	}
}
