// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package convoy

import (
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// dotNode is a graph node with DOT support.
type dotNode struct {
	id    int64
	label string
	group string
}

var _ encoding.Attributer = dotNode{}

func (n dotNode) ID() int64     { return n.id }
func (n dotNode) DOTID() string { return n.label }
func (n dotNode) Attributes() []encoding.Attribute {
	if n.group == "" {
		return nil
	}
	return []encoding.Attribute{{Key: "group", Value: n.group}}
}

// dotEdge is a graph edge.
type dotEdge struct {
	from, to dotNode
	weight   float64
}

var _ encoding.Attributer = dotEdge{}

func (e dotEdge) From() graph.Node { return e.from }
func (e dotEdge) To() graph.Node   { return e.to }
func (e dotEdge) ReversedEdge() graph.Edge {
	return dotEdge{from: e.to, to: e.from, weight: e.weight}
}
func (e dotEdge) Weight() float64 { return e.weight }
func (e dotEdge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "weight", Value: strconv.FormatFloat(e.weight, 'g', -1, 64)}}
}

// WriteDOT writes the similarity graph described by edges to w in
// DOT, annotating grouped nodes with their group ID.
func WriteDOT(w io.Writer, edges []Edge, groups map[string]string) error {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	nodes := make(map[string]dotNode)
	node := func(label string) dotNode {
		n, ok := nodes[label]
		if !ok {
			n = dotNode{id: int64(len(nodes)), label: label, group: groups[label]}
			nodes[label] = n
			g.AddNode(n)
		}
		return n
	}
	for _, e := range edges {
		g.SetWeightedEdge(dotEdge{from: node(e.From), to: node(e.To), weight: e.Weight})
	}

	b, err := dot.Marshal(g, "", "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
