// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package convoy

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/armada/feature"

	"github.com/biogo/graph"
)

// ReadClusters reads clusters from r, one cluster per line as
// tab-separated member IDs, preserving file order.
func ReadClusters(r io.Reader) ([][]string, error) {
	var clusters [][]string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if text := strings.TrimRight(line, "\r\n"); text != "" {
			var members []string
			for _, m := range strings.Split(text, "\t") {
				if m != "" {
					members = append(members, m)
				}
			}
			if len(members) != 0 {
				clusters = append(clusters, members)
			}
		}
		if err != nil {
			if err == io.EOF {
				return clusters, nil
			}
			return clusters, err
		}
	}
}

// AssignGroups maps the members of each multi-member cluster to a
// group ID, idtag followed by a four digit counter reflecting the
// cluster's position in the input. Singleton clusters advance the
// counter but contribute no mapping.
func AssignGroups(clusters [][]string, idtag string) map[string]string {
	groups := make(map[string]string)
	for i, cl := range clusters {
		if len(cl) < 2 {
			continue
		}
		id := fmt.Sprintf("%s%04d", idtag, i+1)
		for _, m := range cl {
			groups[m] = id
		}
	}
	return groups
}

// element is a similarity graph node.
type element struct {
	graph.Node
	id string
}

// weightedEdge is a similarity graph edge carrying an explicit weight.
type weightedEdge struct {
	graph.Edge
	w float64
}

func (e *weightedEdge) Weight() float64     { return e.w }
func (e *weightedEdge) SetWeight(w float64) { e.w = w }

// Components returns the connected components of the graph described
// by edges as single-linkage clusters. Members within a cluster are
// sorted; clusters are ordered by decreasing size, ties broken by
// first member. Elements absent from edges form no cluster.
func Components(edges []Edge) [][]string {
	g := graph.NewUndirected()
	elems := make(map[string]*element)
	node := func(id string) *element {
		e, ok := elems[id]
		if !ok {
			e = &element{Node: g.NewNode(), id: id}
			g.Add(e)
			elems[id] = e
		}
		return e
	}
	for _, ed := range edges {
		u, v := node(ed.From), node(ed.To)
		e := &weightedEdge{Edge: graph.NewEdge()}
		e.SetWeight(ed.Weight)
		err := g.ConnectWith(u, v, e)
		if err != nil {
			panic(fmt.Sprintf("convoy: internal error: %v", err))
		}
	}

	cc := graph.ConnectedComponents(g, graph.EdgeFilter(func(graph.Edge) bool { return true }))
	clusters := make([][]string, 0, len(cc))
	for _, comp := range cc {
		ids := make([]string, 0, len(comp))
		for _, n := range comp {
			ids = append(ids, n.(*element).id)
		}
		sort.Strings(ids)
		clusters = append(clusters, ids)
	}
	sort.Sort(bySize(clusters))
	return clusters
}

// bySize sorts clusters by decreasing membership, ties broken by
// first member.
type bySize [][]string

func (c bySize) Len() int { return len(c) }
func (c bySize) Less(i, j int) bool {
	if len(c[i]) != len(c[j]) {
		return len(c[i]) > len(c[j])
	}
	return c[i][0] < c[j][0]
}
func (c bySize) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Node is one node table row.
type Node struct {
	ID     string
	Group  string
	Length int
	Type   string
}

// Nodes builds the node table for the endpoints of edges, annotated
// with group assignments and, where a feature is known for an
// element, its length and boundary type. Unknown fields are ".".
func Nodes(edges []Edge, groups map[string]string, meta map[string]*feature.Feature) []Node {
	seen := make(map[string]bool)
	ids := make([]string, 0, 2*len(edges))
	for _, e := range edges {
		for _, id := range []string{e.From, e.To} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)

	nodes := make([]Node, 0, len(ids))
	for _, id := range ids {
		n := Node{ID: id, Group: groups[id], Type: "."}
		if n.Group == "" {
			n.Group = "."
		}
		if f, ok := meta[id]; ok {
			n.Length = f.Len()
			if f.Type != "" {
				n.Type = f.Type
			}
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// WriteNodes writes the node table to w as tab-separated text.
func WriteNodes(w io.Writer, nodes []Node) error {
	_, err := fmt.Fprintln(w, "id\tgroup\tlength\tboundaryType")
	if err != nil {
		return err
	}
	for _, n := range nodes {
		length := "."
		if n.Length > 0 {
			length = strconv.Itoa(n.Length)
		}
		_, err = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.Group, length, n.Type)
		if err != nil {
			return err
		}
	}
	return nil
}
