// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// convoy groups elements by pairwise similarity. It reads a
// tab-separated similarity list, collapses it to a deduplicated
// undirected edge set, thresholds and optionally rescales the weights,
// delegates clustering to MCL, falling back to in-process connected
// components when MCL cannot be run, and writes group assignments with
// graph-ready node and edge tables.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/biogo/armada/convoy/convoy"
	"github.com/biogo/armada/feature"
	"github.com/biogo/armada/logger"
	"github.com/biogo/armada/mcl"

	"go.uber.org/zap"
)

func main() {
	var (
		simName     = flag.String("sim", "", "Filename for pairwise similarities (ref, query, similarity).")
		regionsName = flag.String("regions", "", "Filename for element region features used in the node table.")
		idtag       = flag.String("idtag", "grp", "Group identifier tag.")
		threshold   = flag.Float64("threshold", 0, "Minimum edge weight retained.")
		rescale     = flag.Bool("rescale", false, "Rescale retained weights from [threshold,1] onto [0,1].")
		mclCmd      = flag.String("mcl", "mcl", "Path to the mcl executable.")
		inflation   = flag.Float64("inflation", 1.4, "MCL inflation.")
		threads     = flag.Int("threads", 0, "MCL expansion threads (if 0 mcl decides).")
		noMCL       = flag.Bool("nomcl", false, "Skip MCL and cluster by connected components.")
		prefix      = flag.String("out", "convoy", "Prefix for output tables.")
		dotName     = flag.String("dot", "", "Filename for DOT graph output.")
		verbose     = flag.Bool("v", false, "Log debug information.")
		help        = flag.Bool("help", false, "Print this usage message.")
	)
	flag.Parse()

	if *help || *simName == "" {
		flag.Usage()
		os.Exit(0)
	}
	err := logger.Init(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *threshold < 0 || *threshold >= 1 {
		logger.Fatal("threshold outside [0,1)", zap.Float64("threshold", *threshold))
	}

	sims := readSimilarities(*simName)
	edges := convoy.BuildEdges(sims)
	logger.Info("built edges",
		zap.Int("observations", len(sims)), zap.Int("edges", len(edges)))

	if *threshold > 0 {
		edges = convoy.Threshold(edges, *threshold)
		logger.Info("thresholded edges",
			zap.Float64("threshold", *threshold), zap.Int("edges", len(edges)))
	}
	if *rescale {
		edges = convoy.Rescale(edges, *threshold)
	}

	var clusters [][]string
	if *noMCL {
		clusters = convoy.Components(edges)
	} else {
		clusters, err = runMCL(edges, *mclCmd, *inflation, *threads)
		if err != nil {
			logger.Warn("mcl failed, falling back to connected components", zap.Error(err))
			clusters = convoy.Components(edges)
		}
	}
	groups := convoy.AssignGroups(clusters, *idtag)
	logger.Info("assigned groups",
		zap.Int("clusters", len(clusters)), zap.Int("grouped", len(groups)))

	meta := make(map[string]*feature.Feature)
	if *regionsName != "" {
		for _, f := range readRegions(*regionsName) {
			meta[f.ID] = f
		}
	}

	writeFile(*prefix+".nodes.tsv", func(w io.Writer) error {
		return convoy.WriteNodes(w, convoy.Nodes(edges, groups, meta))
	})
	writeFile(*prefix+".edges.tsv", func(w io.Writer) error {
		return convoy.WriteEdges(w, edges)
	})
	writeFile(*prefix+".groups.tsv", func(w io.Writer) error {
		return writeGroups(w, groups)
	})
	if *dotName != "" {
		writeFile(*dotName, func(w io.Writer) error {
			return convoy.WriteDOT(w, edges, groups)
		})
	}
}

// runMCL clusters edges with the external mcl tool, returning the
// clusters it reports in file order.
func runMCL(edges []convoy.Edge, cmd string, inflation float64, threads int) ([][]string, error) {
	in, err := os.CreateTemp("", "convoy-*.abc")
	if err != nil {
		return nil, err
	}
	defer os.Remove(in.Name())
	w := bufio.NewWriter(in)
	err = convoy.WriteABC(w, edges)
	if err == nil {
		err = w.Flush()
	}
	if cerr := in.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	out, err := os.CreateTemp("", "convoy-*.mcl")
	if err != nil {
		return nil, err
	}
	out.Close()
	defer os.Remove(out.Name())

	m, err := mcl.MCL{
		Cmd:       cmd,
		InFile:    in.Name(),
		ABC:       true,
		Inflation: inflation,
		Threads:   threads,
		OutFile:   out.Name(),
	}.BuildCommand()
	if err != nil {
		return nil, err
	}
	var stderr bytes.Buffer
	m.Stderr = &stderr
	logger.Debug("running mcl", zap.Strings("args", m.Args))
	err = m.Run()
	if err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) != 0 {
			return nil, fmt.Errorf("%v: %s", err, msg)
		}
		return nil, err
	}

	f, err := os.Open(out.Name())
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return convoy.ReadClusters(f)
}

func readSimilarities(file string) []convoy.Similarity {
	f, err := os.Open(file)
	if err != nil {
		logger.Fatal("failed reading similarities", zap.String("file", file), zap.Error(err))
	}
	defer f.Close()
	sims, warns, err := convoy.ReadSimilarities(f, file)
	if err != nil {
		logger.Fatal("failed reading similarities", zap.String("file", file), zap.Error(err))
	}
	logWarnings(warns)
	return sims
}

// readRegions reads element region features from file, dispatching on
// extension: .bed input is read as BED, anything else as GFF.
func readRegions(file string) []*feature.Feature {
	f, err := os.Open(file)
	if err != nil {
		logger.Fatal("failed reading regions", zap.String("file", file), zap.Error(err))
	}
	defer f.Close()

	var (
		fs    []*feature.Feature
		warns []feature.Warning
	)
	if strings.EqualFold(filepath.Ext(file), ".bed") {
		fs, warns, err = feature.ReadBED(f, file)
	} else {
		fs, warns, err = feature.ReadGFF(f, file)
	}
	if err != nil {
		logger.Fatal("failed reading regions", zap.String("file", file), zap.Error(err))
	}
	logWarnings(warns)
	return fs
}

// writeGroups writes the element to group mapping to w as
// tab-separated text ordered by element ID.
func writeGroups(w io.Writer, groups map[string]string) error {
	_, err := fmt.Fprintln(w, "id\tgroup")
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		_, err = fmt.Fprintf(w, "%s\t%s\n", id, groups[id])
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFile(name string, fn func(io.Writer) error) {
	f, err := os.Create(name)
	if err != nil {
		logger.Fatal("failed creating output", zap.String("file", name), zap.Error(err))
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	err = fn(w)
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		logger.Fatal("failed writing output", zap.String("file", name), zap.Error(err))
	}
}

func logWarnings(warns []feature.Warning) {
	for _, w := range warns {
		logger.Warn("skipped record",
			zap.String("file", w.File),
			zap.Int("line", w.Line),
			zap.String("reason", w.Reason),
			zap.String("text", w.Text),
		)
	}
}
