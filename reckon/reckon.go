// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// reckon reconciles a de novo gene set against an existing annotation.
// Features of the new set adopt the identifier of the annotation they
// overlap where that resolves unambiguously, and the merged feature
// set is written with new coordinates winning throughout. Optionally
// the merged features are cut from the assembly and written as FASTA
// with their reconciled identifiers.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/armada/feature"
	"github.com/biogo/armada/logger"
	"github.com/biogo/armada/reconcile"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq"
	"github.com/biogo/biogo/seq/linear"
	"github.com/biogo/biogo/seq/sequtils"

	"go.uber.org/zap"
)

func main() {
	var (
		newName   = flag.String("new", "", "Filename for the de novo feature set.")
		oldName   = flag.String("old", "", "Filename for the existing annotation.")
		sep       = flag.String("sep", "_", "Identifier separator character.")
		outName   = flag.String("out", "", "Filename for merged GFF output. Defaults to stdout.")
		tableName = flag.String("table", "", "Filename for the identifier resolution table.")
		annotName = flag.String("annot", "", "Filename for the merged annotation table.")
		seqsName  = flag.String("seqs", "", "Filename for the assembly FASTA.")
		fastaName = flag.String("fasta", "", "Filename for merged feature sequences. Requires -seqs.")
		source    = flag.String("source", "reckon", "Source field for GFF output.")
		verbose   = flag.Bool("v", false, "Log debug information.")
		help      = flag.Bool("help", false, "Print this usage message.")
	)
	flag.Parse()

	if *help || *newName == "" || *oldName == "" {
		flag.Usage()
		os.Exit(0)
	}
	err := logger.Init(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := feature.CheckSep(*sep); err != nil {
		logger.Fatal("invalid separator", zap.Error(err))
	}
	if *fastaName != "" && *seqsName == "" {
		logger.Fatal("-fasta requires -seqs")
	}

	newIdx := mustReadIndex(*newName)
	oldIdx := mustReadIndex(*oldName)
	logger.Info("indexed feature sets",
		zap.Int("new", newIdx.Len()), zap.Int("old", oldIdx.Len()))

	res := reconcile.Reconcile(newIdx, oldIdx, *sep)
	logger.Info("reconciled feature sets",
		zap.Int("merged", len(res.Merged)),
		zap.Int("old.overlapping", res.Stats.OldOverlapping),
		zap.Int("new.adopted", res.Stats.NewAdopted),
		zap.Int("conflicts", res.Stats.Conflicts),
	)

	writeOutput(*outName, func(w io.Writer) error {
		return feature.WriteGFF(w, res.Merged, *source)
	})
	if *tableName != "" {
		writeOutput(*tableName, func(w io.Writer) error {
			return reconcile.WriteTable(w, res)
		})
	}
	if *annotName != "" {
		writeOutput(*annotName, func(w io.Writer) error {
			return writeAnnotation(w, res.Merged)
		})
	}
	if *fastaName != "" {
		store, err := readAssembly(*seqsName)
		if err != nil {
			logger.Fatal("failed reading assembly", zap.String("file", *seqsName), zap.Error(err))
		}
		writeOutput(*fastaName, func(w io.Writer) error {
			return writeSequences(w, res.Merged, store)
		})
	}
}

func mustReadIndex(file string) *feature.Index {
	f, err := os.Open(file)
	if err != nil {
		logger.Fatal("failed reading features", zap.String("file", file), zap.Error(err))
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
		logger.Fatal("failed reading features", zap.String("file", file), zap.Error(err))
	}
	for _, w := range warns {
		logger.Warn("skipped record",
			zap.String("file", w.File),
			zap.Int("line", w.Line),
			zap.String("reason", w.Reason),
			zap.String("text", w.Text),
		)
	}

	idx, err := feature.BuildIndex(fs)
	if err != nil {
		logger.Fatal("failed indexing features", zap.String("file", file), zap.Error(err))
	}
	return idx
}

// readAssembly reads the assembly sequences from the named FASTA file
// keyed by sequence name.
func readAssembly(file string) (map[string]*linear.Seq, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	store := make(map[string]*linear.Seq)
	sc := seqio.NewScanner(fasta.NewReader(f, &linear.Seq{Annotation: seq.Annotation{Alpha: alphabet.DNA}}))
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		store[s.Name()] = s
	}
	return store, sc.Error()
}

// writeSequences cuts each feature from its contig and writes it as
// FASTA under the feature's identifier. Features on contigs missing
// from store are reported and skipped.
func writeSequences(w io.Writer, fs []*feature.Feature, store map[string]*linear.Seq) error {
	for _, f := range fs {
		src, ok := store[f.Contig]
		if !ok {
			logger.Warn("contig not in assembly",
				zap.String("contig", f.Contig), zap.String("feature", f.ID))
			continue
		}
		ss := *src
		err := sequtils.Truncate(&ss, src, f.Begin-1, f.End)
		if err != nil {
			return fmt.Errorf("reckon: failed to cut %v: %v", f, err)
		}
		if f.Strand < 0 {
			ss.RevComp()
		}
		ss.ID = f.ID
		ss.Desc = fmt.Sprintf("%s:%d..%d", f.Contig, f.Begin, f.End)
		_, err = fmt.Fprintf(w, "%60a\n", &ss)
		if err != nil {
			return err
		}
	}
	return nil
}

// writeAnnotation writes the merged annotation table to w as
// tab-separated text, one row per feature with its attribute values
// under the Annot tag joined with ";".
func writeAnnotation(w io.Writer, fs []*feature.Feature) error {
	_, err := fmt.Fprintln(w, "id\tcontig\tbegin\tend\tstrand\tannotation")
	if err != nil {
		return err
	}
	for _, f := range fs {
		annot := "."
		if vals := f.Attrs.All(feature.AnnotTag); len(vals) != 0 {
			annot = strings.Join(vals, ";")
		}
		_, err = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			f.ID, f.Contig, f.Begin, f.End, strandString(f.Strand), annot)
		if err != nil {
			return err
		}
	}
	return nil
}

func strandString(s seq.Strand) string {
	switch s {
	case seq.Plus:
		return "+"
	case seq.Minus:
		return "-"
	default:
		return "."
	}
}

// writeOutput writes with fn to the named file, or to stdout when
// name is empty.
func writeOutput(name string, fn func(io.Writer) error) {
	f := os.Stdout
	if name != "" {
		var err error
		f, err = os.Create(name)
		if err != nil {
			logger.Fatal("failed creating output", zap.String("file", name), zap.Error(err))
		}
		defer f.Close()
	}
	w := bufio.NewWriter(f)
	err := fn(w)
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		logger.Fatal("failed writing output", zap.String("file", name), zap.Error(err))
	}
}
