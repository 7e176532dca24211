// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// consort builds per-group consensus sequences. It reads the group
// assignments produced by convoy together with element regions and the
// assembly they annotate, extracts and strand-corrects each member
// sequence, aligns the members of each group with an external aligner
// and reports the consensus of each alignment.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/biogo/armada/feature"
	"github.com/biogo/armada/logger"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq"
	"github.com/biogo/biogo/seq/linear"
	"github.com/biogo/biogo/seq/multi"
	"github.com/biogo/biogo/seq/sequtils"
	"github.com/biogo/external/mafft"
	"github.com/biogo/external/muscle"

	"go.uber.org/zap"
)

func main() {
	var (
		groupsName  = flag.String("groups", "", "Filename for group assignments (id, group).")
		regionsName = flag.String("regions", "", "Filename for element region features.")
		refName     = flag.String("ref", "", "Filename for the assembly FASTA.")
		minSize     = flag.Int("min", 2, "Minimum group size given a consensus.")
		aligner     = flag.String("aligner", "muscle", "External aligner, muscle or mafft.")
		threads     = flag.Int("threads", 0, "Concurrent alignments (if 0 one per CPU).")
		alnDir      = flag.String("aln", "", "Directory for per-group alignments.")
		outName     = flag.String("out", "", "Filename for FASTQ consensus output (if empty, stdout).")
		verbose     = flag.Bool("v", false, "Log debug information.")
		help        = flag.Bool("help", false, "Print this usage message.")
	)
	flag.Parse()

	if *help || *groupsName == "" || *regionsName == "" || *refName == "" {
		flag.Usage()
		os.Exit(0)
	}
	err := logger.Init(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *minSize < 1 {
		logger.Fatal("invalid minimum group size", zap.Int("min", *minSize))
	}
	switch *aligner {
	case "muscle", "mafft":
	default:
		logger.Fatal("unknown aligner", zap.String("aligner", *aligner))
	}
	if *alnDir != "" {
		err = os.MkdirAll(*alnDir, 0755)
		if err != nil {
			logger.Fatal("failed creating alignment directory", zap.String("dir", *alnDir), zap.Error(err))
		}
	}
	if *threads <= 0 {
		*threads = runtime.GOMAXPROCS(0)
	}

	families := readGroups(*groupsName)
	meta := make(map[string]*feature.Feature)
	for _, f := range readRegions(*regionsName) {
		meta[f.ID] = f
	}
	store := readAssembly(*refName)

	names := make([]string, 0, len(families))
	for grp := range families {
		names = append(names, grp)
	}
	sort.Strings(names)

	members := make(map[string][]*feature.Feature)
	for _, grp := range names {
		ids := families[grp]
		sort.Strings(ids)
		for _, id := range ids {
			f, ok := meta[id]
			if !ok {
				logger.Warn("no region for element",
					zap.String("element", id), zap.String("group", grp))
				continue
			}
			members[grp] = append(members[grp], f)
		}
	}

	rc := make(chan result)
	go func() {
		var (
			wg = &sync.WaitGroup{}
			q  = make(chan struct{}, *threads)
		)
		for _, grp := range names {
			fam := members[grp]
			if len(fam) < *minSize {
				logger.Debug("skipped small group",
					zap.String("group", grp), zap.Int("members", len(fam)))
				continue
			}
			wg.Add(1)
			q <- struct{}{}
			go func(grp string, fam []*feature.Feature) {
				defer func() { <-q; wg.Done() }()
				rc <- align(grp, fam, store, *aligner)
			}(grp, fam)
		}
		wg.Wait()
		close(rc)
	}()

	var results []result
	for r := range rc {
		if r.err != nil {
			logger.Warn("alignment failed", zap.String("group", r.group), zap.Error(r.err))
			continue
		}
		results = append(results, r)
	}
	sort.Sort(byGroup(results))
	logger.Info("built consensus sequences", zap.Int("groups", len(results)))

	writeOutput(*outName, func(w io.Writer) error {
		for _, r := range results {
			r.cons.Threshold = seq.DefaultQphred
			r.cons.QFilter = seq.CaseFilter
			_, err := fmt.Fprintf(w, "%60q\n", r.cons)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if *alnDir != "" {
		for _, r := range results {
			name := filepath.Join(*alnDir, r.group+".mfa")
			err = os.WriteFile(name, r.aln, 0644)
			if err != nil {
				logger.Fatal("failed writing alignment", zap.String("file", name), zap.Error(err))
			}
		}
	}
}

type result struct {
	group string
	cons  *linear.QSeq
	aln   []byte
	err   error
}

type byGroup []result

func (r byGroup) Len() int           { return len(r) }
func (r byGroup) Less(i, j int) bool { return r[i].group < r[j].group }
func (r byGroup) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }

// align extracts the member sequences of a group from store, aligns
// them with the named external aligner and returns the consensus of
// the alignment.
func align(group string, fam []*feature.Feature, store map[string]*linear.Seq, aligner string) result {
	var (
		s string
		n int
	)
	for _, f := range fam {
		src, ok := store[f.Contig]
		if !ok {
			logger.Warn("no sequence for contig",
				zap.String("contig", f.Contig), zap.String("feature", f.ID))
			continue
		}
		ss := *src
		err := sequtils.Truncate(&ss, src, f.Begin-1, f.End)
		if err != nil {
			return result{group: group, err: fmt.Errorf("consort: failed to cut %v: %v", f, err)}
		}
		if f.Strand < 0 {
			ss.RevComp()
		}
		ss.ID = f.ID
		ss.Desc = fmt.Sprintf("%s:%d..%d", f.Contig, f.Begin, f.End)
		s = fmt.Sprintf("%s%60a\n", s, &ss)
		n++
	}
	if n == 0 {
		return result{group: group, err: fmt.Errorf("consort: no sequence for group %s", group)}
	}

	var (
		m   *exec.Cmd
		err error
	)
	switch aligner {
	case "muscle":
		m, err = muscle.Muscle{Quiet: true}.BuildCommand()
	case "mafft":
		m, err = mafft.Mafft{InFile: "-", Auto: true, Quiet: true}.BuildCommand()
	default:
		panic("consort: no valid aligner specified")
	}
	if err != nil {
		panic(err)
	}
	var stderr bytes.Buffer
	m.Stdin = strings.NewReader(s)
	m.Stdout = &bytes.Buffer{}
	m.Stderr = &stderr
	err = m.Run()
	if err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) != 0 {
			return result{group: group, err: fmt.Errorf("%v: %s", err, msg)}
		}
		return result{group: group, err: err}
	}

	aln := m.Stdout.(*bytes.Buffer).Bytes()
	c := consensus(bytes.NewReader(aln), group)
	c.Desc = fmt.Sprintf("(%d members)", n)
	return result{group: group, cons: c, aln: aln}
}

// consensus reads an aligned FASTA stream and returns the column
// consensus of the alignment under the given identifier.
func consensus(in io.Reader, id string) *linear.QSeq {
	r := fasta.NewReader(in, &linear.Seq{
		Annotation: seq.Annotation{Alpha: alphabet.DNA},
	})
	ms := &multi.Multi{
		Annotation:     seq.Annotation{ID: id},
		ColumnConsense: seq.DefaultQConsensus,
	}
	for {
		s, err := r.Read()
		if err != nil {
			break
		}
		ms.Add(s)
	}
	return ms.Consensus(true)
}

// readGroups reads element to group assignments from file, returning
// the members of each group in file order.
func readGroups(file string) map[string][]string {
	f, err := os.Open(file)
	if err != nil {
		logger.Fatal("failed reading groups", zap.String("file", file), zap.Error(err))
	}
	defer f.Close()

	var (
		families = make(map[string][]string)
		warns    []feature.Warning
		line     int
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if line == 1 && text == "id\tgroup" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			warns = append(warns, feature.Warning{
				File: file, Line: line, Text: text,
				Reason: "need an element and a group",
			})
			continue
		}
		families[fields[1]] = append(families[fields[1]], fields[0])
	}
	err = sc.Err()
	if err != nil {
		logger.Fatal("failed reading groups", zap.String("file", file), zap.Error(err))
	}
	logWarnings(warns)
	return families
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

func readAssembly(file string) map[string]*linear.Seq {
	f, err := os.Open(file)
	if err != nil {
		logger.Fatal("failed reading assembly", zap.String("file", file), zap.Error(err))
	}
	defer f.Close()

	store := make(map[string]*linear.Seq)
	sc := seqio.NewScanner(fasta.NewReader(f, &linear.Seq{
		Annotation: seq.Annotation{Alpha: alphabet.DNA},
	}))
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		store[s.Name()] = s
	}
	err = sc.Error()
	if err != nil {
		logger.Fatal("failed reading assembly", zap.String("file", file), zap.Error(err))
	}
	return store
}

func writeOutput(name string, fn func(io.Writer) error) {
	var w io.Writer = os.Stdout
	if name != "" {
		f, err := os.Create(name)
		if err != nil {
			logger.Fatal("failed creating output", zap.String("file", name), zap.Error(err))
		}
		defer f.Close()
		w = f
	}
	b := bufio.NewWriter(w)
	err := fn(b)
	if err == nil {
		err = b.Flush()
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
