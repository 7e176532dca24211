// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// muster builds gene neighborhoods over annotated assemblies. It
// indexes features from GFF and BED input, merges seed features into
// neighborhoods by coordinate proximity, populates the neighborhoods
// with the features around them and reports regions, membership and
// tag occupancy.
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
	"github.com/biogo/armada/hood"
	"github.com/biogo/armada/logger"

	"go.uber.org/zap"
)

func main() {
	var (
		seedsName = flag.String("seeds", "", "Filename for seed feature IDs, one per line.")
		tag       = flag.String("tag", "hood", "Tag used in neighborhood identifiers.")
		sep       = flag.String("sep", "_", "Identifier separator character.")
		mergeDist = flag.Int("merge", 10000, "Maximum inter-seed distance for merging.")
		flank     = flag.Int("flank", 0, "Boundary expansion before population.")
		outName   = flag.String("out", "", "Filename for region GFF output. Defaults to stdout.")
		bedName   = flag.String("bed", "", "Filename for membership BED output.")
		occName   = flag.String("occ", "", "Filename for tag occupancy table output.")
		rulesName = flag.String("rules", "", "Filename for neighborhood labelling rules.")
		source    = flag.String("source", "muster", "Source field for GFF output.")
		verbose   = flag.Bool("v", false, "Log debug information.")
		help      = flag.Bool("help", false, "Print this usage message.")
	)
	flag.Parse()

	if *help || *seedsName == "" {
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
	if *mergeDist < 0 || *flank < 0 {
		logger.Fatal("negative distance",
			zap.Int("merge", *mergeDist), zap.Int("flank", *flank))
	}

	var fs []*feature.Feature
	if files := flag.Args(); len(files) == 0 {
		logger.Info("reading features from stdin")
		got, warns, err := feature.ReadGFF(os.Stdin, "stdin")
		if err != nil {
			logger.Fatal("failed reading features", zap.Error(err))
		}
		logWarnings(warns)
		fs = got
	} else {
		for _, file := range files {
			got, warns, err := readFeatures(file)
			if err != nil {
				logger.Fatal("failed reading features", zap.String("file", file), zap.Error(err))
			}
			logWarnings(warns)
			fs = append(fs, got...)
		}
	}

	idx, err := feature.BuildIndex(fs)
	if err != nil {
		logger.Fatal("failed indexing features", zap.Error(err))
	}
	logger.Info("indexed features",
		zap.Int("features", idx.Len()), zap.Int("contigs", len(idx.Contigs())))

	seeds, err := readSeeds(*seedsName)
	if err != nil {
		logger.Fatal("failed reading seeds", zap.String("file", *seedsName), zap.Error(err))
	}
	logger.Info("read seeds", zap.Int("seeds", len(seeds)))

	hoods := hood.Merge(seeds, idx, *mergeDist, *tag, *sep)
	logger.Info("merged seeds", zap.Int("neighborhoods", len(hoods)))
	hoods = hood.Populate(hoods, idx, *flank, *mergeDist, *tag, *sep)
	logger.Info("populated neighborhoods", zap.Int("neighborhoods", len(hoods)))

	rows, tags := hood.Occupancy(hoods)
	var withRule bool
	if *rulesName != "" {
		rules, err := readRules(*rulesName)
		if err != nil {
			logger.Fatal("failed reading rules", zap.String("file", *rulesName), zap.Error(err))
		}
		rows = hood.ApplyRules(rules, rows)
		withRule = true

		keep := make(map[string]bool, len(rows))
		for _, row := range rows {
			keep[row.ID] = true
		}
		var kept []*hood.Neighborhood
		for _, h := range hoods {
			if keep[h.ID] {
				kept = append(kept, h)
			}
		}
		logger.Info("matched rules",
			zap.Int("rules", len(rules)), zap.Int("neighborhoods", len(kept)))
		hoods = kept
	}

	regions := make([]*feature.Feature, 0, len(rows))
	for _, row := range rows {
		rf := feature.New(row.Contig, row.ID, row.Begin, row.End)
		rf.Type = *tag
		if withRule {
			rf.Type = row.Rule
		}
		rf.Attrs = feature.Attributes{{Tag: "members", Value: fmt.Sprint(row.SizeGenes)}}
		regions = append(regions, rf)
	}
	writeOutput(*outName, func(w io.Writer) error {
		return feature.WriteGFF(w, regions, *source)
	})

	if *bedName != "" {
		writeOutput(*bedName, func(w io.Writer) error {
			for _, h := range hoods {
				err := feature.WriteBED(w, h.Members(), h.ID)
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	if *occName != "" {
		writeOutput(*occName, func(w io.Writer) error {
			return hood.WriteOccupancy(w, rows, tags, withRule)
		})
	}
}

// readFeatures reads features from file, dispatching on extension:
// .bed input is read as BED, anything else as GFF.
func readFeatures(file string) ([]*feature.Feature, []feature.Warning, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(file), ".bed") {
		return feature.ReadBED(f, file)
	}
	return feature.ReadGFF(f, file)
}

// readSeeds reads seed feature IDs from file, one per line. Blank
// lines and lines starting with "#" are ignored.
func readSeeds(file string) (map[string]bool, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	seeds := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		id := strings.TrimSpace(sc.Text())
		if id == "" || strings.HasPrefix(id, "#") {
			continue
		}
		seeds[id] = true
	}
	return seeds, sc.Err()
}

func readRules(file string) ([]hood.Rule, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rules, warns, err := hood.ReadRules(f, file)
	logWarnings(warns)
	return rules, err
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
