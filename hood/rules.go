// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hood

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/biogo/armada/feature"
)

// A Rule labels neighborhoods whose members carry all of the rule's
// type tags.
type Rule struct {
	Label string
	Tags  []string
}

// Match reports whether every rule tag is present in counts.
func (r Rule) Match(counts map[string]int) bool {
	for _, t := range r.Tags {
		if counts[t] == 0 {
			return false
		}
	}
	return true
}

// ReadRules reads rules from r, one per line: a label and a
// comma-joined tag list separated by a tab. Blank lines and lines
// starting with "#" are ignored. Malformed lines are skipped and
// reported in the returned warnings.
func ReadRules(r io.Reader, file string) ([]Rule, []feature.Warning, error) {
	var (
		rules []Rule
		warns []feature.Warning
	)
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := sc.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 2 || fields[0] == "" {
			warns = append(warns, feature.Warning{
				File: file, Line: line, Text: text,
				Reason: "need a label and a tag list",
			})
			continue
		}
		var tags []string
		for _, t := range strings.Split(fields[1], ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				tags = append(tags, t)
			}
		}
		if len(tags) == 0 {
			warns = append(warns, feature.Warning{
				File: file, Line: line, Text: text,
				Reason: "empty tag list",
			})
			continue
		}
		rules = append(rules, Rule{Label: fields[0], Tags: tags})
	}
	return rules, warns, sc.Err()
}

// ApplyRules labels each row with the first rule it matches and drops
// rows matching no rule.
func ApplyRules(rules []Rule, rows []Row) []Row {
	var out []Row
	for _, row := range rows {
		for _, r := range rules {
			if r.Match(row.Counts) {
				row.Rule = r.Label
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// WriteOccupancy writes the occupancy matrix to w as tab-separated
// text with one column per tag. The rule column is included when
// withRule is set.
func WriteOccupancy(w io.Writer, rows []Row, tags []string, withRule bool) error {
	cols := []string{"neighborhood", "contig", "begin", "end"}
	cols = append(cols, tags...)
	cols = append(cols, "size.bp", "size.genes", "distinctAnnotations", "annotationCoverage")
	if withRule {
		cols = append(cols, "rule")
	}
	_, err := fmt.Fprintln(w, strings.Join(cols, "\t"))
	if err != nil {
		return err
	}
	for _, row := range rows {
		fields := []string{
			row.ID, row.Contig,
			fmt.Sprint(row.Begin), fmt.Sprint(row.End),
		}
		for _, t := range tags {
			fields = append(fields, fmt.Sprint(row.Counts[t]))
		}
		fields = append(fields,
			fmt.Sprint(row.SizeBP), fmt.Sprint(row.SizeGenes),
			fmt.Sprint(row.DistinctAnnotations),
			fmt.Sprintf("%.4f", row.AnnotationCoverage),
		)
		if withRule {
			fields = append(fields, row.Rule)
		}
		_, err = fmt.Fprintln(w, strings.Join(fields, "\t"))
		if err != nil {
			return err
		}
	}
	return nil
}
