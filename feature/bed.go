// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package feature

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/biogo/seq"
)

// Well-known attribute tags.
const (
	// AnnotTag holds annotation values attached to a feature.
	// Multiple values join with ";" in tabular output.
	AnnotTag = "Annot"

	// GroupTag holds the neighborhood or group a feature was
	// assigned to in tabular output.
	GroupTag = "Group"
)

// Extended BED field indices. Coordinates in the file are 0-based
// half open in the BED manner.
const (
	bedContigField = iota
	bedBeginField
	bedEndField
	bedIDField
	bedTagField
	bedStrandField
	bedGroupField
	bedAnnotField

	bedNumFields
)

const bedMinFields = bedIDField + 1

// ReadBED reads features from the extended BED stream r until EOF.
// Lines that cannot be parsed are skipped and reported in the returned
// warnings. Group and annotation columns are retained as Group and
// Annot attributes.
func ReadBED(r io.Reader, file string) ([]*Feature, []Warning, error) {
	var (
		fs    []*Feature
		warns []Warning
	)
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := sc.Text()
		if text == "" || strings.HasPrefix(text, "#") ||
			strings.HasPrefix(text, "track") || strings.HasPrefix(text, "browser") {
			continue
		}
		f, err := parseBedLine(strings.Split(text, "\t"))
		if err != nil {
			warns = append(warns, Warning{File: file, Line: line, Text: text, Reason: err.Error()})
			continue
		}
		fs = append(fs, f)
	}
	return fs, warns, sc.Err()
}

func parseBedLine(fields []string) (f *Feature, err error) {
	defer handlePanic(&err)
	if len(fields) < bedMinFields {
		return nil, fmt.Errorf("need at least %d fields, got %d", bedMinFields, len(fields))
	}
	f = New(fields[bedContigField], fields[bedIDField],
		mustAtoi(fields[bedBeginField])+1, mustAtoi(fields[bedEndField]))
	if len(fields) > bedTagField && fields[bedTagField] != "." {
		f.Type = fields[bedTagField]
	}
	if len(fields) > bedStrandField {
		f.Strand = mustStrand(fields[bedStrandField])
	}
	if len(fields) > bedGroupField && fields[bedGroupField] != "." {
		f.Attrs = append(f.Attrs, Attribute{Tag: GroupTag, Value: fields[bedGroupField]})
	}
	if len(fields) > bedAnnotField && fields[bedAnnotField] != "." {
		for _, v := range strings.Split(fields[bedAnnotField], ";") {
			f.Attrs = append(f.Attrs, Attribute{Tag: AnnotTag, Value: v})
		}
	}
	return f, nil
}

// WriteBED writes fs to w in the extended BED form, one line per
// feature, placing group in the seventh column. An empty group falls
// back to each feature's Group attribute.
func WriteBED(w io.Writer, fs []*Feature, group string) error {
	for _, f := range fs {
		g := group
		if g == "" {
			g = f.Attrs.Get(GroupTag)
		}
		if g == "" {
			g = "."
		}
		typ := f.Type
		if typ == "" {
			typ = "."
		}
		annot := strings.Join(f.Attrs.All(AnnotTag), ";")
		if annot == "" {
			annot = "."
		}
		_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			f.Contig, f.Begin-1, f.End, f.ID, typ, strandString(f.Strand), g, annot)
		if err != nil {
			return err
		}
	}
	return nil
}

func handlePanic(err *error) {
	r := recover()
	if r != nil {
		switch r := r.(type) {
		case error:
			*err = r
		default:
			panic(r)
		}
	}
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		panic(err)
	}
	return i
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

func mustStrand(s string) seq.Strand {
	switch s {
	case "+":
		return seq.Plus
	case "-":
		return seq.Minus
	case ".", "":
		return seq.None
	default:
		panic(fmt.Errorf("illegal strand: %q", s))
	}
}
