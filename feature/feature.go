// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package feature provides genomic feature records and coordinate-indexed
// collections of them for neighborhood construction and annotation
// reconciliation.
package feature

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/biogo/biogo/seq"
)

// reserved holds the characters excluded from use as an identifier
// separator. They join multiple values within a single field.
const reserved = ":;|"

// CheckSep returns an error if sep is not usable as an identifier
// separator. A separator is a single character outside the reserved
// set ":;|".
func CheckSep(sep string) error {
	if utf8.RuneCountInString(sep) != 1 {
		return fmt.Errorf("feature: separator %q is not a single character", sep)
	}
	if strings.ContainsAny(sep, reserved) {
		return fmt.Errorf("feature: separator %q is reserved", sep)
	}
	return nil
}

// GenomeOf returns the genome identifier of the given contig ID, the
// prefix preceding the first separator. A contig ID without a separator
// is its own genome identifier.
func GenomeOf(sep, contig string) string {
	if i := strings.Index(contig, sep); i >= 0 {
		return contig[:i]
	}
	return contig
}

// Qualify returns id qualified with the given genome identifier,
// genomeID+sep+id. An id that is already qualified with genomeID is
// returned unchanged.
func Qualify(sep, genomeID, id string) string {
	if strings.HasPrefix(id, genomeID+sep) {
		return id
	}
	return genomeID + sep + id
}

// Attribute is a tagged annotation value attached to a feature.
type Attribute struct {
	Tag   string
	Value string
}

// Attributes is a list of feature attributes, ordered as read. A tag
// may occur more than once; repeated tags hold multiple values.
type Attributes []Attribute

// Get returns the first value of the given tag, or the empty string if
// the tag is not present.
func (a Attributes) Get(tag string) string {
	for _, att := range a {
		if att.Tag == tag {
			return att.Value
		}
	}
	return ""
}

// All returns all values of the given tag in order.
func (a Attributes) All(tag string) []string {
	var vals []string
	for _, att := range a {
		if att.Tag == tag {
			vals = append(vals, att.Value)
		}
	}
	return vals
}

// Feature is a genomic interval record. Coordinates are 1-based and
// inclusive of both ends. A Feature must not be mutated after it has
// been added to an Index.
type Feature struct {
	// Contig is the ID of the sequence the feature lies on.
	Contig string

	// ID is the feature identifier, unique within a contig.
	ID string

	// Begin and End are the 1-based inclusive extent
	// of the feature, Begin ≤ End.
	Begin, End int

	Strand seq.Strand

	// Type is the free-form feature type tag.
	Type string

	Attrs Attributes
}

// New returns a new Feature spanning [begin,end] on the given contig.
// Reversed coordinates are swapped.
func New(contig, id string, begin, end int) *Feature {
	if end < begin {
		begin, end = end, begin
	}
	return &Feature{Contig: contig, ID: id, Begin: begin, End: end, Strand: seq.None}
}

// Len returns the length of the feature in bases.
func (f *Feature) Len() int { return f.End - f.Begin + 1 }

// Name returns the feature's identifier.
func (f *Feature) Name() string { return f.ID }

func (f *Feature) String() string {
	return fmt.Sprintf("%s:%s:[%d,%d]", f.Contig, f.ID, f.Begin, f.End)
}

// Warning describes a non-fatal data-quality problem found while
// reading an input record. The record is skipped and processing
// continues.
type Warning struct {
	// File is the name of the offending source.
	File string

	// Line is the line or record number within File.
	Line int

	// Text is the offending content.
	Text string

	// Reason describes the problem.
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: %s: %q", w.File, w.Line, w.Reason, w.Text)
}
