// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package feature

import (
	"io"
	"strings"

	"github.com/biogo/biogo/feat"
	"github.com/biogo/biogo/io/featio/gff"
)

// idTags are the attribute tags probed, in order, for a feature
// identifier.
var idTags = []string{"ID", "Name", "gene_id"}

// ReadGFF reads features from the GFF stream r until EOF. The file
// name is used only for warning context. Records with no recoverable
// identifier attribute are skipped and reported in the returned
// warnings.
func ReadGFF(r io.Reader, file string) ([]*Feature, []Warning, error) {
	var (
		fs    []*Feature
		warns []Warning
	)
	in := gff.NewReader(r)
	for line := 1; ; line++ {
		rec, err := in.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, warns, err
		}
		gf := rec.(*gff.Feature)

		attrs := convertAttributes(gf.FeatAttributes)
		id, rest := takeID(attrs)
		if id == "" {
			warns = append(warns, Warning{
				File:   file,
				Line:   line,
				Text:   gf.SeqName + " " + gf.Feature,
				Reason: "no identifier attribute",
			})
			continue
		}

		f := New(gf.SeqName, id, feat.ZeroToOne(gf.FeatStart), gf.FeatEnd)
		f.Strand = gf.FeatStrand
		f.Type = gf.Feature
		f.Attrs = rest
		fs = append(fs, f)
	}
	return fs, warns, nil
}

// convertAttributes normalises GFF attributes. GFF2 attributes arrive
// as space-separated tag/value pairs, GFF3 attributes as "tag=value",
// possibly several to a chunk. Quotes around values are stripped.
func convertAttributes(attrs gff.Attributes) Attributes {
	var out Attributes
	for _, a := range attrs {
		chunk := a.Tag
		if a.Value != "" {
			chunk += " " + a.Value
		}
		for _, part := range strings.Split(chunk, ";") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			var tag, value string
			eq := strings.Index(part, "=")
			sp := strings.Index(part, " ")
			switch {
			case eq >= 0 && (sp < 0 || eq < sp):
				tag, value = part[:eq], part[eq+1:]
			case sp >= 0:
				tag, value = part[:sp], part[sp+1:]
			default:
				tag = part
			}
			out = append(out, Attribute{Tag: tag, Value: strings.Trim(value, `"`)})
		}
	}
	return out
}

// takeID removes the identifier attribute from attrs, returning the
// identifier and the remaining attributes.
func takeID(attrs Attributes) (id string, rest Attributes) {
	for _, want := range idTags {
		for i, a := range attrs {
			if a.Tag == want && a.Value != "" {
				return a.Value, append(attrs[:i:i], attrs[i+1:]...)
			}
		}
	}
	return "", attrs
}

// WriteGFF writes the given features to w as GFF, one record per
// feature, with the identifier in an ID attribute.
func WriteGFF(w io.Writer, fs []*Feature, source string) error {
	out := gff.NewWriter(w, 60, true)
	ft := &gff.Feature{Source: source, FeatFrame: gff.NoFrame}
	for _, f := range fs {
		ft.SeqName = f.Contig
		ft.Feature = f.Type
		if ft.Feature == "" {
			ft.Feature = "feature"
		}
		ft.FeatStart = feat.OneToZero(f.Begin)
		ft.FeatEnd = f.End
		ft.FeatStrand = f.Strand
		ft.FeatAttributes = ft.FeatAttributes[:0]
		ft.FeatAttributes = append(ft.FeatAttributes, gff.Attribute{Tag: "ID", Value: f.ID})
		for _, a := range f.Attrs {
			ft.FeatAttributes = append(ft.FeatAttributes, gff.Attribute{Tag: a.Tag, Value: a.Value})
		}
		_, err := out.Write(ft)
		if err != nil {
			return err
		}
	}
	return nil
}
