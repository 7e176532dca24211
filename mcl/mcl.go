// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mcl provides interaction with the MCL graph clustering tool.
package mcl

import (
	"errors"
	"os/exec"

	"github.com/biogo/external"
)

var ErrMissingRequired = errors.New("mcl: missing required argument")

// MCL defines parameters for the mcl graph clustering tool.
type MCL struct {
	// Usage: mcl <-|file name> [--abc] [-I f] [-te i] [-o fname]
	//
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}mcl{{end}}"` // mcl

	// Input file, "-" for stdin.
	InFile string `buildarg:"{{.}}"` // "<-|file name>"

	ABC bool `buildarg:"{{if .}}--abc{{end}}"` // --abc: label pair input

	Inflation float64 `buildarg:"{{if .}}-I{{split}}{{.}}{{end}}"`  // -I: inflation, granularity of clustering
	Threads   int     `buildarg:"{{if .}}-te{{split}}{{.}}{{end}}"` // -te: number of expansion threads

	OutFile string `buildarg:"{{if .}}-o{{split}}{{.}}{{end}}"` // -o: outfile (mcl-devised name if empty)
}

// BuildCommand returns an exec.Cmd built from the parameters in m.
func (m MCL) BuildCommand() (*exec.Cmd, error) {
	if m.InFile == "" {
		return nil, ErrMissingRequired
	}
	cl := external.Must(external.Build(m))
	return exec.Command(cl[0], cl[1:]...), nil
}
