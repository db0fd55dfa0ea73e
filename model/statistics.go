// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Statistics is a per-iteration tabular recorder grounded on
// original_source/uno/tools/Statistics.hpp: columns are declared once with
// AddColumn, values are set per iteration with Set/Setf, and PrintCurrentLine
// renders a bordered ASCII table row (reprinting the header periodically),
// every column 17 characters wide.
type Statistics struct {
	order   map[string]int // column name -> declaration order
	names   []string
	width   int
	current map[string]string
	rows    []map[string]string
	iters   []int
	headerEvery int
	sinceHeader int
}

// NewStatistics creates a recorder that reprints the header every
// headerEvery lines (spec.md §6 statistics_print_header_every_iterations).
func NewStatistics(headerEvery int) *Statistics {
	if headerEvery <= 0 {
		headerEvery = 1
	}
	return &Statistics{
		order:       make(map[string]int),
		current:     make(map[string]string),
		width:       17,
		headerEvery: headerEvery,
	}
}

// AddColumn declares a column, in call order, idempotently.
func (s *Statistics) AddColumn(name string) {
	if _, ok := s.order[name]; ok {
		return
	}
	s.order[name] = len(s.names)
	s.names = append(s.names, name)
}

// Set records the string form of a statistic for the current (not yet
// flushed) iteration.
func (s *Statistics) Set(name, value string) {
	s.AddColumn(name)
	s.current[name] = value
}

// Setf is Set with fmt.Sprintf formatting.
func (s *Statistics) Setf(name, format string, args ...interface{}) {
	s.Set(name, fmt.Sprintf(format, args...))
}

// NewLine closes the current iteration's row and appends it to the recorded
// history, keyed by iter.
func (s *Statistics) NewLine(iter int) {
	row := make(map[string]string, len(s.current))
	for k, v := range s.current {
		row[k] = v
	}
	s.rows = append(s.rows, row)
	s.iters = append(s.iters, iter)
	s.current = make(map[string]string)
}

// PrintCurrentLine writes the current (not yet closed) row to w, printing a
// header first if the header cadence requires one.
func (s *Statistics) PrintCurrentLine(w io.Writer) {
	if s.sinceHeader == 0 {
		s.printHeader(w)
	}
	s.printRow(w, s.current)
	s.sinceHeader = (s.sinceHeader + 1) % s.headerEvery
}

func (s *Statistics) printHeader(w io.Writer) {
	fmt.Fprint(w, "┌")
	for i := range s.names {
		if i > 0 {
			fmt.Fprint(w, "┬")
		}
		fmt.Fprint(w, strings.Repeat("─", s.width))
	}
	fmt.Fprintln(w, "┐")
	fmt.Fprint(w, "│")
	for _, name := range s.names {
		fmt.Fprintf(w, "%s│", center(name, s.width))
	}
	fmt.Fprintln(w)
}

func (s *Statistics) printRow(w io.Writer, row map[string]string) {
	fmt.Fprint(w, "│")
	for _, name := range s.names {
		fmt.Fprintf(w, "%s│", center(row[name], s.width))
	}
	fmt.Fprintln(w)
}

func center(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	left := (width - len(s)) / 2
	right := width - len(s) - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

// Serialize returns the recorded history as a map keyed by iteration index,
// matching Statistics::serialize's JSON shape (spec.md §6): each entry maps
// column name to its recorded string value. The caller encodes the result
// with encoding/json.
func (s *Statistics) Serialize() map[int]map[string]string {
	out := make(map[int]map[string]string, len(s.rows))
	for k, row := range s.rows {
		out[s.iters[k]] = row
	}
	return out
}

// Columns returns the declared column names in declaration order.
func (s *Statistics) Columns() []string {
	cols := make([]string, len(s.names))
	copy(cols, s.names)
	sort.Slice(cols, func(i, j int) bool { return s.order[cols[i]] < s.order[cols[j]] })
	return cols
}
