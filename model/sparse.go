// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import "sort"

// SparseVector is a sparse vector in coordinate form, used for the objective
// gradient and for a single row of the constraint Jacobian. No sparse vector
// type is available in gonum (gonum.org/v1/gonum/mat is dense-only), and none
// of the retrieved example repos defines one either, so this is a small
// hand-written type indexed the way katalvlaran/lvlath's adjacency
// structures are: parallel Index/Value slices, not a map, so hot loops over
// nonzeros stay allocation-free.
type SparseVector struct {
	Index []int
	Value []float64
}

// NewSparseVector preallocates a SparseVector for nnz nonzero entries.
func NewSparseVector(nnz int) SparseVector {
	return SparseVector{Index: make([]int, 0, nnz), Value: make([]float64, 0, nnz)}
}

// Set appends a nonzero entry. Entries do not need to be sorted by index.
func (v *SparseVector) Set(i int, value float64) {
	v.Index = append(v.Index, i)
	v.Value = append(v.Value, value)
}

// Dense writes the vector's dense representation of length n into dst,
// zeroing dst first.
func (v SparseVector) Dense(dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	for k, i := range v.Index {
		dst[i] += v.Value[k]
	}
}

// Dot computes vᵀx for a dense x.
func (v SparseVector) Dot(x []float64) float64 {
	sum := 0.0
	for k, i := range v.Index {
		sum += v.Value[k] * x[i]
	}
	return sum
}

// SparseFormat selects the storage convention the Model's Hessian and
// Jacobian evaluators are expected to honour (Options.SparseFormat, spec.md
// §6).
type SparseFormat int

const (
	// COO is coordinate (triplet) format: parallel Row/Col/Value slices.
	COO SparseFormat = iota
	// CSC is compressed sparse column format.
	CSC
)

// COOMatrix is a symmetric sparse matrix in coordinate (triplet) form,
// storing one triangle. It is the wire format the Model's
// EvaluateLagrangianHessian returns (spec.md §6); linsolve.FromCOO converts
// it to a dense mat.SymDense for factorisation.
type COOMatrix struct {
	N            int
	Row, Col     []int
	Value        []float64
	UpperStored  bool // true if the upper triangle (Row<=Col) was supplied
}

// NewCOOMatrix preallocates a COOMatrix for n variables and nnz nonzeros.
func NewCOOMatrix(n, nnz int) *COOMatrix {
	return &COOMatrix{N: n, Row: make([]int, 0, nnz), Col: make([]int, 0, nnz), Value: make([]float64, 0, nnz)}
}

// Insert appends a(n) = value, recording whether i<=j so the caller's
// triangle convention can be detected later.
func (m *COOMatrix) Insert(i, j int, value float64) {
	m.Row = append(m.Row, i)
	m.Col = append(m.Col, j)
	m.Value = append(m.Value, value)
	if i <= j {
		m.UpperStored = true
	}
}

// ToCSC converts the receiver to compressed sparse column format, summing
// duplicate entries and mirroring each off-diagonal entry into both columns.
// The solver itself does not call it; it works with the triplet form
// directly via linsolve.FromCOO.
func (m *COOMatrix) ToCSC() *CSCMatrix {
	type entry struct {
		row int
		val float64
	}
	cols := make([][]entry, m.N)
	for k := range m.Value {
		c, r, v := m.Col[k], m.Row[k], m.Value[k]
		cols[c] = append(cols[c], entry{r, v})
		if r != c {
			cols[r] = append(cols[r], entry{c, v})
		}
	}
	csc := &CSCMatrix{N: m.N, ColPtr: make([]int, m.N+1)}
	for c := 0; c < m.N; c++ {
		sort.Slice(cols[c], func(a, b int) bool { return cols[c][a].row < cols[c][b].row })
		for _, e := range cols[c] {
			if k := len(csc.RowIdx); k > csc.ColPtr[c] && csc.RowIdx[k-1] == e.row {
				csc.Value[k-1] += e.val
				continue
			}
			csc.RowIdx = append(csc.RowIdx, e.row)
			csc.Value = append(csc.Value, e.val)
		}
		csc.ColPtr[c+1] = len(csc.RowIdx)
	}
	return csc
}

// CSCMatrix is a general sparse matrix in compressed sparse column form.
type CSCMatrix struct {
	N       int
	ColPtr  []int
	RowIdx  []int
	Value   []float64
}
