// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linsolve wraps gonum.org/v1/gonum/mat's dense factorisations behind
// the narrow contract C2 (hessian regularisation) and C3.b (the augmented KKT
// system) both need: solve a symmetric linear system and report its inertia.
// Callers (hessian, interiorpoint, activeset) build and pass *mat.SymDense
// values themselves; the LU and symmetric eigen factorisations are used only
// inside this package.
package linsolve

import (
	"errors"
	"fmt"

	"github.com/curioloop/nlpsolve/model"
	"gonum.org/v1/gonum/mat"
)

// Inertia is the (positive, negative, zero) eigenvalue count of a symmetric
// matrix, the quantity C2's regularisation loop and C3.b's KKT assembly both
// need to confirm second-order sufficiency.
type Inertia struct {
	Positive, Negative, Zero int
}

// ErrSingular is returned when a symmetric system's factorisation fails
// because the matrix is (numerically) singular.
var ErrSingular = errors.New("linsolve: matrix is singular")

// FromCOO builds a dense *mat.SymDense from a model.COOMatrix, adding entry
// values for duplicate (i,j) pairs.
func FromCOO(m *model.COOMatrix) *mat.SymDense {
	sym := mat.NewSymDense(m.N, nil)
	for k, v := range m.Value {
		i, j := m.Row[k], m.Col[k]
		sym.SetSym(i, j, sym.At(i, j)+v)
	}
	return sym
}

// EigenInertia computes the inertia of a symmetric dense matrix via
// mat.EigenSym, the gonum factorisation spec.md §3 points at for inertia
// determination.
func EigenInertia(sym *mat.SymDense) (Inertia, error) {
	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		return Inertia{}, fmt.Errorf("linsolve: eigendecomposition failed")
	}
	var in Inertia
	for _, v := range eig.Values(nil) {
		switch {
		case v > 1e-12:
			in.Positive++
		case v < -1e-12:
			in.Negative++
		default:
			in.Zero++
		}
	}
	return in, nil
}

// Solve solves the symmetric linear system A x = b via LU factorisation
// (mat.LU over the dense symmetric matrix, since gonum's symmetric indefinite
// factorisation is not exposed; A is small and dense here — the augmented KKT
// system and the regularised Hessian, not the original problem's Jacobian).
func Solve(a mat.Symmetric, b []float64) ([]float64, error) {
	n := a.SymmetricDim()
	dense := mat.NewDense(n, n, nil)
	dense.Copy(a)

	var lu mat.LU
	lu.Factorize(dense)
	if c := lu.Cond(); c > 1e14 {
		return nil, ErrSingular
	}

	bv := mat.NewVecDense(n, append([]float64(nil), b...))
	var xv mat.VecDense
	if err := xv.SolveVec(&lu, bv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = xv.AtVec(i)
	}
	return x, nil
}

// AugmentedSystem assembles the symmetric augmented KKT matrix
// [[H, Jᵀ],[J, -D]] used by C3.b, where H is the (n x n) regularised
// Lagrangian Hessian, J is the (m x n) constraint Jacobian and D is a
// diagonal regularisation/slack-scaling block (m x m).
func AugmentedSystem(h *mat.SymDense, jac []model.SparseVector, n, m int, diag []float64) *mat.SymDense {
	dim := n + m
	sym := mat.NewSymDense(dim, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, h.At(i, j))
		}
	}
	for row, sv := range jac {
		for k, col := range sv.Index {
			sym.SetSym(col, n+row, sv.Value[k])
		}
	}
	for i := 0; i < m; i++ {
		sym.SetSym(n+i, n+i, -diag[i])
	}
	return sym
}
