// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package activeset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// packedLDLT factors the dense symmetric n×n matrix sym as L D Lᵀ, with L
// unit lower triangular and D diagonal, and returns D and the strict lower
// triangle of L packed the way LSQ's l(nl) argument expects: column c (0
// based) occupies a block of n-c entries, the diagonal D_c followed by the
// n-c-1 subdiagonal entries L_{c+1,c} .. L_{n-1,c}, followed by one unused
// trailing slot so that nl = n(n+1)/2+1 selects LSQ's full-triangle path
// (every column, including the last, is read from the packed array). This is the same packing
// resetBFGS (curioloop/optimizer's slsqp.resetBFGS) writes for the identity
// case L=I, D=I — generalised here to an arbitrary SPD matrix since the
// active-set subproblem supplies an exact/regularised Hessian rather than a
// BFGS running estimate.
func packedLDLT(sym *mat.SymDense, n int) ([]float64, error) {
	h := make([][]float64, n)
	for i := range h {
		h[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			h[i][j] = sym.At(i, j)
		}
	}

	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	d := make([]float64, n)

	for c := 0; c < n; c++ {
		sum := h[c][c]
		for p := 0; p < c; p++ {
			sum -= l[c][p] * l[c][p] * d[p]
		}
		d[c] = sum
		if d[c] <= 0 {
			return nil, fmt.Errorf("activeset: Hessian not positive definite at column %d (pivot %.3g)", c, d[c])
		}
		l[c][c] = 1
		for r := c + 1; r < n; r++ {
			s := h[r][c]
			for p := 0; p < c; p++ {
				s -= l[r][p] * l[c][p] * d[p]
			}
			l[r][c] = s / d[c]
		}
	}

	packed := make([]float64, n*(n+1)/2+1)
	j := 0
	for c := 0; c < n; c++ {
		packed[j] = d[c]
		for r := c + 1; r < n; r++ {
			packed[j+1+(r-c-1)] = l[r][c]
		}
		j += n - c
	}
	return packed, nil
}
