// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package activeset

import (
	"fmt"
	"math"
	"sync"

	"github.com/costela/golp"
	"github.com/curioloop/nlpsolve/model"
)

// golpMu serialises every call into golp: the underlying lp_solve problem holds
// process-global C state (spec.md §9's "Fortran-based LP/QP solver
// collaborator with global common blocks"), so only one goroutine may drive
// it at a time.
var golpMu sync.Mutex

// SolveFeasibilityLP finds the minimum ℓ1-norm correction d to the
// linearised constraint residual when the local QP subproblem reports
// ConsIncompatible: it solves
//
//	minimize  Σ pᵢ + nᵢ
//	subject to  Jd + p - n = -r,  p,n ≥ 0,  -𝛥 ≤ d ≤ 𝛥 (trust region box)
//
// the elastic-variable LP restoration step C3.a falls back to (spec.md §4.4,
// the ℓ1-relaxation layer's feasibility problem). jac is the constraint
// Jacobian at the current iterate, violation is the linearised residual r
// (c(x) minus the bound it violates, 0 for an inequality row inside its
// bounds; negated to build the right-hand side), and bounds the variable box (already intersected with
// the trust region by the caller). Inequality rows are expected to already
// be one-sided in violation (only the active side carries a nonzero
// residual), so every row can be elastic-relaxed as an equality.
func SolveFeasibilityLP(jac []model.SparseVector, violation []float64, bounds []model.Bound) (d []float64, err error) {
	golpMu.Lock()
	defer golpMu.Unlock()

	n := len(bounds)
	m := len(jac)

	lp := golp.NewMinimizeModel("restoration")
	lp.Presolve = true

	dv := make([]*golp.Variable, n)
	for i, b := range bounds {
		v, verr := lp.AddVariable(fmt.Sprintf("d%d", i))
		if verr != nil {
			return nil, fmt.Errorf("activeset: golp.AddVariable: %w", verr)
		}
		lower, upper := b.Lower, b.Upper
		if !b.IsLowerBounded() {
			lower = math.Inf(-1)
		}
		if !b.IsUpperBounded() {
			upper = math.Inf(1)
		}
		v.SetBounds(lower, upper)
		v.SetCoefficient(0)
		dv[i] = v
	}

	pv := make([]*golp.Variable, m)
	nv := make([]*golp.Variable, m)
	for j := 0; j < m; j++ {
		p, perr := lp.AddDefinedVariable(fmt.Sprintf("p%d", j), golp.ContinuousVariable, 1, 0, math.Inf(1))
		if perr != nil {
			return nil, fmt.Errorf("activeset: golp.AddVariable: %w", perr)
		}
		nn, nerr := lp.AddDefinedVariable(fmt.Sprintf("n%d", j), golp.ContinuousVariable, 1, 0, math.Inf(1))
		if nerr != nil {
			return nil, fmt.Errorf("activeset: golp.AddVariable: %w", nerr)
		}
		pv[j], nv[j] = p, nn
	}

	for j, row := range jac {
		vars := make([]*golp.Variable, 0, len(row.Index)+2)
		coefs := make([]float64, 0, len(row.Index)+2)
		for k, idx := range row.Index {
			vars = append(vars, dv[idx])
			coefs = append(coefs, row.Value[k])
		}
		vars = append(vars, pv[j], nv[j])
		coefs = append(coefs, 1, -1)
		rhs := -violation[j]
		if cerr := lp.AddConstraint(rhs, rhs, vars, coefs); cerr != nil {
			return nil, fmt.Errorf("activeset: golp.AddConstraint: %w", cerr)
		}
	}

	if serr := lp.SolveSimplex(); serr != nil {
		return nil, fmt.Errorf("activeset: golp.SolveSimplex: %w", serr)
	}

	d = make([]float64, n)
	for i, v := range dv {
		d[i] = v.GetValue()
	}
	return d, nil
}
