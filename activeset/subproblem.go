// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package activeset implements C3.a: the active-set LP/QP subproblem
// variant. Each call linearises the current iterate into a local quadratic
// model and hands it to the teacher's own Lawson-Hanson least-squares kernel
// (LSQ, grounded on curioloop/optimizer's slsqp package) intersected with
// the trust region; when that kernel reports the constraints are locally
// incompatible, the solver falls back to the minimum ℓ1-correction LP
// (SolveFeasibilityLP, backed by github.com/costela/golp).
package activeset

import (
	"fmt"
	"math"

	"github.com/curioloop/nlpsolve/hessian"
	"github.com/curioloop/nlpsolve/model"
)

// Subproblem is the C3.a active-set solver, holding the small amount of
// state a warm start can reuse between calls: the current trust-region
// radius and the Hessian model that regularises the exact Lagrangian
// Hessian into a form LSQ's Cholesky-factor input expects.
type Subproblem struct {
	Hessian hessian.Model
	Radius  float64

	maxIterLs int
	infBound  float64

	solvingFeasibility bool
	rho                float64
}

// New creates a Subproblem configured from opts.
func New(opts model.Options) *Subproblem {
	return &Subproblem{
		Hessian:   hessian.Factory(opts.HessianModel, opts),
		Radius:    opts.TrustRegionInitialRadius,
		maxIterLs: 10 * (opts.BQPDKmax + 1),
		infBound:  1e20,
		rho:       1,
	}
}

// SetTrustRegionRadius implements the C3 contract.
func (s *Subproblem) SetTrustRegionRadius(r float64) { s.Radius = r }

// SetInitialPoint implements the C3 contract: projects x0 into the variable
// bounds and, for the interior-point sibling, would push it off the
// boundary; the active-set variant only needs the box projection since LSQ
// tolerates an iterate sitting exactly on a bound.
func (s *Subproblem) SetInitialPoint(m model.Model, x0 []float64) {
	bounds := make([]model.Bound, m.NumVariables())
	for i := range bounds {
		bounds[i] = m.VariableBound(i)
	}
	model.ProjectToBounds(x0, bounds)
}

// InitialIterate implements the C3 contract's initial_iterate hook.
func (s *Subproblem) InitialIterate(m model.Model, it *model.Iterate) {
	s.SetInitialPoint(m, it.Primal)
	it.Invalidate()
}

// InitializeFeasibilityProblem implements the C3 contract: entering
// restoration sets ρ=0 so the next Solve call minimises pure infeasibility
// (spec.md §4.4).
func (s *Subproblem) InitializeFeasibilityProblem() {
	s.solvingFeasibility = true
	s.rho = 0
}

// SetElasticVariableValues implements the C3 contract. The active-set
// variant represents the ℓ1-relaxation implicitly through
// SolveFeasibilityLP's p/n variables rather than carrying them on the
// Iterate, so there is nothing to initialise here (restoration mode is
// left in PostprocessIterate); kept as a named hook so callers can treat both
// subproblem variants uniformly.
func (s *Subproblem) SetElasticVariableValues(m model.Model, it *model.Iterate) {}

// PostprocessIterate implements the C3 contract: leaving restoration
// restores ρ=1.
func (s *Subproblem) PostprocessIterate(m model.Model, it *model.Iterate) {
	if s.solvingFeasibility {
		s.solvingFeasibility = false
		s.rho = 1
	}
}

// Solve implements the C3 contract's solve(stats, problem, iterate, warmstart).
func (s *Subproblem) Solve(m model.Model, it *model.Iterate, warmstart model.WarmstartInformation) (*model.Direction, error) {
	n, mc := m.NumVariables(), m.NumConstraints()

	g, err := it.ObjectiveGradient(m)
	if err != nil {
		return nil, err
	}
	jac, err := it.ConstraintJacobian(m)
	if err != nil {
		return nil, err
	}
	c, err := it.Constraints(m)
	if err != nil {
		return nil, err
	}

	sym, _, err := s.Hessian.Evaluate(m, it, mc)
	if err != nil {
		return nil, err
	}

	// LSQ expects a Cholesky-style packed lower triangle with unit diagonal
	// and a separate diagonal, as produced by the BFGS update in the
	// original SLSQP driver. Here the Hessian is exact/regularised rather
	// than a BFGS approximation, so the packed form is obtained from a plain
	// LDLᵀ of the dense symmetric matrix.
	l, err := packedLDLT(sym, n)
	if err != nil {
		return nil, fmt.Errorf("activeset: %w", err)
	}

	grad := make([]float64, n)
	g.Dense(grad)
	grad = scaleVec(grad, s.rho)

	meq, mineq := countEquality(m, mc)
	a := make([]float64, mc*n)
	b := make([]float64, mc)
	order, sign := reorderRows(m, mc, jac, c, a, b, n)

	xl := make([]float64, n)
	xu := make([]float64, n)
	for i := 0; i < n; i++ {
		vb := m.VariableBound(i)
		xl[i] = boundOrInf(vb.Lower, -s.infBound, -s.Radius, it.Primal[i])
		xu[i] = boundOrInf(vb.Upper, s.infBound, s.Radius, it.Primal[i])
	}

	x := make([]float64, n)
	y := make([]float64, mc+n+n)
	m1 := mineq + n + n
	// wlen over-approximates LSQ's own w0 + LSEI/LSI workspace formula (see
	// LSEI's doc comment): every dimension here (m1, n, mc) is taken at its
	// largest plausible value rather than LSQ's tighter runtime-reduced ones
	// (m1-nan, n-meq), so this is deliberately generous, not tight.
	wlen := n*n + n + meq*n + meq + m1*n + m1 + 2*mc + n + (n+1)*(m1+2) + 2*m1
	w := make([]float64, wlen+256)
	jw := make([]int, m1+n)

	norm, status := LSQ(mc, meq, n, len(l), l, grad, a, b, xl, xu, x, y, w, jw, s.maxIterLs, s.infBound)

	dir := &model.Direction{
		Primal:     x,
		LambdaStep: make([]float64, mc),
		ZLowerStep: make([]float64, n),
		ZUpperStep: make([]float64, n),
	}
	dir.NormInf = model.Inf.Apply(x)

	switch status {
	case HasSolution:
		dir.Status = model.Optimal
		for dst := 0; dst < mc; dst++ {
			j := order[dst]
			dir.LambdaStep[j] = sign[dst]*y[dst] - it.Lambda[j]
		}
		dir.PredictedObjective = 0.5 * norm * norm
		dir.PredictedReduction = model.ProgressMeasures{ObjectiveMeasure: -ddotFull(grad, x)}
	case ConsIncompatible, LSISingularE, LSEISingularC:
		d, lerr := SolveFeasibilityLP(jac, linearizedResidual(m, mc, c), boundsFromIntervals(xl, xu))
		if lerr != nil {
			return nil, fmt.Errorf("activeset: restoration LP failed: %w", lerr)
		}
		dir.Primal = d
		dir.Status = model.DirectionInfeasible
		dir.NormInf = model.Inf.Apply(d)
	case NNLSExceedMaxIter, HFTIRankDefect:
		dir.Status = model.DirectionError
	default:
		dir.Status = model.DirectionError
	}
	return dir, nil
}

func countEquality(m model.Model, mc int) (meq, mineq int) {
	for j := 0; j < mc; j++ {
		b := m.ConstraintBound(j)
		if b.Lower == b.Upper {
			meq++
		}
	}
	return meq, mc - meq
}

// reorderRows writes equality rows first, then inequality rows, matching
// LSQ's expectation that the first meq rows of a/b are the equality block
// and that every row reads Aⱼx + bⱼ = 0 (equality) or Aⱼx + bⱼ ≥ 0
// (inequality). An equality row or a lower-bounded inequality row carries
// the Jacobian row unchanged with bⱼ = c(x)-c_L; a row bounded only on its
// upper side is negated so "c(x)+Jdx ≤ c_U" becomes
// "-J dx + (c_U-c(x)) ≥ 0" in LSQ's one-sided convention. order maps a reordered
// row back to its original constraint index, and sign records the ±1
// applied to that row so the returned multiplier can be mapped back to the
// original constraint's sign convention.
func reorderRows(m model.Model, mc int, jac []model.SparseVector, c []float64, a, b []float64, n int) (order []int, sign []float64) {
	order = make([]int, mc)
	sign = make([]float64, mc)
	eq, ineq := 0, 0
	meq, _ := countEquality(m, mc)
	for j := 0; j < mc; j++ {
		bd := m.ConstraintBound(j)
		row := make([]float64, n)
		jac[j].Dense(row)

		var dst int
		var rhs, rowSign float64
		rowSign = 1
		switch {
		case bd.Lower == bd.Upper:
			dst = eq
			eq++
			rhs = c[j] - bd.Lower
		case bd.IsLowerBounded():
			dst = meq + ineq
			ineq++
			rhs = c[j] - bd.Lower
		default:
			dst = meq + ineq
			ineq++
			rhs = bd.Upper - c[j]
			rowSign = -1
			for i := range row {
				row[i] = -row[i]
			}
		}
		copy(a[dst*n:dst*n+n], row)
		b[dst] = rhs
		order[dst] = j
		sign[dst] = rowSign
	}
	return order, sign
}

// linearizedResidual builds the signed constraint residual SolveFeasibilityLP
// relaxes with elastic variables: c minus the bound it violates (negative
// below a lower bound, positive above an upper bound), 0 where an inequality
// row already sits inside its bounds, and c minus the fixed value for an
// equality row, in the original (unreordered) constraint order.
func linearizedResidual(m model.Model, mc int, c []float64) []float64 {
	r := make([]float64, mc)
	for j := 0; j < mc; j++ {
		b := m.ConstraintBound(j)
		switch {
		case b.Lower == b.Upper:
			r[j] = c[j] - b.Lower
		case b.IsLowerBounded() && c[j] < b.Lower:
			r[j] = c[j] - b.Lower
		case b.IsUpperBounded() && c[j] > b.Upper:
			r[j] = c[j] - b.Upper
		}
	}
	return r
}

// boundOrInf returns one side of the step box, the variable bound relative
// to x intersected with the trust region: radius carries the side's sign
// (-Δ for the lower side, Δ for the upper side), and the result is clipped
// to infVal when both the bound and the radius are infinite.
func boundOrInf(bound, infVal, radius, x float64) float64 {
	rel := bound - x
	if infVal < 0 {
		return math.Max(math.Max(rel, radius), infVal)
	}
	return math.Min(math.Min(rel, radius), infVal)
}

func boundsFromIntervals(xl, xu []float64) []model.Bound {
	b := make([]model.Bound, len(xl))
	for i := range b {
		b[i] = model.Bound{Lower: xl[i], Upper: xu[i]}
	}
	return b
}

func scaleVec(v []float64, s float64) []float64 {
	for i := range v {
		v[i] *= s
	}
	return v
}

func ddotFull(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
