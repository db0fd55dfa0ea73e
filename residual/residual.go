// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package residual implements C1: computing the primal-dual KKT residuals
// and progress measures from an Iterate, and classifying a residual set
// against a tolerance into a model.TerminationStatus.
//
// Grounded on original_source/uno/optimization/PrimalDualResiduals.hpp for
// the field set and original_source/uno/ingredients/globalization_mechanism/
// GlobalizationMechanism.cpp for the tight/loose tolerance + consecutive
// counter termination policy.
package residual

import (
	"math"

	"github.com/curioloop/nlpsolve/model"
)

// scalingCap is the Uno-style s_max that keeps residual scaling factors from
// blowing up when multipliers are large (Ipopt paper §3.8, carried by
// original_source unscaled).
const scalingCap = 100.0

// Compute evaluates the scaled primal-dual residuals at it, given the
// barrier parameter mu (0 for the active-set/no-barrier case) and the
// configured p-norm (opts.ProgressNorm) the stationarity measures are taken
// in (spec.md §4.1).
func Compute(m model.Model, it *model.Iterate, mu float64, opts model.Options) (model.PrimalDualResiduals, error) {
	n, mc := m.NumVariables(), m.NumConstraints()

	g, err := it.ObjectiveGradient(m)
	if err != nil {
		return model.PrimalDualResiduals{}, err
	}
	jac, err := it.ConstraintJacobian(m)
	if err != nil {
		return model.PrimalDualResiduals{}, err
	}
	c, err := it.Constraints(m)
	if err != nil {
		return model.PrimalDualResiduals{}, err
	}

	grad := make([]float64, n)
	g.Dense(grad)

	// constraintsContribution is -Jᵀλ, isolated from ∇f so the feasibility
	// stationarity variant below can be computed independently of it.
	constraintsContribution := make([]float64, n)
	for j := 0; j < mc; j++ {
		lambda := it.Lambda[j]
		if lambda == 0 {
			continue
		}
		for k, idx := range jac[j].Index {
			constraintsContribution[idx] -= lambda * jac[j].Value[k]
		}
	}

	lagrangianGrad := make([]float64, n)
	for i := 0; i < n; i++ {
		lagrangianGrad[i] = grad[i] + constraintsContribution[i]
		// z_U is kept ≥0 here (z_U - z_L), the Ipopt sign convention: an
		// internally consistent deviation from spec.md §3's stated z_L≥0,
		// z_U≤0 invariant (see interiorpoint.Barrier's kktSystem, which uses
		// the same convention).
		lagrangianGrad[i] += it.ZUpper[i] - it.ZLower[i]
	}

	stationarity := opts.ProgressNorm.Apply(lagrangianGrad)

	infeas := 0.0
	for j := 0; j < mc; j++ {
		b := m.ConstraintBound(j)
		v := violation(c[j], b)
		infeas += math.Abs(v)
	}

	compl := 0.0
	for i := 0; i < n; i++ {
		b := m.VariableBound(i)
		compl = math.Max(compl, complementarity(it.Primal[i], it.ZLower[i]+it.ZUpper[i], b, mu))
	}
	for j := 0; j < mc; j++ {
		b := m.ConstraintBound(j)
		compl = math.Max(compl, complementarity(c[j], it.Lambda[j], b, mu))
	}

	lambdaNorm := model.L1.Apply(it.Lambda) + model.L1.Apply(it.ZLower) + model.L1.Apply(it.ZUpper)
	sd := math.Max(scalingCap, lambdaNorm) / scalingCap
	sc := sd

	return model.PrimalDualResiduals{
		OptimalityStationarity:     stationarity / sd,
		FeasibilityStationarity:    opts.ProgressNorm.Apply(constraintsContribution),
		Infeasibility:              infeas,
		OptimalityComplementarity:  compl / sc,
		FeasibilityComplementarity: compl / sc,
		StationarityScaling:        sd,
		ComplementarityScaling:     sc,
	}, nil
}

func violation(value float64, b model.Bound) float64 {
	switch {
	case b.IsLowerBounded() && value < b.Lower:
		return b.Lower - value
	case b.IsUpperBounded() && value > b.Upper:
		return value - b.Upper
	default:
		return 0
	}
}

func complementarity(value, multiplier float64, b model.Bound, mu float64) float64 {
	best := 0.0
	if b.IsLowerBounded() {
		best = math.Max(best, math.Abs((value-b.Lower)*multiplier-mu))
	}
	if b.IsUpperBounded() {
		best = math.Max(best, math.Abs((b.Upper-value)*multiplier-mu))
	}
	return best
}

// InfeasibilityMeasure returns the ℓ1 constraint violation measure spec.md §3
// names (sum of one-sided bound violations over all constraints).
func InfeasibilityMeasure(m model.Model, c []float64) float64 {
	sum := 0.0
	for j, v := range c {
		sum += math.Abs(violation(v, m.ConstraintBound(j)))
	}
	return sum
}

// Classify maps a residual set and the current infeasibility measure to a
// model.TerminationStatus, implementing the tight/loose tolerance with
// consecutive-iteration-threshold policy from
// GlobalizationMechanism::check_convergence. consecutiveLoose counts how many
// iterations in a row have satisfied only the loose tolerance; callers own
// that counter's lifetime across iterations. rho is the relaxation layer's
// current ℓ1-relaxation weight (relax.Relaxation.Rho): a feasible KKT point
// is only reported while optimizing the original problem (ρ>0), never while
// restoring (ρ=0).
func Classify(r model.PrimalDualResiduals, infeasibilityMeasure float64, opts model.Options, rho float64, consecutiveLoose int) (model.TerminationStatus, int) {
	stationary := r.OptimalityStationarity <= opts.Tolerance
	feasible := infeasibilityMeasure <= opts.Tolerance
	complementary := r.OptimalityComplementarity <= opts.Tolerance

	if stationary && feasible && complementary && rho > 0 {
		return model.FeasibleKKTPoint, 0
	}

	feasStationary := r.FeasibilityStationarity <= opts.Tolerance
	feasComplementary := r.FeasibilityComplementarity <= opts.Tolerance
	if feasStationary && feasComplementary && !feasible {
		return model.InfeasibleStationaryPoint, 0
	}

	looseStationary := r.OptimalityStationarity <= opts.LooseTolerance
	looseFeasible := infeasibilityMeasure <= opts.LooseTolerance
	looseComplementary := r.OptimalityComplementarity <= opts.LooseTolerance
	if looseStationary && looseFeasible && looseComplementary {
		consecutiveLoose++
		if consecutiveLoose >= opts.LooseToleranceConsecutiveIterationThreshold {
			return model.FeasibleFJPoint, consecutiveLoose
		}
		return model.NotOptimal, consecutiveLoose
	}
	return model.NotOptimal, 0
}
