// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package relax implements C4: the constraint-relaxation layer that
// presents either the original problem or its ℓ1-relaxation to the
// Subproblem, decides whether a trial iterate is acceptable by delegating to
// a Strategy (C5), and drives the restoration phase switch spec.md §4.4
// describes. Per spec.md §9's ownership resolution, a Relaxation owns both
// its Strategy and its Subproblem; Strategies never call back into it.
package relax

import (
	"math"

	"github.com/curioloop/nlpsolve/model"
	"github.com/curioloop/nlpsolve/residual"
	"github.com/curioloop/nlpsolve/strategy"
)

// Relaxation is the C4 collaborator. Rho is the objective weight ρ in the
// ℓ1-relaxation (min ρ·f(x) + Σ(p_j+n_j)); restoration sets it to 0.
type Relaxation struct {
	Problem    model.Model
	Subproblem model.Subproblem
	Strategy   strategy.Strategy
	Rho        float64

	// P, N are the elastic variable values from the closed-form Ipopt
	// relation (spec.md §4.4), populated by SetElasticVariableValues for
	// the interior-point relaxation. Never used by the active-set variant,
	// which represents the relaxation implicitly through its own
	// feasibility LP (see activeset.SolveFeasibilityLP).
	P, N []float64

	restoring bool
}

// New creates a Relaxation at ρ=1 (the original, unrelaxed problem).
func New(m model.Model, sub model.Subproblem, strat strategy.Strategy) *Relaxation {
	return &Relaxation{Problem: m, Subproblem: sub, Strategy: strat, Rho: 1}
}

// StepLengths is the pair of primal/dual step scalings the mechanism (C6)
// applied when assembling the trial iterate, needed here only to detect a
// zero-norm direction (dual-only step).
type StepLengths struct {
	Primal, Dual float64
}

// IsIterateAcceptable implements C4's is_iterate_acceptable: assemble the
// current and trial progress measures and ask the Strategy.
func (r *Relaxation) IsIterateAcceptable(current, trial *model.Iterate, direction *model.Direction, steps StepLengths) (bool, strategy.StepType, error) {
	currentProgress, err := r.progress(current)
	if err != nil {
		return false, strategy.HType, err
	}
	trialProgress, err := r.progress(trial)
	if err != nil {
		return false, strategy.HType, err
	}

	if steps.Primal == 0 {
		// Zero-norm direction: mark the trial's progress as unbounded so
		// the strategy never accepts on spurious zero progress (spec.md
		// §4.6's shared trial-iterate assembly note).
		trialProgress.ObjectiveMeasure = math.Inf(1)
	}

	accepted, step := r.Strategy.IsIterateAcceptable(currentProgress, trialProgress, direction.PredictedReduction, r.Rho)
	return accepted, step, nil
}

func (r *Relaxation) progress(it *model.Iterate) (model.ProgressMeasures, error) {
	f, err := it.Objective(r.Problem)
	if err != nil {
		return model.ProgressMeasures{}, err
	}
	c, err := it.Constraints(r.Problem)
	if err != nil {
		return model.ProgressMeasures{}, err
	}
	return model.ProgressMeasures{
		ObjectiveMeasure:    r.Rho * r.Problem.ObjectiveSign() * f,
		InfeasibilityMeasure: residual.InfeasibilityMeasure(r.Problem, c),
	}, nil
}

// SolveFeasibilityProblem implements C4's solve_feasibility_problem: sets
// ρ=0 and resolves the Subproblem at the current iterate in pure-feasibility
// mode.
func (r *Relaxation) SolveFeasibilityProblem(it *model.Iterate, warmstart model.WarmstartInformation) (*model.Direction, error) {
	r.Rho = 0
	r.restoring = true
	r.Subproblem.InitializeFeasibilityProblem()
	return r.Subproblem.Solve(r.Problem, it, warmstart)
}

// ResumeOptimality leaves restoration, per spec.md §4.4's phase-switching
// rule ("when a restoration direction yields a point acceptable to the
// optimality strategy, switch back").
func (r *Relaxation) ResumeOptimality(it *model.Iterate) {
	r.Rho = 1
	r.restoring = false
	r.Subproblem.PostprocessIterate(r.Problem, it)
}

// Restoring reports whether the layer is currently in the
// feasibility-restoration phase.
func (r *Relaxation) Restoring() bool { return r.restoring }

// ShouldEnterRestoration implements the phase-switching rule's trigger side:
// a rejected h-type step that did not actually reduce infeasibility is an
// "infeasibility stall", the spec.md §4.4 condition for switching to
// restoration.
func (r *Relaxation) ShouldEnterRestoration(accepted bool, step strategy.StepType, currentInfeasibility, trialInfeasibility float64) bool {
	return !accepted && step == strategy.HType && trialInfeasibility >= currentInfeasibility
}

// SetElasticVariableValues implements C4's set_elastic_variable_values: the
// closed-form Ipopt relations p, n = (μ/ρ ∓ c + √((μ/ρ)² + c²)) / 2 (spec.md
// §4.4). mu is the interior-point subproblem's current barrier parameter (0
// for the active-set variant, via mechanism's barrierMu helper); the
// mechanism calls this on every restoration entry regardless of which
// Subproblem is held, but P/N themselves are only read back by the
// interior-point formulation (activeset represents the relaxation
// implicitly through its own feasibility LP instead).
func (r *Relaxation) SetElasticVariableValues(it *model.Iterate, mu float64) error {
	c, err := it.Constraints(r.Problem)
	if err != nil {
		return err
	}
	n := len(c)
	if len(r.P) != n {
		r.P = make([]float64, n)
		r.N = make([]float64, n)
	}
	ratio := mu
	if r.Rho > 0 {
		ratio = mu / r.Rho
	}
	for j, cj := range c {
		root := math.Sqrt(ratio*ratio + cj*cj)
		r.P[j] = (ratio - cj + root) / 2
		r.N[j] = (ratio + cj + root) / 2
	}
	r.Subproblem.SetElasticVariableValues(r.Problem, it)
	return nil
}
