// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mechanism implements C6, the globalisation mechanism that drives
// one outer iteration: ask the Subproblem (via the Relaxation, C4) for a
// direction, assemble a trial iterate, and ask the Relaxation's Strategy
// (C5) whether to accept it. Two variants are provided, trust-region and
// backtracking line search, sharing the trial-iterate assembly spec.md §4.6
// describes once for both.
package mechanism

import (
	"github.com/curioloop/nlpsolve/interiorpoint"
	"github.com/curioloop/nlpsolve/model"
	"github.com/curioloop/nlpsolve/relax"
	"github.com/curioloop/nlpsolve/residual"
	"github.com/curioloop/nlpsolve/strategy"
)

// Mechanism is the C6 contract the driver loop (C7) holds polymorphically.
type Mechanism interface {
	// Step runs one outer iteration at the current iterate, returning the
	// accepted next iterate (current itself, unmodified, on rejection-and-
	// retry exhaustion) and the termination status to report if the
	// mechanism decided the loop should stop (model.NotOptimal otherwise).
	Step(current *model.Iterate, warmstart model.WarmstartInformation) (*model.Iterate, model.TerminationStatus, error)
}

// assembleTrial implements the shared "trial-iterate assembly" spec.md §4.6
// describes once: a full step when the direction is non-zero, a dual-only
// step (primal held fixed, progress pinned to +Inf) when it is not.
func assembleTrial(current *model.Iterate, m model.Model, dir *model.Direction, alphaPrimal, alphaDual float64) (*model.Iterate, relax.StepLengths) {
	n, mc := m.NumVariables(), m.NumConstraints()

	if infNorm(dir.Primal) == 0 {
		trial := current.Clone()
		applyDualStep(trial, current, dir, alphaDual, n, mc)
		return trial, relax.StepLengths{Primal: 0, Dual: alphaDual}
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = current.Primal[i] + alphaPrimal*dir.Primal[i]
	}
	trial := model.NewIterate(x, n, mc)
	copy(trial.Lambda, current.Lambda)
	copy(trial.ZLower, current.ZLower)
	copy(trial.ZUpper, current.ZUpper)
	applyDualStep(trial, current, dir, alphaDual, n, mc)
	return trial, relax.StepLengths{Primal: alphaPrimal, Dual: alphaDual}
}

func applyDualStep(trial, current *model.Iterate, dir *model.Direction, alphaDual float64, n, mc int) {
	for j := 0; j < mc && j < len(dir.LambdaStep); j++ {
		trial.Lambda[j] = current.Lambda[j] + alphaDual*dir.LambdaStep[j]
	}
	for i := 0; i < n && i < len(dir.ZLowerStep); i++ {
		trial.ZLower[i] = current.ZLower[i] + alphaDual*dir.ZLowerStep[i]
	}
	for i := 0; i < n && i < len(dir.ZUpperStep); i++ {
		trial.ZUpper[i] = current.ZUpper[i] + alphaDual*dir.ZUpperStep[i]
	}
}

func infNorm(v []float64) float64 { return model.Inf.Apply(v) }

// barrierMu reaches the interior-point subproblem's current barrier
// parameter through the abstract model.Subproblem holder, mirroring
// nlpsolve.go's identically-named helper (the two packages can't share an
// unexported function, so the small type-switch is duplicated here). Zero
// for the active-set variant, which has no barrier parameter.
func barrierMu(sub model.Subproblem) float64 {
	if b, ok := sub.(*interiorpoint.Barrier); ok {
		return b.Mu
	}
	return 0
}

// infeasibilityOf evaluates residual.InfeasibilityMeasure at it, the common
// step both mechanisms' onSmallStep and the restoration trigger need.
func infeasibilityOf(m model.Model, it *model.Iterate) (float64, error) {
	c, err := it.Constraints(m)
	if err != nil {
		return 0, err
	}
	return residual.InfeasibilityMeasure(m, c), nil
}

// syncFunnelRestoring mirrors the relaxation's restoration-phase flag onto
// the Funnel strategy, since spec.md §4.5.c's restoration-shrink formula
// only applies while the C4 layer is restoring. A no-op for l1merit/filter.
func syncFunnelRestoring(strat strategy.Strategy, restoring bool) {
	if f, ok := strat.(*strategy.Funnel); ok {
		f.Restoring = restoring
	}
}

// resumeIfRestoring implements the exit side of spec.md §4.4's phase switch:
// once a direction produced while restoring is accepted again, leave
// restoration and resume optimizing the original problem.
func resumeIfRestoring(r *relax.Relaxation, it *model.Iterate) {
	if r.Restoring() {
		r.ResumeOptimality(it)
	}
}

// enterRestoration implements C4's restoration-phase entry (spec.md §4.4):
// initialise the elastic variables from the interior-point barrier's current
// μ (a no-op for the active-set variant), solve the feasibility subproblem,
// and assemble its direction into a trial iterate.
func enterRestoration(r *relax.Relaxation, m model.Model, current *model.Iterate) (*model.Iterate, model.TerminationStatus, error) {
	if err := r.SetElasticVariableValues(current, barrierMu(r.Subproblem)); err != nil {
		return current, model.Error, err
	}
	next, err := r.SolveFeasibilityProblem(current, model.NoChanges())
	if err != nil {
		return current, model.Error, err
	}
	trial, _ := assembleTrial(current, m, next, 1, 1)
	return trial, model.NotOptimal, nil
}

// trySecondOrderCorrection attempts the interior-point subproblem's optional
// second-order correction (SPEC_FULL.md §3) after a full-step trial is
// rejected, returning the corrected trial iterate, its step lengths, and
// whether a correction was actually computed. Always false for the
// active-set subproblem or when Options.SecondOrderCorrection is off.
func trySecondOrderCorrection(r *relax.Relaxation, m model.Model, current *model.Iterate, dir *model.Direction) (*model.Iterate, relax.StepLengths, bool) {
	b, ok := r.Subproblem.(*interiorpoint.Barrier)
	if !ok {
		return nil, relax.StepLengths{}, false
	}
	corrected, err := b.SecondOrderCorrection(m, current, dir)
	if err != nil || corrected == nil {
		return nil, relax.StepLengths{}, false
	}
	trial, steps := assembleTrial(current, m, corrected, 1, 1)
	return trial, steps, true
}
