// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mechanism

import (
	"math"

	"github.com/curioloop/nlpsolve/model"
	"github.com/curioloop/nlpsolve/relax"
	"github.com/curioloop/nlpsolve/residual"
)

// TrustRegion implements spec.md §4.6.a.
type TrustRegion struct {
	Relaxation *relax.Relaxation

	Radius float64

	MinRadius, MaxRadius   float64
	Contraction, Expansion float64
	AcceptRatio, GoodRatio float64
}

// NewTrustRegion constructs a TrustRegion from Options, at the configured
// initial radius.
func NewTrustRegion(r *relax.Relaxation, opts model.Options) *TrustRegion {
	return &TrustRegion{
		Relaxation:  r,
		Radius:      opts.TrustRegionInitialRadius,
		MinRadius:   opts.TrustRegionMinRadius,
		MaxRadius:   opts.TrustRegionMaxRadius,
		Contraction: opts.TrustRegionContraction,
		Expansion:   opts.TrustRegionExpansion,
		AcceptRatio: opts.TrustRegionAcceptRatio,
		GoodRatio:   opts.TrustRegionGoodRatio,
	}
}

// Step implements Mechanism.
func (t *TrustRegion) Step(current *model.Iterate, warmstart model.WarmstartInformation) (*model.Iterate, model.TerminationStatus, error) {
	m := t.Relaxation.Problem
	sub := t.Relaxation.Subproblem

	for {
		sub.SetTrustRegionRadius(t.Radius)
		dir, err := sub.Solve(m, current, warmstart)
		if err != nil {
			return current, model.Error, err
		}
		if dir.Status == model.DirectionUnbounded {
			return current, model.Unbounded, nil
		}
		if dir.Status != model.Optimal {
			return current, model.Error, nil
		}
		if dir.SmallStep {
			return t.onSmallStep(current, dir)
		}

		syncFunnelRestoring(t.Relaxation.Strategy, t.Relaxation.Restoring())

		trial, steps := assembleTrial(current, m, dir, 1, 1)
		accepted, step, err := t.Relaxation.IsIterateAcceptable(current, trial, dir, steps)
		if err != nil {
			return current, model.Error, err
		}

		if accepted {
			resumeIfRestoring(t.Relaxation, trial)
			if t.isGoodRatio(current, trial, dir) {
				t.Radius = math.Min(t.MaxRadius, t.Expansion*t.Radius)
			}
			return trial, model.NotOptimal, nil
		}

		if soc, socSteps, ok := trySecondOrderCorrection(t.Relaxation, m, current, dir); ok {
			if socAccepted, _, err := t.Relaxation.IsIterateAcceptable(current, soc, dir, socSteps); err != nil {
				return current, model.Error, err
			} else if socAccepted {
				resumeIfRestoring(t.Relaxation, soc)
				return soc, model.NotOptimal, nil
			}
		}

		currentInfeas, err := infeasibilityOf(m, current)
		if err != nil {
			return current, model.Error, err
		}
		trialInfeas, err := infeasibilityOf(m, trial)
		if err != nil {
			return current, model.Error, err
		}
		if currentInfeas > 0 && t.Relaxation.Rho > 0 && t.Relaxation.ShouldEnterRestoration(accepted, step, currentInfeas, trialInfeas) {
			return enterRestoration(t.Relaxation, m, current)
		}

		t.Radius = math.Max(t.MinRadius, t.Contraction*dir.NormInf)
		if t.Radius > t.MinRadius {
			continue
		}

		return t.onSmallStep(current, dir)
	}
}

// isGoodRatio reports whether the accepted step's actual-to-predicted
// reduction ratio clears GoodRatio, the condition under which the radius is
// expanded rather than left unchanged.
func (t *TrustRegion) isGoodRatio(current, trial *model.Iterate, dir *model.Direction) bool {
	fCurrent, err := current.Objective(t.Relaxation.Problem)
	if err != nil {
		return false
	}
	fTrial, err := trial.Objective(t.Relaxation.Problem)
	if err != nil {
		return false
	}
	predicted := -dir.PredictedObjective
	if predicted <= 0 {
		return false
	}
	actual := fCurrent - fTrial
	ratio := actual / predicted
	return ratio >= t.GoodRatio
}

// onSmallStep implements the small-step branch of spec.md §4.6.a step 5:
// restoration if still infeasible with ρ>0, else the matching terminal
// small-step status.
func (t *TrustRegion) onSmallStep(current *model.Iterate, dir *model.Direction) (*model.Iterate, model.TerminationStatus, error) {
	c, err := current.Constraints(t.Relaxation.Problem)
	if err != nil {
		return current, model.Error, err
	}
	infeasible := residual.InfeasibilityMeasure(t.Relaxation.Problem, c) > 0

	if infeasible && t.Relaxation.Rho > 0 {
		return enterRestoration(t.Relaxation, t.Relaxation.Problem, current)
	}
	if infeasible {
		return current, model.InfeasibleSmallStep, nil
	}
	return current, model.FeasibleSmallStep, nil
}
