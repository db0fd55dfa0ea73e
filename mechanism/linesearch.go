// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mechanism

import (
	"github.com/curioloop/nlpsolve/model"
	"github.com/curioloop/nlpsolve/relax"
	"github.com/curioloop/nlpsolve/residual"
)

// LineSearch implements spec.md §4.6.b: backtracking with separate primal
// and constraint-multiplier step lengths, while bound multipliers always
// take the full fraction-to-boundary dual step computed by the subproblem
// (carried in dir.ZLowerStep/ZUpperStep already scaled, so alphaDual here is
// always 1 for those).
type LineSearch struct {
	Relaxation *relax.Relaxation

	BacktrackFactor float64
	MinStepLength   float64
}

// NewLineSearch constructs a LineSearch from Options.
func NewLineSearch(r *relax.Relaxation, opts model.Options) *LineSearch {
	return &LineSearch{
		Relaxation:      r,
		BacktrackFactor: opts.LineSearchBacktrackFactor,
		MinStepLength:   opts.LineSearchMinStepLength,
	}
}

// Step implements Mechanism.
func (ls *LineSearch) Step(current *model.Iterate, warmstart model.WarmstartInformation) (*model.Iterate, model.TerminationStatus, error) {
	m := ls.Relaxation.Problem
	sub := ls.Relaxation.Subproblem

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
		return ls.onSmallStep(current, dir)
	}

	syncFunnelRestoring(ls.Relaxation.Strategy, ls.Relaxation.Restoring())

	alpha := 1.0
	first := true
	for {
		trial, steps := assembleTrial(current, m, dir, alpha, 1)
		accepted, step, err := ls.Relaxation.IsIterateAcceptable(current, trial, dir, steps)
		if err != nil {
			return current, model.Error, err
		}
		if accepted {
			resumeIfRestoring(ls.Relaxation, trial)
			return trial, model.NotOptimal, nil
		}

		if first {
			first = false
			if soc, socSteps, ok := trySecondOrderCorrection(ls.Relaxation, m, current, dir); ok {
				if socAccepted, _, err := ls.Relaxation.IsIterateAcceptable(current, soc, dir, socSteps); err != nil {
					return current, model.Error, err
				} else if socAccepted {
					resumeIfRestoring(ls.Relaxation, soc)
					return soc, model.NotOptimal, nil
				}
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
		if currentInfeas > 0 && ls.Relaxation.Rho > 0 && ls.Relaxation.ShouldEnterRestoration(accepted, step, currentInfeas, trialInfeas) {
			return enterRestoration(ls.Relaxation, m, current)
		}

		alpha *= ls.BacktrackFactor
		if alpha < ls.MinStepLength {
			return ls.onSmallStep(current, dir)
		}
	}
}

// onSmallStep mirrors TrustRegion.onSmallStep: spec.md §4.6.b explicitly
// defers to "the small-step rule above" (§4.6.a step 5) on α < α_min.
func (ls *LineSearch) onSmallStep(current *model.Iterate, dir *model.Direction) (*model.Iterate, model.TerminationStatus, error) {
	c, err := current.Constraints(ls.Relaxation.Problem)
	if err != nil {
		return current, model.Error, err
	}
	infeasible := residual.InfeasibilityMeasure(ls.Relaxation.Problem, c) > 0

	if infeasible && ls.Relaxation.Rho > 0 {
		return enterRestoration(ls.Relaxation, ls.Relaxation.Problem, current)
	}
	if infeasible {
		return current, model.InfeasibleSmallStep, nil
	}
	return current, model.FeasibleSmallStep, nil
}
