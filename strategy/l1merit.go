// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strategy

import "github.com/curioloop/nlpsolve/model"

// L1Merit implements spec.md §4.5.a: accept on Armijo decrease of the
// ℓ1-merit ρ·f + |violation|, with no memory of past iterates. It reuses the
// shared decide() flow by folding the infeasibility measure into its own
// notion of ω (so the merit function's two terms move together) and always
// reporting membership true, since an unmemoried strategy never rejects on
// filter/funnel grounds — only on the Armijo test itself.
type L1Merit struct {
	ArmijoDecreaseFraction float64
	ArmijoTolerance        float64
}

// NewL1Merit constructs an L1Merit from Options.
func NewL1Merit(opts model.Options) *L1Merit {
	return &L1Merit{
		ArmijoDecreaseFraction: opts.ArmijoDecreaseFraction,
		ArmijoTolerance:        opts.ArmijoTolerance,
	}
}

// IsIterateAcceptable implements Strategy.
func (s *L1Merit) IsIterateAcceptable(current, trial, predicted model.ProgressMeasures, rho float64) (bool, StepType) {
	asMerit := func(p model.ProgressMeasures) model.ProgressMeasures {
		return model.ProgressMeasures{
			ObjectiveMeasure: p.ObjectiveMeasure + p.AuxiliaryMeasure + p.InfeasibilityMeasure,
		}
	}
	// The switching condition is moot without memory: κ_sw=0 makes it hold
	// whenever the predicted reduction is positive, matching "accept on
	// Armijo decrease" with no separate h-type branch to fall back to.
	return decide(asMerit(current), asMerit(trial), predicted,
		s.ArmijoDecreaseFraction, s.ArmijoTolerance, 0, 1,
		func(float64, float64) bool { return true }, nil)
}
