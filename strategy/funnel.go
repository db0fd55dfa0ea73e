// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strategy

import (
	"math"

	"github.com/curioloop/nlpsolve/model"
)

// Funnel implements spec.md §4.5.c: a single scalar infeasibility width Φ
// replaces the filter's list of pairs. A trial is acceptable iff η̃ ≤ Φ_k;
// on an h-type acceptance Φ shrinks monotonically and never grows (P1,
// spec.md §8), taking the FunnelMethod variant as authoritative per spec.md
// §9's resolution of the two parallel original_source code paths.
type Funnel struct {
	Phi float64
	// Restoring selects which shrink formula applies on an h-type
	// acceptance: the plain monotone-shrink rule, or the restoration
	// variant used when the current iterate itself sits outside Φ_k. The
	// relax layer (C4) sets this before calling IsIterateAcceptable.
	Restoring bool

	KappaEta1, KappaEta2  float64
	SwitchingExponent     float64
	Gamma                 float64 // reused as κ_sw in the switching condition
	ArmijoDecreaseFraction float64
	ArmijoTolerance        float64

	currentEta float64 // set per call so the h-type shrink can read it
}

// NewFunnel constructs a Funnel from Options, with Φ₀ = max(κ_init_ubd,
// κ_init_mult·η₀) as spec.md §4.5.c states.
func NewFunnel(opts model.Options, eta0 float64) *Funnel {
	return &Funnel{
		Phi:                    math.Max(opts.FunnelKappaInitialUpperBound, opts.FunnelKappaInitialMultiplication*eta0),
		KappaEta1:              opts.FunnelKappaInfeasibility1,
		KappaEta2:              opts.FunnelKappaInfeasibility2,
		SwitchingExponent:      opts.FunnelSwitchingInfeasibilityExponent,
		Gamma:                  opts.FunnelGamma,
		ArmijoDecreaseFraction: opts.ArmijoDecreaseFraction,
		ArmijoTolerance:        opts.ArmijoTolerance,
	}
}

func (f *Funnel) acceptableTo(etaTrial, omegaTrial float64) bool {
	return etaTrial <= f.Phi
}

func (f *Funnel) shrink(etaTrial, omegaTrial float64) {
	if f.Restoring {
		f.Phi = math.Min(f.KappaEta1*f.Phi, etaTrial+f.KappaEta2*(f.currentEta-etaTrial))
		return
	}
	f.Phi = math.Max(f.KappaEta1*f.Phi, etaTrial+f.KappaEta2*(f.Phi-etaTrial))
}

// IsIterateAcceptable implements Strategy.
func (f *Funnel) IsIterateAcceptable(current, trial, predicted model.ProgressMeasures, rho float64) (bool, StepType) {
	f.currentEta = eta(current)
	return decide(current, trial, predicted,
		f.ArmijoDecreaseFraction, f.ArmijoTolerance,
		f.Gamma, f.SwitchingExponent,
		f.acceptableTo,
		f.shrink,
	)
}
