// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strategy

import "github.com/curioloop/nlpsolve/model"

// FilterPair is a stored (infeasibility, optimality) envelope point,
// spec.md §4.5.b.
type FilterPair struct {
	Eta, Omega float64
}

// Filter implements spec.md §4.5.b (Fletcher-Leyffer/Wächter): a trial point
// is acceptable iff it is not dominated by any stored pair with the β/γ
// margin, and its infeasibility does not exceed the current upper bound.
type Filter struct {
	Pairs      []FilterPair
	UpperBound float64

	Beta, Gamma            float64
	MaxSize                int
	ArmijoDecreaseFraction float64
	ArmijoTolerance        float64
	Waechter               bool
}

// NewFilter constructs a Filter from Options.
func NewFilter(opts model.Options) *Filter {
	return &Filter{
		UpperBound:             opts.FilterInitialUpperBound,
		Beta:                   opts.FilterBeta,
		Gamma:                  opts.FilterGamma,
		MaxSize:                opts.FilterMaxSize,
		ArmijoDecreaseFraction: opts.ArmijoDecreaseFraction,
		ArmijoTolerance:        opts.ArmijoTolerance,
		Waechter:               opts.WaechterVariant,
	}
}

// acceptableTo reports whether (etaTrial, omegaTrial) is not dominated by
// any stored pair, per the β/γ envelope test.
func (f *Filter) acceptableTo(etaTrial, omegaTrial float64) bool {
	if etaTrial > f.UpperBound {
		return false
	}
	for _, p := range f.Pairs {
		if !(etaTrial <= f.Beta*p.Eta || omegaTrial <= p.Omega-f.Gamma*etaTrial) {
			return false
		}
	}
	return true
}

// insert adds (eta, omega), implementing filter compaction: a new pair that
// a stored pair dominates (the stored one is better or equal in both
// dimensions) is not added, any stored pair dominated by the new one (worse
// or equal in both dimensions) is dropped,
// and — once the filter is at capacity — the single most-infeasible entry is
// evicted to make room (spec.md §4.4's "space freed ... when capacity is
// hit").
func (f *Filter) insert(eta, omega float64) {
	for _, p := range f.Pairs {
		if p.Eta <= eta && p.Omega <= omega {
			return // already dominated by a stored pair
		}
	}
	kept := f.Pairs[:0]
	for _, p := range f.Pairs {
		if p.Eta >= eta && p.Omega >= omega {
			continue // dominated by the new pair
		}
		kept = append(kept, p)
	}
	f.Pairs = append(kept, FilterPair{Eta: eta, Omega: omega})

	for len(f.Pairs) > f.MaxSize {
		worst := 0
		for i, p := range f.Pairs {
			if p.Eta > f.Pairs[worst].Eta {
				worst = i
			}
		}
		f.Pairs = append(f.Pairs[:worst], f.Pairs[worst+1:]...)
	}
}

// IsIterateAcceptable implements Strategy.
func (f *Filter) IsIterateAcceptable(current, trial, predicted model.ProgressMeasures, rho float64) (bool, StepType) {
	accepted, step := decide(current, trial, predicted,
		f.ArmijoDecreaseFraction, f.ArmijoTolerance,
		f.Gamma, 1,
		f.acceptableTo,
		f.insert,
	)
	if !accepted {
		return false, step
	}
	if step == FType && f.Waechter {
		// The Wächter variant additionally requires an f-type step to
		// improve with respect to the current iterate under the same β/γ
		// margin test used for filter membership.
		etaTrial, omegaTrial := eta(trial), omega(trial)
		etaCur, omegaCur := eta(current), omega(current)
		if !(etaTrial <= f.Beta*etaCur || omegaTrial <= omegaCur-f.Gamma*etaTrial) {
			return false, HType
		}
	}
	return true, step
}
