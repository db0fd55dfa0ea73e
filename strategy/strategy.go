// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package strategy implements C5: the globalisation strategies
// (ℓ1-merit, filter, funnel) a Mechanism (package mechanism) asks whether a
// trial iterate is acceptable. All three share the Armijo sufficient-decrease
// test and the f-type/h-type switching condition spec.md §4.5 states once at
// the top of that section; each variant only supplies its own membership
// test and what happens on an h-type acceptance (none, filter insertion,
// funnel shrink).
package strategy

import (
	"math"

	"github.com/curioloop/nlpsolve/model"
)

// StepType classifies an accepted step as primarily reducing the objective
// (FType) or primarily reducing infeasibility (HType), spec.md §4.5/GLOSSARY.
type StepType int

const (
	HType StepType = iota
	FType
)

// Strategy is the C5 contract: decide whether a trial iterate is acceptable
// given the current and trial progress measures and the subproblem's
// predicted reduction, at the relaxation layer's current objective weight ρ.
type Strategy interface {
	IsIterateAcceptable(current, trial, predicted model.ProgressMeasures, rho float64) (accepted bool, step StepType)
}

func eta(p model.ProgressMeasures) float64 { return p.InfeasibilityMeasure }
func omega(p model.ProgressMeasures) float64 { return p.ObjectiveMeasure + p.AuxiliaryMeasure }

// unconstrainedPredictedReduction is π = predicted.optimality(1) + predicted.auxiliary
// (spec.md §4.5): the subproblem's own estimate of how much it expects to
// reduce the objective, independent of the current filter/funnel state.
func unconstrainedPredictedReduction(predicted model.ProgressMeasures) float64 {
	return predicted.ObjectiveMeasure + predicted.AuxiliaryMeasure
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func armijoSatisfied(actual, pi, etaA, epsA float64) bool {
	return actual > etaA*math.Max(0, pi-epsA)
}

func switchingConditionHolds(pi, etaCurrent, kappaSw, thetaSw float64) bool {
	if etaCurrent <= 0 {
		// No current infeasibility to dominate: any positive predicted
		// reduction is f-type by construction (spec.md §8 P7's contrapositive).
		return pi > 0
	}
	return pi > kappaSw*math.Pow(etaCurrent, thetaSw)
}

// decide implements the five-step acceptance-decision flow spec.md §4.5
// describes once for all three strategy variants. member reports whether the
// trial's (η, ω) pair is acceptable to the variant's own memory (filter set,
// funnel width, or "always true" for ℓ1-merit); onHType is invoked only when
// the trial is accepted as an h-type step, so a variant can update its
// memory exactly when the spec says to.
func decide(
	current, trial, predicted model.ProgressMeasures,
	armijoFraction, armijoTolerance, kappaSw, thetaSw float64,
	member func(etaTrial, omegaTrial float64) bool,
	onHType func(etaTrial, omegaTrial float64),
) (bool, StepType) {
	etaTrial, omegaTrial := eta(trial), omega(trial)

	// Step 1: finiteness.
	if !finite(etaTrial) || !finite(omegaTrial) {
		return false, HType
	}
	// Step 2: memory membership.
	if !member(etaTrial, omegaTrial) {
		return false, HType
	}

	// Step 3: actual reduction.
	actual := omega(current) - omegaTrial
	pi := unconstrainedPredictedReduction(predicted)

	// Step 4/5: switching condition gates which test governs acceptance.
	if switchingConditionHolds(pi, eta(current), kappaSw, thetaSw) {
		if armijoSatisfied(actual, pi, armijoFraction, armijoTolerance) {
			return true, FType
		}
		return false, HType
	}

	if onHType != nil {
		onHType(etaTrial, omegaTrial)
	}
	return true, HType
}
