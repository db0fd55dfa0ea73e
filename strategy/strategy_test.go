// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strategy

import (
	"math"
	"testing"

	"github.com/curioloop/nlpsolve/model"
	"github.com/stretchr/testify/assert"
)

func progress(eta, omega float64) model.ProgressMeasures {
	return model.ProgressMeasures{InfeasibilityMeasure: eta, ObjectiveMeasure: omega}
}

// P7: if the predicted reduction π is non-positive, the switching condition
// never holds, so only h-type acceptance is possible.
func TestSwitchingConditionSignP7(t *testing.T) {
	assert.False(t, switchingConditionHolds(0, 1, 0.1, 1.1))
	assert.False(t, switchingConditionHolds(-1, 1, 0.1, 1.1))
}

// P1: a funnel that only ever accepts h-type steps has a monotonically
// non-increasing Φ sequence.
func TestFunnelMonotoneShrinkP1(t *testing.T) {
	opts := model.Default()
	f := NewFunnel(opts, 10)
	last := f.Phi

	for _, eta := range []float64{8, 6, 3, 3, 1} {
		current := progress(last, 5)
		trial := progress(eta, 5)
		// A predicted reduction of 0 never satisfies the switching
		// condition (current.eta > 0), forcing the h-type branch.
		predicted := model.ProgressMeasures{}
		accepted, step := f.IsIterateAcceptable(current, trial, predicted, 1)
		assert.True(t, accepted)
		assert.Equal(t, HType, step)
		assert.LessOrEqual(t, f.Phi, last)
		last = f.Phi
	}
}

// P2: no two pairs in the filter dominate one another, and inserting a
// dominated pair is a no-op.
func TestFilterNonDominationP2(t *testing.T) {
	opts := model.Default()
	filt := NewFilter(opts)

	filt.insert(5, 5)
	filt.insert(3, 8) // incomparable with (5,5): smaller eta, larger omega
	assert.Len(t, filt.Pairs, 2)

	filt.insert(6, 6) // dominated by (5,5) in both dimensions: no-op
	assert.Len(t, filt.Pairs, 2)

	for i, a := range filt.Pairs {
		for j, b := range filt.Pairs {
			if i == j {
				continue
			}
			dominated := a.Eta <= b.Eta && a.Omega <= b.Omega
			assert.False(t, dominated, "pair %v should not dominate %v", a, b)
		}
	}
}

func TestL1MeritAcceptsOnArmijoDecrease(t *testing.T) {
	s := NewL1Merit(model.Default())
	current := progress(1, 10)
	trial := progress(0, 1) // merit drops from 11 to 1
	predicted := model.ProgressMeasures{ObjectiveMeasure: 10}

	accepted, _ := s.IsIterateAcceptable(current, trial, predicted, 1)
	assert.True(t, accepted)
}

func TestL1MeritRejectsOnNaNTrial(t *testing.T) {
	s := NewL1Merit(model.Default())
	current := progress(1, 10)
	trial := progress(0, math.NaN())
	predicted := model.ProgressMeasures{ObjectiveMeasure: 10}

	accepted, _ := s.IsIterateAcceptable(current, trial, predicted, 1)
	assert.False(t, accepted)
}
