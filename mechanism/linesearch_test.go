// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mechanism

import (
	"testing"

	"github.com/curioloop/nlpsolve/model"
	"github.com/curioloop/nlpsolve/relax"
	"github.com/curioloop/nlpsolve/strategy"
	"github.com/stretchr/testify/assert"
)

// overshootSubproblem always proposes the same unscaled direction,
// regardless of radius, exercising the line search's own backtracking rather
// than a subproblem-side clip.
type overshootSubproblem struct {
	dx, predictedReduction float64
}

func (s *overshootSubproblem) SetTrustRegionRadius(float64)                       {}
func (s *overshootSubproblem) SetInitialPoint(model.Model, []float64)             {}
func (s *overshootSubproblem) InitialIterate(model.Model, *model.Iterate)         {}
func (s *overshootSubproblem) InitializeFeasibilityProblem()                     {}
func (s *overshootSubproblem) SetElasticVariableValues(model.Model, *model.Iterate) {}
func (s *overshootSubproblem) PostprocessIterate(model.Model, *model.Iterate)     {}
func (s *overshootSubproblem) Solve(m model.Model, it *model.Iterate, w model.WarmstartInformation) (*model.Direction, error) {
	return &model.Direction{
		Status:             model.Optimal,
		Primal:             []float64{s.dx},
		NormInf:            s.dx,
		PredictedObjective: -s.predictedReduction,
		PredictedReduction: model.ProgressMeasures{ObjectiveMeasure: s.predictedReduction},
	}, nil
}

func TestLineSearchAcceptsFullStepWhenImproving(t *testing.T) {
	m := unconstrainedModel{}
	sub := &overshootSubproblem{dx: 1, predictedReduction: 1}
	r := relax.New(m, sub, strategy.NewL1Merit(model.Default()))
	ls := NewLineSearch(r, model.Default())

	current := model.NewIterate([]float64{1}, 1, 0)
	next, status, err := ls.Step(current, model.NoChanges())

	assert.NoError(t, err)
	assert.Equal(t, model.NotOptimal, status)
	assert.InDelta(t, 2.0, next.Primal[0], 1e-9)
}

func TestLineSearchBacktracksPastOvershoot(t *testing.T) {
	m := unconstrainedModel{}
	// dx=2 overshoots to x=3 at alpha=1 (same objective as x=1: f=1), which
	// the strategy's Armijo test rejects since actual progress is zero; at
	// alpha=0.5 the step lands exactly on the minimiser.
	sub := &overshootSubproblem{dx: 2, predictedReduction: 0.01}
	r := relax.New(m, sub, strategy.NewL1Merit(model.Default()))
	ls := NewLineSearch(r, model.Default())

	current := model.NewIterate([]float64{1}, 1, 0)
	next, status, err := ls.Step(current, model.NoChanges())

	assert.NoError(t, err)
	assert.Equal(t, model.NotOptimal, status)
	assert.InDelta(t, 2.0, next.Primal[0], 1e-9)
}

func TestLineSearchReturnsSmallStepImmediatelyWhenSubproblemFlagsIt(t *testing.T) {
	m := unconstrainedModel{}
	inner := &overshootSubproblem{dx: 1e-20, predictedReduction: 1e-20}
	sub := &smallStepSubproblem{inner: inner}
	ls := NewLineSearch(relax.New(m, sub, strategy.NewL1Merit(model.Default())), model.Default())

	current := model.NewIterate([]float64{2}, 1, 0)
	next, status, err := ls.Step(current, model.NoChanges())

	assert.NoError(t, err)
	assert.Equal(t, model.FeasibleSmallStep, status)
	assert.Same(t, current, next)
}

// smallStepSubproblem wraps another model.Subproblem, marking every returned
// Direction as SmallStep.
type smallStepSubproblem struct {
	inner model.Subproblem
}

func (s *smallStepSubproblem) SetTrustRegionRadius(r float64)         { s.inner.SetTrustRegionRadius(r) }
func (s *smallStepSubproblem) SetInitialPoint(m model.Model, x []float64) { s.inner.SetInitialPoint(m, x) }
func (s *smallStepSubproblem) InitialIterate(m model.Model, it *model.Iterate) {
	s.inner.InitialIterate(m, it)
}
func (s *smallStepSubproblem) InitializeFeasibilityProblem() { s.inner.InitializeFeasibilityProblem() }
func (s *smallStepSubproblem) SetElasticVariableValues(m model.Model, it *model.Iterate) {
	s.inner.SetElasticVariableValues(m, it)
}
func (s *smallStepSubproblem) PostprocessIterate(m model.Model, it *model.Iterate) {
	s.inner.PostprocessIterate(m, it)
}
func (s *smallStepSubproblem) Solve(m model.Model, it *model.Iterate, w model.WarmstartInformation) (*model.Direction, error) {
	dir, err := s.inner.Solve(m, it, w)
	if dir != nil {
		dir.SmallStep = true
	}
	return dir, err
}
