// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package relax

import (
	"math"
	"testing"

	"github.com/curioloop/nlpsolve/model"
	"github.com/curioloop/nlpsolve/strategy"
	"github.com/stretchr/testify/assert"
)

// equalityModel is minimize x0² subject to x0 = 1, exercising a single
// general constraint so InfeasibilityMeasure is non-trivial.
type equalityModel struct{}

func (equalityModel) NumVariables() int               { return 1 }
func (equalityModel) NumConstraints() int             { return 1 }
func (equalityModel) VariableBound(int) model.Bound {
	return model.Bound{Lower: math.Inf(-1), Upper: math.Inf(1)}
}
func (equalityModel) ConstraintBound(int) model.Bound { return model.Bound{Lower: 1, Upper: 1} }
func (equalityModel) ObjectiveSign() float64          { return 1 }
func (equalityModel) EvaluateObjective(x []float64) (float64, error) { return x[0] * x[0], nil }
func (equalityModel) EvaluateObjectiveGradient(x []float64) (model.SparseVector, error) {
	v := model.NewSparseVector(1)
	v.Set(0, 2*x[0])
	return v, nil
}
func (equalityModel) EvaluateConstraints(x []float64) ([]float64, error) { return []float64{x[0]}, nil }
func (equalityModel) EvaluateConstraintJacobian(x []float64) ([]model.SparseVector, error) {
	v := model.NewSparseVector(1)
	v.Set(0, 1)
	return []model.SparseVector{v}, nil
}
func (equalityModel) EvaluateLagrangianHessian(x, lambda []float64) (*model.COOMatrix, error) {
	h := model.NewCOOMatrix(1, 1)
	h.Insert(0, 0, 2)
	return h, nil
}
func (equalityModel) PostprocessSolution(x []float64, status model.TerminationStatus) {}

// stubSubproblem is a minimal model.Subproblem recording which hooks fired,
// standing in for activeset.Subproblem/interiorpoint.Barrier in tests that
// only exercise the relaxation layer's own bookkeeping.
type stubSubproblem struct {
	feasibilityInitialized bool
	postprocessed          bool
	elasticSet             bool
}

func (s *stubSubproblem) SetTrustRegionRadius(float64)               {}
func (s *stubSubproblem) SetInitialPoint(model.Model, []float64)     {}
func (s *stubSubproblem) InitialIterate(model.Model, *model.Iterate) {}
func (s *stubSubproblem) InitializeFeasibilityProblem()              { s.feasibilityInitialized = true }
func (s *stubSubproblem) SetElasticVariableValues(model.Model, *model.Iterate) {
	s.elasticSet = true
}
func (s *stubSubproblem) PostprocessIterate(model.Model, *model.Iterate) { s.postprocessed = true }
func (s *stubSubproblem) Solve(m model.Model, it *model.Iterate, w model.WarmstartInformation) (*model.Direction, error) {
	return &model.Direction{Status: model.Optimal, Primal: make([]float64, len(it.Primal))}, nil
}

func newFixture() (*equalityModel, *stubSubproblem, *Relaxation) {
	m := &equalityModel{}
	sub := &stubSubproblem{}
	r := New(m, sub, strategy.NewL1Merit(model.Default()))
	return m, sub, r
}

func TestIsIterateAcceptableAcceptsImprovingTrial(t *testing.T) {
	m, _, r := newFixture()
	current := model.NewIterate([]float64{3}, 1, 1)
	trial := model.NewIterate([]float64{1}, 1, 1)
	direction := &model.Direction{PredictedReduction: model.ProgressMeasures{ObjectiveMeasure: 8}}

	accepted, _, err := r.IsIterateAcceptable(current, trial, direction, StepLengths{Primal: 1, Dual: 1})
	assert.NoError(t, err)
	assert.True(t, accepted)
	_ = m
}

func TestIsIterateAcceptableRejectsZeroNormDirection(t *testing.T) {
	_, _, r := newFixture()
	current := model.NewIterate([]float64{3}, 1, 1)
	trial := model.NewIterate([]float64{3}, 1, 1)
	direction := &model.Direction{PredictedReduction: model.ProgressMeasures{ObjectiveMeasure: 8}}

	accepted, _, err := r.IsIterateAcceptable(current, trial, direction, StepLengths{Primal: 0, Dual: 0})
	assert.NoError(t, err)
	assert.False(t, accepted)
}

func TestSolveFeasibilityProblemSetsRhoZeroAndRestoring(t *testing.T) {
	_, sub, r := newFixture()
	it := model.NewIterate([]float64{3}, 1, 1)

	dir, err := r.SolveFeasibilityProblem(it, model.NoChanges())
	assert.NoError(t, err)
	assert.NotNil(t, dir)
	assert.Equal(t, 0.0, r.Rho)
	assert.True(t, r.Restoring())
	assert.True(t, sub.feasibilityInitialized)
}

func TestResumeOptimalityRestoresRhoAndPostprocesses(t *testing.T) {
	m, sub, r := newFixture()
	it := model.NewIterate([]float64{3}, 1, 1)
	r.Rho = 0
	r.restoring = true

	r.ResumeOptimality(it)
	assert.Equal(t, 1.0, r.Rho)
	assert.False(t, r.Restoring())
	assert.True(t, sub.postprocessed)
	_ = m
}

func TestSetElasticVariableValuesMatchesClosedForm(t *testing.T) {
	_, sub, r := newFixture()
	it := model.NewIterate([]float64{4}, 1, 1) // constraint value c = 4

	err := r.SetElasticVariableValues(it, 0.1)
	assert.NoError(t, err)
	assert.Len(t, r.P, 1)
	assert.Len(t, r.N, 1)
	// p - n = -c with p, n > 0: verify those defining relations directly
	// instead of re-deriving the closed form.
	c := 4.0
	assert.InDelta(t, -c, r.P[0]-r.N[0], 1e-9)
	assert.Greater(t, r.P[0], 0.0)
	assert.Greater(t, r.N[0], 0.0)
	assert.True(t, sub.elasticSet)
}

func TestShouldEnterRestorationOnInfeasibilityStall(t *testing.T) {
	_, _, r := newFixture()
	assert.True(t, r.ShouldEnterRestoration(false, strategy.HType, 1.0, 1.0))
	assert.False(t, r.ShouldEnterRestoration(true, strategy.HType, 1.0, 0.5))
	assert.False(t, r.ShouldEnterRestoration(false, strategy.FType, 1.0, 1.0))
}
