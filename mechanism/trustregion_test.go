// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mechanism

import (
	"math"
	"testing"

	"github.com/curioloop/nlpsolve/model"
	"github.com/curioloop/nlpsolve/relax"
	"github.com/curioloop/nlpsolve/strategy"
	"github.com/stretchr/testify/assert"
)

// unconstrainedModel is minimize (x0-2)², free variable, no general
// constraints — isolates the mechanism's radius/acceptance bookkeeping from
// any particular Subproblem.
type unconstrainedModel struct{}

func (unconstrainedModel) NumVariables() int             { return 1 }
func (unconstrainedModel) NumConstraints() int           { return 0 }
func (unconstrainedModel) VariableBound(int) model.Bound {
	return model.Bound{Lower: math.Inf(-1), Upper: math.Inf(1)}
}
func (unconstrainedModel) ConstraintBound(int) model.Bound { return model.Bound{} }
func (unconstrainedModel) ObjectiveSign() float64          { return 1 }
func (unconstrainedModel) EvaluateObjective(x []float64) (float64, error) {
	return (x[0] - 2) * (x[0] - 2), nil
}
func (unconstrainedModel) EvaluateObjectiveGradient(x []float64) (model.SparseVector, error) {
	v := model.NewSparseVector(1)
	v.Set(0, 2*(x[0]-2))
	return v, nil
}
func (unconstrainedModel) EvaluateConstraints(x []float64) ([]float64, error) { return nil, nil }
func (unconstrainedModel) EvaluateConstraintJacobian(x []float64) ([]model.SparseVector, error) {
	return nil, nil
}
func (unconstrainedModel) EvaluateLagrangianHessian(x, lambda []float64) (*model.COOMatrix, error) {
	h := model.NewCOOMatrix(1, 0)
	h.Insert(0, 0, 2)
	return h, nil
}
func (unconstrainedModel) PostprocessSolution(x []float64, status model.TerminationStatus) {}

// fixedDirectionSubproblem always proposes the same direction, scaled down to
// the trust region's current radius when the radius is smaller than the
// direction's natural magnitude, mirroring how a real Subproblem clips its
// step to the region.
type fixedDirectionSubproblem struct {
	dx, predictedReduction float64
	radius                 float64
}

func (s *fixedDirectionSubproblem) SetTrustRegionRadius(r float64)           { s.radius = r }
func (s *fixedDirectionSubproblem) SetInitialPoint(model.Model, []float64)   {}
func (s *fixedDirectionSubproblem) InitialIterate(model.Model, *model.Iterate) {}
func (s *fixedDirectionSubproblem) InitializeFeasibilityProblem()             {}
func (s *fixedDirectionSubproblem) SetElasticVariableValues(model.Model, *model.Iterate) {}
func (s *fixedDirectionSubproblem) PostprocessIterate(model.Model, *model.Iterate)       {}
func (s *fixedDirectionSubproblem) Solve(m model.Model, it *model.Iterate, w model.WarmstartInformation) (*model.Direction, error) {
	step := s.dx
	if s.radius > 0 && math.Abs(step) > s.radius {
		if step < 0 {
			step = -s.radius
		} else {
			step = s.radius
		}
	}
	return &model.Direction{
		Status:             model.Optimal,
		Primal:             []float64{step},
		NormInf:            math.Abs(step),
		PredictedObjective: -s.predictedReduction,
		PredictedReduction: model.ProgressMeasures{ObjectiveMeasure: s.predictedReduction},
	}, nil
}

func TestTrustRegionAcceptsGoodStepAndExpandsRadius(t *testing.T) {
	m := unconstrainedModel{}
	sub := &fixedDirectionSubproblem{dx: 1, predictedReduction: 1}
	r := relax.New(m, sub, strategy.NewL1Merit(model.Default()))
	tr := NewTrustRegion(r, model.Default())

	current := model.NewIterate([]float64{1}, 1, 0)
	next, status, err := tr.Step(current, model.NoChanges())

	assert.NoError(t, err)
	assert.Equal(t, model.NotOptimal, status)
	assert.InDelta(t, 2.0, next.Primal[0], 1e-9)
	assert.Greater(t, tr.Radius, model.Default().TrustRegionInitialRadius)
}

func TestTrustRegionShrinksOnRejectedStepUntilSmallStep(t *testing.T) {
	m := unconstrainedModel{}
	// Always overshoots away from the minimiser, so every trial is rejected;
	// the subproblem respects the shrinking radius, so the step's magnitude
	// (and hence the next radius) nearly halves each retry until it bottoms
	// out at MinRadius.
	sub := &fixedDirectionSubproblem{dx: -5, predictedReduction: 1}
	r := relax.New(m, sub, strategy.NewL1Merit(model.Default()))
	tr := NewTrustRegion(r, model.Default())

	current := model.NewIterate([]float64{1}, 1, 0)
	next, status, err := tr.Step(current, model.NoChanges())

	assert.NoError(t, err)
	assert.Equal(t, model.FeasibleSmallStep, status)
	assert.Same(t, current, next)
	assert.Equal(t, model.Default().TrustRegionMinRadius, tr.Radius)
}
