// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interiorpoint

import (
	"math"
	"testing"

	"github.com/curioloop/nlpsolve/model"
	"github.com/stretchr/testify/assert"
)

// boxModel is minimize (x0-2)² subject to 0 ≤ x0 ≤ 5, no general
// constraints — the interior-point equivalent of activeset's
// equalityModel fixture, exercising the bound-multiplier machinery with
// mc=0.
type boxModel struct{}

func (boxModel) NumVariables() int               { return 1 }
func (boxModel) NumConstraints() int             { return 0 }
func (boxModel) VariableBound(int) model.Bound   { return model.Bound{Lower: 0, Upper: 5} }
func (boxModel) ConstraintBound(int) model.Bound { return model.Bound{} }
func (boxModel) ObjectiveSign() float64          { return 1 }
func (boxModel) EvaluateObjective(x []float64) (float64, error) {
	return (x[0] - 2) * (x[0] - 2), nil
}
func (boxModel) EvaluateObjectiveGradient(x []float64) (model.SparseVector, error) {
	v := model.NewSparseVector(1)
	v.Set(0, 2*(x[0]-2))
	return v, nil
}
func (boxModel) EvaluateConstraints(x []float64) ([]float64, error) { return nil, nil }
func (boxModel) EvaluateConstraintJacobian(x []float64) ([]model.SparseVector, error) {
	return nil, nil
}
func (boxModel) EvaluateLagrangianHessian(x, lambda []float64) (*model.COOMatrix, error) {
	h := model.NewCOOMatrix(1, 0)
	h.Insert(0, 0, 2)
	return h, nil
}
func (boxModel) PostprocessSolution(x []float64, status model.TerminationStatus) {}

func TestBarrierSolveMovesTowardUnconstrainedMinimizer(t *testing.T) {
	m := boxModel{}
	it := model.NewIterate([]float64{1}, 1, 0)

	b := New(model.Default())
	b.InitialIterate(m, it)
	assert.Greater(t, it.ZLower[0], 0.0)

	dir, err := b.Solve(m, it, model.NoChanges())
	assert.NoError(t, err)
	assert.Equal(t, model.Optimal, dir.Status)
	assert.Greater(t, dir.Primal[0], 0.0, "step should move right, toward x=2")
	assert.False(t, dir.SmallStep)
}

func TestBarrierPostprocessClipsMultipliersAndRestoresMu(t *testing.T) {
	b := New(model.Default())
	b.InitializeFeasibilityProblem()
	assert.True(t, b.solvingFeasibility)
	assert.Equal(t, 0.0, b.rho)

	it := model.NewIterate([]float64{1}, 1, 0)
	it.ZLower[0] = 1e20 // far outside the [μ/(κσ·d), κσ·μ/d] box

	b.PostprocessIterate(boxModel{}, it)
	assert.False(t, b.solvingFeasibility)
	assert.Equal(t, 1.0, b.rho)
	assert.Less(t, it.ZLower[0], 1e20)
}

func TestClipMultiplierLeavesInRangeValueUntouched(t *testing.T) {
	assert.Equal(t, 5.0, clipMultiplier(5.0, 1.0, 1e10, 1.0))
}

// equalityModel is minimize x0² subject to x0 = 1, giving leastSquaresMultipliers
// and SecondOrderCorrection a general constraint (mc=1) to work with.
type equalityModel struct{}

func (equalityModel) NumVariables() int   { return 1 }
func (equalityModel) NumConstraints() int { return 1 }
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

func TestInitialIterateSetsLeastSquaresMultiplier(t *testing.T) {
	m := equalityModel{}
	it := model.NewIterate([]float64{3}, 1, 1)

	b := New(model.Default())
	b.InitialIterate(m, it)

	assert.NotEqual(t, 0.0, it.Lambda[0])
}

func TestInitialIterateDiscardsMultiplierExceedingMaxNorm(t *testing.T) {
	m := equalityModel{}
	it := model.NewIterate([]float64{3}, 1, 1)

	opts := model.Default()
	opts.LeastSquareMultiplierMaxNorm = 1e-6
	b := New(opts)
	b.InitialIterate(m, it)

	assert.Equal(t, 0.0, it.Lambda[0])
}

func TestSecondOrderCorrectionProducesOptimalDirection(t *testing.T) {
	m := equalityModel{}
	it := model.NewIterate([]float64{3}, 1, 1)

	b := New(model.Default())
	b.InitialIterate(m, it)

	dir, err := b.Solve(m, it, model.NoChanges())
	assert.NoError(t, err)
	assert.Equal(t, model.Optimal, dir.Status)

	corrected, err := b.SecondOrderCorrection(m, it, dir)
	assert.NoError(t, err)
	if assert.NotNil(t, corrected) {
		assert.Equal(t, model.Optimal, corrected.Status)
	}
}

func TestSecondOrderCorrectionDisabledReturnsNil(t *testing.T) {
	m := equalityModel{}
	it := model.NewIterate([]float64{3}, 1, 1)

	opts := model.Default()
	opts.SecondOrderCorrection = false
	b := New(opts)
	b.InitialIterate(m, it)

	dir, err := b.Solve(m, it, model.NoChanges())
	assert.NoError(t, err)

	corrected, err := b.SecondOrderCorrection(m, it, dir)
	assert.NoError(t, err)
	assert.Nil(t, corrected)
}

func TestSecondOrderCorrectionNoOpWithoutConstraints(t *testing.T) {
	m := boxModel{}
	it := model.NewIterate([]float64{1}, 1, 0)

	b := New(model.Default())
	b.InitialIterate(m, it)
	dir, err := b.Solve(m, it, model.NoChanges())
	assert.NoError(t, err)

	corrected, err := b.SecondOrderCorrection(m, it, dir)
	assert.NoError(t, err)
	assert.Nil(t, corrected)
}
