// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nlpsolve

import (
	"io"
	"testing"

	"github.com/curioloop/nlpsolve/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boxModel is minimize (x0-2)² subject to 0 ≤ x0 ≤ 5, no general
// constraints, the same shape as interiorpoint's own boxModel fixture, used
// here to exercise the full C7 driver loop end to end.
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

func TestSolveInteriorPointLineSearchConvergesTowardMinimizer(t *testing.T) {
	opts := model.Default()
	opts.Subproblem = model.InteriorPointSubproblem
	opts.GlobalizationMechanism = model.LineSearchMechanism
	opts.GlobalizationStrategy = model.L1MeritStrategy
	opts.MaxIterations = 200

	opt, err := New(opts)
	require.NoError(t, err)
	opt.StatsOut = io.Discard

	result, err := opt.Solve(Problem{Model: boxModel{}, Initial: []float64{1}})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.InDelta(t, 2.0, result.Solution[0], 1e-3)
	assert.True(t, result.Summary.Status.IsTerminal())
	assert.Less(t, result.Summary.Iterations, opts.MaxIterations)
}

func TestSolveActiveSetTrustRegionConvergesTowardMinimizer(t *testing.T) {
	opts := model.Default()
	opts.Subproblem = model.ActiveSetSubproblem
	opts.GlobalizationMechanism = model.TrustRegionMechanism
	opts.GlobalizationStrategy = model.L1MeritStrategy
	opts.MaxIterations = 200

	opt, err := New(opts)
	require.NoError(t, err)
	opt.StatsOut = io.Discard

	result, err := opt.Solve(Problem{Model: boxModel{}, Initial: []float64{1}})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.InDelta(t, 2.0, result.Solution[0], 1e-3)
	assert.True(t, result.Summary.Status.IsTerminal())
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := model.Default()
	opts.MaxIterations = 0

	_, err := New(opts)
	assert.Error(t, err)
}

func TestCheckDerivativesRunsWithoutError(t *testing.T) {
	opts := model.Default()
	opts.CheckDerivatives = true
	opts.MaxIterations = 50

	opt, err := New(opts)
	require.NoError(t, err)
	opt.StatsOut = io.Discard

	result, err := opt.Solve(Problem{Model: boxModel{}, Initial: []float64{1}})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, result.Solution[0], 1e-2)
}
