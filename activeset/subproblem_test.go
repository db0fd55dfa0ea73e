// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package activeset

import (
	"math"
	"testing"

	"github.com/curioloop/nlpsolve/model"
	"github.com/stretchr/testify/assert"
)

// equalityModel is minimize x0²+x1² subject to x0+x1=1, unbounded variables.
// The unconstrained-then-projected KKT solution is x=(0.5,0.5), so a single
// QP step from any feasible-ish starting point should land exactly there.
type equalityModel struct{}

func (equalityModel) NumVariables() int   { return 2 }
func (equalityModel) NumConstraints() int { return 1 }
func (equalityModel) VariableBound(i int) model.Bound {
	return model.Bound{Lower: math.Inf(-1), Upper: math.Inf(1)}
}
func (equalityModel) ConstraintBound(j int) model.Bound { return model.Bound{Lower: 1, Upper: 1} }
func (equalityModel) ObjectiveSign() float64             { return 1 }
func (equalityModel) EvaluateObjective(x []float64) (float64, error) {
	return x[0]*x[0] + x[1]*x[1], nil
}
func (equalityModel) EvaluateObjectiveGradient(x []float64) (model.SparseVector, error) {
	v := model.NewSparseVector(2)
	v.Set(0, 2*x[0])
	v.Set(1, 2*x[1])
	return v, nil
}
func (equalityModel) EvaluateConstraints(x []float64) ([]float64, error) {
	return []float64{x[0] + x[1]}, nil
}
func (equalityModel) EvaluateConstraintJacobian(x []float64) ([]model.SparseVector, error) {
	row := model.NewSparseVector(2)
	row.Set(0, 1)
	row.Set(1, 1)
	return []model.SparseVector{row}, nil
}
func (equalityModel) EvaluateLagrangianHessian(x, lambda []float64) (*model.COOMatrix, error) {
	h := model.NewCOOMatrix(2, 2)
	h.Insert(0, 0, 2)
	h.Insert(1, 1, 2)
	return h, nil
}
func (equalityModel) PostprocessSolution(x []float64, status model.TerminationStatus) {}

func TestSubproblemSolveEqualityQP(t *testing.T) {
	m := equalityModel{}
	it := model.NewIterate([]float64{0, 0}, 2, 1)

	s := New(model.Default())
	s.Radius = 10

	dir, err := s.Solve(m, it, model.NoChanges())
	assert.NoError(t, err)
	assert.Equal(t, model.Optimal, dir.Status)
	assert.InDelta(t, 0.5, dir.Primal[0], 1e-8)
	assert.InDelta(t, 0.5, dir.Primal[1], 1e-8)
}

func TestSubproblemPostprocessRestoresRho(t *testing.T) {
	s := New(model.Default())
	s.InitializeFeasibilityProblem()
	assert.True(t, s.solvingFeasibility)
	assert.Equal(t, 0.0, s.rho)
	s.PostprocessIterate(equalityModel{}, model.NewIterate([]float64{0, 0}, 2, 1))
	assert.False(t, s.solvingFeasibility)
	assert.Equal(t, 1.0, s.rho)
}
