// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package residual

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/curioloop/nlpsolve/model"
)

type quadraticModel struct{}

func (quadraticModel) NumVariables() int   { return 2 }
func (quadraticModel) NumConstraints() int { return 1 }
func (quadraticModel) VariableBound(i int) model.Bound {
	return model.Bound{Lower: 0, Upper: 10}
}
func (quadraticModel) ConstraintBound(j int) model.Bound {
	return model.Bound{Lower: 0, Upper: 0}
}
func (quadraticModel) ObjectiveSign() float64 { return 1 }
func (quadraticModel) EvaluateObjective(x []float64) (float64, error) {
	return x[0]*x[0] + x[1]*x[1], nil
}
func (quadraticModel) EvaluateObjectiveGradient(x []float64) (model.SparseVector, error) {
	v := model.NewSparseVector(2)
	v.Set(0, 2*x[0])
	v.Set(1, 2*x[1])
	return v, nil
}
func (quadraticModel) EvaluateConstraints(x []float64) ([]float64, error) {
	return []float64{x[0] + x[1] - 1}, nil
}
func (quadraticModel) EvaluateConstraintJacobian(x []float64) ([]model.SparseVector, error) {
	row := model.NewSparseVector(2)
	row.Set(0, 1)
	row.Set(1, 1)
	return []model.SparseVector{row}, nil
}
func (quadraticModel) EvaluateLagrangianHessian(x, lambda []float64) (*model.COOMatrix, error) {
	h := model.NewCOOMatrix(2, 2)
	h.Insert(0, 0, 2)
	h.Insert(1, 1, 2)
	return h, nil
}
func (quadraticModel) PostprocessSolution(x []float64, status model.TerminationStatus) {}

func TestComputeAtKKTPoint(t *testing.T) {
	m := quadraticModel{}
	it := model.NewIterate([]float64{0.5, 0.5}, 2, 1)
	it.Lambda[0] = 1
	r, err := Compute(m, it, 0, model.Default())
	assert.NoError(t, err)
	assert.InDelta(t, 0, r.OptimalityStationarity, 1e-9)
	assert.InDelta(t, 0, r.Infeasibility, 1e-9)
}

func TestClassifyFeasibleKKTPoint(t *testing.T) {
	opts := model.Default()
	r := model.PrimalDualResiduals{OptimalityStationarity: 1e-12, OptimalityComplementarity: 1e-12}
	status, _ := Classify(r, 0, opts, 1, 0)
	assert.Equal(t, model.FeasibleKKTPoint, status)
}

func TestClassifyNotFeasibleKKTPointWhileRestoring(t *testing.T) {
	opts := model.Default()
	r := model.PrimalDualResiduals{OptimalityStationarity: 1e-12, OptimalityComplementarity: 1e-12}
	status, _ := Classify(r, 0, opts, 0, 0)
	assert.NotEqual(t, model.FeasibleKKTPoint, status)
}

func TestClassifyNotOptimal(t *testing.T) {
	opts := model.Default()
	r := model.PrimalDualResiduals{OptimalityStationarity: 1, OptimalityComplementarity: 1}
	status, _ := Classify(r, 1, opts, 1, 0)
	assert.Equal(t, model.NotOptimal, status)
}

func TestClassifyInfeasibleStationaryPoint(t *testing.T) {
	opts := model.Default()
	r := model.PrimalDualResiduals{
		OptimalityStationarity:     1,
		OptimalityComplementarity:  1,
		FeasibilityStationarity:    1e-12,
		FeasibilityComplementarity: 1e-12,
	}
	status, _ := Classify(r, 1, opts, 0, 0)
	assert.Equal(t, model.InfeasibleStationaryPoint, status)
}

func TestClassifyLooseFJAfterConsecutiveIterations(t *testing.T) {
	opts := model.Default()
	opts.Tolerance = 1e-10
	opts.LooseTolerance = 1e-3
	opts.LooseToleranceConsecutiveIterationThreshold = 2
	r := model.PrimalDualResiduals{OptimalityStationarity: 1e-4, OptimalityComplementarity: 1e-4, FeasibilityStationarity: 1}
	status, count := Classify(r, 1e-4, opts, 1, 0)
	assert.Equal(t, model.NotOptimal, status)
	assert.Equal(t, 1, count)
	status, count = Classify(r, 1e-4, opts, 1, count)
	assert.Equal(t, model.FeasibleFJPoint, status)
	assert.Equal(t, 2, count)
}
