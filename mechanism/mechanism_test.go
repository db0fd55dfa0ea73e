// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mechanism

import (
	"testing"

	"github.com/curioloop/nlpsolve/model"
	"github.com/stretchr/testify/assert"
)

func TestAssembleTrialZeroDirectionTakesDualOnlyStep(t *testing.T) {
	m := unconstrainedModel{}
	current := model.NewIterate([]float64{1}, 1, 0)
	dir := &model.Direction{Primal: []float64{0}, NormInf: 0}

	trial, steps := assembleTrial(current, m, dir, 1, 1)

	assert.Equal(t, 0.0, steps.Primal)
	assert.Equal(t, current.Primal[0], trial.Primal[0])
}

func TestAssembleTrialNonZeroDirectionStepsPrimalAndDual(t *testing.T) {
	m := unconstrainedModel{}
	current := model.NewIterate([]float64{1}, 1, 0)
	dir := &model.Direction{Primal: []float64{3}, NormInf: 3}

	trial, steps := assembleTrial(current, m, dir, 0.5, 1)

	assert.Equal(t, 0.5, steps.Primal)
	assert.InDelta(t, 2.5, trial.Primal[0], 1e-9)
}
