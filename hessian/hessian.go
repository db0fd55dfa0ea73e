// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hessian implements C2: turning the Model's raw Lagrangian Hessian
// into a matrix the subproblem solver can safely factorise, either passed
// through unchanged (ExactHessian) or convexified by diagonal regularisation
// until its inertia matches what a local minimiser of the subproblem
// requires (ConvexifiedHessian).
//
// Grounded on original_source/uno/ingredients/subproblem/HessianModel.cpp:
// ExactHessian/ConvexifiedHessian/regularize follow that file's structure,
// and the inertia-correction loop is the Nocedal & Wright (p.51) scheme it
// implements.
package hessian

import (
	"fmt"

	"github.com/curioloop/nlpsolve/linsolve"
	"github.com/curioloop/nlpsolve/model"
	"gonum.org/v1/gonum/mat"
)

// Model evaluates and, where configured, regularises the Hessian of the
// Lagrangian at an iterate.
type Model interface {
	// Evaluate returns the (possibly regularised) dense symmetric Hessian at
	// it, along with the regularisation term actually added (0 for
	// ExactHessian).
	Evaluate(m model.Model, it *model.Iterate, numConstraints int) (*mat.SymDense, float64, error)
}

// Exact passes the Model's Lagrangian Hessian through unmodified. It is the
// model Factory returns for ExactHessianModel (the default), used by the
// active-set subproblem when no convexity guarantee is needed.
type Exact struct{}

func (Exact) Evaluate(m model.Model, it *model.Iterate, numConstraints int) (*mat.SymDense, float64, error) {
	h, err := it.LagrangianHessian(m)
	if err != nil {
		return nil, 0, err
	}
	return linsolve.FromCOO(h), 0, nil
}

// Convexified regularises the Hessian by adding delta*I until the augmented
// KKT system built from it has the inertia (n, m, 0) a strict local minimum
// of the subproblem requires: n positive eigenvalues (one per variable), m
// negative (one per constraint), zero null directions.
type Convexified struct {
	InitialValue   float64
	IncreaseFactor float64
	// AugmentedDiag supplies the −D block's diagonal for the inertia check;
	// callers outside a barrier context pass a zero slice of length m.
	AugmentedDiag []float64
}

// Evaluate implements Model.
func (c Convexified) Evaluate(m model.Model, it *model.Iterate, numConstraints int) (*mat.SymDense, float64, error) {
	raw, err := it.LagrangianHessian(m)
	if err != nil {
		return nil, 0, err
	}
	n := raw.N
	sym := linsolve.FromCOO(raw)

	delta := 0.0
	diag := c.AugmentedDiag
	if diag == nil {
		diag = make([]float64, numConstraints)
	}

	jac, err := it.ConstraintJacobian(m)
	if err != nil {
		return nil, 0, err
	}

	for attempt := 0; attempt < 50; attempt++ {
		trial := mat.NewSymDense(n, nil)
		trial.CopySym(sym)
		if delta > 0 {
			for i := 0; i < n; i++ {
				trial.SetSym(i, i, trial.At(i, i)+delta)
			}
		}

		aug := linsolve.AugmentedSystem(trial, jac, n, numConstraints, diag)
		inertia, err := linsolve.EigenInertia(aug)
		if err != nil {
			return nil, 0, fmt.Errorf("hessian: inertia check failed: %w", err)
		}

		if inertia.Positive == n && inertia.Negative == numConstraints && inertia.Zero == 0 {
			return trial, delta, nil
		}

		if delta == 0 {
			delta = c.InitialValue
		} else {
			delta *= c.IncreaseFactor
		}
	}
	return nil, 0, fmt.Errorf("hessian: regularisation did not converge after 50 attempts")
}

// Factory selects the HessianModel matching model.HessianModelKind, the
// Options-driven equivalent of HessianModelFactory::create.
func Factory(kind model.HessianModelKind, opts model.Options) Model {
	switch kind {
	case model.ConvexifiedHessianModel:
		return Convexified{InitialValue: opts.RegularizationInitialValue, IncreaseFactor: opts.RegularizationIncreaseFactor}
	default:
		return Exact{}
	}
}
