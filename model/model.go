// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package model defines the external collaborators and shared data types
// consumed by every ingredient of the solver core: the Model oracle
// interface, variable/constraint bounds, the recognised Options, and the
// Iterate/Direction/ProgressMeasures types that flow between components.
package model

import (
	"errors"
	"fmt"
	"math"
)

// Norm selects the vector norm used to report progress and residuals.
type Norm int

const (
	// L1 is the sum-of-absolute-values norm.
	L1 Norm = iota
	// L2 is the Euclidean norm.
	L2
	// Inf is the max-absolute-value norm.
	Inf
)

func (n Norm) apply(v []float64) float64 {
	switch n {
	case L1:
		sum := 0.0
		for _, x := range v {
			sum += math.Abs(x)
		}
		return sum
	case L2:
		sum := 0.0
		for _, x := range v {
			sum += x * x
		}
		return math.Sqrt(sum)
	default:
		m := 0.0
		for _, x := range v {
			m = math.Max(m, math.Abs(x))
		}
		return m
	}
}

// Apply computes the norm of v under the receiver's convention.
func (n Norm) Apply(v []float64) float64 { return n.apply(v) }

// Bound represents an interval [Lower, Upper]; use ±Inf for one-sided or
// unbounded sides.
type Bound struct {
	Lower, Upper float64
}

// IsLowerBounded reports whether the lower side is finite.
func (b Bound) IsLowerBounded() bool { return !math.IsInf(b.Lower, -1) }

// IsUpperBounded reports whether the upper side is finite.
func (b Bound) IsUpperBounded() bool { return !math.IsInf(b.Upper, 1) }

// Model is the abstract NLP problem: n variables, m constraints, and the
// function/derivative oracles that evaluate at a point. Implementations are
// treated as external collaborators (spec.md §1) — the core never assumes
// anything about how f, c and their derivatives are computed, only that the
// contract below is honoured. A Model is immutable for the lifetime of a
// solve.
type Model interface {
	NumVariables() int
	NumConstraints() int

	VariableBound(i int) Bound
	ConstraintBound(j int) Bound

	// ObjectiveSign is +1 for minimisation, -1 for maximisation; the core
	// always minimises ObjectiveSign*f internally.
	ObjectiveSign() float64

	EvaluateObjective(x []float64) (float64, error)
	EvaluateObjectiveGradient(x []float64) (SparseVector, error)
	EvaluateConstraints(x []float64) ([]float64, error)
	EvaluateConstraintJacobian(x []float64) ([]SparseVector, error)
	EvaluateLagrangianHessian(x, lambda []float64) (*COOMatrix, error)

	// PostprocessSolution restores any sign/scale convention specific to the
	// collaborator once the core has reached a terminal status.
	PostprocessSolution(x []float64, status TerminationStatus)
}

// EvaluationError categorises a fault raised by the Model while computing a
// function value; GradientEvaluationError is raised for derivative oracles.
// Both wrap the underlying error returned by the Model so callers can both
// errors.Is the category sentinel and errors.Unwrap to the cause.
type EvaluationError struct{ Cause error }

func (e *EvaluationError) Error() string { return fmt.Sprintf("objective/constraint evaluation failed: %v", e.Cause) }
func (e *EvaluationError) Unwrap() error { return e.Cause }

type GradientEvaluationError struct{ Cause error }

func (e *GradientEvaluationError) Error() string {
	return fmt.Sprintf("gradient/jacobian/hessian evaluation failed: %v", e.Cause)
}
func (e *GradientEvaluationError) Unwrap() error { return e.Cause }

// ErrFunctionEvaluation and ErrGradientEvaluation are the sentinels the two
// error types above are compared against with errors.Is.
var (
	ErrFunctionEvaluation = errors.New("function evaluation error")
	ErrGradientEvaluation = errors.New("gradient evaluation error")
)

func (e *EvaluationError) Is(target error) bool         { return target == ErrFunctionEvaluation }
func (e *GradientEvaluationError) Is(target error) bool { return target == ErrGradientEvaluation }

// ConfigurationError is returned by option validation at construction time
// only (spec.md §7): unknown strategy name, missing required option, or a
// non-positive tolerance.
type ConfigurationError struct{ Message string }

func (e *ConfigurationError) Error() string { return "nlpsolve: configuration error: " + e.Message }
