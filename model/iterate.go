// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

// Iterate is a point together with the evaluations the core has computed at
// it so far. Evaluations are expensive Model callbacks, so each one is cached
// behind a "compute-on-first-read" pattern with a staleness bit: setting
// Primal (a new x) clears every cached bit instead of recomputing eagerly
// (spec.md §9 design note). Dual variables are mutated in place by the
// subproblem solvers without invalidating the primal-side caches.
type Iterate struct {
	Primal  []float64
	Lambda  []float64 // constraint multipliers, length NumConstraints
	ZLower  []float64 // lower-bound multipliers, length NumVariables (interior-point only)
	ZUpper  []float64 // upper-bound multipliers, length NumVariables (interior-point only)

	objective         float64
	objectiveValid     bool
	objectiveGradient  SparseVector
	gradientValid      bool
	constraints        []float64
	constraintsValid   bool
	jacobian           []SparseVector
	jacobianValid      bool
	hessian            *COOMatrix
	hessianValid       bool
}

// NewIterate allocates an Iterate at primal point x with n variables and m
// constraints, multipliers zeroed.
func NewIterate(x []float64, n, m int) *Iterate {
	it := &Iterate{
		Primal: append([]float64(nil), x...),
		Lambda: make([]float64, m),
		ZLower: make([]float64, n),
		ZUpper: make([]float64, n),
	}
	return it
}

// SetPrimal overwrites the primal point and invalidates every cached
// evaluation, per the compute-on-first-read/staleness-bit convention.
func (it *Iterate) SetPrimal(x []float64) {
	copy(it.Primal, x)
	it.Invalidate()
}

// Invalidate clears every cached evaluation without touching Primal. Used
// when a Model is known to have changed out of band (scaling applied, etc.).
func (it *Iterate) Invalidate() {
	it.objectiveValid = false
	it.gradientValid = false
	it.constraintsValid = false
	it.jacobianValid = false
	it.hessianValid = false
}

// Objective returns the cached objective value, computing and caching it via
// m on first read.
func (it *Iterate) Objective(m Model) (float64, error) {
	if it.objectiveValid {
		return it.objective, nil
	}
	f, err := m.EvaluateObjective(it.Primal)
	if err != nil {
		return 0, &EvaluationError{Cause: err}
	}
	it.objective, it.objectiveValid = f, true
	return f, nil
}

// ObjectiveGradient returns the cached gradient, computing it on first read.
func (it *Iterate) ObjectiveGradient(m Model) (SparseVector, error) {
	if it.gradientValid {
		return it.objectiveGradient, nil
	}
	g, err := m.EvaluateObjectiveGradient(it.Primal)
	if err != nil {
		return SparseVector{}, &GradientEvaluationError{Cause: err}
	}
	it.objectiveGradient, it.gradientValid = g, true
	return g, nil
}

// Constraints returns the cached constraint values, computing them on first
// read.
func (it *Iterate) Constraints(m Model) ([]float64, error) {
	if it.constraintsValid {
		return it.constraints, nil
	}
	c, err := m.EvaluateConstraints(it.Primal)
	if err != nil {
		return nil, &EvaluationError{Cause: err}
	}
	it.constraints, it.constraintsValid = c, true
	return c, nil
}

// ConstraintJacobian returns the cached Jacobian rows, computing them on
// first read.
func (it *Iterate) ConstraintJacobian(m Model) ([]SparseVector, error) {
	if it.jacobianValid {
		return it.jacobian, nil
	}
	j, err := m.EvaluateConstraintJacobian(it.Primal)
	if err != nil {
		return nil, &GradientEvaluationError{Cause: err}
	}
	it.jacobian, it.jacobianValid = j, true
	return j, nil
}

// LagrangianHessian returns the cached Hessian of the Lagrangian at the
// current Primal/Lambda, computing it on first read. A change to Lambda alone
// does not invalidate the cache automatically — callers that update
// multipliers and need a fresh Hessian must call InvalidateHessian.
func (it *Iterate) LagrangianHessian(m Model) (*COOMatrix, error) {
	if it.hessianValid {
		return it.hessian, nil
	}
	h, err := m.EvaluateLagrangianHessian(it.Primal, it.Lambda)
	if err != nil {
		return nil, &GradientEvaluationError{Cause: err}
	}
	it.hessian, it.hessianValid = h, true
	return h, nil
}

// InvalidateHessian clears only the cached Hessian, used after multipliers
// change independently of the primal point.
func (it *Iterate) InvalidateHessian() { it.hessianValid = false }

// Clone deep-copies the receiver's primal point and multipliers, for use as
// a trial iterate that may be discarded. Cached evaluations are not copied;
// the clone recomputes them on first read.
func (it *Iterate) Clone() *Iterate {
	c := &Iterate{
		Primal: append([]float64(nil), it.Primal...),
		Lambda: append([]float64(nil), it.Lambda...),
		ZLower: append([]float64(nil), it.ZLower...),
		ZUpper: append([]float64(nil), it.ZUpper...),
	}
	return c
}

// DirectionStatus classifies the outcome of a subproblem solve (spec.md §3).
type DirectionStatus int

const (
	Optimal DirectionStatus = iota
	DirectionUnbounded
	DirectionInfeasible
	DirectionError
)

func (s DirectionStatus) String() string {
	switch s {
	case Optimal:
		return "OPTIMAL"
	case DirectionUnbounded:
		return "UNBOUNDED"
	case DirectionInfeasible:
		return "INFEASIBLE"
	default:
		return "ERROR"
	}
}

// ActiveBound records which side of a variable or constraint's bound is
// active at the subproblem solution, used to report the active-set
// description spec.md §3 names.
type ActiveBound int

const (
	Inactive ActiveBound = iota
	AtLower
	AtUpper
)

// Direction is a step proposed by the subproblem solver: primal step dx,
// multiplier steps for constraints and bounds, and the objective multiplier
// used by the ℓ1-relaxation layer (spec.md §3).
type Direction struct {
	Primal              []float64
	LambdaStep          []float64
	ZLowerStep          []float64
	ZUpperStep          []float64
	ObjectiveMultiplier float64
	PredictedObjective  float64
	// PredictedReduction decomposes the predicted subproblem objective
	// reduction the way ProgressMeasures does, so the strategy's Armijo
	// check can read π = optimality(1) + auxiliary directly.
	PredictedReduction ProgressMeasures
	VariableActive     []ActiveBound
	ConstraintActive   []ActiveBound
	Status             DirectionStatus
	// NormInf is the infinity norm of Primal, cached by the producer so
	// globalisation code doesn't recompute it.
	NormInf float64
	// SmallStep is set by the interior-point subproblem when
	// max_i |Primal_i|/(1+|x_i|) falls below its small-direction threshold
	// (spec.md §4.3.b step 8); the caller treats the step as converged
	// rather than attempting a line search on a numerically negligible
	// direction.
	SmallStep bool
}

// ProgressMeasures decomposes the merit value into the pieces spec.md §3
// names: the scaled objective term and the infeasibility term, each reported
// for both the current and trial iterate by callers that need both.
type ProgressMeasures struct {
	InfeasibilityMeasure float64
	ObjectiveMeasure     float64
	AuxiliaryMeasure     float64 // barrier term (interior point) or 0 (active set)
}

// PrimalDualResiduals holds the scaled KKT residual components spec.md §3
// names, matching original_source/uno/optimization/PrimalDualResiduals.hpp
// field-for-field.
type PrimalDualResiduals struct {
	OptimalityStationarity    float64
	FeasibilityStationarity   float64
	Infeasibility             float64
	OptimalityComplementarity float64
	FeasibilityComplementarity float64
	StationarityScaling       float64
	ComplementarityScaling    float64
}

// WarmstartInformation tells a subproblem solver which parts of the problem
// changed since its last call, so it can reuse factorisations (spec.md §3).
type WarmstartInformation struct {
	ObjectiveChanged   bool
	ConstraintsChanged bool
	ConstraintBoundsChanged bool
	VariableBoundsChanged   bool
	HessianChanged     bool
}

// WholeProblemChanged reports true if any part changed, the conservative
// default a subproblem solver should assume when in doubt.
func (w WarmstartInformation) WholeProblemChanged() bool {
	return w.ObjectiveChanged || w.ConstraintsChanged || w.ConstraintBoundsChanged ||
		w.VariableBoundsChanged || w.HessianChanged
}

// NoChanges is the WarmstartInformation a pure re-solve with nothing mutated
// uses, e.g. a trust-region retry with a smaller radius.
func NoChanges() WarmstartInformation { return WarmstartInformation{} }
