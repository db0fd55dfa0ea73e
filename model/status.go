// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

// TerminationStatus classifies why the driver loop stopped. Termination
// statuses are not errors (spec.md §7): they end the loop normally and are
// reported to the caller via Result.Summary.
type TerminationStatus int

const (
	// NotOptimal means the loop should keep iterating.
	NotOptimal TerminationStatus = iota
	// FeasibleKKTPoint is a regular KKT point: stationary, feasible,
	// complementary, with a strictly positive objective multiplier.
	FeasibleKKTPoint
	// FeasibleFJPoint is a feasible point satisfying only the weaker
	// Fritz-John conditions — signals a constraint-qualification failure.
	FeasibleFJPoint
	// InfeasibleStationaryPoint is a stationary point of the constraint
	// violation measure that is not feasible: the problem is locally
	// infeasible.
	InfeasibleStationaryPoint
	// Unbounded means the objective decreases without bound.
	Unbounded
	// FeasibleSmallStep means the globalisation mechanism's step size
	// shrank below its minimum while the iterate was feasible.
	FeasibleSmallStep
	// InfeasibleSmallStep is the same, but the iterate was infeasible.
	InfeasibleSmallStep
	// ExceededIterations means the iteration cap was hit.
	ExceededIterations
	// ExceededTime means the wall-clock budget was exhausted.
	ExceededTime
	// Error is a terminal failure the core could not recover from locally
	// (inertia correction divergence, subproblem ERROR status).
	Error
)

func (s TerminationStatus) String() string {
	switch s {
	case NotOptimal:
		return "NOT_OPTIMAL"
	case FeasibleKKTPoint:
		return "FEASIBLE_KKT_POINT"
	case FeasibleFJPoint:
		return "FEASIBLE_FJ_POINT"
	case InfeasibleStationaryPoint:
		return "INFEASIBLE_STATIONARY_POINT"
	case Unbounded:
		return "UNBOUNDED"
	case FeasibleSmallStep:
		return "FEASIBLE_SMALL_STEP"
	case InfeasibleSmallStep:
		return "INFEASIBLE_SMALL_STEP"
	case ExceededIterations:
		return "EXCEEDED_ITERATIONS"
	case ExceededTime:
		return "EXCEEDED_TIME"
	default:
		return "ERROR"
	}
}

// IsTerminal reports whether the driver loop should stop on this status.
func (s TerminationStatus) IsTerminal() bool { return s != NotOptimal }
