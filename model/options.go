// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import "fmt"

// SubproblemKind selects the concrete C3 variant.
type SubproblemKind int

const (
	ActiveSetSubproblem SubproblemKind = iota
	InteriorPointSubproblem
)

// GlobalizationStrategyKind selects the concrete C5 variant.
type GlobalizationStrategyKind int

const (
	L1MeritStrategy GlobalizationStrategyKind = iota
	FilterStrategy
	FunnelStrategy
)

// GlobalizationMechanismKind selects the concrete C6 variant.
type GlobalizationMechanismKind int

const (
	TrustRegionMechanism GlobalizationMechanismKind = iota
	LineSearchMechanism
)

// HessianModelKind selects the concrete C2 variant: ExactHessianModel passes
// the Lagrangian Hessian through unchanged, ConvexifiedHessianModel
// regularises it (hessian.Factory maps the kind to the hessian.Model the
// active-set subproblem uses).
type HessianModelKind int

const (
	ExactHessianModel HessianModelKind = iota
	ConvexifiedHessianModel
)

// Options enumerates every recognised configuration key from spec.md §6 as a
// typed struct, mirroring the teacher's Problem/Termination/LineSearch
// struct-of-knobs convention rather than a stringly-typed map (the
// original_source collaborator uses `options.get_double("name")`
// string lookups; Go's static typing makes that indirection pure overhead).
type Options struct {
	// Driver termination (C7).
	MaxIterations int
	TimeLimit     float64 // seconds; <=0 means unbounded

	// Convergence (C1).
	Tolerance                                  float64
	LooseTolerance                             float64
	LooseToleranceConsecutiveIterationThreshold int
	ProgressNorm                                Norm
	UnboundedObjectiveThreshold                 float64

	// Armijo sufficient decrease (C5).
	ArmijoDecreaseFraction float64
	ArmijoTolerance        float64

	// Hessian model (C2).
	HessianModel                  HessianModelKind
	SparseFormat                  SparseFormat
	RegularizationInitialValue    float64
	RegularizationIncreaseFactor  float64

	// Barrier / interior-point (C3.b).
	BarrierInitialParameter      float64
	BarrierKMu                   float64
	BarrierThetaMu               float64
	BarrierKEpsilon              float64
	BarrierUpdateFraction        float64
	BarrierKSigma                float64
	BarrierTauMin                float64
	BarrierDefaultMultiplier     float64
	BarrierRegularizationExponent float64
	BarrierSmallDirectionFactor  float64
	BarrierPushToInteriorK1      float64
	BarrierPushToInteriorK2      float64
	LeastSquareMultiplierMaxNorm float64
	SecondOrderCorrection        bool

	// Funnel (C5.c).
	FunnelKappaInitialUpperBound       float64
	FunnelKappaInitialMultiplication   float64
	FunnelDelta                        float64
	FunnelKappaInfeasibility1          float64
	FunnelKappaInfeasibility2          float64
	FunnelBeta                         float64
	FunnelGamma                        float64
	FunnelSwitchingInfeasibilityExponent float64

	// Filter (C5.b).
	FilterBeta                  float64
	FilterGamma                 float64
	FilterMaxSize                int
	FilterInitialUpperBound      float64
	WaechterVariant              bool

	// Subproblem collaborators.
	QPSolver   string
	LPSolver   string
	BQPDKmax   int

	// Algorithm selection (top level).
	ConstraintRelaxationStrategy string
	GlobalizationMechanism       GlobalizationMechanismKind
	GlobalizationStrategy        GlobalizationStrategyKind
	Subproblem                   SubproblemKind

	// Trust-region mechanism (C6.a).
	TrustRegionInitialRadius float64
	TrustRegionMinRadius     float64
	TrustRegionMaxRadius     float64
	TrustRegionContraction   float64
	TrustRegionExpansion     float64
	TrustRegionAcceptRatio   float64
	TrustRegionGoodRatio     float64

	// Backtracking line search (C6.b).
	LineSearchBacktrackFactor float64
	LineSearchMinStepLength   float64

	// Preprocessing.
	ScaleFunctions bool
	// CheckDerivatives enables the numdiff-based finite-difference cross
	// check of the Model's analytic objective gradient (supplemental feature,
	// see SPEC_FULL.md §3) on the first iterate; the constraint Jacobian is
	// not checked.
	CheckDerivatives bool

	// Statistics (spec.md §6).
	StatisticsColumnOrder            map[string]int
	StatisticsPrintHeaderEveryIterations int
}

// Default returns the Options recommended by spec.md, populated with the
// constants named throughout spec.md §4 (s_max=100 for the residual scaling,
// κ_up for regularisation escalation, Ipopt-style barrier defaults, etc.).
func Default() Options {
	return Options{
		MaxIterations:                      3000,
		TimeLimit:                          0,
		Tolerance:                          1e-8,
		LooseTolerance:                     1e-6,
		LooseToleranceConsecutiveIterationThreshold: 15,
		ProgressNorm:                       L1,
		UnboundedObjectiveThreshold:        -1e10,
		ArmijoDecreaseFraction:             1e-8,
		ArmijoTolerance:                    1e-9,
		HessianModel:                       ExactHessianModel,
		SparseFormat:                       COO,
		RegularizationInitialValue:         1e-4,
		RegularizationIncreaseFactor:       8,
		BarrierInitialParameter:            0.1,
		BarrierKMu:                         0.2,
		BarrierThetaMu:                     1.5,
		BarrierKEpsilon:                    10,
		BarrierUpdateFraction:              10,
		BarrierKSigma:                      1e10,
		BarrierTauMin:                      0.99,
		BarrierDefaultMultiplier:           1,
		BarrierRegularizationExponent:      0.25,
		BarrierSmallDirectionFactor:        1e10,
		BarrierPushToInteriorK1:            1e-2,
		BarrierPushToInteriorK2:            1e-2,
		LeastSquareMultiplierMaxNorm:       1e3,
		SecondOrderCorrection:              true,
		FunnelKappaInitialUpperBound:       1e4,
		FunnelKappaInitialMultiplication:   1.3,
		FunnelDelta:                        1e-4,
		FunnelKappaInfeasibility1:          0.999,
		FunnelKappaInfeasibility2:          0.1,
		FunnelBeta:                         0.999,
		FunnelGamma:                        1e-5,
		FunnelSwitchingInfeasibilityExponent: 1.1,
		FilterBeta:                         0.999,
		FilterGamma:                        1e-5,
		FilterMaxSize:                      50,
		FilterInitialUpperBound:            1e4,
		WaechterVariant:                    true,
		QPSolver:                           "lsq",
		LPSolver:                           "golp",
		BQPDKmax:                           500,
		ConstraintRelaxationStrategy:       "l1_relaxation",
		GlobalizationMechanism:             TrustRegionMechanism,
		GlobalizationStrategy:              FunnelStrategy,
		Subproblem:                         ActiveSetSubproblem,
		TrustRegionInitialRadius:           1,
		TrustRegionMinRadius:               1e-10,
		TrustRegionMaxRadius:               1e8,
		TrustRegionContraction:             0.5,
		TrustRegionExpansion:               2,
		TrustRegionAcceptRatio:             1e-8,
		TrustRegionGoodRatio:               0.9,
		LineSearchBacktrackFactor:          0.5,
		LineSearchMinStepLength:            1e-16,
		ScaleFunctions:                     false,
		CheckDerivatives:                   false,
		StatisticsPrintHeaderEveryIterations: 25,
	}
}

// Validate reports a *ConfigurationError for any unknown strategy name,
// missing required option, or non-positive tolerance (spec.md §7:
// "configuration errors ... are reported at construction time only").
func (o Options) Validate() error {
	switch {
	case o.MaxIterations <= 0:
		return &ConfigurationError{Message: "max_iterations must be positive"}
	case o.Tolerance <= 0:
		return &ConfigurationError{Message: "tolerance must be positive"}
	case o.LooseTolerance < o.Tolerance:
		return &ConfigurationError{Message: "loose_tolerance must not be tighter than tolerance"}
	case o.ArmijoDecreaseFraction <= 0 || 0.5 <= o.ArmijoDecreaseFraction:
		return &ConfigurationError{Message: "armijo_decrease_fraction must be in (0, 0.5)"}
	case o.RegularizationInitialValue <= 0:
		return &ConfigurationError{Message: "regularization_initial_value must be positive"}
	case o.RegularizationIncreaseFactor <= 1:
		return &ConfigurationError{Message: "regularization_increase_factor must exceed 1"}
	case o.BarrierKMu <= 0 || 1 <= o.BarrierKMu:
		return &ConfigurationError{Message: "barrier_k_mu must be in (0, 1)"}
	case o.BarrierThetaMu <= 1 || 2 <= o.BarrierThetaMu:
		return &ConfigurationError{Message: "barrier_theta_mu must be in (1, 2)"}
	case o.TrustRegionMinRadius <= 0 || o.TrustRegionMaxRadius <= o.TrustRegionMinRadius:
		return &ConfigurationError{Message: "trust region radius bounds are inconsistent"}
	case o.LineSearchBacktrackFactor <= 0 || 1 <= o.LineSearchBacktrackFactor:
		return &ConfigurationError{Message: "line_search backtrack factor must be in (0, 1)"}
	}
	if o.Subproblem != ActiveSetSubproblem && o.Subproblem != InteriorPointSubproblem {
		return &ConfigurationError{Message: fmt.Sprintf("unknown subproblem kind %d", o.Subproblem)}
	}
	if o.GlobalizationStrategy != L1MeritStrategy && o.GlobalizationStrategy != FilterStrategy && o.GlobalizationStrategy != FunnelStrategy {
		return &ConfigurationError{Message: fmt.Sprintf("unknown globalization strategy %d", o.GlobalizationStrategy)}
	}
	if o.GlobalizationMechanism != TrustRegionMechanism && o.GlobalizationMechanism != LineSearchMechanism {
		return &ConfigurationError{Message: fmt.Sprintf("unknown globalization mechanism %d", o.GlobalizationMechanism)}
	}
	return nil
}
