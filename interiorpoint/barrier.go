// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package interiorpoint implements C3.b: the primal-dual interior-point
// (barrier) subproblem variant, the sibling of activeset's LSQ-based QP
// under the shared Subproblem contract (spec.md §4.3.b). Each call updates
// the barrier parameter μ, folds the bound multipliers into a diagonal
// barrier term on the Hessian, and solves the resulting augmented KKT
// system with gonum (via the linsolve package) rather than a QP kernel —
// there is no equivalent of LSQ's active-set pivoting here, only a single
// regularised linear solve per iteration, inertia-corrected the same way
// hessian.Convexified corrects C2's QP Hessian.
package interiorpoint

import (
	"fmt"
	"math"

	"github.com/curioloop/nlpsolve/linsolve"
	"github.com/curioloop/nlpsolve/model"
	"github.com/curioloop/nlpsolve/residual"
	"gonum.org/v1/gonum/mat"
)

const (
	machineEpsilon = 2.220446049250313e-16
	// boundRelaxFactor scales the machine-epsilon^0.75 margin spec.md §4.3.b
	// step 2 relaxes a bound by, matching Ipopt's default bound_relax_factor.
	boundRelaxFactor = 1e-8
	// dampingKappaD is the extra Σ diagonal Ipopt adds for variables bounded
	// on exactly one side, keeping them from drifting to infinity when their
	// own bound is inactive (Wächter & Biegler §3.7).
	dampingKappaD             = 1e-5
	maxRegularizationAttempts = 50
)

// Barrier is the C3.b interior-point solver. Its state — the current and
// pre-restoration barrier parameters, and the restoration flag/objective
// weight activeset.Subproblem also carries — is exactly what the contract
// (spec.md §3) says a warm start may reuse between calls.
type Barrier struct {
	Mu     float64
	muPrev float64
	opts   model.Options

	solvingFeasibility bool
	rho                float64
}

// New creates a Barrier configured from opts.
func New(opts model.Options) *Barrier {
	return &Barrier{
		Mu:   opts.BarrierInitialParameter,
		opts: opts,
		rho:  1,
	}
}

// SetTrustRegionRadius implements the C3 contract. The barrier subproblem
// has no trust region of its own — its step is already bounded by the
// fraction-to-boundary rule in Solve — so this is a deliberate no-op kept
// only so both subproblem variants satisfy one interface.
func (b *Barrier) SetTrustRegionRadius(float64) {}

// SetInitialPoint implements the C3 contract: projects x0 into bounds and
// then pushes it strictly interior, since the log-barrier terms are
// undefined on the boundary.
func (b *Barrier) SetInitialPoint(m model.Model, x0 []float64) {
	bounds := variableBounds(m)
	model.ProjectToBounds(x0, bounds)
	model.PushToInterior(x0, bounds, b.opts.BarrierPushToInteriorK1, b.opts.BarrierPushToInteriorK2)
}

// InitialIterate implements the C3 contract's initial_iterate hook: pushes
// the primal point interior, sets every bounded variable's multiplier to the
// configured default so the first Σ/complementarity evaluation is
// well-defined, and replaces λ=0 with the least-squares multiplier estimate
// (SPEC_FULL.md §3, original_source's Preprocessing::compute_least_square_multipliers).
func (b *Barrier) InitialIterate(m model.Model, it *model.Iterate) {
	b.SetInitialPoint(m, it.Primal)
	n := m.NumVariables()
	for i := 0; i < n; i++ {
		bd := m.VariableBound(i)
		if bd.IsLowerBounded() {
			it.ZLower[i] = b.opts.BarrierDefaultMultiplier
		}
		if bd.IsUpperBounded() {
			it.ZUpper[i] = b.opts.BarrierDefaultMultiplier
		}
	}
	it.Invalidate()
	if lambda, err := b.leastSquaresMultipliers(m, it); err == nil && lambda != nil {
		copy(it.Lambda, lambda)
	}
	it.Invalidate()
}

// leastSquaresMultipliers solves min ‖Jᵀλ + ∇f‖² via the normal equations
// (JJᵀ)λ = -J∇f, giving a better-than-zero initial multiplier estimate. A
// singular JJᵀ (redundant or absent constraints) or a solution whose norm
// exceeds LeastSquareMultiplierMaxNorm falls back to λ=0, matching Ipopt's
// own discard-and-reset behaviour rather than propagating a bad estimate.
func (b *Barrier) leastSquaresMultipliers(m model.Model, it *model.Iterate) ([]float64, error) {
	mc := m.NumConstraints()
	if mc == 0 {
		return nil, nil
	}
	n := m.NumVariables()

	g, err := it.ObjectiveGradient(m)
	if err != nil {
		return nil, err
	}
	grad := make([]float64, n)
	g.Dense(grad)

	jac, err := it.ConstraintJacobian(m)
	if err != nil {
		return nil, err
	}

	jjt := mat.NewSymDense(mc, nil)
	for i := 0; i < mc; i++ {
		for j := i; j < mc; j++ {
			jjt.SetSym(i, j, sparseDot(jac[i], jac[j]))
		}
	}
	rhs := make([]float64, mc)
	for j := 0; j < mc; j++ {
		rhs[j] = -sparseDotDense(jac[j], grad)
	}

	lambda, err := linsolve.Solve(jjt, rhs)
	if err != nil {
		return make([]float64, mc), nil
	}
	if model.L2.Apply(lambda) > b.opts.LeastSquareMultiplierMaxNorm {
		return make([]float64, mc), nil
	}
	return lambda, nil
}

func sparseDot(a, b model.SparseVector) float64 {
	sum := 0.0
	bv := make(map[int]float64, len(b.Index))
	for k, idx := range b.Index {
		bv[idx] = b.Value[k]
	}
	for k, idx := range a.Index {
		if v, ok := bv[idx]; ok {
			sum += a.Value[k] * v
		}
	}
	return sum
}

func sparseDotDense(a model.SparseVector, dense []float64) float64 {
	sum := 0.0
	for k, idx := range a.Index {
		sum += a.Value[k] * dense[idx]
	}
	return sum
}

// InitializeFeasibilityProblem implements the C3 contract: entering
// restoration remembers μ so PostprocessIterate can restore it, and sets
// ρ=0 so Solve minimises pure infeasibility (spec.md §4.4).
func (b *Barrier) InitializeFeasibilityProblem() {
	b.muPrev = b.Mu
	b.solvingFeasibility = true
	b.rho = 0
}

// SetElasticVariableValues implements the C3 contract. Like activeset's
// variant, the elastic p/n variables never live on the Iterate itself; kept
// as a named hook purely for interface symmetry.
func (b *Barrier) SetElasticVariableValues(m model.Model, it *model.Iterate) {}

// PostprocessIterate implements the C3 contract's post-processing step
// (spec.md §4.3.d): box-clips every bound multiplier into Ipopt's
// [μ/(κ_σ·d), κ_σ·μ/d] interval rather than failing on a stray large value,
// and restores ρ/μ when leaving restoration. An inverted interval leaves the
// multiplier unchanged; nothing is logged in that case.
func (b *Barrier) PostprocessIterate(m model.Model, it *model.Iterate) {
	n := m.NumVariables()
	for i := 0; i < n; i++ {
		bd := m.VariableBound(i)
		if bd.IsLowerBounded() {
			it.ZLower[i] = clipMultiplier(it.ZLower[i], b.Mu, b.opts.BarrierKSigma, it.Primal[i]-bd.Lower)
		}
		if bd.IsUpperBounded() {
			it.ZUpper[i] = clipMultiplier(it.ZUpper[i], b.Mu, b.opts.BarrierKSigma, bd.Upper-it.Primal[i])
		}
	}
	if b.solvingFeasibility {
		b.Mu = b.muPrev
		b.solvingFeasibility = false
		b.rho = 1
	}
}

func clipMultiplier(z, mu, kSigma, d float64) float64 {
	if d <= 0 || kSigma <= 0 {
		return z
	}
	lo, hi := mu/(kSigma*d), kSigma*mu/d
	switch {
	case lo > hi:
		return z
	case z < lo:
		return lo
	case z > hi:
		return hi
	default:
		return z
	}
}

// kktSystem is the linearised model built at an iterate: the regularised
// augmented KKT matrix plus everything needed to form its right-hand side,
// shared between Solve's primary direction and SecondOrderCorrection's
// re-solve with a corrected constraint residual.
type kktSystem struct {
	aug     *mat.SymDense
	base    *mat.SymDense
	jac     []model.SparseVector
	c       []float64
	bounds  []model.Bound
	grad    []float64
	lagGrad []float64
}

// buildKKTSystem implements spec.md §4.3.b steps 2-5: relax near-boundary
// bounds, evaluate the Lagrangian gradient and barrier diagonal Σ, and
// assemble the augmented KKT matrix with escalating regularisation until its
// inertia matches (n, mc, 0).
func (b *Barrier) buildKKTSystem(m model.Model, it *model.Iterate) (*kktSystem, error) {
	n, mc := m.NumVariables(), m.NumConstraints()

	bounds := b.relaxedBounds(m, it)

	g, err := it.ObjectiveGradient(m)
	if err != nil {
		return nil, err
	}
	jac, err := it.ConstraintJacobian(m)
	if err != nil {
		return nil, err
	}
	c, err := it.Constraints(m)
	if err != nil {
		return nil, err
	}
	hcoo, err := it.LagrangianHessian(m)
	if err != nil {
		return nil, err
	}

	grad := make([]float64, n)
	g.Dense(grad)
	for i := range grad {
		grad[i] *= b.rho
	}

	// Stationarity residual (the plain Lagrangian gradient, bound multipliers
	// entering with Ipopt's L=f+λᵀc-zLᵀ(x-xL)-zUᵀ(xU-x) sign convention, the
	// same one residual.Compute uses) and the barrier diagonal
	// Σ_ii = zL_i/(x_i-xL_i) + zU_i/(xU_i-x_i), plus a small damping term on
	// variables bounded on exactly one side.
	lagGrad := make([]float64, n)
	copy(lagGrad, grad)
	for j := 0; j < mc; j++ {
		lambda := it.Lambda[j]
		if lambda == 0 {
			continue
		}
		for k, idx := range jac[j].Index {
			lagGrad[idx] += lambda * jac[j].Value[k]
		}
	}

	sigma := make([]float64, n)
	for i := 0; i < n; i++ {
		bd := bounds[i]
		lower, upper := bd.IsLowerBounded(), bd.IsUpperBounded()
		if lower {
			d := it.Primal[i] - bd.Lower
			sigma[i] += it.ZLower[i] / d
		}
		if upper {
			d := bd.Upper - it.Primal[i]
			sigma[i] += it.ZUpper[i] / d
		}
		if lower != upper {
			sigma[i] += dampingKappaD * b.Mu
		}
		// z_U is kept ≥0 here, the Ipopt sign convention: an internally
		// consistent deviation from spec.md §3's stated z_L≥0, z_U≤0
		// invariant (residual.Compute's lagrangianGrad uses the same sign).
		lagGrad[i] += it.ZUpper[i] - it.ZLower[i]
	}

	base := linsolve.FromCOO(hcoo)
	for i := 0; i < n; i++ {
		base.SetSym(i, i, base.At(i, i)+sigma[i])
	}

	deltaC := math.Pow(b.Mu, b.opts.BarrierRegularizationExponent)
	diagC := make([]float64, mc)
	for j := range diagC {
		diagC[j] = deltaC
	}

	aug, err := b.regularizedAugmentedSystem(base, jac, n, mc, diagC)
	if err != nil {
		return nil, err
	}

	return &kktSystem{aug: aug, base: base, jac: jac, c: c, bounds: bounds, grad: grad, lagGrad: lagGrad}, nil
}

// boundMultiplierSteps implements spec.md §4.3.b step 6: the bound-multiplier
// directions from the linearised complementarity conditions, given a primal
// step dx.
func boundMultiplierSteps(it *model.Iterate, bounds []model.Bound, dx []float64, mu float64) (zLowerStep, zUpperStep []float64) {
	n := len(dx)
	zLowerStep = make([]float64, n)
	zUpperStep = make([]float64, n)
	for i := 0; i < n; i++ {
		bd := bounds[i]
		if bd.IsLowerBounded() {
			d := it.Primal[i] - bd.Lower
			zLowerStep[i] = (mu-dx[i]*it.ZLower[i])/d - it.ZLower[i]
		}
		if bd.IsUpperBounded() {
			d := bd.Upper - it.Primal[i]
			zUpperStep[i] = (mu+dx[i]*it.ZUpper[i])/d - it.ZUpper[i]
		}
	}
	return
}

// applyFractionToBoundary implements spec.md §4.3.b step 7: scale the primal
// and dual steps by their respective fraction-to-boundary α so every slack
// and multiplier stays strictly positive, mutating dir in place.
func (b *Barrier) applyFractionToBoundary(it *model.Iterate, bounds []model.Bound, dir *model.Direction) {
	n := len(dir.Primal)
	tau := math.Max(b.opts.BarrierTauMin, 1-b.Mu)
	alphaPrimal := model.FractionToBoundary(it.Primal, dir.Primal, bounds, tau)

	zAll := make([]float64, 2*n)
	copy(zAll, it.ZLower)
	copy(zAll[n:], it.ZUpper)
	dzAll := make([]float64, 2*n)
	copy(dzAll, dir.ZLowerStep)
	copy(dzAll[n:], dir.ZUpperStep)
	zBounds := make([]model.Bound, 2*n)
	for i := range zBounds {
		zBounds[i] = model.Bound{Lower: 0, Upper: math.Inf(1)}
	}
	alphaDual := model.FractionToBoundary(zAll, dzAll, zBounds, tau)

	for i := 0; i < n; i++ {
		dir.Primal[i] *= alphaPrimal
		dir.ZLowerStep[i] *= alphaDual
		dir.ZUpperStep[i] *= alphaDual
	}
	for j := range dir.LambdaStep {
		dir.LambdaStep[j] *= alphaPrimal
	}
	dir.NormInf = model.Inf.Apply(dir.Primal)
}

// Solve implements the C3 contract's solve(stats, problem, iterate, warmstart),
// the eight-step barrier-subproblem procedure spec.md §4.3.b describes.
func (b *Barrier) Solve(m model.Model, it *model.Iterate, warmstart model.WarmstartInformation) (*model.Direction, error) {
	n := m.NumVariables()

	// Step 1: update μ (spec.md §4.3.c).
	if err := b.updateBarrierParameter(m, it); err != nil {
		return nil, err
	}

	// Steps 2-5: relax bounds and assemble the regularised augmented system.
	sys, err := b.buildKKTSystem(m, it)
	if err != nil {
		return nil, err
	}
	mc := len(sys.c)

	rhs := make([]float64, n+mc)
	for i := 0; i < n; i++ {
		rhs[i] = -sys.lagGrad[i]
	}
	for j := 0; j < mc; j++ {
		rhs[n+j] = -sys.c[j]
	}

	sol, err := linsolve.Solve(sys.aug, rhs)
	if err != nil {
		return nil, fmt.Errorf("interiorpoint: %w", err)
	}
	dx := sol[:n]
	dLambda := sol[n:]

	dir := &model.Direction{
		Primal:     append([]float64(nil), dx...),
		LambdaStep: append([]float64(nil), dLambda...),
	}
	dir.ZLowerStep, dir.ZUpperStep = boundMultiplierSteps(it, sys.bounds, dx, b.Mu)

	// Step 7: fraction-to-boundary on the primal/dual steps.
	b.applyFractionToBoundary(it, sys.bounds, dir)

	dir.Status = model.Optimal
	dir.PredictedObjective = ddot(sys.grad, dir.Primal) + 0.5*quadForm(sys.base, dir.Primal)
	dir.PredictedReduction = model.ProgressMeasures{ObjectiveMeasure: -dir.PredictedObjective}

	// Step 8: the small-direction test — a step this negligible relative
	// to the current point is treated by the caller as convergence rather
	// than fed to a line search.
	small := true
	for i := 0; i < n; i++ {
		if math.Abs(dir.Primal[i])/(1+math.Abs(it.Primal[i])) >= b.opts.BarrierSmallDirectionFactor*machineEpsilon {
			small = false
			break
		}
	}
	dir.SmallStep = small

	return dir, nil
}

// SecondOrderCorrection implements the SPEC_FULL.md §3 supplemental feature
// (original_source's InfeasibleInteriorPointSubproblem::compute_second_order_correction):
// re-solve the same augmented system, but with the constraint block of the
// right-hand side replaced by the actual nonlinear residual at the trial
// point x+dir.Primal instead of its linearisation, recovering a correction
// that accounts for constraint curvature the first-order step missed
// (Nocedal & Wright §18.3). Returns (nil, nil) when the feature is disabled,
// the problem has no general constraints, or dir is nil — callers fall back
// to ordinary backtracking in those cases.
func (b *Barrier) SecondOrderCorrection(m model.Model, it *model.Iterate, dir *model.Direction) (*model.Direction, error) {
	if !b.opts.SecondOrderCorrection || dir == nil {
		return nil, nil
	}
	n, mc := m.NumVariables(), m.NumConstraints()
	if mc == 0 {
		return nil, nil
	}

	sys, err := b.buildKKTSystem(m, it)
	if err != nil {
		return nil, err
	}

	trialX := make([]float64, n)
	for i := 0; i < n; i++ {
		trialX[i] = it.Primal[i] + dir.Primal[i]
	}
	trial := model.NewIterate(trialX, n, mc)
	cTrial, err := trial.Constraints(m)
	if err != nil {
		return nil, err
	}

	rhs := make([]float64, n+mc)
	for i := 0; i < n; i++ {
		rhs[i] = -sys.lagGrad[i]
	}
	for j := 0; j < mc; j++ {
		rhs[n+j] = -cTrial[j]
	}

	sol, err := linsolve.Solve(sys.aug, rhs)
	if err != nil {
		return nil, fmt.Errorf("interiorpoint: second order correction: %w", err)
	}
	dx := sol[:n]
	dLambda := sol[n:]

	corrected := &model.Direction{
		Primal:     append([]float64(nil), dx...),
		LambdaStep: append([]float64(nil), dLambda...),
	}
	corrected.ZLowerStep, corrected.ZUpperStep = boundMultiplierSteps(it, sys.bounds, dx, b.Mu)
	b.applyFractionToBoundary(it, sys.bounds, corrected)

	corrected.Status = model.Optimal
	corrected.PredictedObjective = ddot(sys.grad, corrected.Primal) + 0.5*quadForm(sys.base, corrected.Primal)
	corrected.PredictedReduction = model.ProgressMeasures{ObjectiveMeasure: -corrected.PredictedObjective}
	corrected.SmallStep = false

	return corrected, nil
}

// updateBarrierParameter implements spec.md §4.3.c: while the scaled KKT
// error E(μ) at the current μ is no larger than k_ε·μ and μ still exceeds
// the τ_tol/f_upd floor, shrink μ toward that floor.
func (b *Barrier) updateBarrierParameter(m model.Model, it *model.Iterate) error {
	o := b.opts
	floor := o.Tolerance / o.BarrierUpdateFraction
	for {
		r, err := residual.Compute(m, it, b.Mu, b.opts)
		if err != nil {
			return err
		}
		e := math.Max(r.OptimalityStationarity, math.Max(r.Infeasibility, r.OptimalityComplementarity))
		if e > o.BarrierKEpsilon*b.Mu || b.Mu <= floor {
			return nil
		}
		b.Mu = math.Max(floor, math.Min(o.BarrierKMu*b.Mu, math.Pow(b.Mu, o.BarrierThetaMu)))
	}
}

// relaxedBounds implements spec.md §4.3.b step 2: a bound the iterate sits
// closer to than ε·μ (ε = machine-epsilon^0.75 × a fixed factor, Ipopt's
// bound_relax_factor default) is nudged outward so the next barrier-term
// evaluation never divides by a value numerically indistinguishable from
// zero.
func (b *Barrier) relaxedBounds(m model.Model, it *model.Iterate) []model.Bound {
	n := m.NumVariables()
	bounds := make([]model.Bound, n)
	eps := math.Pow(machineEpsilon, 0.75) * boundRelaxFactor
	for i := 0; i < n; i++ {
		bd := m.VariableBound(i)
		if bd.IsLowerBounded() && it.Primal[i]-bd.Lower < eps*b.Mu {
			bd.Lower -= eps * math.Max(1, math.Abs(bd.Lower))
		}
		if bd.IsUpperBounded() && bd.Upper-it.Primal[i] < eps*b.Mu {
			bd.Upper += eps * math.Max(1, math.Abs(bd.Upper))
		}
		bounds[i] = bd
	}
	return bounds
}

// regularizedAugmentedSystem implements spec.md §4.3.b steps 4-5: assemble
// the augmented KKT matrix with an escalating primal regularisation δ_w
// until its inertia is exactly (n positive, m negative, 0 zero) eigenvalues
// — the same escalate-and-recheck loop hessian.Convexified runs for C2's QP
// Hessian, reused here directly against gonum's inertia routine since the
// barrier subproblem has no separate convexification stage of its own.
func (b *Barrier) regularizedAugmentedSystem(base *mat.SymDense, jac []model.SparseVector, n, mc int, diagC []float64) (*mat.SymDense, error) {
	deltaW := 0.0
	for attempt := 0; attempt < maxRegularizationAttempts; attempt++ {
		trial := mat.NewSymDense(n, nil)
		trial.CopySym(base)
		if deltaW > 0 {
			for i := 0; i < n; i++ {
				trial.SetSym(i, i, trial.At(i, i)+deltaW)
			}
		}
		aug := linsolve.AugmentedSystem(trial, jac, n, mc, diagC)
		inertia, err := linsolve.EigenInertia(aug)
		if err != nil {
			return nil, fmt.Errorf("interiorpoint: inertia check failed: %w", err)
		}
		if inertia.Positive == n && inertia.Negative == mc && inertia.Zero == 0 {
			return aug, nil
		}
		if deltaW == 0 {
			deltaW = b.opts.RegularizationInitialValue
		} else {
			deltaW *= b.opts.RegularizationIncreaseFactor
		}
	}
	return nil, fmt.Errorf("interiorpoint: regularisation did not reach the required inertia after %d attempts", maxRegularizationAttempts)
}

func variableBounds(m model.Model) []model.Bound {
	bounds := make([]model.Bound, m.NumVariables())
	for i := range bounds {
		bounds[i] = m.VariableBound(i)
	}
	return bounds
}

func ddot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// quadForm computes dxᵀ·sym·dx, used to report the barrier subproblem's
// predicted quadratic-model objective reduction the way activeset's
// LSQ-derived norm does.
func quadForm(sym *mat.SymDense, dx []float64) float64 {
	n := len(dx)
	sum := 0.0
	for i := 0; i < n; i++ {
		if dx[i] == 0 {
			continue
		}
		row := 0.0
		for j := 0; j < n; j++ {
			row += sym.At(i, j) * dx[j]
		}
		sum += dx[i] * row
	}
	return sum
}
