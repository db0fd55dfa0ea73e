// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package nlpsolve is C7, the driver loop that wires the C1-C6 ingredients
// together into a single Optimizer: pick the Subproblem (C3) and Strategy
// (C5) Options name, wrap them in a Relaxation (C4), drive one Mechanism
// (C6) per outer iteration, and classify the residuals (C1) until a
// terminal status is reached (spec.md §4.7).
package nlpsolve

import (
	"io"
	"os"
	"time"

	"github.com/curioloop/nlpsolve/activeset"
	"github.com/curioloop/nlpsolve/interiorpoint"
	"github.com/curioloop/nlpsolve/mechanism"
	"github.com/curioloop/nlpsolve/model"
	"github.com/curioloop/nlpsolve/numdiff"
	"github.com/curioloop/nlpsolve/relax"
	"github.com/curioloop/nlpsolve/residual"
	"github.com/curioloop/nlpsolve/strategy"
)

// Problem pairs a Model collaborator with the point to start iterating from.
type Problem struct {
	Model   model.Model
	Initial []float64
}

// Optimizer owns the configuration and diagnostic sinks for repeated Solve
// calls; it holds no per-solve state, so one Optimizer can run multiple
// Problems (spec.md §5: no mutable state shared across solves).
type Optimizer struct {
	Options model.Options
	Logger  *model.Logger
	Stats   *model.Statistics
	// StatsOut is where the per-iteration statistics table (spec.md §6) is
	// written; defaults to stdout, separate from Logger.Out (stderr) so a
	// caller can redirect diagnostics independently of the iteration log.
	StatsOut io.Writer
}

// New validates opts and constructs an Optimizer. Configuration errors are
// reported here, never mid-solve (spec.md §7).
func New(opts model.Options) (*Optimizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	stats := model.NewStatistics(opts.StatisticsPrintHeaderEveryIterations)
	declareColumnOrder(stats, opts.StatisticsColumnOrder)

	return &Optimizer{
		Options:  opts,
		Logger:   &model.Logger{Level: model.LogSilent, Out: os.Stderr},
		Stats:    stats,
		StatsOut: os.Stdout,
	}, nil
}

// declareColumnOrder pre-declares statistics columns in the order
// statistics_*_column_order requests (spec.md §6), so later Set/Setf calls
// (which declare idempotently in call order otherwise) preserve the
// requested layout instead of the order iterations happen to touch them in.
func declareColumnOrder(stats *model.Statistics, order map[string]int) {
	if len(order) == 0 {
		return
	}
	names := make([]string, len(order))
	for name, idx := range order {
		if idx >= 0 && idx < len(names) {
			names[idx] = name
		}
	}
	for _, name := range names {
		if name != "" {
			stats.AddColumn(name)
		}
	}
}

// Summary reports why the driver loop stopped and the residuals it stopped
// at (spec.md §4.7, §6).
type Summary struct {
	Status        model.TerminationStatus
	Iterations    int
	Wallclock     time.Duration
	Residuals     model.PrimalDualResiduals
	Infeasibility float64
	Objective     float64
}

// Result is the outcome of a Solve call.
type Result struct {
	Solution []float64
	Summary  Summary
}

// Solve runs the C7 driver loop against p and returns the terminal iterate.
func (o *Optimizer) Solve(p Problem) (*Result, error) {
	opts := o.Options
	m := p.Model
	n, mc := m.NumVariables(), m.NumConstraints()

	it := model.NewIterate(p.Initial, n, mc)

	sub := o.newSubproblem(opts)
	sub.SetInitialPoint(m, it.Primal)
	it.SetPrimal(it.Primal)
	sub.InitialIterate(m, it)

	if opts.CheckDerivatives {
		o.checkDerivatives(m, it)
	}

	strat, err := o.newStrategy(opts, m, it)
	if err != nil {
		return nil, err
	}
	relaxation := relax.New(m, sub, strat)
	mech := o.newMechanism(relaxation, opts)

	start := time.Now()
	status := model.NotOptimal
	consecutiveLoose := 0
	var res model.PrimalDualResiduals
	var infeas float64
	iter := 0

	warmstart := model.WarmstartInformation{
		ObjectiveChanged: true, ConstraintsChanged: true,
		ConstraintBoundsChanged: true, VariableBoundsChanged: true, HessianChanged: true,
	}

	for iter = 1; iter <= opts.MaxIterations; iter++ {
		next, mechStatus, err := mech.Step(it, warmstart)
		if err != nil {
			return nil, err
		}
		warmstart = model.NoChanges()
		it = next

		res, err = residual.Compute(m, it, barrierMu(sub), opts)
		if err != nil {
			return nil, err
		}
		c, err := it.Constraints(m)
		if err != nil {
			return nil, err
		}
		infeas = residual.InfeasibilityMeasure(m, c)
		status, consecutiveLoose = residual.Classify(res, infeas, opts, relaxation.Rho, consecutiveLoose)
		if mechStatus.IsTerminal() {
			status = mechStatus
		}

		o.recordStatistics(iter, it, m, res, infeas, status)

		elapsed := time.Since(start)
		timedOut := opts.TimeLimit > 0 && elapsed.Seconds() >= opts.TimeLimit
		if status.IsTerminal() || timedOut {
			if status == model.NotOptimal && timedOut {
				status = model.ExceededTime
			}
			break
		}
	}
	if status == model.NotOptimal {
		status = model.ExceededIterations
	}

	m.PostprocessSolution(it.Primal, status)

	f, err := it.Objective(m)
	if err != nil {
		f = 0
	}

	return &Result{
		Solution: append([]float64(nil), it.Primal...),
		Summary: Summary{
			Status:        status,
			Iterations:    iter,
			Wallclock:     time.Since(start),
			Residuals:     res,
			Infeasibility: infeas,
			Objective:     f,
		},
	}, nil
}

func (o *Optimizer) newSubproblem(opts model.Options) model.Subproblem {
	if opts.Subproblem == model.InteriorPointSubproblem {
		return interiorpoint.New(opts)
	}
	return activeset.New(opts)
}

func (o *Optimizer) newStrategy(opts model.Options, m model.Model, it *model.Iterate) (strategy.Strategy, error) {
	switch opts.GlobalizationStrategy {
	case model.FilterStrategy:
		return strategy.NewFilter(opts), nil
	case model.FunnelStrategy:
		c, err := it.Constraints(m)
		if err != nil {
			return nil, err
		}
		return strategy.NewFunnel(opts, residual.InfeasibilityMeasure(m, c)), nil
	default:
		return strategy.NewL1Merit(opts), nil
	}
}

func (o *Optimizer) newMechanism(r *relax.Relaxation, opts model.Options) mechanism.Mechanism {
	if opts.GlobalizationMechanism == model.LineSearchMechanism {
		return mechanism.NewLineSearch(r, opts)
	}
	return mechanism.NewTrustRegion(r, opts)
}

// barrierMu reads the current interior-point barrier parameter so the
// residual computation can shift complementarity by it (spec.md §4.3.c); 0
// for the active-set variant, which has no barrier term.
func barrierMu(sub model.Subproblem) float64 {
	if b, ok := sub.(*interiorpoint.Barrier); ok {
		return b.Mu
	}
	return 0
}

func (o *Optimizer) recordStatistics(iter int, it *model.Iterate, m model.Model, res model.PrimalDualResiduals, infeas float64, status model.TerminationStatus) {
	s := o.Stats
	f, err := it.Objective(m)
	if err != nil {
		f = 0
	}
	s.Setf("iter", "%d", iter)
	s.Setf("objective", "%.10e", f)
	s.Setf("infeasibility", "%.10e", infeas)
	s.Setf("stationarity", "%.10e", res.OptimalityStationarity)
	s.Setf("complementarity", "%.10e", res.OptimalityComplementarity)
	s.Setf("status", "%s", status)
	out := o.StatsOut
	if out == nil {
		out = io.Discard
	}
	s.PrintCurrentLine(out)
	s.NewLine(iter)
}

// checkDerivatives cross-checks the Model's analytic objective gradient
// against a central finite difference at the initial point, logging a
// warning (never a hard failure, spec.md §7) on mismatch (SPEC_FULL.md §3
// supplemental feature, grounded on numdiff/other_examples' scipy
// _numdiff.py port).
func (o *Optimizer) checkDerivatives(m model.Model, it *model.Iterate) {
	n := len(it.Primal)
	spec := numdiff.ApproxSpec{N: n, M: 1, Method: numdiff.Central, Object: func(x, y []float64) {
		f, err := m.EvaluateObjective(x)
		if err != nil {
			f = 0
		}
		y[0] = f
	}}
	approx := make([]float64, n)
	if err := spec.Diff(it.Primal, approx); err != nil {
		o.Logger.Warning("check_derivatives: %v", err)
		return
	}

	g, err := it.ObjectiveGradient(m)
	if err != nil {
		o.Logger.Warning("check_derivatives: gradient evaluation failed: %v", err)
		return
	}
	analytic := make([]float64, n)
	g.Dense(analytic)

	const mismatchTolerance = 1e-4
	for i := range analytic {
		diff := analytic[i] - approx[i]
		scale := 1.0
		if a := approx[i]; a != 0 {
			scale = a
		}
		if diff/scale > mismatchTolerance || diff/scale < -mismatchTolerance {
			o.Logger.Warning("check_derivatives: gradient[%d] analytic=%.6e finite-diff=%.6e", i, analytic[i], approx[i])
		}
	}
}
