// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import "math"

// ProjectToBounds clips x[i] into [b[i].Lower, b[i].Upper] in place, the same
// initial-projection idiom lbfgsb.projInitActive uses before the main loop
// starts: "project the initial X to the feasible set if necessary". Returns
// true if any coordinate moved.
func ProjectToBounds(x []float64, b []Bound) bool {
	moved := false
	for i, bi := range b {
		switch {
		case bi.IsLowerBounded() && x[i] < bi.Lower:
			x[i] = bi.Lower
			moved = true
		case bi.IsUpperBounded() && x[i] > bi.Upper:
			x[i] = bi.Upper
			moved = true
		}
	}
	return moved
}

// ProjectedGradientNormInf computes ‖proj(g)‖∞ where proj clips the gradient
// component toward the bound it would otherwise walk past, mirroring
// lbfgsb.projGradNorm's convention: a component pointing further into an
// already-active bound is truncated to the remaining room before the bound,
// not zeroed outright.
func ProjectedGradientNormInf(x, g []float64, b []Bound) float64 {
	norm := 0.0
	for i, bi := range b {
		gi := g[i]
		switch {
		case gi < 0 && bi.IsUpperBounded():
			gi = math.Max(x[i]-bi.Upper, gi)
		case gi > 0 && bi.IsLowerBounded():
			gi = math.Min(x[i]-bi.Lower, gi)
		}
		if a := math.Abs(gi); a > norm {
			norm = a
		}
	}
	return norm
}

// FractionToBoundary computes the largest step length in (0, 1] such that
// x + step*d stays within tau of every finite bound b, the fraction-to-boundary
// rule the interior-point subproblem (C3.b) uses to keep slacks strictly
// positive (spec.md §4.3.b). tau is typically Options.BarrierTauMin.
func FractionToBoundary(x, d []float64, b []Bound, tau float64) float64 {
	step := 1.0
	for i, bi := range b {
		if d[i] < 0 && bi.IsLowerBounded() {
			margin := tau * (x[i] - bi.Lower)
			if room := -d[i]; room > 0 {
				if s := margin / room; s < step {
					step = s
				}
			}
		} else if d[i] > 0 && bi.IsUpperBounded() {
			margin := tau * (bi.Upper - x[i])
			if room := d[i]; room > 0 {
				if s := margin / room; s < step {
					step = s
				}
			}
		}
	}
	if step < 0 {
		step = 0
	}
	return step
}

// PushToInterior pushes x[i] strictly inside its finite bounds, matching
// original_source's push_variable_to_interior (SPEC_FULL.md §3). A variable
// bounded on both sides keeps a margin of min(k1*max(1,|lower|), k2*range)
// from each bound; a variable bounded on exactly one side keeps a margin of
// k1*max(1,|bound|) from that bound. Variables free on both sides are left
// untouched.
func PushToInterior(x []float64, b []Bound, k1, k2 float64) {
	for i, bi := range b {
		switch {
		case bi.IsLowerBounded() && bi.IsUpperBounded():
			rng := bi.Upper - bi.Lower
			margin := math.Min(k1*math.Max(1, math.Abs(bi.Lower)), k2*rng)
			if x[i] < bi.Lower+margin {
				x[i] = bi.Lower + margin
			}
			if x[i] > bi.Upper-margin {
				x[i] = bi.Upper - margin
			}
		case bi.IsLowerBounded():
			margin := k1 * math.Max(1, math.Abs(bi.Lower))
			if x[i] < bi.Lower+margin {
				x[i] = bi.Lower + margin
			}
		case bi.IsUpperBounded():
			margin := k1 * math.Max(1, math.Abs(bi.Upper))
			if x[i] > bi.Upper-margin {
				x[i] = bi.Upper - margin
			}
		}
	}
}
