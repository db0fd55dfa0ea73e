// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

// Subproblem is the C3 contract both the active-set (activeset.Subproblem)
// and interior-point (interiorpoint.Barrier) variants implement, letting the
// relaxation layer (C4) and mechanisms (C6) hold either one behind a single
// interface without knowing which is in play (spec.md §9 "Polymorphism over
// components").
type Subproblem interface {
	SetTrustRegionRadius(r float64)
	SetInitialPoint(m Model, x0 []float64)
	InitialIterate(m Model, it *Iterate)
	InitializeFeasibilityProblem()
	SetElasticVariableValues(m Model, it *Iterate)
	PostprocessIterate(m Model, it *Iterate)
	Solve(m Model, it *Iterate, warmstart WarmstartInformation) (*Direction, error)
}
