// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package activeset

// qpStatus is the internal status code returned by the Lawson-Hanson
// least-squares kernels (LSQ/LSEI/LSI/LDP/NNLS/HFTI), matching the outcome
// taxonomy the teacher's SLSQP solver used for its own QP subproblem solve.
type qpStatus int

const (
	// HasSolution: problem solved successfully.
	HasSolution qpStatus = iota
	// BadArgument: evaluation panic or input dimension unacceptable.
	BadArgument
	// NNLSExceedMaxIter: more than max iterations solving NNLS.
	NNLSExceedMaxIter
	// ConsIncompatible: inequality constraints are incompatible.
	ConsIncompatible
	// LSISingularE: matrix E is not of full rank in LSI.
	LSISingularE
	// LSEISingularC: matrix C is not of full rank in LSEI.
	LSEISingularC
	// HFTIRankDefect: rank-deficient equality constraint in HFTI.
	HFTIRankDefect
)

const (
	zero = 0.0
	one  = 1.0
	two  = 2.0
	four = 4.0
	ten  = 10.0
	hun  = 100.0
	eps  = float64(7)/3 - float64(4)/3 - 1.
)
