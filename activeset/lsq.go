// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package activeset

import "math"

// LSQ (Least Squares Quadratic programming) solves the problem
//
// minimize ‖ 𝐃¹ᐟ²𝐋ᵀ𝐱 + 𝐃⁻¹ᐟ²𝐋⁻¹𝐠 ‖₂ subject to
//   - 𝐀ⱼ𝐱 + 𝐛ⱼ = 0  (j = 1 ··· mₑ)
//   - 𝐀ⱼ𝐱 + 𝐛ⱼ ≥ 0  (j = mₑ+1 ··· m)
//   - 𝒍ᵢ ≤ 𝐱ᵢ ≤ 𝒖ᵢ (i = 1 ··· n)
//
// where
//   - 𝐋 is an n × n lower triangular matrix with unit diagonal elements
//   - 𝐃 is an n × n diagonal matrix
//   - 𝐠 is an n-vector
//   - 𝐀 is an m × n matrix
//   - 𝐛 is an m-vector
//
// This is the local quadratic model C3.a linearises around the current
// iterate: L/D is the Cholesky factor of the (regularised) Lagrangian
// Hessian, g the objective gradient, A/b the linearised constraint Jacobian
// and violation. LSQ can be solved as an LSEI problem
// 𝚖𝚒𝚗‖ 𝐄𝐱 - 𝐟 ‖₂ subject to 𝐂𝐱 = 𝐝 and 𝐆𝐱 ≥ 𝐡 with:
//   - 𝐄 = 𝐃¹ᐟ²𝐋ᵀ
//   - 𝐟 = -𝐃⁻¹ᐟ²𝐋⁻¹𝐠
//   - 𝐂 = { 𝐀ⱼ: j = 1 ··· mₑ }
//   - 𝐝 = { -𝐛ⱼ: j = 1 ··· mₑ }
//   - 𝐆ⱼ = { 𝐀ⱼ: j = mₑ+1 ··· m }
//   - 𝐡ⱼ = { -𝐛ⱼ: j = mₑ+1 ··· m }
//
// and the bounds are equivalent to inequality constraints 𝐈𝐱 ≥ 𝒍 and -𝐈𝐱 ≥ -𝒖:
//   - 𝐆ⱼ = { 𝐈ⱼ: j = m+1 ··· m+n }
//   - 𝐡ⱼ = { 𝒍ⱼ: j = m+1 ··· m+n }
//   - 𝐆ⱼ = { -𝐈ⱼ: j = m+n ··· m+2n }
//   - 𝐡ⱼ = { -𝒖ⱼ: j = m+n ··· m+2n }
func LSQ(m, meq, n, nl int,
	// l(nl) = 𝐋 + 𝐃
	// g(n) = 𝐠
	// a(m,n) = 𝐀
	// b(m) = 𝐛
	// xl(n), xu(n) = 𝒍, 𝒖
	l, g, a, b, xl, xu []float64,
	// x(n) : solution vector
	// y(m+n+n) : lagrange multiplier (constraints, lower+upper bounds)
	x, y []float64,
	// w, jw : temporary workspace
	w []float64, jw []int,
	maxIter int, infBnd float64) (float64, qpStatus) {

	mineq := m - meq
	m1 := mineq + n + n
	la := max(m, 1)

	var n1, n2, n3 int
	n1 = n + 1
	if (n+1)*n/2+1 == nl {
		n2, n3 = 0, n
	} else {
		n2, n3 = 1, n-1
	}

	e0, f0 := 0, n*n
	c0, d0 := f0+n, (f0+n)+meq*n
	g0, h0 := d0+meq, (d0+meq)+m1*n
	w0 := h0 + m1

	i2, i3, i4 := 0, 0, 0
	for j := 0; j < n3; j++ {
		i := n - j
		diag := math.Sqrt(l[i2])
		dzero(w[i3 : i3+i])
		dcopy(i-n2, l[i2:], 1, w[i3:], n)
		dscal(i-n2, diag, w[i3:], n)
		w[i3] = diag
		w[f0+j] = (g[j] - ddot(j, w[i4:], 1, w[f0:], 1)) / diag
		i2 += i - n2
		i3 += n1
		i4 += n
	}
	if n2 == 1 {
		w[i3] = l[nl-1]
		dzero(w[i4 : i4+n3])
		w[f0+n3] = zero
	}
	dscal(n, -one, w[f0:f0+n], 1)

	if meq > 0 {
		for i := 0; i < meq; i++ {
			dcopy(n, a[i:], la, w[c0+i:], meq)
		}
		dcopy(meq, b, 1, w[d0:], 1)
		dscal(meq, -one, w[d0:], 1)
	}

	if mineq > 0 {
		for i := 0; i < mineq; i++ {
			dcopy(n, a[meq+i:], la, w[g0+i:], m1)
		}
		dcopy(mineq, b[meq:], 1, w[h0:], 1)
		dscal(mineq, -one, w[h0:], 1)
	}

	bnd := mineq
	xl, xu = xl[:n], xu[:n]
	for i, l := range xl {
		if !math.IsNaN(l) && l > -infBnd {
			ip, il := g0+bnd, h0+bnd
			w[il] = l
			w[ip] = zero
			dcopy(n, w[ip:], 0, w[ip:], m1)
			w[ip+m1*i] = one
			bnd++
		}
	}
	for i, u := range xu {
		if !math.IsNaN(u) && u < infBnd {
			ip, il := g0+bnd, h0+bnd
			w[il] = -u
			w[ip] = zero
			dcopy(n, w[ip:], 0, w[ip:], m1)
			w[ip+m1*i] = -one
			bnd++
		}
	}

	nan := (n + n) - (bnd - mineq)
	norm, mode := LSEI(w[c0:d0], w[d0:g0], w[e0:f0], w[f0:c0], w[g0:h0], w[h0:w0], max(1, meq), meq, n, n, m1, m1-nan, n, x, w[w0:], jw, maxIter)

	if mode == HasSolution {
		dcopy(m, w[w0:], 1, y, 1)
		if n3 > 0 {
			y[m] = math.NaN()
			dcopy(n3+n3, y[m:], 0, y[m:], 1)
		}
		for i, l := range xl {
			if !math.IsNaN(l) && l > -infBnd && x[i] < l {
				x[i] = l
			}
		}
		for i, u := range xu {
			if !math.IsNaN(u) && u < infBnd && x[i] > u {
				x[i] = u
			}
		}
	}
	return norm, mode
}
