// Package aont implements a Cauchy-matrix all-or-nothing transform over
// GF(2^8) (spec.md §2, §9): external storage layers use this to produce
// at-rest envelopes where recovering any single block requires every
// other block. Mixing of the block data itself is secret-dependent and
// always goes through gf256.MulSafe; matrix construction/inversion
// operates on public Cauchy-matrix coefficients and may use the fast
// table-based gf256.Mul (spec.md §9: never use the fast path for
// secret-dependent operations — the data path is the one that matters).
package aont

import (
	"fmt"

	"github.com/duskwire/duskwire/gf256"
)

// cauchyEntry returns the Cauchy-matrix entry for row r, column c:
// 1 / (x_r XOR y_c), with x_r = r and y_c = c+128 (mod 256). For n <= 128
// the two ranges are disjoint and the denominator is never zero; for larger
// n they overlap and some entries are Invert(0) == 0.
func cauchyEntry(r, c int) byte {
	x := byte(r)
	y := byte(c + 128)
	denom := x ^ y
	return gf256.Invert(denom)
}

// buildMatrix returns the n x n Cauchy matrix used to mix n blocks.
func buildMatrix(n int) *gf256.Matrix {
	m := gf256.NewMatrix(n, n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			m.Set(r, c, cauchyEntry(r, c))
		}
	}
	return m
}

// Transform applies the forward AONT to blocks (each the same length):
// out[r] = XOR over c of matrix[r][c] * blocks[c], using the constant-time
// multiply throughout. Panics if blocks is empty or blocks have mismatched
// lengths — both are programmer errors, not recoverable wire conditions.
func Transform(blocks [][]byte) [][]byte {
	n := len(blocks)
	if n == 0 {
		panic("aont: Transform requires at least one block")
	}
	blockLen := len(blocks[0])
	for _, b := range blocks {
		if len(b) != blockLen {
			panic("aont: Transform requires equal-length blocks")
		}
	}

	m := buildMatrix(n)
	out := make([][]byte, n)
	for r := 0; r < n; r++ {
		acc := make([]byte, blockLen)
		for c := 0; c < n; c++ {
			coeff := m.Get(r, c)
			if coeff == 0 {
				continue
			}
			mulSafeRowAdd(acc, blocks[c], coeff)
		}
		out[r] = acc
	}
	return out
}

// Invert reverses Transform: given the n transformed blocks, recover the
// originals. Returns an error if blocks is empty or if the matrix cannot be
// inverted for this n (for n <= 128 it is a true Cauchy matrix and always
// invertible; see cauchyEntry for larger n).
func Invert(blocks [][]byte) ([][]byte, error) {
	n := len(blocks)
	if n == 0 {
		return nil, fmt.Errorf("aont: Invert requires at least one block")
	}
	m := buildMatrix(n)
	inv, err := invertMatrix(m)
	if err != nil {
		return nil, fmt.Errorf("aont: %w", err)
	}

	blockLen := len(blocks[0])
	out := make([][]byte, n)
	for r := 0; r < n; r++ {
		acc := make([]byte, blockLen)
		for c := 0; c < n; c++ {
			coeff := inv.Get(r, c)
			if coeff == 0 {
				continue
			}
			mulSafeRowAdd(acc, blocks[c], coeff)
		}
		out[r] = acc
	}
	return out, nil
}

// mulSafeRowAdd computes dest ^= src * factor using the constant-time
// multiply, since this transform always touches key-adjacent material
// (spec.md §9).
func mulSafeRowAdd(dest, src []byte, factor byte) {
	for i, s := range src {
		dest[i] ^= gf256.MulSafe(s, factor)
	}
}

// invertMatrix computes the inverse of an n x n GF(2^8) matrix via
// Gauss-Jordan elimination, augmented with the identity matrix.
func invertMatrix(m *gf256.Matrix) (*gf256.Matrix, error) {
	n := m.Rows()
	if m.Cols() != n {
		return nil, fmt.Errorf("invertMatrix: not square (%dx%d)", m.Rows(), m.Cols())
	}

	work := gf256.NewMatrix(n, 2*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			work.Set(r, c, m.Get(r, c))
		}
		work.Set(r, n+r, 1)
	}

	for col := 0; col < n; col++ {
		pivot := -1
		for r := col; r < n; r++ {
			if work.Get(r, col) != 0 {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			return nil, fmt.Errorf("invertMatrix: singular at column %d", col)
		}
		if pivot != col {
			swapMatrixRows(work, pivot, col)
		}
		inv := gf256.Invert(work.Get(col, col))
		scaleMatrixRow(work, col, inv)
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := work.Get(r, col)
			if factor == 0 {
				continue
			}
			gf256.RowAddScaled(work.Row(r), work.Row(col), factor)
		}
	}

	out := gf256.NewMatrix(n, n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			out.Set(r, c, work.Get(r, n+c))
		}
	}
	return out, nil
}

func swapMatrixRows(m *gf256.Matrix, a, b int) {
	ra, rb := m.Row(a), m.Row(b)
	for i := range ra {
		ra[i], rb[i] = rb[i], ra[i]
	}
}

func scaleMatrixRow(m *gf256.Matrix, r int, factor byte) {
	row := m.Row(r)
	for i := range row {
		row[i] = gf256.Mul(row[i], factor)
	}
}
