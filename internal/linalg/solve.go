// Package linalg provides the small dense least-squares kernel shared by
// the curve fitter and the cross-sectional regressor. The systems are
// tiny (3x3 to 4x4), so normal equations with pivoted elimination are
// solved directly.
package linalg

import (
	"errors"
	"math"
)

// ErrSingular is returned when the normal equations have no usable pivot.
var ErrSingular = errors.New("linalg: singular system")

const pivotTolerance = 1e-12

// LeastSquares solves min over x of |A·x − b|² (+ ridge·|x|² when
// ridge > 0) via the normal equations (Aᵀ·A + ridge·I)·x = Aᵀ·b.
// a is row-major with one row per observation.
func LeastSquares(a [][]float64, b []float64, ridge float64) ([]float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return nil, ErrSingular
	}
	n := len(a[0])
	if len(a) < n && ridge <= 0 {
		return nil, ErrSingular
	}

	// Form AᵀA and Aᵀb.
	ata := make([][]float64, n)
	atb := make([]float64, n)
	for i := range ata {
		ata[i] = make([]float64, n)
	}
	for r, row := range a {
		if len(row) != n {
			return nil, ErrSingular
		}
		for i := 0; i < n; i++ {
			atb[i] += row[i] * b[r]
			for j := i; j < n; j++ {
				ata[i][j] += row[i] * row[j]
			}
		}
	}
	for i := 0; i < n; i++ {
		ata[i][i] += ridge
		for j := 0; j < i; j++ {
			ata[i][j] = ata[j][i]
		}
	}

	return solve(ata, atb)
}

// Residuals returns b − A·x.
func Residuals(a [][]float64, b, x []float64) []float64 {
	out := make([]float64, len(b))
	for r, row := range a {
		fitted := 0.0
		for i, v := range row {
			fitted += v * x[i]
		}
		out[r] = b[r] - fitted
	}
	return out
}

// solve performs in-place Gaussian elimination with partial pivoting on
// the square system m·x = v.
func solve(m [][]float64, v []float64) ([]float64, error) {
	n := len(m)
	for col := 0; col < n; col++ {
		// Pivot: largest magnitude in this column.
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < pivotTolerance {
			return nil, ErrSingular
		}
		if pivot != col {
			m[col], m[pivot] = m[pivot], m[col]
			v[col], v[pivot] = v[pivot], v[col]
		}

		for r := col + 1; r < n; r++ {
			factor := m[r][col] / m[col][col]
			if factor == 0 {
				continue
			}
			for c := col; c < n; c++ {
				m[r][c] -= factor * m[col][c]
			}
			v[r] -= factor * v[col]
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := v[r]
		for c := r + 1; c < n; c++ {
			sum -= m[r][c] * x[c]
		}
		x[r] = sum / m[r][r]
	}
	return x, nil
}
