// Package mat builds gonum dense matrices for covariate data where each row is an
// individual and each column a covariate.
package mat

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoRows      = errors.New("no rows to build matrix from")
	ErrNoCols      = errors.New("rows have no columns")
	ErrColMismatch = errors.New("column size mismatch")
	ErrNonFinite   = errors.New("non-finite value in matrix")
)

// NewDenseFromRows flattens x into a row major dense matrix. Every row must have the
// same non-zero number of columns and only finite values.
func NewDenseFromRows(x [][]float64) (*mat.Dense, error) {
	m := len(x)
	if m == 0 {
		return nil, ErrNoRows
	}

	n := len(x[0])
	if n == 0 {
		return nil, ErrNoCols
	}

	data := make([]float64, 0, m*n)
	for i, row := range x {
		if len(row) != n {
			return nil, fmt.Errorf("at row %d expected %d columns but got %d, %w", i, n, len(row), ErrColMismatch)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("at row %d, col %d, %w", i, j, ErrNonFinite)
			}
		}
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// Rows copies the matrix back into a slice of rows. A nil matrix returns nil.
func Rows(x mat.Matrix) [][]float64 {
	if x == nil {
		return nil
	}
	m, _ := x.Dims()
	rows := make([][]float64, m)
	for i := 0; i < m; i++ {
		rows[i] = mat.Row(nil, i, x)
	}
	return rows
}
