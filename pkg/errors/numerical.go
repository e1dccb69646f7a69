package errors

import (
	"math"
)

// CheckValues checks if values contain NaN or Inf and returns an error
// naming the offending row if numerical instability is detected.
func CheckValues(operation string, values []float64, index int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, values, index)
		}
	}
	return nil
}

// CheckScalar checks a single scalar value for numerical instability.
func CheckScalar(operation string, value float64, index int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, index)
	}
	return nil
}

// CheckMatrix checks all values in a matrix for numerical instability.
// Only the first offending row is reported.
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols int) error {
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			row[j] = matrix.At(i, j)
		}
		if err := CheckValues(operation, row, i); err != nil {
			return err
		}
	}
	return nil
}

// SafeDivide performs division with protection against division by zero.
// Returns 0 if denominator is zero or close to zero.
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < 1e-10 {
		return 0
	}
	return numerator / denominator
}
