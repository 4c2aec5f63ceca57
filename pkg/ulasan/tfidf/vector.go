package tfidf

import "math"

// Vector is a sparse feature vector. Indices are strictly increasing and
// every stored value is positive.
type Vector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// NNZ returns the number of stored entries.
func (v Vector) NNZ() int { return len(v.Indices) }

// IsZero reports whether the vector has no weight.
func (v Vector) IsZero() bool { return len(v.Indices) == 0 }

// Get returns the weight at index i (0 when absent).
func (v Vector) Get(i int) float64 {
	lo, hi := 0, len(v.Indices)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case v.Indices[mid] == i:
			return v.Values[mid]
		case v.Indices[mid] < i:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0
}

// Norm returns the Euclidean norm.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Dense expands the vector to a slice of length Dim.
func (v Vector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for k, i := range v.Indices {
		out[i] = v.Values[k]
	}
	return out
}
