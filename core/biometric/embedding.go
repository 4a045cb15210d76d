package biometric

import (
	"errors"
	"math"

	"github.com/studiumhq/studium/core"
)

var (
	errEmptyEmbedding     = errors.New("face embedding is required")
	errNonFiniteEmbedding = errors.New("face embedding must contain only finite numbers")
)

// Embedding is a fixed-length numeric vector summarizing a detected face,
// produced by the client-side extractor. The same type serves as stored
// template and as login probe.
type Embedding []float64

func (e Embedding) Dim() int { return len(e) }

// Validate rejects empty vectors and vectors carrying NaN/±Inf. A malformed
// embedding is an input error, never a silent no-match.
func (e Embedding) Validate() error {
	if len(e) == 0 {
		return core.NewValidationError(errEmptyEmbedding, core.FieldError{
			Field: "face_embedding", Error: errEmptyEmbedding.Error(),
		})
	}
	for _, x := range e {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return core.NewValidationError(errNonFiniteEmbedding, core.FieldError{
				Field: "face_embedding", Error: errNonFiniteEmbedding.Error(),
			})
		}
	}
	return nil
}

// EuclideanDistance computes sqrt(sum((a[i]-b[i])^2)) in double precision.
// Both vectors must have the same dimensionality; comparability is the
// caller's concern (the matcher skips mismatched pairs).
func EuclideanDistance(a, b Embedding) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
