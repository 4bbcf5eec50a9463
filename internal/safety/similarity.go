package safety

import "math"

// CosineSimilarity returns ok=false when the vectors cannot be compared:
// different lengths, empty, or either has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, false
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// clamp rounding drift
	return math.Max(-1, math.Min(1, sim)), true
}
