package utils

import (
	"errors"
	"fmt"
	"math"
)

var ErrEmptyVector = errors.New("vectors cannot be empty")

func dotProduct(vec1, vec2 []float32) (float64, error) {
	if len(vec1) != len(vec2) {
		return 0, fmt.Errorf("vectors must have the same dimension: %d vs %d", len(vec1), len(vec2))
	}
	var product float64
	for i := range vec1 {
		product += float64(vec1[i]) * float64(vec2[i])
	}
	return product, nil
}

func magnitude(vec []float32) float64 {
	var sumOfSquares float64
	for _, val := range vec {
		sumOfSquares += float64(val) * float64(val)
	}
	return math.Sqrt(sumOfSquares)
}

// CosineSimilarity returns a value in [-1, 1]; zero vectors score 0.
func CosineSimilarity(vec1, vec2 []float32) (float32, error) {
	if len(vec1) == 0 || len(vec2) == 0 {
		return 0, ErrEmptyVector
	}
	dot, err := dotProduct(vec1, vec2)
	if err != nil {
		return 0, err
	}
	mag1, mag2 := magnitude(vec1), magnitude(vec2)
	if mag1 == 0 || mag2 == 0 {
		return 0, nil
	}
	return float32(dot / (mag1 * mag2)), nil
}

// L2Normalize returns a unit-length copy of vec. Zero vectors are returned unchanged.
func L2Normalize(vec []float32) []float32 {
	out := make([]float32, len(vec))
	mag := magnitude(vec)
	if mag == 0 {
		copy(out, vec)
		return out
	}
	for i, v := range vec {
		out[i] = float32(float64(v) / mag)
	}
	return out
}

// DistanceToSimilarity converts a cosine distance into a similarity clamped to [0, 1].
func DistanceToSimilarity(distance float64) float64 {
	return math.Max(0, math.Min(1, 1-distance))
}
