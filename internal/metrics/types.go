package metrics

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrInvalidValue is returned when a raw value does not parse as a number
	ErrInvalidValue = errors.New("value is not a number")
	// ErrValueNotFinite is returned for NaN and infinite values, which are never persisted
	ErrValueNotFinite = errors.New("value is not a finite number")
)

// Point is a single observation for a namespace+id series.
// Points are append-only and immutable once stored; several points may
// legitimately share the same (namespace, id, timestamp) tuple.
type Point struct {
	Namespace string  `json:"namespace"`
	ID        string  `json:"id"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
}

// Sample is the (timestamp, value) pair returned by range queries,
// ready for direct chart plotting.
type Sample struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// SeriesInfo describes one metric series within a namespace
type SeriesInfo struct {
	ID          string `json:"id"`
	PointCount  int64  `json:"point_count"`
	LastUpdated int64  `json:"last_updated"`
}

// ParseValue parses a raw request value into a finite float64.
// strconv accepts "NaN" and "Inf" spellings, so the finiteness check
// runs after parsing.
func ParseValue(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, raw)
	}
	if err := ValidateValue(v); err != nil {
		return 0, err
	}
	return v, nil
}

// ValidateValue rejects NaN and infinite values
func ValidateValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrValueNotFinite
	}
	return nil
}
