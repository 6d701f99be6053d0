package dissociate

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/voxelabs/studymap/internal/store"
)

// DefaultTolerance is the spatial matching radius in millimeters applied
// when a location query does not specify one.
const DefaultTolerance = 8.0

// NormalizeTerm canonicalizes raw term text: underscores become spaces,
// surrounding whitespace is trimmed and the result is Unicode case-folded.
// A term that is empty after substitution and trimming is invalid.
func NormalizeTerm(raw string) (string, error) {
	term := strings.ReplaceAll(raw, "_", " ")
	term = strings.TrimSpace(term)
	if term == "" {
		return "", &InvalidInputError{Field: "term", Reason: "term must not be empty"}
	}
	return cases.Fold().String(term), nil
}

// ParseCoordinate parses an "x_y_z" path segment into a point. Each of
// the three components must be a finite real number; signs and decimals
// are accepted.
func ParseCoordinate(raw string) (store.Point, error) {
	parts := strings.Split(raw, "_")
	if len(parts) != 3 {
		return store.Point{}, malformedCoordinate()
	}

	var vals [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return store.Point{}, malformedCoordinate()
		}
		vals[i] = v
	}
	return store.Point{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func malformedCoordinate() *InvalidInputError {
	return &InvalidInputError{
		Field:  "coordinates",
		Reason: "Invalid coordinate format. Use x_y_z format (e.g., '0_-52_26')",
	}
}

// ValidateTolerance checks a spatial tolerance radius. Zero is allowed
// and degenerates to exact coordinate matching.
func ValidateTolerance(mm float64) error {
	if math.IsNaN(mm) || math.IsInf(mm, 0) {
		return &InvalidInputError{Field: "tolerance", Reason: "tolerance must be a finite number of millimeters"}
	}
	if mm < 0 {
		return &InvalidInputError{Field: "tolerance", Reason: "tolerance must not be negative"}
	}
	return nil
}
