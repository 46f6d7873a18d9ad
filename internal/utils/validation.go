package utils

import (
	"errors"
	"math"
	"regexp"
)

// Dataset names and route ids: alphanumeric, underscore, hyphen, dot and space.
var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_. -]+$`)

// ValidateID validates that a dataset name or route id is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}

	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

// ValidateMeasureRange checks an optional [min, max] measure filter.
func ValidateMeasureRange(min, max float64, hasMin, hasMax bool) map[string][]string {
	fieldErrors := make(map[string][]string)
	if hasMin && (math.IsNaN(min) || math.IsInf(min, 0)) {
		fieldErrors["minMeasure"] = append(fieldErrors["minMeasure"], "minMeasure must be finite")
	}
	if hasMax && (math.IsNaN(max) || math.IsInf(max, 0)) {
		fieldErrors["maxMeasure"] = append(fieldErrors["maxMeasure"], "maxMeasure must be finite")
	}
	if hasMin && hasMax && min > max {
		fieldErrors["maxMeasure"] = append(fieldErrors["maxMeasure"], "maxMeasure must not be less than minMeasure")
	}
	return fieldErrors
}

// ValidatePage checks pagination parameters.
func ValidatePage(offset, limit, maxLimit int) map[string][]string {
	fieldErrors := make(map[string][]string)
	if offset < 0 {
		fieldErrors["offset"] = append(fieldErrors["offset"], "offset must be non-negative")
	}
	if limit < 1 || limit > maxLimit {
		fieldErrors["limit"] = append(fieldErrors["limit"], "limit must be between 1 and the maximum page size")
	}
	return fieldErrors
}
