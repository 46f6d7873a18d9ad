package models

import (
	"fmt"
	"strings"
)

// LinearUnit is the linear unit of a coordinate system or of a measure.
type LinearUnit string

const (
	Meter        LinearUnit = "meter"
	Foot         LinearUnit = "foot"
	USSurveyFoot LinearUnit = "us_survey_foot"
	Kilometer    LinearUnit = "kilometer"
	Mile         LinearUnit = "mile"
)

var metersPerUnit = map[LinearUnit]float64{
	Meter:        1,
	Foot:         0.3048,
	USSurveyFoot: 1200.0 / 3937.0,
	Kilometer:    1000,
	Mile:         1609.344,
}

// MetersPer returns the number of meters in one unit.
func (u LinearUnit) MetersPer() (float64, error) {
	m, ok := metersPerUnit[u]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedLinearUnit, string(u))
	}
	return m, nil
}

// Convert converts v expressed in unit `from` into unit `to`.
func Convert(v float64, from, to LinearUnit) (float64, error) {
	if from == to {
		if _, err := from.MetersPer(); err != nil {
			return 0, err
		}
		return v, nil
	}
	f, err := from.MetersPer()
	if err != nil {
		return 0, err
	}
	t, err := to.MetersPer()
	if err != nil {
		return 0, err
	}
	return v * f / t, nil
}

// ParseLinearUnit accepts the spellings used by ESRI projection files and by
// the tool parameters ("Meter", "m", "Foot_US", "ft", "km", ...).
func ParseLinearUnit(s string) (LinearUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "meter", "meters", "metre", "metres":
		return Meter, nil
	case "ft", "foot", "feet", "international_foot", "foot_international":
		return Foot, nil
	case "us_survey_foot", "foot_us", "us survey foot", "us_foot", "ftus":
		return USSurveyFoot, nil
	case "km", "kilometer", "kilometers", "kilometre":
		return Kilometer, nil
	case "mi", "mile", "miles", "statute_mile":
		return Mile, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLinearUnit, s)
}
