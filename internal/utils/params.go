package utils

import (
	"fmt"
	"net/url"
	"strconv"
)

// ParseFloatParam retrieves an optional float64 value from the URL query.
// A missing key returns ok == false; an invalid value is recorded in fieldErrors.
func ParseFloatParam(params url.Values, key string, fieldErrors map[string][]string) (v float64, ok bool) {
	val := params.Get(key)
	if val == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
		return 0, false
	}
	return f, true
}

// ParseIntParam retrieves an optional int value from the URL query, falling
// back to def when the key is missing or invalid.
func ParseIntParam(params url.Values, key string, def int, fieldErrors map[string][]string) int {
	val := params.Get(key)
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
		return def
	}
	return n
}
