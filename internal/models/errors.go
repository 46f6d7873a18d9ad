package models

import "errors"

// Error taxonomy shared by the linear-referencing packages. Callers wrap these
// with fmt.Errorf("...: %w") and test them with errors.Is.
var (
	ErrInvalidParameter      = errors.New("invalid parameter")
	ErrDegenerateGeometry    = errors.New("degenerate geometry")
	ErrAmbiguousRoute        = errors.New("ambiguous route")
	ErrAmbiguousRange        = errors.New("ambiguous range")
	ErrNoMatchFound          = errors.New("no match found")
	ErrExternalToolFailure   = errors.New("external tool failure")
	ErrUnsupportedLinearUnit = errors.New("unsupported linear unit")
)
