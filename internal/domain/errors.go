package domain

import "errors"

// Error kinds shared by every stage of a run. Callers classify failures with
// errors.Is; the wrapped cause carries the detail.
var (
	ErrNetwork    = errors.New("network error")
	ErrParse      = errors.New("parse error")
	ErrFilesystem = errors.New("filesystem error")
	ErrValidation = errors.New("validation error")
)
