// Package planerr holds the error sentinels shared by every stage of model
// building. Callers match them with errors.Is; the wrapping error carries the
// offending slot, bed or rule.
package planerr

import "errors"

// ErrInterval is returned when a cultivation interval ends before it starts.
var ErrInterval = errors.New("invalid interval")

// ErrConfiguration is returned when input data or rule definitions are
// inconsistent with each other. It is always raised before any solver call.
var ErrConfiguration = errors.New("configuration error")
