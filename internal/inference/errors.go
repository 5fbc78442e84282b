// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedOutputShape is returned when the model output matches
	// none of the known tensor encodings. Such a call never yields a score.
	ErrUnsupportedOutputShape = errors.New("unsupported model output shape")

	// ErrModelUnavailable is returned by a degraded client that has no model.
	ErrModelUnavailable = errors.New("threat model unavailable")
)

// ModelLoadError reports a model artifact that could not be loaded.
// It is fatal to inference but not to the process.
type ModelLoadError struct {
	Reason string
	Err    error
}

func (e *ModelLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load model: %s: %v", e.Reason, e.Err)
	}
	return "load model: " + e.Reason
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

func loadError(reason string, err error) *ModelLoadError {
	return &ModelLoadError{Reason: reason, Err: err}
}
