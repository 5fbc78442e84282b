// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package inference

import (
	"context"
	"fmt"
	"math"

	"github.com/tomtom215/appguard/internal/features"
)

// Session runs one inference. The returned value is opaque until passed
// through DecodeOutput. Implementations need not be safe for concurrent
// use; Client serialises calls.
type Session interface {
	Run(ctx context.Context, inputName string, shape []int64, data []float32) (any, error)
}

// LinearSession evaluates a logistic model from an Artifact.
type LinearSession struct {
	inputName string
	weights   [features.Length]float64
	bias      float64
	output    string
}

// NewLinearSession builds a session from a validated artifact.
func NewLinearSession(a *Artifact) *LinearSession {
	s := &LinearSession{
		inputName: a.InputName,
		bias:      a.Bias,
		output:    a.Output,
	}
	copy(s.weights[:], a.Weights)
	return s
}

// Run implements Session.
func (s *LinearSession) Run(ctx context.Context, inputName string, shape []int64, data []float32) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if inputName != s.inputName {
		return nil, fmt.Errorf("unknown input %q, model expects %q", inputName, s.inputName)
	}
	if len(shape) != 2 || shape[0] != 1 || shape[1] != int64(len(data)) || len(data) != features.Length {
		return nil, fmt.Errorf("input shape %v with %d values, want [1 %d]", shape, len(data), features.Length)
	}

	z := s.bias
	for i, x := range data {
		z += s.weights[i] * float64(x)
	}
	p := 1 / (1 + math.Exp(-z))

	var class int64
	if p > 0.5 {
		class = 1
	}

	switch s.output {
	case KindLabel:
		return []int64{class}, nil
	case KindBoxedLabel:
		return []any{class}, nil
	default:
		return []float32{float32(p)}, nil
	}
}
