// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package inference

import "fmt"

// Output kinds reported in metrics and status.
const (
	KindLabel       = "label"
	KindBoxedLabel  = "boxed_label"
	KindProbability = "probability"
)

// Output is a decoded model result. The set of implementations is closed:
// LabelTensor, BoxedLabelTensor and ProbabilityTensor.
type Output interface {
	// Scalar returns the first element as the confidence score.
	Scalar() float32
	// Kind names the tensor encoding.
	Kind() string

	sealed()
}

// LabelTensor is an int64 class tensor.
type LabelTensor []int64

// BoxedLabelTensor is a tensor of boxed values whose first element is an int64.
type BoxedLabelTensor []any

// ProbabilityTensor is a float32 tensor.
type ProbabilityTensor []float32

func (t LabelTensor) Scalar() float32       { return float32(t[0]) }
func (t BoxedLabelTensor) Scalar() float32  { return float32(t[0].(int64)) }
func (t ProbabilityTensor) Scalar() float32 { return t[0] }

func (LabelTensor) Kind() string       { return KindLabel }
func (BoxedLabelTensor) Kind() string  { return KindBoxedLabel }
func (ProbabilityTensor) Kind() string { return KindProbability }

func (LabelTensor) sealed()       {}
func (BoxedLabelTensor) sealed()  {}
func (ProbabilityTensor) sealed() {}

// DecodeOutput narrows a raw runtime result to one of the known encodings.
// Anything else, including an empty tensor, is ErrUnsupportedOutputShape.
func DecodeOutput(raw any) (Output, error) {
	switch v := raw.(type) {
	case []int64:
		if len(v) > 0 {
			return LabelTensor(v), nil
		}
	case LabelTensor:
		if len(v) > 0 {
			return v, nil
		}
	case []any:
		if len(v) > 0 {
			if _, ok := v[0].(int64); ok {
				return BoxedLabelTensor(v), nil
			}
		}
	case BoxedLabelTensor:
		if len(v) > 0 {
			if _, ok := v[0].(int64); ok {
				return v, nil
			}
		}
	case []float32:
		if len(v) > 0 {
			return ProbabilityTensor(v), nil
		}
	case ProbabilityTensor:
		if len(v) > 0 {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOutputShape, describe(raw))
}

func describe(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "nil"
	case []any:
		if len(v) > 0 {
			return fmt.Sprintf("[]any with leading %T", v[0])
		}
		return "empty []any"
	default:
		return fmt.Sprintf("%T", raw)
	}
}
