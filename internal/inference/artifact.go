// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package inference

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/appguard/internal/features"
)

// ArtifactFormat is the only model format the bundled runtime executes.
const ArtifactFormat = "appguard-linear"

// ArtifactVersion is the current artifact layout version.
const ArtifactVersion = 1

// DefaultInputName is the input tensor name the model was exported with.
const DefaultInputName = "float_input"

// Artifact is the serialized form of a logistic threat model.
//
//	{"format":"appguard-linear","version":1,"feature_schema":1,
//	 "input_name":"float_input","input_shape":[1,172],
//	 "weights":[...],"bias":-1.5,"output":"label"}
type Artifact struct {
	Format        string    `json:"format"`
	Version       int       `json:"version"`
	FeatureSchema int       `json:"feature_schema"`
	InputName     string    `json:"input_name"`
	InputShape    []int64   `json:"input_shape"`
	Weights       []float64 `json:"weights"`
	Bias          float64   `json:"bias"`
	Output        string    `json:"output"`
}

// ParseArtifact decodes and validates model bytes.
func ParseArtifact(modelBytes []byte) (*Artifact, error) {
	if len(bytes.TrimSpace(modelBytes)) == 0 {
		return nil, loadError("empty model artifact", nil)
	}

	var a Artifact
	if err := json.Unmarshal(modelBytes, &a); err != nil {
		return nil, loadError("malformed model artifact", err)
	}

	if a.InputName == "" {
		a.InputName = DefaultInputName
	}
	if len(a.InputShape) == 0 {
		a.InputShape = []int64{1, features.Length}
	}

	if err := a.validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

func (a *Artifact) validate() error {
	if a.Format != ArtifactFormat {
		return loadError(fmt.Sprintf("unsupported format %q", a.Format), nil)
	}
	if a.Version != ArtifactVersion {
		return loadError(fmt.Sprintf("unsupported artifact version %d", a.Version), nil)
	}
	if a.FeatureSchema != features.SchemaVersion {
		return loadError(fmt.Sprintf("feature schema %d does not match encoder schema %d",
			a.FeatureSchema, features.SchemaVersion), nil)
	}
	if len(a.InputShape) != 2 || a.InputShape[0] != 1 || a.InputShape[1] != features.Length {
		return loadError(fmt.Sprintf("input shape %v, want [1 %d]", a.InputShape, features.Length), nil)
	}
	if len(a.Weights) == 0 {
		return loadError("model has no weights", nil)
	}
	if len(a.Weights) > features.Length {
		return loadError(fmt.Sprintf("model has %d weights, at most %d supported",
			len(a.Weights), features.Length), nil)
	}
	switch a.Output {
	case KindLabel, KindBoxedLabel, KindProbability:
	default:
		return loadError(fmt.Sprintf("unsupported output kind %q", a.Output), nil)
	}
	return nil
}
