// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package features

import (
	"math"

	"github.com/tomtom215/appguard/internal/models"
)

// Vector is one encoded application. Its length is fixed by the type.
type Vector [Length]float32

// Slice returns the vector as a slice backed by a copy.
func (v Vector) Slice() []float32 {
	out := make([]float32, Length)
	copy(out, v[:])
	return out
}

// NonZero returns the number of non-zero features.
func (v Vector) NonZero() int {
	n := 0
	for _, f := range v {
		if f != 0 {
			n++
		}
	}
	return n
}

// Encode builds the feature vector for app. It never fails: unknown fields
// encode as 0, and a nil descriptor (metadata unavailable) yields the
// all-zero vector, which the model treats as benign.
func Encode(app *models.AppDescriptor) Vector {
	var v Vector
	if app == nil {
		return v
	}

	v[IndexSystem] = boolFeature(app.System)
	v[IndexDebuggable] = boolFeature(app.Debuggable)
	v[IndexPermissionCount] = float32(len(app.Permissions))
	if app.TargetSDK > 0 {
		v[IndexTargetSDK] = float32(app.TargetSDK) / TargetSDKDivisor
	}
	v[IndexInstallTime] = installTimeFeature(app)

	for _, perm := range app.Permissions {
		if idx := SensitiveIndex(perm); idx >= 0 {
			v[idx] = 1
		}
	}

	return v
}

// Normalize fits raw to Length: shorter input is zero padded on the right,
// longer input is truncated.
func Normalize(raw []float32) Vector {
	var v Vector
	copy(v[:], raw)
	return v
}

func boolFeature(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// installTimeFeature is computed in float32 to reproduce the encoding the
// model was trained against.
func installTimeFeature(app *models.AppDescriptor) float32 {
	if app.FirstInstallTime.IsZero() {
		return 0
	}
	scaled := float32(app.FirstInstallTime.UnixMilli()) / InstallTimeScale
	return float32(math.Mod(float64(scaled), InstallTimePeriod))
}
