// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package classifier

import (
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score    float32
		isThreat bool
	}{
		{0, false},
		{0.25, false},
		{0.5, false},
		{math.Nextafter32(0.5, 1), true},
		{0.51, true},
		{1, true},
		{7, true},
		{-3, false},
	}

	for _, tt := range tests {
		v := Classify(tt.score)
		if v.IsThreat != tt.isThreat {
			t.Errorf("Classify(%v).IsThreat = %v, want %v", tt.score, v.IsThreat, tt.isThreat)
		}
		if v.Score != tt.score {
			t.Errorf("Classify(%v).Score = %v, score must pass through unclamped", tt.score, v.Score)
		}
	}
}

func TestVerdictLabel(t *testing.T) {
	t.Parallel()

	if got := Classify(0.9).Label(); got != "threat" {
		t.Errorf("Label() = %q, want threat", got)
	}
	if got := Classify(0.1).Label(); got != "safe" {
		t.Errorf("Label() = %q, want safe", got)
	}
}

func TestThreatThreshold(t *testing.T) {
	t.Parallel()

	if ThreatThreshold != 0.5 {
		t.Errorf("ThreatThreshold = %v, want 0.5", ThreatThreshold)
	}
}
