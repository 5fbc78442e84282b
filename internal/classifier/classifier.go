// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

// Package classifier turns a model confidence score into a verdict.
package classifier

// ThreatThreshold is the score above which an application is a threat.
// A score equal to the threshold is not a threat.
const ThreatThreshold float32 = 0.5

// Verdict is the classification of one score.
type Verdict struct {
	IsThreat bool    `json:"is_threat"`
	Score    float32 `json:"score"`
}

// Classify applies ThreatThreshold to score. Scores are not clamped.
func Classify(score float32) Verdict {
	return Verdict{
		IsThreat: score > ThreatThreshold,
		Score:    score,
	}
}

// Label returns "threat" or "safe".
func (v Verdict) Label() string {
	if v.IsThreat {
		return "threat"
	}
	return "safe"
}
