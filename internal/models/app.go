// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package models

import "time"

// AppDescriptor is a metadata snapshot of one installed application,
// captured fresh on every scan and never mutated afterwards.
type AppDescriptor struct {
	// PackageName is the unique identifier of the application within a scan cycle.
	PackageName string `json:"package_name" validate:"required,max=255,pkgname"`

	// Name is the display label. Empty labels fall back to PackageName.
	Name string `json:"name" validate:"max=255"`

	// System marks applications installed on the system image.
	System bool `json:"system"`

	// UpdatedSystem marks system applications that received an update.
	UpdatedSystem bool `json:"updated_system"`

	// Debuggable marks applications built with the debuggable flag.
	Debuggable bool `json:"debuggable"`

	// Permissions is the declared permission list in manifest order.
	// Nil means the permission list could not be read.
	Permissions []string `json:"permissions,omitempty" validate:"omitempty,dive,required,max=255"`

	// TargetSDK is the target API level.
	TargetSDK int `json:"target_sdk" validate:"gte=0"`

	// FirstInstallTime is when the application was first installed.
	// The zero value means unknown.
	FirstInstallTime time.Time `json:"first_install_time"`
}

// DisplayName returns Name, or PackageName when no label is known.
func (a *AppDescriptor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.PackageName
}

// IsUserRelevant reports whether the application is scanned: every
// non-system application plus system applications that were updated.
func (a *AppDescriptor) IsUserRelevant() bool {
	return !a.System || a.UpdatedSystem
}
