// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

// Package features turns an application's metadata into the fixed-length
// vector the threat model was trained on.
//
// The index layout below is schema version 1. Any change to it invalidates
// trained models and must bump SchemaVersion.
//
//	index 0        system flag (1/0)
//	index 1        debuggable flag (1/0)
//	index 2        number of declared permissions
//	index 3        target API level / TargetSDKDivisor
//	index 4        (first install time ms / InstallTimeScale) mod InstallTimePeriod
//	index 10..24   one-hot per entry of SensitivePermissions
//	all others     0 (reserved)
package features

// SchemaVersion identifies the index layout produced by Encode.
const SchemaVersion = 1

// Length is the number of features in a Vector.
const Length = 172

// Schema indices.
const (
	IndexSystem           = 0
	IndexDebuggable       = 1
	IndexPermissionCount  = 2
	IndexTargetSDK        = 3
	IndexInstallTime      = 4
	IndexSensitiveOffset  = 10
	sensitiveIndexCeiling = 59
)

// MaxSensitivePermissions caps the one-hot block so it never runs past index 59.
const MaxSensitivePermissions = sensitiveIndexCeiling - IndexSensitiveOffset

const (
	// TargetSDKDivisor normalises the target API level.
	TargetSDKDivisor float32 = 35.0

	// InstallTimeScale converts install time in milliseconds to the model's unit.
	InstallTimeScale float32 = 1e9

	// InstallTimePeriod bounds the install time feature.
	InstallTimePeriod = 1000.0
)

// SensitivePermissions is the ordered list of permissions one-hot encoded at
// IndexSensitiveOffset onwards. Order is part of the schema.
var SensitivePermissions = []string{
	"android.permission.CAMERA",
	"android.permission.RECORD_AUDIO",
	"android.permission.ACCESS_FINE_LOCATION",
	"android.permission.ACCESS_COARSE_LOCATION",
	"android.permission.READ_CONTACTS",
	"android.permission.WRITE_CONTACTS",
	"android.permission.SEND_SMS",
	"android.permission.RECEIVE_SMS",
	"android.permission.READ_SMS",
	"android.permission.CALL_PHONE",
	"android.permission.READ_PHONE_STATE",
	"android.permission.READ_EXTERNAL_STORAGE",
	"android.permission.WRITE_EXTERNAL_STORAGE",
	"android.permission.INTERNET",
	"android.permission.ACCESS_NETWORK_STATE",
}

// SensitiveIndex returns the vector index of a sensitive permission, or -1.
func SensitiveIndex(perm string) int {
	for i, p := range SensitivePermissions {
		if i >= MaxSensitivePermissions {
			break
		}
		if p == perm {
			return IndexSensitiveOffset + i
		}
	}
	return -1
}
