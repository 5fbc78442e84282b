// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package inventory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/tomtom215/appguard/internal/logging"
	"github.com/tomtom215/appguard/internal/models"
	"github.com/tomtom215/appguard/internal/validation"
)

// Manifest is the on-disk inventory written by the device agent.
//
//	{
//	  "generated_at": "2026-10-15T08:00:00Z",
//	  "apps": [
//	    {"package_name": "com.example.notes", "name": "Notes",
//	     "permissions": ["android.permission.INTERNET"], "target_sdk": 34}
//	  ]
//	}
type Manifest struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Apps        []models.AppDescriptor `json:"apps"`
}

// FileSource reads applications from a JSON manifest. The file is parsed
// again only when its size or modification time changes.
type FileSource struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	size    int64
	apps    []models.AppDescriptor
	index   map[string]int
}

// NewFileSource creates a source for the manifest at path. The file does
// not need to exist yet.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the manifest location.
func (s *FileSource) Path() string {
	return s.path
}

// Enumerate implements Source.
func (s *FileSource) Enumerate(ctx context.Context) ([]models.AppDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	apps, _, err := s.load()
	if err != nil {
		return nil, &EnumerationError{Source: s.path, Err: err}
	}

	out := make([]models.AppDescriptor, len(apps))
	for i := range apps {
		out[i] = cloneApp(apps[i])
	}
	return out, nil
}

// Describe implements Source.
func (s *FileSource) Describe(ctx context.Context, packageName string) (*models.AppDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	apps, index, err := s.load()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMetadataUnavailable, packageName, err)
	}

	i, ok := index[packageName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMetadataUnavailable, packageName)
	}
	app := cloneApp(apps[i])
	return &app, nil
}

func (s *FileSource) load() ([]models.AppDescriptor, map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("stat manifest: %w", err)
	}
	if s.index != nil && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return s.apps, s.index, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, nil, fmt.Errorf("decode manifest: %w", err)
	}

	apps, index := filterValid(manifest.Apps)

	s.apps = apps
	s.index = index
	s.modTime = info.ModTime()
	s.size = info.Size()

	logging.Debug().
		Str("path", s.path).
		Int("apps", len(apps)).
		Int("skipped", len(manifest.Apps)-len(apps)).
		Msg("Inventory manifest loaded")
	return apps, index, nil
}

// maxFieldLen matches the max=255 rules on models.AppDescriptor.
const maxFieldLen = 255

// filterValid keeps every record that can be keyed by package name. Other
// fields that fail validation are neutralised rather than hiding the app
// from the scan. Later duplicates of a package name are dropped.
func filterValid(in []models.AppDescriptor) ([]models.AppDescriptor, map[string]int) {
	apps := make([]models.AppDescriptor, 0, len(in))
	index := make(map[string]int, len(in))

	for i := range in {
		if verr := validation.ValidateStruct(&in[i]); verr != nil {
			if !repair(&in[i], verr) {
				logging.Warn().
					Int("record", i).
					Str("package", in[i].PackageName).
					Str("reason", verr.Error()).
					Msg("Skipping inventory record without a usable package name")
				continue
			}
			logging.Warn().
				Int("record", i).
				Str("package", in[i].PackageName).
				Strs("fields", verr.Fields()).
				Msg("Repaired invalid inventory record")
		}
		if _, dup := index[in[i].PackageName]; dup {
			logging.Warn().
				Str("package", in[i].PackageName).
				Msg("Skipping duplicate inventory record")
			continue
		}
		index[in[i].PackageName] = len(apps)
		apps = append(apps, in[i])
	}
	return apps, index
}

// repair clamps the fields of app that the encoder reads as numbers or shows
// to users. It reports false when the package name itself is invalid, since
// such a record cannot be keyed. Permission strings are kept as declared:
// the encoder counts them all and ignores names it does not know.
func repair(app *models.AppDescriptor, verr validation.Errors) bool {
	if slices.Contains(verr.Fields(), "package_name") {
		return false
	}
	if utf8.RuneCountInString(app.Name) > maxFieldLen {
		app.Name = string([]rune(app.Name)[:maxFieldLen])
	}
	app.TargetSDK = max(app.TargetSDK, 0)
	return true
}
