// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

// Package inventory supplies the list of installed applications and their
// metadata to the scanner.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/appguard/internal/models"
)

// ErrMetadataUnavailable is returned by Describe when a package's metadata
// cannot be read. Scanning continues with an empty descriptor.
var ErrMetadataUnavailable = errors.New("app metadata unavailable")

// EnumerationError reports that the installed application list could not
// be obtained. It aborts one scan cycle, never the service.
type EnumerationError struct {
	Source string
	Err    error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate apps from %s: %v", e.Source, e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// Source lists installed applications.
type Source interface {
	// Enumerate returns every installed application.
	Enumerate(ctx context.Context) ([]models.AppDescriptor, error)

	// Describe returns fresh metadata for one package, or an error wrapping
	// ErrMetadataUnavailable.
	Describe(ctx context.Context, packageName string) (*models.AppDescriptor, error)
}

// MemorySource is a Source backed by a map. It is safe for concurrent use.
type MemorySource struct {
	mu   sync.RWMutex
	apps map[string]models.AppDescriptor

	enumErr error
}

// NewMemorySource creates a source holding apps.
func NewMemorySource(apps ...models.AppDescriptor) *MemorySource {
	s := &MemorySource{apps: make(map[string]models.AppDescriptor, len(apps))}
	for _, app := range apps {
		s.apps[app.PackageName] = app
	}
	return s
}

// Put adds or replaces an application.
func (s *MemorySource) Put(app models.AppDescriptor) {
	s.mu.Lock()
	s.apps[app.PackageName] = app
	s.mu.Unlock()
}

// Remove deletes an application.
func (s *MemorySource) Remove(packageName string) {
	s.mu.Lock()
	delete(s.apps, packageName)
	s.mu.Unlock()
}

// SetEnumerateError makes Enumerate fail with err until cleared with nil.
func (s *MemorySource) SetEnumerateError(err error) {
	s.mu.Lock()
	s.enumErr = err
	s.mu.Unlock()
}

// Enumerate implements Source. Apps are returned sorted by package name.
func (s *MemorySource) Enumerate(ctx context.Context) ([]models.AppDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.enumErr != nil {
		return nil, &EnumerationError{Source: "memory", Err: s.enumErr}
	}

	apps := make([]models.AppDescriptor, 0, len(s.apps))
	for _, app := range s.apps {
		apps = append(apps, cloneApp(app))
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].PackageName < apps[j].PackageName })
	return apps, nil
}

// Describe implements Source.
func (s *MemorySource) Describe(ctx context.Context, packageName string) (*models.AppDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[packageName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMetadataUnavailable, packageName)
	}
	app = cloneApp(app)
	return &app, nil
}

func cloneApp(app models.AppDescriptor) models.AppDescriptor {
	if app.Permissions != nil {
		app.Permissions = append([]string(nil), app.Permissions...)
	}
	return app
}
