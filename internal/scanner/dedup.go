// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package scanner

import (
	"sort"
	"sync"
)

// DedupSet holds the packages already scored in this process. It only
// grows; a package leaves it only when the process restarts.
type DedupSet struct {
	mu   sync.RWMutex
	pkgs map[string]struct{}
}

// NewDedupSet returns an empty set.
func NewDedupSet() *DedupSet {
	return &DedupSet{pkgs: make(map[string]struct{})}
}

// Contains reports whether pkg was scored.
func (d *DedupSet) Contains(pkg string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.pkgs[pkg]
	return ok
}

// Add records pkg. It reports whether pkg was newly added.
func (d *DedupSet) Add(pkg string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pkgs[pkg]; ok {
		return false
	}
	d.pkgs[pkg] = struct{}{}
	return true
}

// Len returns the number of recorded packages.
func (d *DedupSet) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.pkgs)
}

// Packages returns the recorded packages in sorted order.
func (d *DedupSet) Packages() []string {
	d.mu.RLock()
	out := make([]string, 0, len(d.pkgs))
	for pkg := range d.pkgs {
		out = append(out, pkg)
	}
	d.mu.RUnlock()

	sort.Strings(out)
	return out
}
