// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package services

import (
	"context"
	"fmt"
)

// StartStopper matches components with a Start/Stop lifecycle that own a
// background goroutine.
//
// Satisfied by:
//   - *scanner.Coordinator
//   - *store.GCLoop
type StartStopper interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

// LoopService adapts a StartStopper to suture's Serve pattern:
//  1. Start(ctx) launches the loop
//  2. Serve blocks until the context is canceled
//  3. Stop() waits for the loop goroutine
//
// A failing Start is returned so suture restarts the service with backoff.
type LoopService struct {
	loop StartStopper
	name string
}

// NewScannerService supervises the scan coordinator. Stop waits for an
// in-flight scan, so the tree's shutdown timeout should cover a scan.
func NewScannerService(coordinator StartStopper) *LoopService {
	return &LoopService{loop: coordinator, name: "scan-coordinator"}
}

// NewStoreGCService supervises the event store's value log GC.
func NewStoreGCService(gc StartStopper) *LoopService {
	return &LoopService{loop: gc, name: "store-gc"}
}

// Serve implements suture.Service.
func (s *LoopService) Serve(ctx context.Context) error {
	if err := s.loop.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()
	s.loop.Stop()

	return ctx.Err()
}

// String implements fmt.Stringer for suture log messages.
func (s *LoopService) String() string {
	return s.name
}
