// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Layer names a child supervisor of the tree.
type Layer string

const (
	// LayerData holds event store maintenance.
	LayerData Layer = "data-layer"
	// LayerScan holds the scan coordinator and the WebSocket hub.
	LayerScan Layer = "scan-layer"
	// LayerAPI holds the HTTP server.
	LayerAPI Layer = "api-layer"
)

// layerOrder is the order layers are added to the root, and so the order
// suture starts them.
var layerOrder = []Layer{LayerData, LayerScan, LayerAPI}

// TreeConfig tunes restart behaviour. Zero fields take DefaultTreeConfig.
type TreeConfig struct {
	// FailureThreshold is the failure count that puts a layer into backoff.
	FailureThreshold float64

	// FailureDecay is the failure half-life in seconds.
	FailureDecay float64

	// FailureBackoff is how long a layer waits once the threshold is hit.
	FailureBackoff time.Duration

	// ShutdownTimeout bounds how long each service gets to stop. Set it
	// above the scan timeout so an in-flight scan can finish.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's built-in defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) spec() suture.Spec {
	return suture.Spec{
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// SupervisorTree is the AppGuard process tree:
//
//	appguard
//	├── data-layer
//	├── scan-layer
//	└── api-layer
//
// Layers restart independently. A crashing scanner does not drop API
// clients, and an HTTP server that cannot bind does not stop scanning.
type SupervisorTree struct {
	root   *suture.Supervisor
	layers map[Layer]*suture.Supervisor
	config TreeConfig
}

// NewSupervisorTree builds the tree. Supervisor events are written to
// logger, or slog.Default when nil.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	config = config.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	rootSpec := config.spec()
	rootSpec.EventHook = (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &SupervisorTree{
		root:   suture.New("appguard", rootSpec),
		layers: make(map[Layer]*suture.Supervisor, len(layerOrder)),
		config: config,
	}
	// Layers inherit the root's event hook.
	for _, layer := range layerOrder {
		sup := suture.New(string(layer), config.spec())
		t.root.Add(sup)
		t.layers[layer] = sup
	}
	return t, nil
}

// Config returns the configuration after defaults were applied.
func (t *SupervisorTree) Config() TreeConfig {
	return t.config
}

// Add supervises svc in layer.
func (t *SupervisorTree) Add(layer Layer, svc suture.Service) (suture.ServiceToken, error) {
	sup, ok := t.layers[layer]
	if !ok {
		return suture.ServiceToken{}, fmt.Errorf("unknown supervisor layer %q", layer)
	}
	return sup.Add(svc), nil
}

// Remove stops the service behind token and waits up to timeout for it.
func (t *SupervisorTree) Remove(layer Layer, token suture.ServiceToken, timeout time.Duration) error {
	sup, ok := t.layers[layer]
	if !ok {
		return fmt.Errorf("unknown supervisor layer %q", layer)
	}
	return sup.RemoveAndWait(token, timeout)
}

// AddDataService adds svc to the data layer.
func (t *SupervisorTree) AddDataService(svc suture.Service) suture.ServiceToken {
	return t.layers[LayerData].Add(svc)
}

// AddScanService adds svc to the scan layer.
func (t *SupervisorTree) AddScanService(svc suture.Service) suture.ServiceToken {
	return t.layers[LayerScan].Add(svc)
}

// AddAPIService adds svc to the API layer.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.layers[LayerAPI].Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The channel receives the
// result of Serve.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that outlived ShutdownTimeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
