// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package main

import (
	"fmt"
	"os"

	"github.com/tomtom215/appguard/internal/eventlog"
	"github.com/tomtom215/appguard/internal/inference"
	"github.com/tomtom215/appguard/internal/logging"
)

// loadModel reads and parses the model artifact at path. Failures never
// stop the process: a degraded client is returned and the cause is written
// to the event log so it shows up alongside scan results.
func loadModel(path string, cfg inference.Config, log *eventlog.Log) *inference.Client {
	modelBytes, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err == nil {
		var client *inference.Client
		client, err = inference.Load(modelBytes, cfg)
		if err == nil {
			return client
		}
	} else {
		err = fmt.Errorf("read model %s: %w", path, err)
	}

	logging.Error().Err(err).Str("path", path).Msg("Threat model unavailable, starting degraded")
	log.Append(eventlog.Record{
		AppName:     eventlog.SystemAppName,
		Action:      eventlog.ActionError,
		Description: "Model load failed: " + err.Error(),
	})
	return inference.Degraded(err)
}
