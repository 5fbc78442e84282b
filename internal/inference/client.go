// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

// Package inference loads the threat model and scores feature vectors.
package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/appguard/internal/features"
	"github.com/tomtom215/appguard/internal/logging"
	"github.com/tomtom215/appguard/internal/metrics"
)

// Config controls the client's circuit breaker.
type Config struct {
	// BreakerFailureThreshold is the number of consecutive failed inferences
	// that opens the breaker. Default: 5
	BreakerFailureThreshold uint32

	// BreakerTimeout is how long the breaker stays open before a probe.
	// Default: 60s
	BreakerTimeout time.Duration

	// BreakerInterval clears failure counts while closed. Zero never clears.
	BreakerInterval time.Duration

	// BreakerMaxRequests is the number of probes allowed while half-open.
	// Default: 1
	BreakerMaxRequests uint32
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BreakerFailureThreshold: 5,
		BreakerTimeout:          60 * time.Second,
		BreakerMaxRequests:      1,
	}
}

// Info describes the loaded model.
type Info struct {
	Loaded        bool   `json:"loaded"`
	Format        string `json:"format,omitempty"`
	Version       int    `json:"version,omitempty"`
	FeatureSchema int    `json:"feature_schema"`
	InputName     string `json:"input_name,omitempty"`
	Output        string `json:"output,omitempty"`
	LoadError     string `json:"load_error,omitempty"`
	BreakerState  string `json:"breaker_state,omitempty"`
}

// Client scores feature vectors with one shared model instance.
// Inference calls are serialised; the zero value is not usable.
type Client struct {
	session Session
	info    Info
	breaker *gobreaker.CircuitBreaker[Output]

	// mu allows a single inference in flight.
	mu sync.Mutex

	loadErr error
}

// Load parses modelBytes and returns a ready client, or a *ModelLoadError.
func Load(modelBytes []byte, cfg Config) (*Client, error) {
	artifact, err := ParseArtifact(modelBytes)
	if err != nil {
		metrics.SetModelLoaded(false)
		return nil, err
	}

	info := Info{
		Loaded:        true,
		Format:        artifact.Format,
		Version:       artifact.Version,
		FeatureSchema: artifact.FeatureSchema,
		InputName:     artifact.InputName,
		Output:        artifact.Output,
	}
	client := NewClient(NewLinearSession(artifact), info, cfg)

	logging.Info().
		Str("format", info.Format).
		Str("output", info.Output).
		Int("feature_schema", info.FeatureSchema).
		Int("weights", len(artifact.Weights)).
		Msg("Threat model loaded")
	return client, nil
}

// NewClient wraps an already constructed session, for runtimes other than
// the bundled linear one.
func NewClient(session Session, info Info, cfg Config) *Client {
	if info.InputName == "" {
		info.InputName = DefaultInputName
	}
	if info.FeatureSchema == 0 {
		info.FeatureSchema = features.SchemaVersion
	}
	info.Loaded = true

	metrics.SetModelLoaded(true)
	return &Client{
		session: session,
		info:    info,
		breaker: newBreaker(cfg),
	}
}

// Degraded returns a client without a model. Every Score call fails with
// ErrModelUnavailable; the process keeps running and simply produces no verdicts.
func Degraded(cause error) *Client {
	info := Info{FeatureSchema: features.SchemaVersion}
	if cause != nil {
		info.LoadError = cause.Error()
	}
	metrics.SetModelLoaded(false)
	return &Client{info: info, loadErr: cause}
}

func newBreaker(cfg Config) *gobreaker.CircuitBreaker[Output] {
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = 5
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 60 * time.Second
	}
	if cfg.BreakerMaxRequests == 0 {
		cfg.BreakerMaxRequests = 1
	}

	settings := gobreaker.Settings{
		Name:        "threat-model",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// A canceled scan says nothing about the model's health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.InferenceBreakerState.Set(float64(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Inference circuit breaker state changed")
		},
	}
	return gobreaker.NewCircuitBreaker[Output](settings)
}

// Available reports whether a model is loaded.
func (c *Client) Available() bool {
	return c.session != nil
}

// Info returns a description of the loaded model and breaker state.
func (c *Client) Info() Info {
	info := c.info
	if c.breaker != nil {
		info.BreakerState = c.breaker.State().String()
	}
	return info
}

// Score runs the model on v and returns the first element of its output as
// the confidence score. Unknown output encodings yield ErrUnsupportedOutputShape,
// never a zero score.
func (c *Client) Score(ctx context.Context, v features.Vector) (float32, error) {
	if c.session == nil {
		if c.loadErr != nil {
			return 0, fmt.Errorf("%w: %v", ErrModelUnavailable, c.loadErr)
		}
		return 0, ErrModelUnavailable
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (Output, error) {
		c.mu.Lock()
		defer c.mu.Unlock()

		raw, err := c.session.Run(ctx, c.info.InputName, []int64{1, features.Length}, v.Slice())
		if err != nil {
			return nil, fmt.Errorf("run model: %w", err)
		}
		return DecodeOutput(raw)
	})
	duration := time.Since(start)

	if err != nil {
		metrics.RecordInference(failureResult(err), duration)
		return 0, err
	}

	metrics.RecordInference(out.Kind(), duration)
	return out.Scalar(), nil
}

func failureResult(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedOutputShape):
		return "unsupported_shape"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	default:
		return "failed"
	}
}
