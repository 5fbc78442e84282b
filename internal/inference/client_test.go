// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/appguard/internal/features"
)

// modelJSON builds a linear artifact. The first weight is applied to the
// "system app" feature, so a vector with index 0 set scores high.
func modelJSON(output string, weight0, bias float64) []byte {
	weights := make([]string, features.Length)
	for i := range weights {
		weights[i] = "0"
	}
	weights[0] = fmt.Sprintf("%g", weight0)
	return []byte(fmt.Sprintf(
		`{"format":"appguard-linear","version":1,"feature_schema":1,"input_shape":[1,172],"weights":[%s],"bias":%g,"output":%q}`,
		strings.Join(weights, ","), bias, output))
}

func threatVector() features.Vector {
	var v features.Vector
	v[features.IndexSystem] = 1
	return v
}

// fakeSession returns a fixed raw value and counts concurrent calls.
type fakeSession struct {
	raw   any
	err   error
	delay time.Duration

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *fakeSession) Run(ctx context.Context, _ string, _ []int64, _ []float32) (any, error) {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.raw, s.err
}

func TestLoad_OutputKinds(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		wantThreat float32
		wantSafe   float32
	}{
		{"label", KindLabel, 1, 0},
		{"boxed label", KindBoxedLabel, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := Load(modelJSON(tt.output, 10, -5), DefaultConfig())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			got, err := client.Score(context.Background(), threatVector())
			if err != nil {
				t.Fatalf("Score(threat) error = %v", err)
			}
			if got != tt.wantThreat {
				t.Errorf("Score(threat) = %v, want %v", got, tt.wantThreat)
			}

			got, err = client.Score(context.Background(), features.Vector{})
			if err != nil {
				t.Fatalf("Score(safe) error = %v", err)
			}
			if got != tt.wantSafe {
				t.Errorf("Score(safe) = %v, want %v", got, tt.wantSafe)
			}
		})
	}
}

func TestLoad_ProbabilityOutput(t *testing.T) {
	client, err := Load(modelJSON(KindProbability, 0, 0), DefaultConfig())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got, err := client.Score(context.Background(), threatVector())
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	// sigmoid(0) == 0.5
	if got != 0.5 {
		t.Errorf("Score() = %v, want 0.5", got)
	}

	info := client.Info()
	if !info.Loaded || info.Output != KindProbability || info.InputName != DefaultInputName {
		t.Errorf("Info() = %+v", info)
	}
	if info.BreakerState != gobreaker.StateClosed.String() {
		t.Errorf("BreakerState = %q, want closed", info.BreakerState)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		model []byte
	}{
		{"empty", nil},
		{"whitespace", []byte("  \n")},
		{"not json", []byte("onnx-binary-blob")},
		{"wrong format", []byte(`{"format":"onnx","version":1,"feature_schema":1,"weights":[1],"output":"label"}`)},
		{"wrong version", []byte(`{"format":"appguard-linear","version":9,"feature_schema":1,"weights":[1],"output":"label"}`)},
		{"schema mismatch", []byte(`{"format":"appguard-linear","version":1,"feature_schema":2,"weights":[1],"output":"label"}`)},
		{"bad shape", []byte(`{"format":"appguard-linear","version":1,"feature_schema":1,"input_shape":[1,10],"weights":[1],"output":"label"}`)},
		{"no weights", []byte(`{"format":"appguard-linear","version":1,"feature_schema":1,"weights":[],"output":"label"}`)},
		{"unknown output", []byte(`{"format":"appguard-linear","version":1,"feature_schema":1,"weights":[1],"output":"scores"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := Load(tt.model, DefaultConfig())
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if client != nil {
				t.Error("Load() returned a client alongside an error")
			}
			var loadErr *ModelLoadError
			if !errors.As(err, &loadErr) {
				t.Errorf("Load() error = %T, want *ModelLoadError", err)
			}
		})
	}
}

func TestClient_UnsupportedShapeNeverScores(t *testing.T) {
	t.Parallel()

	session := &fakeSession{raw: []float64{0.99}}
	client := NewClient(session, Info{}, DefaultConfig())

	score, err := client.Score(context.Background(), threatVector())
	if !errors.Is(err, ErrUnsupportedOutputShape) {
		t.Fatalf("Score() error = %v, want ErrUnsupportedOutputShape", err)
	}
	if score != 0 {
		t.Errorf("Score() = %v on error, want 0", score)
	}
}

func TestClient_RunError(t *testing.T) {
	t.Parallel()

	runErr := errors.New("runtime exploded")
	client := NewClient(&fakeSession{err: runErr}, Info{}, DefaultConfig())

	_, err := client.Score(context.Background(), threatVector())
	if !errors.Is(err, runErr) {
		t.Fatalf("Score() error = %v, want wrapped runtime error", err)
	}
}

func TestClient_Degraded(t *testing.T) {
	cause := errors.New("model file missing")
	client := Degraded(cause)

	if client.Available() {
		t.Error("Available() = true for degraded client")
	}

	_, err := client.Score(context.Background(), threatVector())
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("Score() error = %v, want ErrModelUnavailable", err)
	}
	if !strings.Contains(err.Error(), "model file missing") {
		t.Errorf("Score() error %q does not carry load cause", err)
	}

	info := client.Info()
	if info.Loaded {
		t.Error("Info().Loaded = true for degraded client")
	}
	if info.LoadError != cause.Error() {
		t.Errorf("Info().LoadError = %q, want %q", info.LoadError, cause.Error())
	}
}

func TestClient_CanceledContext(t *testing.T) {
	t.Parallel()

	session := &fakeSession{raw: []int64{1}}
	client := NewClient(session, Info{}, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Score(ctx, threatVector()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Score() error = %v, want context.Canceled", err)
	}
	if session.calls.Load() != 0 {
		t.Errorf("session called %d times after cancellation", session.calls.Load())
	}
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	session := &fakeSession{raw: "garbage"}
	cfg := Config{
		BreakerFailureThreshold: 3,
		BreakerTimeout:          time.Hour,
		BreakerMaxRequests:      1,
	}
	client := NewClient(session, Info{}, cfg)

	for i := 0; i < 3; i++ {
		if _, err := client.Score(context.Background(), threatVector()); !errors.Is(err, ErrUnsupportedOutputShape) {
			t.Fatalf("call %d: error = %v, want ErrUnsupportedOutputShape", i, err)
		}
	}

	_, err := client.Score(context.Background(), threatVector())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("Score() after threshold error = %v, want ErrOpenState", err)
	}
	if session.calls.Load() != 3 {
		t.Errorf("session calls = %d, want 3 (open breaker must not reach the model)", session.calls.Load())
	}
	if got := client.Info().BreakerState; got != gobreaker.StateOpen.String() {
		t.Errorf("BreakerState = %q, want open", got)
	}
}

func TestClient_SerializesInference(t *testing.T) {
	t.Parallel()

	session := &fakeSession{raw: []int64{0}, delay: 5 * time.Millisecond}
	client := NewClient(session, Info{}, DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.Score(context.Background(), features.Vector{}); err != nil {
				t.Errorf("Score() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := session.maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent inferences = %d, want 1", got)
	}
	if got := session.calls.Load(); got != 8 {
		t.Errorf("session calls = %d, want 8", got)
	}
}
