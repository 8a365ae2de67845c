// Package storage defines the results store and its backends.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/deepcut/internal/profile"
)

// ErrRunNotFound is returned when no run has the requested ID
var ErrRunNotFound = errors.New("run not found")

// Store persists detection runs
type Store interface {
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id uuid.UUID) (Run, error)
	// ListRuns returns the runs of one deployment, oldest first. An empty deployment
	// lists every run.
	ListRuns(ctx context.Context, deployment string) ([]Run, error)
	Close() error
}

// Run is one invocation of the detector over a deployment's pressure record
type Run struct {
	ID         uuid.UUID         `json:"id" msgpack:"id"`
	Deployment string            `json:"deployment" msgpack:"deployment"`
	CreatedAt  time.Time         `json:"created_at" msgpack:"created_at"`
	Samples    int               `json:"samples" msgpack:"samples"`
	Params     profile.Params    `json:"params" msgpack:"params"`
	Segments   []profile.Segment `json:"segments" msgpack:"segments"`
}

// NewRun stamps a run with a fresh ID and the current time, truncated to the
// microsecond precision both backends store.
func NewRun(deployment string, samples int, params profile.Params, segments []profile.Segment) Run {
	if segments == nil {
		segments = []profile.Segment{}
	}
	return Run{
		ID:         uuid.New(),
		Deployment: deployment,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
		Samples:    samples,
		Params:     params,
		Segments:   segments,
	}
}

// EncodeRun flattens the structured parts of a run into JSON documents for storage
func EncodeRun(run Run) (params, segments []byte, err error) {
	params, err = json.Marshal(run.Params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode params: %w", err)
	}
	if run.Segments == nil {
		run.Segments = []profile.Segment{}
	}
	segments, err = json.Marshal(run.Segments)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode segments: %w", err)
	}
	return params, segments, nil
}

// DecodeRun restores the structured parts of a run written by EncodeRun
func DecodeRun(run *Run, params, segments []byte) error {
	if err := json.Unmarshal(params, &run.Params); err != nil {
		return fmt.Errorf("failed to decode params: %w", err)
	}
	if err := json.Unmarshal(segments, &run.Segments); err != nil {
		return fmt.Errorf("failed to decode segments: %w", err)
	}
	return nil
}
