package restserver

import (
	"github.com/google/uuid"

	"github.com/chrissnell/deepcut/internal/profile"
	"github.com/chrissnell/deepcut/internal/storage"
)

// ProfilesRequest is the body of POST /api/v1/profiles. Params fields that are present
// override the server's defaults.
type ProfilesRequest struct {
	Pressure   []float64      `json:"pressure"`
	Params     profile.Params `json:"params"`
	Deployment string         `json:"deployment,omitempty"`
	// Extrema asks for the peak and trough indices in the response
	Extrema bool `json:"extrema,omitempty"`
}

// ProfilesResponse is the reply to POST /api/v1/profiles
type ProfilesResponse struct {
	Segments []profile.Segment `json:"segments"`
	Summary  profile.Summary   `json:"summary"`
	RunID    *uuid.UUID        `json:"run_id,omitempty"`
	Peaks    []int             `json:"peaks,omitempty"`
	Troughs  []int             `json:"troughs,omitempty"`
}

// RunsResponse is the reply to GET /api/v1/runs
type RunsResponse struct {
	Runs []storage.Run `json:"runs"`
}

// HealthResponse is the reply to GET /healthz
type HealthResponse struct {
	Status  string                    `json:"status"`
	Storage map[string]storage.Health `json:"storage,omitempty"`
}
