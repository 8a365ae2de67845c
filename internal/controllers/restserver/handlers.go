package restserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chrissnell/deepcut/internal/profile"
	"github.com/chrissnell/deepcut/internal/storage"
	"github.com/chrissnell/deepcut/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// PostProfiles runs detection over the submitted record
func (h *Handlers) PostProfiles(w http.ResponseWriter, req *http.Request) {
	// Each sample costs at most a few dozen bytes in either encoding
	req.Body = http.MaxBytesReader(w, req.Body, int64(h.controller.restConfig.MaxSamples)*32+4096)

	body := ProfilesRequest{Params: h.defaultParams()}
	if err := h.formatter.DecodeRequest(req, &body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.formatter.WriteError(w, req, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
		return
	}

	if len(body.Pressure) > h.controller.restConfig.MaxSamples {
		h.formatter.WriteError(w, req, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("record has %d samples, limit is %d", len(body.Pressure), h.controller.restConfig.MaxSamples))
		return
	}

	res, err := profile.Detect(body.Pressure, body.Params)
	if err != nil {
		if errors.Is(err, profile.ErrInvalidInput) || errors.Is(err, profile.ErrInvalidParameter) {
			h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
			return
		}
		h.controller.logger.Errorf("profile detection failed: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "profile detection failed")
		return
	}

	h.controller.logger.Debugw("profiles detected",
		"samples", len(body.Pressure),
		"peaks", len(res.Peaks),
		"troughs", len(res.Troughs),
		"segments", len(res.Segments))

	resp := ProfilesResponse{
		Segments: res.Segments,
		Summary:  profile.Summarize(res.Segments, len(body.Pressure)),
	}
	if body.Extrema {
		resp.Peaks = profile.Indices(res.Peaks)
		resp.Troughs = profile.Indices(res.Troughs)
	}

	if body.Deployment != "" && h.controller.Store != nil {
		run := storage.NewRun(body.Deployment, len(body.Pressure), body.Params, res.Segments)
		if err := h.controller.Store.SaveRun(req.Context(), run); err != nil {
			h.controller.logger.Errorf("failed to save run for deployment %s: %v", body.Deployment, err)
			h.formatter.WriteError(w, req, http.StatusInternalServerError, "failed to save run")
			return
		}
		resp.RunID = &run.ID
	}

	h.formatter.WriteResponse(w, req, http.StatusOK, resp)
}

// GetParams returns the server's default detection parameters
func (h *Handlers) GetParams(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, http.StatusOK, h.defaultParams())
}

// GetRun returns one stored run
func (h *Handlers) GetRun(w http.ResponseWriter, req *http.Request) {
	if !h.requireStore(w, req) {
		return
	}

	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := h.controller.Store.GetRun(req.Context(), id)
	if errors.Is(err, storage.ErrRunNotFound) {
		h.formatter.WriteError(w, req, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.controller.logger.Errorf("failed to load run %s: %v", id, err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "failed to load run")
		return
	}

	h.formatter.WriteResponse(w, req, http.StatusOK, run)
}

// ListRuns returns the stored runs, optionally restricted to ?deployment=
func (h *Handlers) ListRuns(w http.ResponseWriter, req *http.Request) {
	if !h.requireStore(w, req) {
		return
	}

	runs, err := h.controller.Store.ListRuns(req.Context(), req.URL.Query().Get("deployment"))
	if err != nil {
		h.controller.logger.Errorf("failed to list runs: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "failed to list runs")
		return
	}

	h.formatter.WriteResponse(w, req, http.StatusOK, RunsResponse{Runs: runs})
}

// GetHealth reports the health of the store backends
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	resp := HealthResponse{Status: "ok", Storage: h.controller.Health.GetAllHealth()}
	status := http.StatusOK
	if !h.controller.Health.AllHealthy() {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	h.formatter.WriteResponse(w, req, status, resp)
}

func (h *Handlers) requireStore(w http.ResponseWriter, req *http.Request) bool {
	if h.controller.Store == nil {
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, "no results store configured")
		return false
	}
	return true
}

// defaultParams returns a copy of the defaults that request decoding may overwrite
func (h *Handlers) defaultParams() profile.Params {
	p := h.controller.Defaults
	p.Peaks = p.Peaks.Clone()
	if p.Troughs != nil {
		t := p.Troughs.Clone()
		p.Troughs = &t
	}
	return p
}
