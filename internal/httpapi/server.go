// Package httpapi exposes the recorder over a local HTTP control surface:
// REST endpoints for lifecycle and step edits, and a WebSocket stream for
// step notifications. It is bound to loopback by default and carries no
// authentication; it is the seam a capture UI talks to.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/offlinefirst/guidecast/pkg/describe"
	"github.com/offlinefirst/guidecast/pkg/geometry"
	"github.com/offlinefirst/guidecast/pkg/guide"
	"github.com/offlinefirst/guidecast/pkg/notify"
	"github.com/offlinefirst/guidecast/pkg/recorder"
)

// Server wires the recorder and notification bus to HTTP handlers.
type Server struct {
	recorder *recorder.Recorder
	bus      *notify.Bus
	describe *describe.Service
	logger   *slog.Logger
}

// New constructs the control server. The describe service is optional;
// without it the describe endpoint reports 503.
func New(rec *recorder.Recorder, bus *notify.Bus, describeSvc *describe.Service, logger *slog.Logger) (*Server, error) {
	if rec == nil {
		return nil, errors.New("recorder must be provided")
	}
	if bus == nil {
		return nil, errors.New("notification bus must be provided")
	}
	if logger == nil {
		return nil, errors.New("logger must be provided")
	}
	return &Server{recorder: rec, bus: bus, describe: describeSvc, logger: logger}, nil
}

// Handler returns the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("POST /recorder/start", s.handleStart)
	mux.HandleFunc("POST /recorder/pause", s.handlePause)
	mux.HandleFunc("POST /recorder/resume", s.handleResume)
	mux.HandleFunc("POST /recorder/stop", s.handleStop)
	mux.HandleFunc("POST /recorder/discard", s.handleDiscard)
	mux.HandleFunc("GET /recorder/state", s.handleState)

	mux.HandleFunc("GET /steps", s.handleListSteps)
	mux.HandleFunc("PATCH /steps/{id}", s.handlePatchStep)
	mux.HandleFunc("DELETE /steps/{id}", s.handleDeleteStep)
	mux.HandleFunc("POST /steps/reorder", s.handleReorder)
	mux.HandleFunc("POST /steps/note", s.handleAddNote)
	mux.HandleFunc("POST /steps/{id}/describe", s.handleDescribe)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type stateResponse struct {
	State     recorder.State `json:"state"`
	SessionID string         `json:"session_id,omitempty"`
	Steps     int            `json:"steps"`
}

func (s *Server) stateResponse() stateResponse {
	resp := stateResponse{State: s.recorder.State()}
	if session := s.recorder.Session(); session != nil {
		resp.SessionID = session.ID()
		resp.Steps = session.Len()
	}
	return resp
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if _, err := s.recorder.Start(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.stateResponse())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.recorder.Pause(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.stateResponse())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := s.recorder.Resume(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.stateResponse())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if r.Body != nil {
		// An empty body means an untitled guide.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	doc, err := s.recorder.Stop(body.Title)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := s.recorder.Discard(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.stateResponse())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.stateResponse())
}

func (s *Server) handleListSteps(w http.ResponseWriter, r *http.Request) {
	session, ok := s.activeSession(w)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, session.Steps())
}

// patchStepRequest distinguishes absent fields from explicit nulls: a
// crop_region of null resets the step to the full image.
type patchStepRequest struct {
	Note        *string         `json:"note"`
	Description *string         `json:"description"`
	CropRegion  json.RawMessage `json:"crop_region"`
}

func (s *Server) handlePatchStep(w http.ResponseWriter, r *http.Request) {
	session, ok := s.activeSession(w)
	if !ok {
		return
	}
	id, ok := s.stepID(w, r)
	if !ok {
		return
	}

	var body patchStepRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var updated guide.Step
	var err error
	applied := false

	if body.Note != nil {
		updated, err = session.UpdateNote(id, *body.Note)
		if err != nil {
			s.writeError(w, err)
			return
		}
		applied = true
	}
	if body.Description != nil {
		updated, err = session.UpdateDescription(id, *body.Description, "manual")
		if err != nil {
			s.writeError(w, err)
			return
		}
		applied = true
	}
	if len(body.CropRegion) > 0 {
		var region *geometry.BoundsPercent
		if string(body.CropRegion) != "null" {
			region = &geometry.BoundsPercent{}
			if err := json.Unmarshal(body.CropRegion, region); err != nil {
				s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid crop region"})
				return
			}
		}
		updated, err = session.UpdateCrop(id, region)
		if err != nil {
			s.writeError(w, err)
			return
		}
		applied = true
	}

	if !applied {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no editable fields in request"})
		return
	}

	s.bus.Publish(notify.StepUpdatedEvent(updated))
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteStep(w http.ResponseWriter, r *http.Request) {
	session, ok := s.activeSession(w)
	if !ok {
		return
	}
	id, ok := s.stepID(w, r)
	if !ok {
		return
	}
	if err := session.Delete(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.bus.Publish(notify.StepDeletedEvent(id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	session, ok := s.activeSession(w)
	if !ok {
		return
	}

	var body struct {
		IDs []int `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	steps, err := session.Reorder(body.IDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.bus.Publish(notify.StepsReorderedEvent(steps))
	s.writeJSON(w, http.StatusOK, steps)
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	session, ok := s.activeSession(w)
	if !ok {
		return
	}

	var body struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Note == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "note text is required"})
		return
	}

	step, err := session.Append(guide.Step{Action: guide.ActionNote, Note: body.Note})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.bus.Publish(notify.StepCapturedEvent(step))
	s.writeJSON(w, http.StatusCreated, step)
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	if s.describe == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "description backend not configured"})
		return
	}
	session, ok := s.activeSession(w)
	if !ok {
		return
	}
	id, ok := s.stepID(w, r)
	if !ok {
		return
	}

	step, err := s.describe.DescribeStep(r.Context(), session, id)
	if err != nil {
		var notFound *guide.StepNotFoundError
		if errors.As(err, &notFound) {
			s.writeError(w, err)
			return
		}
		// Generation failure: the step carries the error state.
		s.writeJSON(w, http.StatusBadGateway, step)
		return
	}
	s.writeJSON(w, http.StatusOK, step)
}

func (s *Server) activeSession(w http.ResponseWriter) (*guide.Session, bool) {
	session := s.recorder.Session()
	if session == nil {
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: "no active session"})
		return nil, false
	}
	return session, true
}

func (s *Server) stepID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid step id"})
		return 0, false
	}
	return id, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var notFound *guide.StepNotFoundError
	var transition *recorder.TransitionError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &transition):
		status = http.StatusConflict
	case errors.Is(err, guide.ErrInvalidOrder):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response failed", "error", err)
	}
}
