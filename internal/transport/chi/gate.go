package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jobxpress/creditgate/internal/domain"
	"github.com/jobxpress/creditgate/internal/domain/credits"
)

// StartSession handles POST /v1/gate/sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	sid := s.gate.Start(r.Context(), user.ID)
	view, err := s.gate.State(r.Context(), sid)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/gate/sessions/"+sid)
	writeJSON(w, http.StatusCreated, gateToResponse(view))
}

// GetSession handles GET /v1/gate/sessions/{session}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	view, err := s.gate.State(r.Context(), sid)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gateToResponse(view))
}

// EndSession handles DELETE /v1/gate/sessions/{session}.
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	if err := s.gate.End(r.Context(), sid); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckSession handles POST /v1/gate/sessions/{session}/check.
// The snapshot comes from the caller's own account.
func (s *Server) CheckSession(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	sid, err := pathParam(r, "session")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	view, gated, err := s.gate.CheckUser(r.Context(), sid, user.ID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := gateToResponse(view)
	resp.Gated = &gated
	writeJSON(w, http.StatusOK, resp)
}

// OpenSession handles POST /v1/gate/sessions/{session}/open.
// An optional body carries a snapshot to store; an empty body keeps the current one.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	snap, ok := s.optionalSnapshot(w, r)
	if !ok {
		return
	}

	view, err := s.gate.Open(r.Context(), sid, snap)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gateToResponse(view))
}

// CloseSession handles POST /v1/gate/sessions/{session}/close.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	view, err := s.gate.Close(r.Context(), sid)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gateToResponse(view))
}

// ownedSession resolves the session id and checks it belongs to the caller.
// Sessions of other users are reported as missing.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, _ := UserFromContext(r.Context())
	sid, err := pathParam(r, "session")
	if err != nil {
		s.handleDomainError(w, r, err)
		return "", false
	}
	owner, err := s.gate.Owner(r.Context(), sid)
	if err != nil {
		s.handleDomainError(w, r, err)
		return "", false
	}
	if owner != user.ID {
		s.handleDomainError(w, r, domain.ErrSessionNotFound)
		return "", false
	}
	return sid, true
}

func (s *Server) optionalSnapshot(w http.ResponseWriter, r *http.Request) (*credits.Snapshot, bool) {
	var req SnapshotRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		return nil, true
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	snap, err := snapshotFromRequest(req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return nil, false
	}
	return &snap, true
}
