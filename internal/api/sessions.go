package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MikeSquared-Agency/agriform/internal/dialogue"
	"github.com/MikeSquared-Agency/agriform/internal/store"
)

const (
	defaultRecordLimit = 50
	maxRecordLimit     = 500
)

type startRequest struct {
	Language string `json:"language"`
}

type answerRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

type sessionView struct {
	*dialogue.Session
	InputEnabled bool `json:"input_enabled"`
}

type startResponse struct {
	Session sessionView    `json:"session"`
	Reply   dialogue.Reply `json:"reply"`
}

func view(sess *dialogue.Session) sessionView {
	return sessionView{Session: sess, InputEnabled: sess.InputEnabled()}
}

// listLanguages handles GET /api/v1/languages
func (s *Server) listLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"languages": s.languages.Languages()})
}

// startSession handles POST /api/v1/sessions
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	sess, reply, err := s.dialogue.Start(req.Language)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SaveSession(r.Context(), sess); err != nil {
		s.logger.Error("failed to save session", "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}

	writeJSON(w, http.StatusCreated, startResponse{Session: view(sess), Reply: reply})
}

// getSession handles GET /api/v1/sessions/{id}
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(sess))
}

// submitAnswer handles POST /api/v1/sessions/{id}/answers
func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if !s.claim(id) {
		writeError(w, http.StatusConflict, dialogue.ErrBusy.Error())
		return
	}
	defer s.unclaim(id)

	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	reply, err := s.dialogue.Submit(r.Context(), sess, req.Text, req.Source)
	if err != nil {
		s.dialogueError(w, err)
		return
	}

	if err := s.store.SaveSession(r.Context(), sess); err != nil {
		s.logger.Error("failed to save session", "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}
	if reply.Completed {
		if recID, err := s.store.WriteRecord(r.Context(), sess); err != nil {
			s.logger.Error("failed to write farm record", "session_id", sess.ID, "error", err)
		} else {
			s.logger.Info("farm record stored", "session_id", sess.ID, "record_id", recID)
		}
	}

	writeJSON(w, http.StatusOK, reply)
}

// retryHandoff handles POST /api/v1/sessions/{id}/handoff
func (s *Server) retryHandoff(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if !s.claim(id) {
		writeError(w, http.StatusConflict, dialogue.ErrBusy.Error())
		return
	}
	defer s.unclaim(id)

	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	reply, err := s.dialogue.Handoff(r.Context(), sess)
	if err != nil {
		s.dialogueError(w, err)
		return
	}
	if err := s.store.SaveSession(r.Context(), sess); err != nil {
		s.logger.Error("failed to save session", "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// listRecords handles GET /api/v1/records
func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecordLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxRecordLimit)
	}

	recs, err := s.store.ListRecords(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list farm records", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	if recs == nil {
		recs = []store.FarmRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs, "count": len(recs)})
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.logger.Error("failed to load session", "error", err)
	writeError(w, http.StatusInternalServerError, "failed to load session")
}

func (s *Server) dialogueError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dialogue.ErrEmptyAnswer):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dialogue.ErrBusy),
		errors.Is(err, dialogue.ErrComplete),
		errors.Is(err, dialogue.ErrHandoffNotPending):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("dialogue step failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
