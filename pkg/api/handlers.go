package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rubiojr/hnsearch/pkg/search"
	"github.com/rubiojr/hnsearch/pkg/session"
	"github.com/rubiojr/hnsearch/pkg/version"
)

// sessionFor resolves the caller's session, writing an error response when
// that fails.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.FromRequest(w, r)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "Session unavailable", err.Error())
		return nil, false
	}
	return sess, true
}

func (s *Server) writeSession(w http.ResponseWriter, sess *session.Session) {
	s.writeJSON(w, http.StatusOK, SessionResponse{
		ID:       sess.ID,
		Snapshot: sess.Controller.Snapshot(),
	})
}

func (s *Server) HandleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	s.writeSession(w, sess)
}

// apply runs op on the caller's session and answers with the resulting
// snapshot.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, failure string, op func(*search.Controller) error) {
	sess, err := s.sessions.Do(w, r, func(sess *session.Session) error {
		return op(sess.Controller)
	})
	switch {
	case err == nil:
		s.writeSession(w, sess)
	case errors.Is(err, search.ErrInvalidState):
		s.writeError(w, http.StatusConflict, "Nothing to dismiss", err.Error())
	case errors.Is(err, session.ErrClosed), errors.Is(err, search.ErrStopped):
		s.writeError(w, http.StatusServiceUnavailable, "Session unavailable", err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, failure, err.Error())
	}
}

// HandleSearch sets the draft term and submits it, as typing then pressing
// the search button would.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	s.apply(w, r, "Search failed", func(ctrl *search.Controller) error {
		if err := ctrl.InputChange(r.Context(), req.Query); err != nil {
			return err
		}
		return ctrl.Submit(r.Context())
	})
}

func (s *Server) HandleMore(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, "Load more failed", func(ctrl *search.Controller) error {
		return ctrl.LoadMore(r.Context())
	})
}

func (s *Server) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid path", "Item id is required")
		return
	}

	s.apply(w, r, "Dismiss failed", func(ctrl *search.Controller) error {
		return ctrl.Dismiss(r.Context(), id)
	})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
		Sessions:  s.sessions.Len(),
	})
}
