package server

import (
	"encoding/json"
	"net/http"

	"github.com/meltforce/gymtrack/internal/workout"
)

func (s *Server) handleSessionSnapshot(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustProfile(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleSessionLoad(w http.ResponseWriter, r *http.Request) {
	p, ok := mustProfile(w, r)
	if !ok {
		return
	}
	if err := s.tracker.LoadToday(r.Context(), p.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustProfile(w, r); !ok {
		return
	}
	if err := s.tracker.Start(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleSessionSubmit(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustProfile(w, r); !ok {
		return
	}
	var body struct {
		Sets []workout.SetEntry `json:"sets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.tracker.SubmitCurrent(body.Sets); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleSessionAdvance(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustProfile(w, r); !ok {
		return
	}
	if err := s.tracker.Advance(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleSessionFinish(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustProfile(w, r); !ok {
		return
	}
	if err := s.tracker.Finish(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleSessionSkip(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustProfile(w, r); !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.tracker.Skip(r.Context(), body.Reason); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleSessionCancel(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustProfile(w, r); !ok {
		return
	}
	if err := s.tracker.Cancel(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}
