package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/gymtrack/internal/models"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := mustProfile(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, UserInfo{ID: p.ID, Login: p.Login, DisplayName: p.DisplayName})
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	p, ok := mustProfile(w, r)
	if !ok {
		return
	}
	plans, err := s.db.GetUserPlans(r.Context(), p.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if plans == nil {
		plans = []models.WorkoutPlan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	p, ok := mustProfile(w, r)
	if !ok {
		return
	}
	var in models.WorkoutPlanInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	in.UserID = p.ID

	plan, err := s.db.CreatePlan(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	plan, err := s.db.GetPlan(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	p, ok := mustProfile(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var plan models.WorkoutPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	plan.ID = id
	plan.UserID = p.ID

	updated, err := s.db.UpdatePlan(r.Context(), &plan)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	p, ok := mustProfile(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := s.db.DeletePlan(r.Context(), id, p.ID); err != nil {
		writeError(w, err)
		return
	}
	// An active plan that was just deleted must not stay selected.
	if active, err := s.led.ActivePlan(); err == nil && active != nil && *active == id {
		if err := s.led.ClearActivePlan(); err != nil {
			s.log.Warn("clearing active plan failed", "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	// Activating a plan that does not exist is a 404, not a silent success.
	if _, err := s.db.GetPlan(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	if err := s.led.SetActivePlan(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active_plan_id": id.String()})
}

func (s *Server) handleDeactivatePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.led.ClearActivePlan(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetActivePlan(w http.ResponseWriter, r *http.Request) {
	id, err := s.led.ActivePlan()
	if err != nil {
		writeError(w, err)
		return
	}
	if id == nil {
		writeJSON(w, http.StatusOK, map[string]any{"active_plan_id": nil})
		return
	}
	plan, err := s.db.GetPlan(r.Context(), *id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleDayExercises(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	exercises, err := s.db.GetExercisesForDay(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	p, ok := mustProfile(w, r)
	if !ok {
		return
	}
	var in models.ExerciseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	in.UserID = p.ID

	ex, err := s.db.CreateExercise(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	ex, err := s.db.GetExercise(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	p, ok := mustProfile(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var ex models.Exercise
	if err := json.NewDecoder(r.Body).Decode(&ex); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	ex.ID = id
	ex.UserID = p.ID

	updated, err := s.db.UpdateExercise(r.Context(), &ex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	p, ok := mustProfile(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := s.db.DeleteExercise(r.Context(), id, p.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses: validation 400,
// not found 404, wrong-state 409, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case models.IsValidation(err):
		status = http.StatusBadRequest
	case models.IsNotFound(err):
		status = http.StatusNotFound
	case models.IsStateError(err):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
