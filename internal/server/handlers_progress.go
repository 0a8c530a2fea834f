package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/progress"
)

func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	p, ok := mustProfile(w, r)
	if !ok {
		return
	}
	records, err := s.db.GetProgressForUser(r.Context(), p.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []models.ExerciseProgress{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleExerciseProgress(w http.ResponseWriter, r *http.Request) {
	p, ok := mustProfile(w, r)
	if !ok {
		return
	}
	exerciseID, ok := parseID(w, r, "exerciseId")
	if !ok {
		return
	}
	records, err := s.db.GetProgressForExercise(r.Context(), p.ID, exerciseID)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []models.ExerciseProgress{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleExerciseSeries returns the chart payload for one exercise: volume
// and best-set-weight over time plus padded axis bounds.
func (s *Server) handleExerciseSeries(w http.ResponseWriter, r *http.Request) {
	p, ok := mustProfile(w, r)
	if !ok {
		return
	}
	exerciseID, ok := parseID(w, r, "exerciseId")
	if !ok {
		return
	}
	records, err := s.db.GetProgressForExercise(r.Context(), p.ID, exerciseID)
	if err != nil {
		writeError(w, err)
		return
	}

	timestamps := make([]time.Time, 0, len(records))
	for i := range records {
		timestamps = append(timestamps, records[i].CreatedAt)
	}
	windowMin, windowMax := progress.ChartWindow(timestamps)

	writeJSON(w, http.StatusOK, map[string]any{
		"volume":     progress.VolumeSeries(records),
		"max_weight": progress.MaxWeightSeries(records),
		"window": map[string]any{
			"min": windowMin,
			"max": windowMax,
		},
	})
}

// handleStats returns the derived overview: lifetime completion count, the
// top sessions by single-set volume, and the heaviest lift on record.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	p, ok := mustProfile(w, r)
	if !ok {
		return
	}

	n := 3
	if q := r.URL.Query().Get("top"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
			n = parsed
		}
	}

	records, err := s.db.GetProgressForUser(r.Context(), p.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	count, err := s.db.GetWorkoutCount(r.Context(), p.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	top := progress.TopByVolume(records, n)
	if top == nil {
		top = []models.ExerciseProgress{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_workouts": count,
		"top_sessions":   top,
		"heaviest_lift":  progress.HeaviestLift(records),
	})
}
