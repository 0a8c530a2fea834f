package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is an application user as stored in the profiles table.
type Profile struct {
	ID            int       `json:"id"`
	Login         string    `json:"login"`
	DisplayName   string    `json:"display_name"`
	TotalWorkouts int       `json:"total_workouts"`
	CreatedAt     time.Time `json:"created_at"`
}

// WorkoutPlan is a named training program with a set of scheduled weekdays.
// Days are always stored and returned in canonical Monday-first order with
// no duplicates.
type WorkoutPlan struct {
	ID          uuid.UUID `json:"id"`
	UserID      int       `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Days        []string  `json:"days"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkoutPlanInput is the payload for creating or updating a plan.
type WorkoutPlanInput struct {
	UserID      int      `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Days        []string `json:"days"`
}

// WorkoutDay is one scheduled weekday of a plan. Weekday is unique within
// a plan; rows are provisioned and reconciled by the storage layer, never
// edited directly.
type WorkoutDay struct {
	ID       uuid.UUID `json:"id"`
	PlanID   uuid.UUID `json:"plan_id"`
	Weekday  string    `json:"weekday"`
	Position int       `json:"position"`
}

// Exercise is a planned exercise slot on a workout day. Target sets, reps
// and weight describe the plan; a logged performance is an ExerciseProgress.
type Exercise struct {
	ID           uuid.UUID `json:"id"`
	UserID       int       `json:"user_id"`
	DayID        uuid.UUID `json:"day_id"`
	Name         string    `json:"name"`
	TargetSets   int       `json:"target_sets"`
	TargetReps   int       `json:"target_reps"`
	TargetWeight float64   `json:"target_weight"`
	Notes        string    `json:"notes,omitempty"`
	Position     int       `json:"position"`
	CreatedAt    time.Time `json:"created_at"`
}

// ExerciseInput is the payload for creating or updating an exercise slot.
type ExerciseInput struct {
	UserID       int       `json:"user_id"`
	DayID        uuid.UUID `json:"day_id"`
	Name         string    `json:"name"`
	TargetSets   int       `json:"target_sets"`
	TargetReps   int       `json:"target_reps"`
	TargetWeight float64   `json:"target_weight"`
	Notes        string    `json:"notes,omitempty"`
}

// ExerciseProgress is one logged session entry for an exercise. Rows are
// immutable once written; a new logging attempt always creates a new row.
// The name is a snapshot taken at logging time, not a live reference.
//
// Invariant: len(RepsPerSet) == len(WeightPerSet) == SetsPerformed, and
// len(NotesPerSet) equal when present.
type ExerciseProgress struct {
	ID            uuid.UUID `json:"id"`
	UserID        int       `json:"user_id"`
	ExerciseID    uuid.UUID `json:"exercise_id"`
	WorkoutID     uuid.UUID `json:"workout_id"`
	DayID         uuid.UUID `json:"day_id"`
	Name          string    `json:"name"`
	SetsPerformed int       `json:"sets_performed"`
	RepsPerSet    []int     `json:"reps_per_set"`
	WeightPerSet  []float64 `json:"weight_per_set"`
	NotesPerSet   []string  `json:"notes_per_set,omitempty"`
	MaxVolume     float64   `json:"max_volume"`
	SkipReason    string    `json:"skip_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExerciseProgressInput is the payload for inserting a progress row.
type ExerciseProgressInput struct {
	UserID        int       `json:"user_id"`
	ExerciseID    uuid.UUID `json:"exercise_id"`
	WorkoutID     uuid.UUID `json:"workout_id"`
	DayID         uuid.UUID `json:"day_id"`
	Name          string    `json:"name"`
	SetsPerformed int       `json:"sets_performed"`
	RepsPerSet    []int     `json:"reps_per_set"`
	WeightPerSet  []float64 `json:"weight_per_set"`
	NotesPerSet   []string  `json:"notes_per_set,omitempty"`
	MaxVolume     float64   `json:"max_volume"`
	SkipReason    string    `json:"skip_reason,omitempty"`
}

// Validate checks the index-alignment invariant before a row is persisted.
func (in *ExerciseProgressInput) Validate() error {
	if in.SetsPerformed < 0 {
		return &ValidationError{Field: "sets_performed", Msg: "must not be negative"}
	}
	if len(in.RepsPerSet) != in.SetsPerformed {
		return &ValidationError{Field: "reps_per_set", Msg: "length must equal sets_performed"}
	}
	if len(in.WeightPerSet) != in.SetsPerformed {
		return &ValidationError{Field: "weight_per_set", Msg: "length must equal sets_performed"}
	}
	if len(in.NotesPerSet) != 0 && len(in.NotesPerSet) != in.SetsPerformed {
		return &ValidationError{Field: "notes_per_set", Msg: "length must equal sets_performed when present"}
	}
	return nil
}

// Validate checks a plan input before any storage call.
func (in *WorkoutPlanInput) Validate() error {
	if in.Title == "" {
		return &ValidationError{Field: "title", Msg: "is required"}
	}
	if len(in.Days) == 0 {
		return &ValidationError{Field: "days", Msg: "at least one scheduled day is required"}
	}
	for _, d := range in.Days {
		if !IsWeekday(d) {
			return &ValidationError{Field: "days", Msg: "unknown weekday " + d}
		}
	}
	return nil
}

// Validate checks an exercise input before any storage call.
func (in *ExerciseInput) Validate() error {
	if in.Name == "" {
		return &ValidationError{Field: "name", Msg: "is required"}
	}
	if in.DayID == uuid.Nil {
		return &ValidationError{Field: "day_id", Msg: "is required"}
	}
	if in.TargetSets <= 0 {
		return &ValidationError{Field: "target_sets", Msg: "must be positive"}
	}
	if in.TargetReps <= 0 {
		return &ValidationError{Field: "target_reps", Msg: "must be positive"}
	}
	if in.TargetWeight < 0 {
		return &ValidationError{Field: "target_weight", Msg: "must not be negative"}
	}
	return nil
}
