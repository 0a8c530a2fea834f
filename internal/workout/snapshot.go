package workout

import (
	"github.com/google/uuid"
	"github.com/meltforce/gymtrack/internal/ledger"
	"github.com/meltforce/gymtrack/internal/models"
)

// Snapshot is a read-only view of the tracker for the HTTP layer. Every
// slice and draft is copied out under the tracker's lock, so a snapshot
// stays valid while the session keeps mutating.
type Snapshot struct {
	State           State                `json:"state"`
	Weekday         string               `json:"weekday,omitempty"`
	Date            string               `json:"date,omitempty"`
	Plan            *models.WorkoutPlan  `json:"plan,omitempty"`
	Exercises       []models.Exercise    `json:"exercises"`
	CurrentIndex    int                  `json:"current_index"`
	CurrentExercise *models.Exercise     `json:"current_exercise,omitempty"`
	Drafts          map[uuid.UUID]*Draft `json:"drafts,omitempty"`
	Completed       bool                 `json:"completed"`
	Skipped         ledger.SkipRecord    `json:"skipped"`
}

// Snapshot returns the current session view. Completion flags are read from
// the ledger so the caller sees "already trained today" without a reload.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	exercises := make([]models.Exercise, len(t.exercises))
	copy(exercises, t.exercises)

	snap := Snapshot{
		State:        t.state,
		Weekday:      t.weekday,
		Plan:         t.plan,
		Exercises:    exercises,
		CurrentIndex: t.index,
	}
	if !t.date.IsZero() {
		snap.Date = models.DateKey(t.date)
	}
	if t.state == StateInProgress && t.index < len(t.exercises) {
		ex := t.exercises[t.index]
		snap.CurrentExercise = &ex
		snap.Drafts = copyDrafts(t.drafts)
	}
	if t.plan != nil {
		if done, err := t.led.IsCompleted(t.plan.ID, t.date); err == nil {
			snap.Completed = done
		}
		if rec, err := t.led.IsSkipped(t.plan.ID, t.date); err == nil {
			snap.Skipped = rec
		}
	}
	return snap
}

func copyDrafts(drafts map[uuid.UUID]*Draft) map[uuid.UUID]*Draft {
	out := make(map[uuid.UUID]*Draft, len(drafts))
	for id, d := range drafts {
		out[id] = &Draft{
			SetsPerformed: d.SetsPerformed,
			RepsPerSet:    append([]int(nil), d.RepsPerSet...),
			WeightPerSet:  append([]float64(nil), d.WeightPerSet...),
			NotesPerSet:   append([]string(nil), d.NotesPerSet...),
		}
	}
	return out
}
