package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/meltforce/gymtrack/internal/models"
)

// CreateProgress inserts an immutable progress row. Rows are never updated;
// a new logging attempt always creates a new row.
func (db *DB) CreateProgress(ctx context.Context, in *models.ExerciseProgressInput) (*models.ExerciseProgress, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p := &models.ExerciseProgress{
		ID:            uuid.New(),
		UserID:        in.UserID,
		ExerciseID:    in.ExerciseID,
		WorkoutID:     in.WorkoutID,
		DayID:         in.DayID,
		Name:          in.Name,
		SetsPerformed: in.SetsPerformed,
		RepsPerSet:    in.RepsPerSet,
		WeightPerSet:  in.WeightPerSet,
		NotesPerSet:   in.NotesPerSet,
		MaxVolume:     in.MaxVolume,
		SkipReason:    in.SkipReason,
	}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO exercise_progress
		 (id, user_id, exercise_id, workout_id, day_id, name, sets_performed,
		  reps_per_set, weight_per_set, notes_per_set, max_volume, skip_reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''))
		 RETURNING created_at`,
		p.ID, p.UserID, p.ExerciseID, p.WorkoutID, p.DayID, p.Name, p.SetsPerformed,
		p.RepsPerSet, p.WeightPerSet, p.NotesPerSet, p.MaxVolume, p.SkipReason,
	).Scan(&p.CreatedAt)
	if err != nil {
		return nil, &models.PersistenceError{Op: "inserting progress", Err: err}
	}
	return p, nil
}

// GetProgressForUser retrieves all progress rows for a user, oldest first.
func (db *DB) GetProgressForUser(ctx context.Context, userID int) ([]models.ExerciseProgress, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, exercise_id, workout_id, day_id, name, sets_performed,
			reps_per_set, weight_per_set, notes_per_set, max_volume,
			COALESCE(skip_reason, ''), created_at
		 FROM exercise_progress WHERE user_id = $1
		 ORDER BY created_at`, userID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "querying progress", Err: err}
	}
	defer rows.Close()
	return scanProgressRows(rows)
}

// GetProgressForExercise retrieves the logged history of one exercise,
// oldest first.
func (db *DB) GetProgressForExercise(ctx context.Context, userID int, exerciseID uuid.UUID) ([]models.ExerciseProgress, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, exercise_id, workout_id, day_id, name, sets_performed,
			reps_per_set, weight_per_set, notes_per_set, max_volume,
			COALESCE(skip_reason, ''), created_at
		 FROM exercise_progress WHERE user_id = $1 AND exercise_id = $2
		 ORDER BY created_at`, userID, exerciseID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "querying exercise progress", Err: err}
	}
	defer rows.Close()
	return scanProgressRows(rows)
}

func scanProgressRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.ExerciseProgress, error) {
	var out []models.ExerciseProgress
	for rows.Next() {
		var p models.ExerciseProgress
		if err := rows.Scan(&p.ID, &p.UserID, &p.ExerciseID, &p.WorkoutID, &p.DayID,
			&p.Name, &p.SetsPerformed, &p.RepsPerSet, &p.WeightPerSet, &p.NotesPerSet,
			&p.MaxVolume, &p.SkipReason, &p.CreatedAt); err != nil {
			return nil, &models.PersistenceError{Op: "scanning progress", Err: err}
		}
		normalizeProgress(&p)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.PersistenceError{Op: "querying progress", Err: err}
	}
	return out, nil
}

// normalizeProgress repairs legacy rows at the read boundary. Early schema
// versions stored a single scalar rep/weight regardless of sets_performed;
// those come back as one-element arrays. Reps and weights are padded with
// zeros to a common length and sets_performed is made consistent, so every
// row handed to callers satisfies the index-alignment invariant.
func normalizeProgress(p *models.ExerciseProgress) {
	n := p.SetsPerformed
	if len(p.RepsPerSet) > n {
		n = len(p.RepsPerSet)
	}
	if len(p.WeightPerSet) > n {
		n = len(p.WeightPerSet)
	}
	if n == 0 {
		p.RepsPerSet = []int{}
		p.WeightPerSet = []float64{}
		p.SetsPerformed = 0
		if p.NotesPerSet != nil {
			p.NotesPerSet = []string{}
		}
		return
	}
	for len(p.RepsPerSet) < n {
		p.RepsPerSet = append(p.RepsPerSet, 0)
	}
	for len(p.WeightPerSet) < n {
		p.WeightPerSet = append(p.WeightPerSet, 0)
	}
	if p.NotesPerSet != nil {
		for len(p.NotesPerSet) < n {
			p.NotesPerSet = append(p.NotesPerSet, "")
		}
	}
	p.SetsPerformed = n
}
