package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/gymtrack/internal/models"
)

// CreateExercise inserts an exercise slot at the end of its day's routine.
func (db *DB) CreateExercise(ctx context.Context, in *models.ExerciseInput) (*models.Exercise, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	ex := &models.Exercise{
		ID:           uuid.New(),
		UserID:       in.UserID,
		DayID:        in.DayID,
		Name:         in.Name,
		TargetSets:   in.TargetSets,
		TargetReps:   in.TargetReps,
		TargetWeight: in.TargetWeight,
		Notes:        in.Notes,
	}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (id, user_id, day_id, name, target_sets, target_reps, target_weight, notes, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			COALESCE((SELECT MAX(position) + 1 FROM exercises WHERE day_id = $3), 0))
		 RETURNING position, created_at`,
		ex.ID, ex.UserID, ex.DayID, ex.Name, ex.TargetSets, ex.TargetReps, ex.TargetWeight, ex.Notes,
	).Scan(&ex.Position, &ex.CreatedAt)
	if err != nil {
		return nil, &models.PersistenceError{Op: "inserting exercise", Err: err}
	}
	return ex, nil
}

// UpdateExercise updates the plan targets of an exercise slot. Logged
// progress rows are unaffected; they carry name snapshots.
func (db *DB) UpdateExercise(ctx context.Context, ex *models.Exercise) (*models.Exercise, error) {
	in := &models.ExerciseInput{
		UserID: ex.UserID, DayID: ex.DayID, Name: ex.Name,
		TargetSets: ex.TargetSets, TargetReps: ex.TargetReps,
		TargetWeight: ex.TargetWeight, Notes: ex.Notes,
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tag, err := db.Pool.Exec(ctx,
		`UPDATE exercises
		 SET name = $1, target_sets = $2, target_reps = $3, target_weight = $4, notes = $5
		 WHERE id = $6 AND user_id = $7`,
		ex.Name, ex.TargetSets, ex.TargetReps, ex.TargetWeight, ex.Notes, ex.ID, ex.UserID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "updating exercise", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return nil, &models.NotFoundError{Kind: "exercise", ID: ex.ID.String()}
	}
	return ex, nil
}

// DeleteExercise removes an exercise slot from its day's routine.
func (db *DB) DeleteExercise(ctx context.Context, exerciseID uuid.UUID, userID int) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM exercises WHERE id = $1 AND user_id = $2`, exerciseID, userID)
	if err != nil {
		return &models.PersistenceError{Op: "deleting exercise", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &models.NotFoundError{Kind: "exercise", ID: exerciseID.String()}
	}
	return nil
}

// GetExercise retrieves a single exercise slot.
func (db *DB) GetExercise(ctx context.Context, exerciseID uuid.UUID) (*models.Exercise, error) {
	var ex models.Exercise
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, day_id, name, target_sets, target_reps, target_weight, notes, position, created_at
		 FROM exercises WHERE id = $1`, exerciseID,
	).Scan(&ex.ID, &ex.UserID, &ex.DayID, &ex.Name, &ex.TargetSets, &ex.TargetReps,
		&ex.TargetWeight, &ex.Notes, &ex.Position, &ex.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: "exercise", ID: exerciseID.String()}
	}
	if err != nil {
		return nil, &models.PersistenceError{Op: "querying exercise", Err: err}
	}
	return &ex, nil
}

// GetExercisesForDay retrieves a day's routine in stable order. The order is
// position then created_at, so a session sees the same sequence every time.
func (db *DB) GetExercisesForDay(ctx context.Context, dayID uuid.UUID) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, day_id, name, target_sets, target_reps, target_weight, notes, position, created_at
		 FROM exercises WHERE day_id = $1
		 ORDER BY position, created_at`, dayID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "querying day exercises", Err: err}
	}
	defer rows.Close()

	var out []models.Exercise
	for rows.Next() {
		var ex models.Exercise
		if err := rows.Scan(&ex.ID, &ex.UserID, &ex.DayID, &ex.Name, &ex.TargetSets,
			&ex.TargetReps, &ex.TargetWeight, &ex.Notes, &ex.Position, &ex.CreatedAt); err != nil {
			return nil, &models.PersistenceError{Op: "scanning exercise", Err: err}
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.PersistenceError{Op: "querying day exercises", Err: err}
	}
	return out, nil
}
