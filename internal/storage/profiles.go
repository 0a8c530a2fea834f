package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/gymtrack/internal/models"
)

// GetOrCreateProfile finds or creates a profile by login name. Updates
// last_seen and display_name on each call.
func (db *DB) GetOrCreateProfile(ctx context.Context, login, displayName string) (*models.Profile, error) {
	var p models.Profile
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO profiles (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), profiles.display_name)
		RETURNING id, login, display_name, total_workouts, created_at
	`, login, displayName).Scan(&p.ID, &p.Login, &p.DisplayName, &p.TotalWorkouts, &p.CreatedAt)
	if err != nil {
		return nil, &models.PersistenceError{Op: "upserting profile", Err: err}
	}
	return &p, nil
}

// GetWorkoutCount returns the lifetime completed-workout counter for a user.
func (db *DB) GetWorkoutCount(ctx context.Context, userID int) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx,
		`SELECT total_workouts FROM profiles WHERE id = $1`, userID,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, &models.NotFoundError{Kind: "profile", ID: "unknown"}
	}
	if err != nil {
		return 0, &models.PersistenceError{Op: "querying workout count", Err: err}
	}
	return count, nil
}

// SetWorkoutCount stores the lifetime completed-workout counter for a user.
func (db *DB) SetWorkoutCount(ctx context.Context, userID, count int) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE profiles SET total_workouts = $1 WHERE id = $2`, count, userID)
	if err != nil {
		return &models.PersistenceError{Op: "updating workout count", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &models.NotFoundError{Kind: "profile", ID: "unknown"}
	}
	return nil
}
