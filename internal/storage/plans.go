package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/gymtrack/internal/models"
)

// CreatePlan inserts a workout plan and provisions one workout_day row per
// scheduled weekday. Days are stored in canonical Monday-first order.
func (db *DB) CreatePlan(ctx context.Context, in *models.WorkoutPlanInput) (*models.WorkoutPlan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	days := models.CanonicalDays(in.Days)

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, &models.PersistenceError{Op: "creating plan", Err: err}
	}
	defer tx.Rollback(ctx)

	plan := &models.WorkoutPlan{
		ID:          uuid.New(),
		UserID:      in.UserID,
		Title:       in.Title,
		Description: in.Description,
		Days:        days,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO workout_plans (id, user_id, title, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		plan.ID, plan.UserID, plan.Title, plan.Description,
	).Scan(&plan.CreatedAt)
	if err != nil {
		return nil, &models.PersistenceError{Op: "inserting plan", Err: err}
	}

	for pos, day := range days {
		_, err = tx.Exec(ctx,
			`INSERT INTO workout_days (id, plan_id, weekday, position) VALUES ($1, $2, $3, $4)`,
			uuid.New(), plan.ID, day, pos)
		if err != nil {
			return nil, &models.PersistenceError{Op: "inserting workout day", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &models.PersistenceError{Op: "creating plan", Err: err}
	}
	return plan, nil
}

// UpdatePlan updates a plan's title, description and scheduled days. Day rows
// are diff-reconciled: missing weekdays are inserted, removed weekdays are
// deleted (their exercises cascade away), kept weekdays retain their ids so
// exercise routines survive a reschedule.
func (db *DB) UpdatePlan(ctx context.Context, plan *models.WorkoutPlan) (*models.WorkoutPlan, error) {
	in := &models.WorkoutPlanInput{
		UserID: plan.UserID, Title: plan.Title,
		Description: plan.Description, Days: plan.Days,
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	days := models.CanonicalDays(plan.Days)

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, &models.PersistenceError{Op: "updating plan", Err: err}
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE workout_plans SET title = $1, description = $2 WHERE id = $3 AND user_id = $4`,
		plan.Title, plan.Description, plan.ID, plan.UserID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "updating plan", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return nil, &models.NotFoundError{Kind: "plan", ID: plan.ID.String()}
	}

	rows, err := tx.Query(ctx,
		`SELECT weekday FROM workout_days WHERE plan_id = $1`, plan.ID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "querying workout days", Err: err}
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			rows.Close()
			return nil, &models.PersistenceError{Op: "scanning workout day", Err: err}
		}
		existing[d] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &models.PersistenceError{Op: "querying workout days", Err: err}
	}

	wanted := make(map[string]bool, len(days))
	for _, d := range days {
		wanted[d] = true
	}

	for d := range existing {
		if !wanted[d] {
			if _, err := tx.Exec(ctx,
				`DELETE FROM workout_days WHERE plan_id = $1 AND weekday = $2`, plan.ID, d); err != nil {
				return nil, &models.PersistenceError{Op: "deleting workout day", Err: err}
			}
		}
	}
	for pos, d := range days {
		if existing[d] {
			if _, err := tx.Exec(ctx,
				`UPDATE workout_days SET position = $1 WHERE plan_id = $2 AND weekday = $3`,
				pos, plan.ID, d); err != nil {
				return nil, &models.PersistenceError{Op: "updating workout day", Err: err}
			}
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO workout_days (id, plan_id, weekday, position) VALUES ($1, $2, $3, $4)`,
			uuid.New(), plan.ID, d, pos); err != nil {
			return nil, &models.PersistenceError{Op: "inserting workout day", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &models.PersistenceError{Op: "updating plan", Err: err}
	}

	updated := *plan
	updated.Days = days
	return &updated, nil
}

// DeletePlan removes a plan; its days and exercises cascade away.
func (db *DB) DeletePlan(ctx context.Context, planID uuid.UUID, userID int) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workout_plans WHERE id = $1 AND user_id = $2`, planID, userID)
	if err != nil {
		return &models.PersistenceError{Op: "deleting plan", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &models.NotFoundError{Kind: "plan", ID: planID.String()}
	}
	return nil
}

// GetPlan retrieves a single plan with its scheduled days in canonical order.
func (db *DB) GetPlan(ctx context.Context, planID uuid.UUID) (*models.WorkoutPlan, error) {
	var p models.WorkoutPlan
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, title, description, created_at
		 FROM workout_plans WHERE id = $1`, planID,
	).Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: "plan", ID: planID.String()}
	}
	if err != nil {
		return nil, &models.PersistenceError{Op: "querying plan", Err: err}
	}

	days, err := db.planDays(ctx, planID)
	if err != nil {
		return nil, err
	}
	p.Days = days
	return &p, nil
}

// GetUserPlans retrieves all plans owned by a user, newest first.
func (db *DB) GetUserPlans(ctx context.Context, userID int) ([]models.WorkoutPlan, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, title, description, created_at
		 FROM workout_plans WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "querying plans", Err: err}
	}
	defer rows.Close()

	var plans []models.WorkoutPlan
	for rows.Next() {
		var p models.WorkoutPlan
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.CreatedAt); err != nil {
			return nil, &models.PersistenceError{Op: "scanning plan", Err: err}
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.PersistenceError{Op: "querying plans", Err: err}
	}

	for i := range plans {
		days, err := db.planDays(ctx, plans[i].ID)
		if err != nil {
			return nil, err
		}
		plans[i].Days = days
	}
	return plans, nil
}

// GetDayID resolves the workout_day id for (plan, weekday). A weekday the
// plan does not schedule returns (nil, nil), not an error.
func (db *DB) GetDayID(ctx context.Context, planID uuid.UUID, weekday string) (*uuid.UUID, error) {
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`SELECT id FROM workout_days WHERE plan_id = $1 AND weekday = $2`,
		planID, weekday,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &models.PersistenceError{Op: "querying day id", Err: err}
	}
	return &id, nil
}

func (db *DB) planDays(ctx context.Context, planID uuid.UUID) ([]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT weekday FROM workout_days WHERE plan_id = $1 ORDER BY position`, planID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "querying plan days", Err: err}
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, &models.PersistenceError{Op: "scanning plan day", Err: err}
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.PersistenceError{Op: "querying plan days", Err: err}
	}
	return days, nil
}
