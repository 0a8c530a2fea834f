package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/progress"
)

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolListPlans = mcp.NewTool("list_plans",
	mcp.WithDescription("List the user's training plans with their scheduled weekdays."),
)

var toolGetTodaysRoutine = mcp.NewTool("get_todays_routine",
	mcp.WithDescription("Get the exercises scheduled on the active plan for a given date, plus whether that date's workout was already completed or skipped. With no active plan or no routine on that weekday the exercise list is empty."),
	mcp.WithString("date", mcp.Description("Date to resolve (ISO 8601 or YYYY-MM-DD). Defaults to today.")),
)

var toolGetExerciseProgress = mcp.NewTool("get_exercise_progress",
	mcp.WithDescription("Get the logged history for one exercise: per-session sets, reps, weights, notes and best-set volume, oldest first."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise UUID")),
)

var toolGetTrainingStats = mcp.NewTool("get_training_stats",
	mcp.WithDescription("Get lifetime training stats: total completed workouts, the top sessions ranked by best single-set volume, and the heaviest lift on record."),
	mcp.WithNumber("top", mcp.Description("How many top sessions to return. Defaults to 3.")),
)

// --- Tool handlers ---

func (h *handlers) listPlans(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	plans, err := h.db.GetUserPlans(ctx, uid)
	if err != nil {
		h.log.Error("mcp list_plans", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if plans == nil {
		plans = []models.WorkoutPlan{}
	}

	result, err := mcp.NewToolResultJSON(plans)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTodaysRoutine(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day := time.Now()
	if dateStr := req.GetString("date", ""); dateStr != "" {
		parsed, err := parseFlexTime(dateStr)
		if err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
		day = parsed
	}
	weekday := models.WeekdayOf(day)

	empty := map[string]any{
		"date":      models.DateKey(day),
		"weekday":   weekday,
		"plan":      nil,
		"exercises": []models.Exercise{},
	}

	planID, err := h.led.ActivePlan()
	if err != nil {
		h.log.Error("mcp get_todays_routine active plan", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if planID == nil {
		result, err := mcp.NewToolResultJSON(empty)
		if err != nil {
			return mcp.NewToolResultError("serialization failed"), nil
		}
		return result, nil
	}

	plan, err := h.db.GetPlan(ctx, *planID)
	if models.IsNotFound(err) {
		result, jerr := mcp.NewToolResultJSON(empty)
		if jerr != nil {
			return mcp.NewToolResultError("serialization failed"), nil
		}
		return result, nil
	}
	if err != nil {
		h.log.Error("mcp get_todays_routine plan", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	exercises := []models.Exercise{}
	dayID, err := h.db.GetDayID(ctx, plan.ID, weekday)
	if err != nil {
		h.log.Error("mcp get_todays_routine day", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if dayID != nil {
		exercises, err = h.db.GetExercisesForDay(ctx, *dayID)
		if err != nil {
			h.log.Error("mcp get_todays_routine exercises", "error", err)
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		if exercises == nil {
			exercises = []models.Exercise{}
		}
	}

	completed, err := h.led.IsCompleted(plan.ID, day)
	if err != nil {
		h.log.Warn("mcp get_todays_routine completion", "error", err)
	}
	skipped, err := h.led.IsSkipped(plan.ID, day)
	if err != nil {
		h.log.Warn("mcp get_todays_routine skip", "error", err)
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"date":      models.DateKey(day),
		"weekday":   weekday,
		"plan":      plan,
		"exercises": exercises,
		"completed": completed,
		"skipped":   skipped,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExerciseProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	exerciseID, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid exercise_id: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	records, err := h.db.GetProgressForExercise(ctx, uid, exerciseID)
	if err != nil {
		h.log.Error("mcp get_exercise_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if records == nil {
		records = []models.ExerciseProgress{}
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"records":    records,
		"volume":     progress.VolumeSeries(records),
		"max_weight": progress.MaxWeightSeries(records),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	n := req.GetInt("top", 3)

	records, err := h.db.GetProgressForUser(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_training_stats progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	count, err := h.db.GetWorkoutCount(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_training_stats count", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	top := progress.TopByVolume(records, n)
	if top == nil {
		top = []models.ExerciseProgress{}
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"total_workouts": count,
		"top_sessions":   top,
		"heaviest_lift":  progress.HeaviestLift(records),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
