// Package workout drives a live workout session: it turns the active plan
// and today's weekday into an exercise list, walks the user through logging
// sets, and persists the results. One Tracker exists per process; it owns
// the only active session.
package workout

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/gymtrack/internal/ledger"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/progress"
)

// State is the tracker's position in the session lifecycle. Terminal
// transitions (finish, skip, cancel) return the tracker to StateIdle.
type State string

const (
	StateIdle       State = "idle"
	StateLoaded     State = "loaded"
	StateInProgress State = "in_progress"
)

// Gateway is the slice of the persistence layer the tracker depends on.
type Gateway interface {
	GetPlan(ctx context.Context, planID uuid.UUID) (*models.WorkoutPlan, error)
	GetDayID(ctx context.Context, planID uuid.UUID, weekday string) (*uuid.UUID, error)
	GetExercisesForDay(ctx context.Context, dayID uuid.UUID) ([]models.Exercise, error)
	CreateProgress(ctx context.Context, in *models.ExerciseProgressInput) (*models.ExerciseProgress, error)
	GetWorkoutCount(ctx context.Context, userID int) (int, error)
	SetWorkoutCount(ctx context.Context, userID, count int) error
}

// CompletionLedger is the local durable completion record the tracker
// reconciles against.
type CompletionLedger interface {
	ActivePlan() (*uuid.UUID, error)
	IsCompleted(planID uuid.UUID, day time.Time) (bool, error)
	IsSkipped(planID uuid.UUID, day time.Time) (ledger.SkipRecord, error)
	MarkCompleted(planID uuid.UUID, day time.Time) error
	MarkSkipped(planID uuid.UUID, day time.Time, reason string) error
}

// SetEntry is one set's user-entered values.
type SetEntry struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
	Notes  string  `json:"notes"`
}

// Draft accumulates per-exercise progress during a session. It is sized at
// start time to the exercise's target sets and not resized afterwards.
type Draft struct {
	SetsPerformed int       `json:"sets_performed"`
	RepsPerSet    []int     `json:"reps_per_set"`
	WeightPerSet  []float64 `json:"weight_per_set"`
	NotesPerSet   []string  `json:"notes_per_set"`
}

// Tracker is the session state machine. All methods are safe for use from
// concurrent HTTP handlers; internally one transition runs at a time.
type Tracker struct {
	gw  Gateway
	led CompletionLedger
	log *slog.Logger
	now func() time.Time

	mu        sync.Mutex
	state     State
	userID    int
	plan      *models.WorkoutPlan
	weekday   string
	date      time.Time
	dayID     uuid.UUID
	exercises []models.Exercise
	index     int
	drafts    map[uuid.UUID]*Draft
}

// NewTracker creates an idle tracker.
func NewTracker(gw Gateway, led CompletionLedger, log *slog.Logger) *Tracker {
	return &Tracker{
		gw:    gw,
		led:   led,
		log:   log,
		now:   time.Now,
		state: StateIdle,
	}
}

// LoadToday resolves the active plan and the current weekday, then fetches
// the day's routine. With no active plan, or no routine scheduled for today,
// the tracker still reaches StateLoaded with an empty exercise list — that
// is "no workout today", distinct from a fetch error.
func (t *Tracker) LoadToday(ctx context.Context, userID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateInProgress {
		return &models.StateError{Op: "load", State: string(t.state)}
	}

	now := t.now()
	t.reset()
	t.userID = userID
	t.weekday = models.WeekdayOf(now)
	t.date = now
	t.state = StateLoaded

	planID, err := t.led.ActivePlan()
	if err != nil {
		t.state = StateIdle
		return &models.PersistenceError{Op: "reading active plan", Err: err}
	}
	if planID == nil {
		t.log.Info("no active plan set")
		return nil
	}

	plan, err := t.gw.GetPlan(ctx, *planID)
	if models.IsNotFound(err) {
		// The plan was deleted underneath us; treat as no workout today.
		t.log.Warn("active plan no longer exists", "plan_id", *planID)
		return nil
	}
	if err != nil {
		t.state = StateIdle
		return err
	}
	t.plan = plan

	dayID, err := t.gw.GetDayID(ctx, plan.ID, t.weekday)
	if err != nil {
		t.state = StateIdle
		t.plan = nil
		return err
	}
	if dayID == nil {
		t.log.Info("no routine scheduled", "weekday", t.weekday)
		return nil
	}
	t.dayID = *dayID

	exercises, err := t.gw.GetExercisesForDay(ctx, t.dayID)
	if err != nil {
		t.state = StateIdle
		t.plan = nil
		return err
	}
	t.exercises = exercises
	return nil
}

// Start begins logging. Requires a loaded, non-empty exercise list; with an
// empty list it logs and stays put so the caller can show the empty state.
// Re-entering an in-progress session is idempotent: drafts already holding
// user input are preserved, only missing ones are initialized.
func (t *Tracker) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateLoaded && t.state != StateInProgress {
		return &models.StateError{Op: "start", State: string(t.state)}
	}
	if len(t.exercises) == 0 {
		t.log.Warn("start requested with no exercises for today")
		return nil
	}

	if t.state == StateLoaded {
		t.index = 0
	}
	t.state = StateInProgress
	t.initDrafts()
	return nil
}

// initDrafts creates a zero-valued draft for every exercise that does not
// already have one, sized to the exercise's target sets.
func (t *Tracker) initDrafts() {
	if t.drafts == nil {
		t.drafts = make(map[uuid.UUID]*Draft, len(t.exercises))
	}
	for _, ex := range t.exercises {
		if _, ok := t.drafts[ex.ID]; ok {
			continue
		}
		d := &Draft{
			SetsPerformed: ex.TargetSets,
			RepsPerSet:    make([]int, ex.TargetSets),
			WeightPerSet:  make([]float64, ex.TargetSets),
			NotesPerSet:   make([]string, ex.TargetSets),
		}
		t.drafts[ex.ID] = d
	}
}

// SubmitCurrent captures the user-entered sets for the current exercise,
// overwriting the draft's initialized zeros. Entries beyond the draft's
// fixed size are ignored.
func (t *Tracker) SubmitCurrent(entries []SetEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateInProgress {
		return &models.StateError{Op: "submit", State: string(t.state)}
	}

	ex := t.exercises[t.index]
	d := t.drafts[ex.ID]
	for i, e := range entries {
		if i >= d.SetsPerformed {
			break
		}
		d.RepsPerSet[i] = e.Reps
		d.WeightPerSet[i] = e.Weight
		d.NotesPerSet[i] = e.Notes
	}
	return nil
}

// Advance moves to the next exercise. On the last exercise it finishes the
// workout instead, so the index never leaves the list's bounds.
func (t *Tracker) Advance(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateInProgress {
		return &models.StateError{Op: "advance", State: string(t.state)}
	}
	if t.index < len(t.exercises)-1 {
		t.index++
		return nil
	}
	return t.finishLocked(ctx, "")
}

// Finish persists every drafted exercise and marks today completed.
func (t *Tracker) Finish(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateInProgress {
		return &models.StateError{Op: "finish", State: string(t.state)}
	}
	return t.finishLocked(ctx, "")
}

// Skip records today as skipped with a reason. Zero-valued progress rows
// carrying the reason are written so the skip shows up in history. Allowed
// from Loaded as well as InProgress — skipping does not require starting.
func (t *Tracker) Skip(ctx context.Context, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateLoaded && t.state != StateInProgress {
		return &models.StateError{Op: "skip", State: string(t.state)}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return &models.ValidationError{Field: "reason", Msg: "is required"}
	}
	if t.plan == nil || len(t.exercises) == 0 {
		return &models.StateError{Op: "skip", State: "no workout today"}
	}

	t.initDrafts()
	return t.finishLocked(ctx, reason)
}

// Cancel discards all draft state without persisting anything and returns
// to Idle. It never waits on the gateway: no writes have been issued before
// Finish or Skip.
func (t *Tracker) Cancel() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateIdle {
		return &models.StateError{Op: "cancel", State: string(t.state)}
	}
	t.reset()
	return nil
}

// finishLocked is the shared persistence path for Finish, Skip and the
// final Advance. Writes are fire-and-collect: one exercise's failure does
// not block the others, nothing is rolled back, and the ledger is updated
// once every write has been issued. Collected failures are returned joined.
func (t *Tracker) finishLocked(ctx context.Context, skipReason string) error {
	var errs []error
	for _, ex := range t.exercises {
		d, ok := t.drafts[ex.ID]
		if !ok {
			continue
		}
		in := &models.ExerciseProgressInput{
			UserID:        t.userID,
			ExerciseID:    ex.ID,
			WorkoutID:     t.plan.ID,
			DayID:         ex.DayID,
			Name:          ex.Name,
			SetsPerformed: d.SetsPerformed,
			RepsPerSet:    d.RepsPerSet,
			WeightPerSet:  d.WeightPerSet,
			NotesPerSet:   d.NotesPerSet,
			MaxVolume:     progress.MaxSetVolume(d.RepsPerSet, d.WeightPerSet),
			SkipReason:    skipReason,
		}
		if _, err := t.gw.CreateProgress(ctx, in); err != nil {
			t.log.Error("saving progress failed", "exercise", ex.Name, "error", err)
			errs = append(errs, err)
		}
	}

	if skipReason != "" {
		if err := t.led.MarkSkipped(t.plan.ID, t.date, skipReason); err != nil {
			errs = append(errs, err)
		}
	} else {
		if err := t.led.MarkCompleted(t.plan.ID, t.date); err != nil {
			errs = append(errs, err)
		}
		t.bumpWorkoutCount(ctx)
	}

	t.reset()
	return errors.Join(errs...)
}

// bumpWorkoutCount increments the remote lifetime counter. Counter failures
// never fail the workout; the ledger already holds the durable record.
func (t *Tracker) bumpWorkoutCount(ctx context.Context) {
	count, err := t.gw.GetWorkoutCount(ctx, t.userID)
	if err != nil {
		t.log.Warn("reading workout count failed", "error", err)
		return
	}
	if err := t.gw.SetWorkoutCount(ctx, t.userID, count+1); err != nil {
		t.log.Warn("updating workout count failed", "error", err)
	}
}

func (t *Tracker) reset() {
	t.state = StateIdle
	t.plan = nil
	t.weekday = ""
	t.date = time.Time{}
	t.dayID = uuid.Nil
	t.exercises = nil
	t.index = 0
	t.drafts = nil
}
