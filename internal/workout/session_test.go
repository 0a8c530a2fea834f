package workout

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/gymtrack/internal/ledger"
	"github.com/meltforce/gymtrack/internal/models"
)

// fakeGateway is an in-memory Gateway. failProgressFor makes CreateProgress
// fail for specific exercise ids to exercise partial-failure paths.
type fakeGateway struct {
	plans           map[uuid.UUID]*models.WorkoutPlan
	days            map[uuid.UUID]map[string]uuid.UUID
	exercises       map[uuid.UUID][]models.Exercise
	saved           []models.ExerciseProgressInput
	failProgressFor map[uuid.UUID]error
	workoutCount    int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		plans:           make(map[uuid.UUID]*models.WorkoutPlan),
		days:            make(map[uuid.UUID]map[string]uuid.UUID),
		exercises:       make(map[uuid.UUID][]models.Exercise),
		failProgressFor: make(map[uuid.UUID]error),
	}
}

func (g *fakeGateway) GetPlan(_ context.Context, planID uuid.UUID) (*models.WorkoutPlan, error) {
	p, ok := g.plans[planID]
	if !ok {
		return nil, &models.NotFoundError{Kind: "plan", ID: planID.String()}
	}
	return p, nil
}

func (g *fakeGateway) GetDayID(_ context.Context, planID uuid.UUID, weekday string) (*uuid.UUID, error) {
	id, ok := g.days[planID][weekday]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (g *fakeGateway) GetExercisesForDay(_ context.Context, dayID uuid.UUID) ([]models.Exercise, error) {
	return g.exercises[dayID], nil
}

func (g *fakeGateway) CreateProgress(_ context.Context, in *models.ExerciseProgressInput) (*models.ExerciseProgress, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err, ok := g.failProgressFor[in.ExerciseID]; ok {
		return nil, err
	}
	g.saved = append(g.saved, *in)
	return &models.ExerciseProgress{ID: uuid.New(), CreatedAt: time.Now()}, nil
}

func (g *fakeGateway) GetWorkoutCount(context.Context, int) (int, error) {
	return g.workoutCount, nil
}

func (g *fakeGateway) SetWorkoutCount(_ context.Context, _ int, count int) error {
	g.workoutCount = count
	return nil
}

// monday is a known Monday so tests are independent of the wall clock.
var monday = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

const testUserID = 1

// newFixture builds a tracker over a fake gateway and a real SQLite ledger,
// with one active plan scheduling bench press on Mondays.
func newFixture(t *testing.T) (*Tracker, *fakeGateway, *ledger.Ledger, models.Exercise) {
	t.Helper()

	gw := newFakeGateway()
	led, err := ledger.Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening ledger: %v", err)
	}
	t.Cleanup(func() { led.Close() })

	planID := uuid.New()
	dayID := uuid.New()
	ex := models.Exercise{
		ID:           uuid.New(),
		UserID:       testUserID,
		DayID:        dayID,
		Name:         "Bench Press",
		TargetSets:   3,
		TargetReps:   10,
		TargetWeight: 135,
	}
	gw.plans[planID] = &models.WorkoutPlan{
		ID: planID, UserID: testUserID, Title: "Push Pull Legs", Days: []string{"Monday"},
	}
	gw.days[planID] = map[string]uuid.UUID{"Monday": dayID}
	gw.exercises[dayID] = []models.Exercise{ex}

	if err := led.SetActivePlan(planID); err != nil {
		t.Fatal(err)
	}

	tr := NewTracker(gw, led, slog.New(slog.NewTextHandler(io.Discard, nil)))
	tr.now = func() time.Time { return monday }
	return tr, gw, led, ex
}

// TestLoadTodayWithRoutine verifies Idle -> Loaded with today's exercises
// when the active plan schedules the current weekday.
func TestLoadTodayWithRoutine(t *testing.T) {
	tr, _, _, ex := newFixture(t)

	if err := tr.LoadToday(context.Background(), testUserID); err != nil {
		t.Fatalf("LoadToday: %v", err)
	}

	snap := tr.Snapshot()
	if snap.State != StateLoaded {
		t.Errorf("state = %q, want loaded", snap.State)
	}
	if len(snap.Exercises) != 1 || snap.Exercises[0].ID != ex.ID {
		t.Errorf("exercises = %v, want the Monday bench press", snap.Exercises)
	}
	if snap.Weekday != "Monday" {
		t.Errorf("weekday = %q, want Monday", snap.Weekday)
	}
}

// TestLoadTodayNoActivePlan verifies "no workout today" is a Loaded state
// with an empty list, not an error.
func TestLoadTodayNoActivePlan(t *testing.T) {
	tr, _, led, _ := newFixture(t)
	if err := led.ClearActivePlan(); err != nil {
		t.Fatal(err)
	}

	if err := tr.LoadToday(context.Background(), testUserID); err != nil {
		t.Fatalf("LoadToday: %v", err)
	}
	snap := tr.Snapshot()
	if snap.State != StateLoaded {
		t.Errorf("state = %q, want loaded", snap.State)
	}
	if len(snap.Exercises) != 0 {
		t.Errorf("exercises = %v, want empty", snap.Exercises)
	}
}

// TestLoadTodayUnscheduledDay verifies a rest day loads empty instead of
// erroring: the plan exists but schedules no routine for today.
func TestLoadTodayUnscheduledDay(t *testing.T) {
	tr, _, _, _ := newFixture(t)
	tuesday := monday.AddDate(0, 0, 1)
	tr.now = func() time.Time { return tuesday }

	if err := tr.LoadToday(context.Background(), testUserID); err != nil {
		t.Fatalf("LoadToday: %v", err)
	}
	snap := tr.Snapshot()
	if snap.State != StateLoaded || len(snap.Exercises) != 0 {
		t.Errorf("state = %q with %d exercises, want loaded and empty",
			snap.State, len(snap.Exercises))
	}
}

// TestLoadTodayDeletedPlan verifies the tracker tolerates the active plan
// being deleted underneath it: no error, empty day.
func TestLoadTodayDeletedPlan(t *testing.T) {
	tr, gw, _, _ := newFixture(t)
	for id := range gw.plans {
		delete(gw.plans, id)
	}

	if err := tr.LoadToday(context.Background(), testUserID); err != nil {
		t.Fatalf("LoadToday: %v", err)
	}
	if snap := tr.Snapshot(); snap.State != StateLoaded || snap.Plan != nil {
		t.Errorf("snapshot = %+v, want loaded with nil plan", snap)
	}
}

// TestStartInitializesDrafts verifies a fresh draft per exercise, zero
// valued and sized to target sets.
func TestStartInitializesDrafts(t *testing.T) {
	tr, _, _, ex := newFixture(t)
	ctx := context.Background()

	if err := tr.LoadToday(ctx, testUserID); err != nil {
		t.Fatal(err)
	}
	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := tr.Snapshot()
	if snap.State != StateInProgress {
		t.Fatalf("state = %q, want in_progress", snap.State)
	}
	d := snap.Drafts[ex.ID]
	if d == nil {
		t.Fatal("no draft for exercise")
	}
	if d.SetsPerformed != 3 || len(d.RepsPerSet) != 3 || len(d.WeightPerSet) != 3 || len(d.NotesPerSet) != 3 {
		t.Errorf("draft shape = %+v, want 3 aligned sets", d)
	}
	for i := 0; i < 3; i++ {
		if d.RepsPerSet[i] != 0 || d.WeightPerSet[i] != 0 || d.NotesPerSet[i] != "" {
			t.Errorf("set %d not zero-initialized: %+v", i, d)
		}
	}
}

// TestStartIdempotent verifies re-entering Start preserves already-entered
// draft values instead of resetting them.
func TestStartIdempotent(t *testing.T) {
	tr, _, _, ex := newFixture(t)
	ctx := context.Background()

	if err := tr.LoadToday(ctx, testUserID); err != nil {
		t.Fatal(err)
	}
	if err := tr.Start(); err != nil {
		t.Fatal(err)
	}
	if err := tr.SubmitCurrent([]SetEntry{{Reps: 10, Weight: 135}, {Reps: 9, Weight: 135}, {Reps: 8, Weight: 140}}); err != nil {
		t.Fatal(err)
	}

	if err := tr.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	d := tr.Snapshot().Drafts[ex.ID]
	if d.RepsPerSet[0] != 10 || d.WeightPerSet[2] != 140 {
		t.Errorf("draft reset by second Start: %+v", d)
	}
}

// TestStartWithEmptyRoutine verifies Start is a logged no-op when there is
// nothing to do today: no state change, no error.
func TestStartWithEmptyRoutine(t *testing.T) {
	tr, _, led, _ := newFixture(t)
	if err := led.ClearActivePlan(); err != nil {
		t.Fatal(err)
	}
	if err := tr.LoadToday(context.Background(), testUserID); err != nil {
		t.Fatal(err)
	}

	if err := tr.Start(); err != nil {
		t.Fatalf("Start on empty routine: %v", err)
	}
	if snap := tr.Snapshot(); snap.State != StateLoaded {
		t.Errorf("state = %q, want loaded (no-op)", snap.State)
	}
}

// TestWrongStateCalls verifies operations invoked in the wrong state return
// StateError and leave the tracker unchanged.
func TestWrongStateCalls(t *testing.T) {
	tr, _, _, _ := newFixture(t)
	ctx := context.Background()

	if err := tr.Advance(ctx); !models.IsStateError(err) {
		t.Errorf("Advance while idle: err = %v, want StateError", err)
	}
	if err := tr.Finish(ctx); !models.IsStateError(err) {
		t.Errorf("Finish while idle: err = %v, want StateError", err)
	}
	if err := tr.SubmitCurrent(nil); !models.IsStateError(err) {
		t.Errorf("Submit while idle: err = %v, want StateError", err)
	}
	if err := tr.Cancel(); !models.IsStateError(err) {
		t.Errorf("Cancel while idle: err = %v, want StateError", err)
	}
	if snap := tr.Snapshot(); snap.State != StateIdle {
		t.Errorf("state corrupted to %q by rejected calls", snap.State)
	}
}

// TestFullSession is the end-to-end scenario: load Monday's single-exercise
// routine, start, submit real numbers, finish. One progress row with the
// right max volume is persisted and the ledger marks today completed.
func TestFullSession(t *testing.T) {
	tr, gw, led, ex := newFixture(t)
	ctx := context.Background()

	if err := tr.LoadToday(ctx, testUserID); err != nil {
		t.Fatal(err)
	}
	if got := len(tr.Snapshot().Exercises); got != 1 {
		t.Fatalf("exercise list length = %d, want 1", got)
	}
	if err := tr.Start(); err != nil {
		t.Fatal(err)
	}
	if err := tr.SubmitCurrent([]SetEntry{
		{Reps: 10, Weight: 135},
		{Reps: 9, Weight: 135},
		{Reps: 8, Weight: 140},
	}); err != nil {
		t.Fatal(err)
	}
	// Advancing past the last exercise finishes the session.
	if err := tr.Advance(ctx); err != nil {
		t.Fatalf("final Advance: %v", err)
	}

	if len(gw.saved) != 1 {
		t.Fatalf("saved rows = %d, want 1", len(gw.saved))
	}
	row := gw.saved[0]
	if row.ExerciseID != ex.ID || row.Name != "Bench Press" {
		t.Errorf("row identity = %+v", row)
	}
	if row.SetsPerformed != 3 || len(row.RepsPerSet) != 3 || len(row.WeightPerSet) != 3 {
		t.Errorf("row not index-aligned: %+v", row)
	}
	// max(10*135, 9*135, 8*140) = 1350
	if row.MaxVolume != 1350 {
		t.Errorf("max volume = %v, want 1350", row.MaxVolume)
	}
	if row.SkipReason != "" {
		t.Errorf("skip reason = %q, want empty", row.SkipReason)
	}

	done, err := led.IsCompleted(row.WorkoutID, monday)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("ledger does not mark today completed")
	}
	if gw.workoutCount != 1 {
		t.Errorf("workout count = %d, want 1", gw.workoutCount)
	}
	if snap := tr.Snapshot(); snap.State != StateIdle {
		t.Errorf("state after finish = %q, want idle", snap.State)
	}
}

// TestSkipRequiresReason verifies an empty or whitespace reason is rejected
// before any row is written or the ledger touched.
func TestSkipRequiresReason(t *testing.T) {
	tr, gw, led, _ := newFixture(t)
	ctx := context.Background()

	if err := tr.LoadToday(ctx, testUserID); err != nil {
		t.Fatal(err)
	}
	if err := tr.Start(); err != nil {
		t.Fatal(err)
	}

	for _, reason := range []string{"", "   ", "\t\n"} {
		if err := tr.Skip(ctx, reason); !models.IsValidation(err) {
			t.Errorf("Skip(%q): err = %v, want ValidationError", reason, err)
		}
	}
	if len(gw.saved) != 0 {
		t.Errorf("progress rows written on rejected skip: %d", len(gw.saved))
	}
	snap := tr.Snapshot()
	rec, _ := led.IsSkipped(snap.Plan.ID, monday)
	if rec.Skipped {
		t.Error("ledger marked skipped on rejected skip")
	}
	if snap.State != StateInProgress {
		t.Errorf("state = %q, want in_progress preserved", snap.State)
	}
}

// TestSkipWritesZeroRows verifies a skip persists zero-valued rows carrying
// the reason and records the skip (not a completion) in the ledger.
func TestSkipWritesZeroRows(t *testing.T) {
	tr, gw, led, ex := newFixture(t)
	ctx := context.Background()

	if err := tr.LoadToday(ctx, testUserID); err != nil {
		t.Fatal(err)
	}
	planID := tr.Snapshot().Plan.ID
	if err := tr.Skip(ctx, "  travelling for work "); err != nil {
		t.Fatalf("Skip: %v", err)
	}

	if len(gw.saved) != 1 {
		t.Fatalf("saved rows = %d, want 1", len(gw.saved))
	}
	row := gw.saved[0]
	if row.SkipReason != "travelling for work" {
		t.Errorf("skip reason = %q, want trimmed reason", row.SkipReason)
	}
	if row.SetsPerformed != ex.TargetSets || row.MaxVolume != 0 {
		t.Errorf("skip row = %+v, want zero-valued with target shape", row)
	}

	rec, err := led.IsSkipped(planID, monday)
	if err != nil {
		t.Fatal(err)
	}
	if !rec.Skipped || rec.Reason != "travelling for work" {
		t.Errorf("ledger skip record = %+v", rec)
	}
	done, _ := led.IsCompleted(planID, monday)
	if done {
		t.Error("skip must not mark completed")
	}
	if gw.workoutCount != 0 {
		t.Errorf("workout count bumped on skip: %d", gw.workoutCount)
	}
}

// TestCancelDiscardsEverything verifies cancel persists nothing, updates no
// ledger state, and returns to Idle.
func TestCancelDiscardsEverything(t *testing.T) {
	tr, gw, led, _ := newFixture(t)
	ctx := context.Background()

	if err := tr.LoadToday(ctx, testUserID); err != nil {
		t.Fatal(err)
	}
	planID := tr.Snapshot().Plan.ID
	if err := tr.Start(); err != nil {
		t.Fatal(err)
	}
	if err := tr.SubmitCurrent([]SetEntry{{Reps: 10, Weight: 135}}); err != nil {
		t.Fatal(err)
	}

	if err := tr.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(gw.saved) != 0 {
		t.Errorf("cancel persisted %d rows", len(gw.saved))
	}
	done, _ := led.IsCompleted(planID, monday)
	if done {
		t.Error("cancel marked completed")
	}
	if snap := tr.Snapshot(); snap.State != StateIdle {
		t.Errorf("state = %q, want idle", snap.State)
	}
}

// TestPartialFailureIsolation verifies fire-and-collect persistence: when
// one of two exercises fails to save, the other's row still exists, the
// ledger still marks today completed, and the error surfaces to the caller.
func TestPartialFailureIsolation(t *testing.T) {
	tr, gw, led, _ := newFixture(t)
	ctx := context.Background()

	// Add a second exercise and make the first one's write fail.
	var dayID uuid.UUID
	for _, days := range gw.days {
		dayID = days["Monday"]
	}
	failing := gw.exercises[dayID][0]
	second := models.Exercise{
		ID: uuid.New(), UserID: testUserID, DayID: dayID,
		Name: "Overhead Press", TargetSets: 2, TargetReps: 8, TargetWeight: 85,
	}
	gw.exercises[dayID] = append(gw.exercises[dayID], second)
	gw.failProgressFor[failing.ID] = &models.PersistenceError{Op: "inserting progress", Err: context.DeadlineExceeded}

	if err := tr.LoadToday(ctx, testUserID); err != nil {
		t.Fatal(err)
	}
	planID := tr.Snapshot().Plan.ID
	if err := tr.Start(); err != nil {
		t.Fatal(err)
	}
	if err := tr.SubmitCurrent([]SetEntry{{Reps: 10, Weight: 135}}); err != nil {
		t.Fatal(err)
	}
	if err := tr.Advance(ctx); err != nil {
		t.Fatal(err)
	}
	if err := tr.SubmitCurrent([]SetEntry{{Reps: 8, Weight: 85}, {Reps: 7, Weight: 85}}); err != nil {
		t.Fatal(err)
	}

	err := tr.Finish(ctx)
	if err == nil {
		t.Fatal("Finish returned nil despite a failed write")
	}

	if len(gw.saved) != 1 || gw.saved[0].ExerciseID != second.ID {
		t.Errorf("saved rows = %+v, want only the second exercise", gw.saved)
	}
	done, _ := led.IsCompleted(planID, monday)
	if !done {
		t.Error("ledger not marked completed despite partial success")
	}
}

// TestAdvanceNeverOverruns verifies the index stays in bounds: with two
// exercises, the second Advance finishes instead of incrementing.
func TestAdvanceNeverOverruns(t *testing.T) {
	tr, gw, _, _ := newFixture(t)
	ctx := context.Background()

	var dayID uuid.UUID
	for _, days := range gw.days {
		dayID = days["Monday"]
	}
	gw.exercises[dayID] = append(gw.exercises[dayID], models.Exercise{
		ID: uuid.New(), UserID: testUserID, DayID: dayID,
		Name: "Row", TargetSets: 2, TargetReps: 10, TargetWeight: 60,
	})

	if err := tr.LoadToday(ctx, testUserID); err != nil {
		t.Fatal(err)
	}
	if err := tr.Start(); err != nil {
		t.Fatal(err)
	}

	if err := tr.Advance(ctx); err != nil {
		t.Fatal(err)
	}
	if idx := tr.Snapshot().CurrentIndex; idx != 1 {
		t.Fatalf("index = %d, want 1", idx)
	}

	if err := tr.Advance(ctx); err != nil {
		t.Fatal(err)
	}
	if snap := tr.Snapshot(); snap.State != StateIdle {
		t.Errorf("state = %q, want idle after advancing past the end", snap.State)
	}
	if len(gw.saved) != 2 {
		t.Errorf("saved rows = %d, want 2", len(gw.saved))
	}
}

// TestSnapshotIsolatedFromLaterSubmits verifies a snapshot keeps the values
// it was taken with: later submits must not show through its drafts or
// exercise list, and serializing one snapshot while submits keep landing
// is safe.
func TestSnapshotIsolatedFromLaterSubmits(t *testing.T) {
	tr, _, _, ex := newFixture(t)
	ctx := context.Background()

	if err := tr.LoadToday(ctx, testUserID); err != nil {
		t.Fatal(err)
	}
	if err := tr.Start(); err != nil {
		t.Fatal(err)
	}
	if err := tr.SubmitCurrent([]SetEntry{{Reps: 10, Weight: 135}}); err != nil {
		t.Fatal(err)
	}

	snap := tr.Snapshot()
	if err := tr.SubmitCurrent([]SetEntry{{Reps: 5, Weight: 225}}); err != nil {
		t.Fatal(err)
	}

	d := snap.Drafts[ex.ID]
	if d.RepsPerSet[0] != 10 || d.WeightPerSet[0] != 135 {
		t.Errorf("snapshot draft changed by a later submit: %+v", d)
	}

	// Mutating the snapshot must not write back into the tracker either.
	snap.Exercises[0].Name = "changed"
	if got := tr.Snapshot().Exercises[0].Name; got != "Bench Press" {
		t.Errorf("tracker exercise mutated through a snapshot: %q", got)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if err := tr.SubmitCurrent([]SetEntry{{Reps: i, Weight: float64(i)}}); err != nil {
				t.Errorf("SubmitCurrent: %v", err)
				return
			}
		}
	}()
	for i := 0; i < 100; i++ {
		if _, err := json.Marshal(tr.Snapshot().Drafts); err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	wg.Wait()
}

// TestSnapshotExercisesNeverNil verifies an idle snapshot serializes an
// empty exercise list, not null, matching the HTTP layer's list responses.
func TestSnapshotExercisesNeverNil(t *testing.T) {
	tr, _, _, _ := newFixture(t)

	snap := tr.Snapshot()
	if snap.Exercises == nil {
		t.Fatal("idle snapshot has a nil exercise list")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if string(decoded["exercises"]) != "[]" {
		t.Errorf("exercises serialized as %s, want []", decoded["exercises"])
	}
}

// TestLoadBlockedDuringSession verifies a reload cannot clobber an
// in-progress session.
func TestLoadBlockedDuringSession(t *testing.T) {
	tr, _, _, _ := newFixture(t)
	ctx := context.Background()

	if err := tr.LoadToday(ctx, testUserID); err != nil {
		t.Fatal(err)
	}
	if err := tr.Start(); err != nil {
		t.Fatal(err)
	}
	if err := tr.LoadToday(ctx, testUserID); !models.IsStateError(err) {
		t.Errorf("LoadToday during session: err = %v, want StateError", err)
	}
}
