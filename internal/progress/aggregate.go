// Package progress derives statistics from historical exercise_progress
// rows. Everything here is a pure function over already-fetched slices, so
// results are safe to recompute on every request.
package progress

import (
	"sort"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

// TotalVolume sums weight*reps across all sets of a record.
func TotalVolume(p *models.ExerciseProgress) float64 {
	var total float64
	for i, w := range p.WeightPerSet {
		if i < len(p.RepsPerSet) {
			total += w * float64(p.RepsPerSet[i])
		}
	}
	return total
}

// MaxWeight returns the heaviest single set in a record, or 0 when the
// record has no sets.
func MaxWeight(p *models.ExerciseProgress) float64 {
	var max float64
	for _, w := range p.WeightPerSet {
		if w > max {
			max = w
		}
	}
	return max
}

// MaxVolume returns the largest single-set volume (reps * weight) in a
// record, or 0 when the record has no sets.
func MaxVolume(p *models.ExerciseProgress) float64 {
	return MaxSetVolume(p.RepsPerSet, p.WeightPerSet)
}

// MaxSetVolume is the slice form of MaxVolume, shared with the session
// tracker so the stored max_volume and the derived statistics use the same
// fold.
func MaxSetVolume(reps []int, weights []float64) float64 {
	var max float64
	for i, w := range weights {
		if i >= len(reps) {
			break
		}
		if v := w * float64(reps[i]); v > max {
			max = v
		}
	}
	return max
}

// Point is one chart sample.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// VolumeSeries maps one exercise's history to total-volume-over-time,
// sorted by created_at ascending.
func VolumeSeries(records []models.ExerciseProgress) []Point {
	return series(records, TotalVolume)
}

// MaxWeightSeries maps one exercise's history to best-set-weight-over-time,
// sorted by created_at ascending.
func MaxWeightSeries(records []models.ExerciseProgress) []Point {
	return series(records, MaxWeight)
}

func series(records []models.ExerciseProgress, f func(*models.ExerciseProgress) float64) []Point {
	points := make([]Point, 0, len(records))
	for i := range records {
		points = append(points, Point{
			Timestamp: records[i].CreatedAt,
			Value:     f(&records[i]),
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points
}

// TopByVolume returns the n records with the highest max single-set volume,
// best first. The sort is stable: ties keep the input order.
func TopByVolume(records []models.ExerciseProgress, n int) []models.ExerciseProgress {
	if n <= 0 {
		n = 3
	}
	sorted := make([]models.ExerciseProgress, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return MaxVolume(&sorted[i]) > MaxVolume(&sorted[j])
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Lift is the heaviest single set found across a progress history.
type Lift struct {
	ExerciseName string  `json:"exercise_name"`
	Weight       float64 `json:"weight"`
	Reps         int     `json:"reps"`
}

// HeaviestLift scans all sets of all records for the heaviest single-set
// weight. The comparison is strictly greater-than, so on a tie the first
// set encountered in input order wins and later equal lifts never replace
// it. An empty history returns a zero Lift.
func HeaviestLift(records []models.ExerciseProgress) Lift {
	var best Lift
	for i := range records {
		r := &records[i]
		for s, w := range r.WeightPerSet {
			if w > best.Weight {
				best.Weight = w
				best.ExerciseName = r.Name
				if s < len(r.RepsPerSet) {
					best.Reps = r.RepsPerSet[s]
				} else {
					best.Reps = 0
				}
			}
		}
	}
	return best
}

// ChartWindow computes padded axis bounds for a set of timestamps: one day
// before the earliest point and two days after the latest, so edge points
// are not clipped. Zero timestamps are ignored; an empty input returns
// zero times.
func ChartWindow(timestamps []time.Time) (min, max time.Time) {
	for _, t := range timestamps {
		if t.IsZero() {
			continue
		}
		if min.IsZero() || t.Before(min) {
			min = t
		}
		if max.IsZero() || t.After(max) {
			max = t
		}
	}
	if min.IsZero() {
		return time.Time{}, time.Time{}
	}
	return min.AddDate(0, 0, -1), max.AddDate(0, 0, 2)
}
